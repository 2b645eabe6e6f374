package websocket

import (
	"context"
	"sync"

	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule = "TurnFeed"

	// clusterChannel carries recorded turns between instances.
	clusterChannel = "chat_turns"
)

// Hub fans TURN_RECORDED events out to the sockets watching a chat.
type Hub struct {
	// Registered clients: ChatId -> watchers
	clients map[uuid.UUID]map[*Client]struct{}
	mu      sync.RWMutex

	// Redis connection for cross-instance delivery, nil on a single instance
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		rdb:     rdb,
		logger:  log,
	}
}

// Start subscribes to turns recorded on other instances. Without redis it does nothing.
func (h *Hub) Start(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	go h.subscribeToRedis(ctx, pubsub)
	return nil
}

// Publish hands a turn to the watchers of its chat. Other event types are ignored.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	if event.EventType() != events.TypeTurnRecorded {
		return nil
	}

	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	// Every instance, this one included, delivers from the redis channel.
	if h.rdb != nil {
		return h.rdb.Publish(ctx, clusterChannel, data).Err()
	}

	h.deliver(event, data)
	return nil
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	watchers, ok := h.clients[client.chatId]
	if !ok {
		watchers = make(map[*Client]struct{})
		h.clients[client.chatId] = watchers
	}
	watchers[client] = struct{}{}
	count := len(watchers)
	h.mu.Unlock()

	h.logger.Debug(hubModule, "Watcher registered", map[string]interface{}{"chat_id": client.chatId, "watchers": count})
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	watchers, ok := h.clients[client.chatId]
	if !ok {
		return
	}
	if _, ok := watchers[client]; !ok {
		return
	}

	delete(watchers, client)
	close(client.send)
	if len(watchers) == 0 {
		delete(h.clients, client.chatId)
	}
}

func (h *Hub) deliver(event events.Event, data []byte) {
	chatId, ok := chatIdOf(event)
	if !ok {
		h.logger.Warn(hubModule, "Turn event without chat id", map[string]interface{}{"type": event.EventType()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[chatId] {
		select {
		case client.send <- data:
		default:
			// A slow watcher misses the turn, it can reload the history.
			h.logger.Warn(hubModule, "Watcher buffer full, dropping turn", map[string]interface{}{"chat_id": chatId})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			event, err := events.Decode([]byte(msg.Payload))
			if err != nil {
				h.logger.Warn(hubModule, "Invalid turn on redis channel", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.deliver(event, []byte(msg.Payload))
		}
	}
}

func chatIdOf(event events.Event) (uuid.UUID, bool) {
	raw, ok := event.Payload()["chat_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	chatId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return chatId, true
}
