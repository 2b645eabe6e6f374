package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one socket watching one chat.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	chatId uuid.UUID

	// Buffered channel of outbound turns.
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, chatId uuid.UUID) *Client {
	return &Client{hub: hub, conn: conn, chatId: chatId, send: make(chan []byte, sendBuffer)}
}

// ServeWs registers the socket and blocks until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, chatId uuid.UUID) {
	client := newClient(hub, conn, chatId)
	hub.register(client)

	go client.writePump()
	client.readPump()
}

// readPump only watches for the peer closing. Watchers never send anything.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn(hubModule, "Watcher closed unexpectedly", map[string]interface{}{
					"chat_id": c.chatId,
					"error":   err.Error(),
				})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so every frame is a complete JSON document.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
