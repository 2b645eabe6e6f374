package service

import (
	"context"
	"errors"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const consumerModule = "ConsumerService"

// EventRelay forwards events off the process, e.g. to NATS.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type relayChain []EventRelay

// ChainRelays forwards every event to each non-nil relay. It returns nil when none is left.
func ChainRelays(relays ...EventRelay) EventRelay {
	var chain relayChain
	for _, r := range relays {
		if r != nil {
			chain = append(chain, r)
		}
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

func (c relayChain) Publish(ctx context.Context, event events.Event) error {
	var errs []error
	for _, r := range c {
		if err := r.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type IConsumerService interface {
	// Consume subscribes to the chat topic and processes events until ctx is done.
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	relay      EventRelay // nil when no external bus is configured
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	relay EventRelay,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		relay:      relay,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. The audit trail is best effort and a redelivered
// message would fail the same way again.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if event.Type == events.TypeProviderCallCompleted {
		cs.recordProviderCall(ctx, event)
	}

	if cs.relay != nil {
		if err := cs.relay.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to relay event", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}
}

func (cs *consumerService) recordProviderCall(ctx context.Context, event events.BaseEvent) {
	var payload dto.ProviderCallEvent
	if err := decodeEventData(event, &payload); err != nil {
		cs.logger.Error(consumerModule, "Invalid provider call event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	call := &entity.ProviderCall{
		Id:           payload.CallId,
		ChatId:       payload.ChatId,
		Model:        payload.Model,
		MessageCount: payload.MessageCount,
		Status:       payload.Status,
		Error:        payload.Error,
		LatencyMs:    payload.LatencyMs,
		Usage:        payload.Usage,
		CreatedAt:    event.OccurredAt,
	}

	recorded, err := cs.storeProviderCall(ctx, call)
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to record provider call", map[string]interface{}{
			"chat_id": payload.ChatId,
			"error":   err.Error(),
		})
		return
	}
	if !recorded {
		cs.logger.Debug(consumerModule, "Provider call already recorded", map[string]interface{}{
			"id": call.Id,
		})
		return
	}

	cs.logger.Debug(consumerModule, "Provider call recorded", map[string]interface{}{
		"id":      call.Id,
		"chat_id": payload.ChatId,
		"status":  payload.Status,
	})
}

// storeProviderCall inserts the call unless a row with its id exists. It
// reports false for a redelivered event.
func (cs *consumerService) storeProviderCall(ctx context.Context, call *entity.ProviderCall) (bool, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	// No-op once committed.
	defer uow.Rollback()

	repo := uow.ProviderCallRepository()
	if call.Id != uuid.Nil {
		existing, err := repo.FindOne(ctx, specification.ByID{ID: call.Id})
		if err != nil {
			return false, err
		}
		if existing != nil {
			return false, nil
		}
	}

	if err := repo.Create(ctx, call); err != nil {
		return false, err
	}
	if err := uow.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
