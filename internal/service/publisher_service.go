package service

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-relay-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Encode(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}
	return nil
}

// newEvent flattens a typed payload into the generic event data.
func newEvent(eventType string, payload interface{}) (events.BaseEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return events.BaseEvent{}, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return events.BaseEvent{}, err
	}
	return events.New(eventType, data), nil
}

// decodeEventData is the inverse of newEvent.
func decodeEventData(event events.Event, out interface{}) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
