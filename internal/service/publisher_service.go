package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ragchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	DocumentIngestedTopic = "DOCUMENT_INGESTED"
	SessionChangesTopic   = "SESSION_CHANGES"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.pubSub.Publish(ps.topicName, msg)
}

// eventBusPublisher puts session events on the notification bus.
type eventBusPublisher struct {
	publisher IPublisherService
}

func NewEventBusPublisher(publisher IPublisherService) events.Publisher {
	return &eventBusPublisher{publisher: publisher}
}

func (p *eventBusPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publisher.Publish(ctx, payload)
}

// ForwardPayload re-publishes an incoming event's payload on publisher. It
// bridges externally announced uploads onto the ingestion bus.
func ForwardPayload(publisher IPublisherService) func(ctx context.Context, event events.Event) error {
	return func(ctx context.Context, event events.Event) error {
		payload, err := json.Marshal(event.Payload())
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		return publisher.Publish(ctx, payload)
	}
}
