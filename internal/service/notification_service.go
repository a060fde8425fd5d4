package service

import (
	"context"
	"encoding/json"

	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const notificationModule = "NotificationService"

// NotificationService fans session-change events out to every sink
// (renderer sockets, NATS mirror, snapshot mirror). Sink failures are logged
// and never stop delivery to the others.
type NotificationService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	sinks     []events.Publisher
	logger    logger.ILogger
}

func NewNotificationService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger, sinks ...events.Publisher) *NotificationService {
	return &NotificationService{
		pubSub:    pubSub,
		topicName: topicName,
		sinks:     sinks,
		logger:    log,
	}
}

func (s *NotificationService) AddSink(sink events.Publisher) {
	s.sinks = append(s.sinks, sink)
}

func (s *NotificationService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event events.BaseEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				s.logger.Error(notificationModule, "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			s.dispatch(msg.Context(), event)
			msg.Ack()
		}
	}()

	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, event events.Event) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			s.logger.Warn(notificationModule, "Sink failed to deliver event", map[string]interface{}{
				"event": event.EventType(),
				"error": err.Error(),
			})
		}
	}
}
