package service

import (
	"context"
	"encoding/json"

	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// VehicleEventsTopic is the in-process topic carrying vehicle events.
const VehicleEventsTopic = "vehicle.events"

type IPublisherService interface {
	// Publish is fire and forget. Failures are logged, never returned, so
	// control ticks are not held up by observers.
	Publish(ctx context.Context, event events.Event)
}

type publisherService struct {
	pubSub    message.Publisher
	topicName string
	logger    logger.ILogger
}

func NewPublisherService(pubSub message.Publisher, topicName string, log logger.ILogger) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(events.ToEnvelope(event))
	if err != nil {
		p.logger.Error("PublisherService", "Failed to marshal event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.EventType())
	msg.SetContext(ctx)

	if err := p.pubSub.Publish(p.topicName, msg); err != nil {
		p.logger.Warn("PublisherService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
