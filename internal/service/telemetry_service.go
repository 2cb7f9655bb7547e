package service

import (
	"context"
	"encoding/json"
	"time"

	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TelemetrySink pushes serialized events to live viewers. Implemented by the
// websocket Hub.
type TelemetrySink interface {
	Send(vehicleID string, payload []byte)
}

// EventForwarder ships events off the process. Implemented by the NATS
// publisher.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type ITelemetryService interface {
	Consume(ctx context.Context) error
}

type telemetryService struct {
	pubSub    message.Subscriber
	topicName string
	sink      TelemetrySink
	forwarder EventForwarder
	logger    logger.ILogger
}

const forwardTimeout = 500 * time.Millisecond

// NewTelemetryService wires the consumer. forwarder may be nil when NATS is
// not configured.
func NewTelemetryService(
	pubSub message.Subscriber,
	topicName string,
	sink TelemetrySink,
	forwarder EventForwarder,
	log logger.ILogger,
) ITelemetryService {
	return &telemetryService{
		pubSub:    pubSub,
		topicName: topicName,
		sink:      sink,
		forwarder: forwarder,
		logger:    log,
	}
}

func (s *telemetryService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	s.logger.Info("TelemetryService", "Listening for vehicle events", map[string]interface{}{"topic": s.topicName})
	return nil
}

func (s *telemetryService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var envelope events.Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		s.logger.Warn("TelemetryService", "Dropping malformed event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if s.sink != nil {
		s.sink.Send(envelope.VehicleID, msg.Payload)
	}

	if s.forwarder != nil {
		fctx, cancel := context.WithTimeout(ctx, forwardTimeout)
		defer cancel()
		if err := s.forwarder.Publish(fctx, envelope); err != nil {
			s.logger.Warn("TelemetryService", "Failed to forward event", map[string]interface{}{
				"type":       envelope.Type,
				"vehicle_id": envelope.VehicleID,
				"error":      err.Error(),
			})
		}
	}
}
