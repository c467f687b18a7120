package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/util"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func typeName(event interface{}) string {
	return fmt.Sprintf("%T", event)
}

func exportKey(jobID string) string {
	return "export-" + jobID
}

// ErrMalformedMessage marks a message that can never be handled. The consumer
// skips it instead of retrying.
var ErrMalformedMessage = errors.New("malformed message")

// EventPublisher handles publishing export events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishExportRequested publishes ExportRequested event
func (ep *EventPublisher) PublishExportRequested(ctx context.Context, event *models.ExportRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, exportKey(event.JobID), event)
}

// PublishExportCompleted publishes ExportCompleted event
func (ep *EventPublisher) PublishExportCompleted(ctx context.Context, event *models.ExportCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, exportKey(event.JobID), event)
}

// PublishExportFailed publishes ExportFailed event
func (ep *EventPublisher) PublishExportFailed(ctx context.Context, event *models.ExportFailedEvent) error {
	return ep.producer.PublishEvent(ctx, exportKey(event.JobID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onExportRequested func(context.Context, *models.ExportRequestedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnExportRequested registers a handler for ExportRequested events
func (eh *EventHandler) OnExportRequested(handler func(context.Context, *models.ExportRequestedEvent) error) {
	eh.onExportRequested = handler
}

// HandleMessage routes messages to appropriate handlers. Completion events share
// the topic and are only logged.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return errors.Wrapf(ErrMalformedMessage, "failed to unmarshal base event: %v", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeExportRequested:
		if eh.onExportRequested != nil {
			var event models.ExportRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return errors.Wrapf(ErrMalformedMessage, "failed to unmarshal ExportRequested event: %v", err)
			}
			return eh.onExportRequested(ctx, &event)
		}

	case models.EventTypeExportCompleted, models.EventTypeExportFailed:
		eh.logger.Debug("Export finished", zap.String("type", baseEvent.EventType), zap.String("key", string(msg.Key)))

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
