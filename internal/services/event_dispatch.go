package services

import (
	"context"
	"log/slog"

	"fintrack/internal/events"
)

// eventDispatcher hands domain events to the broker without failing the caller.
type eventDispatcher struct {
	publisher events.Publisher
	metrics   MetricsRecorderInterface
	logger    *slog.Logger
}

func newEventDispatcher(publisher events.Publisher, metrics MetricsRecorderInterface, logger *slog.Logger) eventDispatcher {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return eventDispatcher{publisher: publisher, metrics: metrics, logger: logger}
}

func (d eventDispatcher) dispatch(ctx context.Context, event events.Event) {
	status := "ok"
	if err := d.publisher.Publish(ctx, event); err != nil {
		status = "failed"
		d.logger.WarnContext(ctx, "failed to publish event",
			"error", err,
			"event_type", event.Type,
			"resource_id", event.ResourceID)
	}
	if d.metrics != nil {
		d.metrics.IncrementCounter("event_published", map[string]string{"type": event.Type, "status": status})
	}
}
