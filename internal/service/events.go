package service

import (
	"context"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"
)

// EventPublisher is the subset of notifications.Notifier the services use.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID uint, eventType string, data any) error
	PublishBroadcast(ctx context.Context, eventType string, data any) error
}

// publishUser records the event and publishes it without failing the caller.
func publishUser(ctx context.Context, p EventPublisher, userID uint, event string, data any) {
	observability.RecordEvent(event)
	if p == nil {
		return
	}
	if err := p.PublishUser(ctx, userID, event, data); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish event",
			slog.String("event", event), slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

func publishBroadcast(ctx context.Context, p EventPublisher, event string, data any) {
	observability.RecordEvent(event)
	if p == nil {
		return
	}
	if err := p.PublishBroadcast(ctx, event, data); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish event",
			slog.String("event", event), slog.String("error", err.Error()))
	}
}
