package handoff

import (
	"context"

	"go.uber.org/zap"
)

// NopSink discards all events. Useful as a default when no analytics
// backend is attached.
type NopSink struct{}

func (NopSink) TrackEvent(context.Context, string, string, string, map[string]any) error {
	return nil
}

// LogSink writes events to a zap logger, for environments where the real
// analytics backend is absent but events should still be visible.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every event at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.With(zap.String("component", "event_sink"))}
}

func (l *LogSink) TrackEvent(_ context.Context, eventType, locationID, contactID string, data map[string]any) error {
	l.logger.Info("event",
		zap.String("event_type", eventType),
		zap.String("location_id", locationID),
		zap.String("contact_id", contactID),
		zap.Any("data", data),
	)
	return nil
}
