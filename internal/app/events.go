package app

import (
	"context"
	"errors"
	"log/slog"

	"adaptive-quiz-service/internal/engine"
)

// EventSink receives adaptive events after the session lock is released.
type EventSink interface {
	Publish(ctx context.Context, sessionID string, ev engine.Event) error
}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Publish(ctx context.Context, sessionID string, ev engine.Event) error {
	args := append([]any{"session", sessionID, "event", ev.Type}, ev.Attrs()...)
	l.logger.InfoContext(ctx, "adaptive event", args...)
	return nil
}

// MultiSink publishes to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, sessionID string, ev engine.Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, sessionID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
