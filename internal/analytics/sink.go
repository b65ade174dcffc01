package analytics

import (
	"context"
	"errors"
	"log/slog"
)

// Sink receives tracked events. Implementations own their delivery concerns.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Track(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// CompositeSink fans out events to multiple sinks.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink drops nil entries and returns nil when nothing remains.
func NewCompositeSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		filtered = append(filtered, sink)
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return &CompositeSink{sinks: filtered}
}

func (c *CompositeSink) Track(ctx context.Context, event Event) error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, sink := range c.sinks {
		if err := sink.Track(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to a structured logger instead of a remote service.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (s *LogSink) Track(ctx context.Context, event Event) error {
	attrs := make([]slog.Attr, 0, len(event.Properties)+2)
	attrs = append(attrs, slog.String("event", event.Name), slog.String("insert_id", event.InsertID))
	for key, value := range event.Properties {
		attrs = append(attrs, slog.Any(key, value))
	}
	s.logger.LogAttrs(ctx, s.level, "analytics event", attrs...)
	return nil
}
