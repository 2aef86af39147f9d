// Package logging builds the process logger and logs domain events.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the handler.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logger for cfg. Empty fields default to info, text and
// stderr.
func New(cfg Config) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", cfg.Level)
		}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(out, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// EventLogger publishes domain events as log records.
type EventLogger struct {
	Logger *slog.Logger
}

func (p EventLogger) Publish(e domain.DomainEvent) error {
	logger := p.Logger
	if logger == nil {
		return nil
	}
	attrs := []any{"event", e.EventType(), "at", e.OccurredAt()}
	level := slog.LevelDebug
	switch ev := e.(type) {
	case domain.CoverageGeneratedEvent:
		attrs = append(attrs, "provider", ev.Provider, "files", ev.FileCount)
		for _, name := range domain.Metrics {
			attrs = append(attrs, string(name), ev.Global[name])
		}
	case domain.ThresholdViolatedEvent:
		level = slog.LevelInfo
		attrs = append(attrs, "scope", ev.Scope, "metric", ev.Metric, "actual", ev.Actual, "required", ev.Required, "shortfall", ev.Shortfall)
		if ev.File != "" {
			attrs = append(attrs, "file", ev.File)
		}
	case domain.ThresholdUpdatedEvent:
		level = slog.LevelInfo
		attrs = append(attrs, "scope", ev.Scope, "metric", ev.Metric, "previous", ev.Previous, "updated", ev.Updated)
	case domain.CollectionFailedEvent:
		level = slog.LevelWarn
		attrs = append(attrs, "file", ev.File, "worker", ev.WorkerID, "reason", ev.Reason)
	}
	logger.Log(context.Background(), level, "coverage event", attrs...)
	return nil
}

func (p EventLogger) PublishAll(events []domain.DomainEvent) error {
	for _, e := range events {
		if err := p.Publish(e); err != nil {
			return err
		}
	}
	return nil
}
