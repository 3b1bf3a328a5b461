package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes messages to the structured log instead of a broker.
// Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.logger.InfoContext(ctx, "notification", "routing_key", routingKey, "body", string(body))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
