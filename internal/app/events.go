package app

import (
	"fmt"
	"log/slog"

	"dormride/internal/config"
	"dormride/internal/events"
)

// NewPublisher returns the notification publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	switch cfg.Broker {
	case config.BrokerLog:
		return events.NewLogPublisher(logger.With("component", "publisher")), nil

	case config.BrokerRabbitMQ:
		conn, err := events.NewConnection(events.RabbitMQConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.Exchange,
			Queue:    cfg.Queue,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		return conn, nil

	case config.BrokerKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil

	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
