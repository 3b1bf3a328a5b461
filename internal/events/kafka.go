package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes messages to a single Kafka topic, keyed by routing key.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := p.writer.WriteMessages(ctx, newKafkaMessage(routingKey, body)); err != nil {
		return fmt.Errorf("kafka write %s: %w", routingKey, err)
	}
	return nil
}

// newKafkaMessage keys a message by routing key so one notification type
// stays on one partition.
func newKafkaMessage(routingKey string, body []byte) kafka.Message {
	return kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
