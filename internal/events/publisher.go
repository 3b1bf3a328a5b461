// Package events delivers serialized notifications to the chat bot through
// a message broker. Payloads are opaque JSON bodies; routing keys follow
// the "notification.<type>" scheme.
package events

import (
	"context"
	"strings"
)

const routingKeyPrefix = "notification."

// bindingKey matches every notification routing key.
const bindingKey = routingKeyPrefix + "*"

// RoutingKey returns the routing key for a notification type.
func RoutingKey(kind string) string {
	return routingKeyPrefix + strings.ToLower(kind)
}

// Publisher sends a message body under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Ensure concrete types implement Publisher.
var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*Connection)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
)
