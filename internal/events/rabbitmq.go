package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxRetries    = 10
	retryInterval = 3 * time.Second
	maxBackoff    = 30 * time.Second
)

// RabbitMQConfig describes the broker topology for notifications.
type RabbitMQConfig struct {
	URL      string
	Exchange string // topic exchange
	Queue    string // durable queue consumed by the chat bot
}

// Connection wraps an amqp.Connection with a dedicated publishing channel
// and reconnects in the background when the broker drops it.
type Connection struct {
	logger      *slog.Logger
	cfg         RabbitMQConfig
	conn        *amqp.Connection
	pubChannel  *amqp.Channel
	mu          sync.RWMutex // guards conn and pubChannel across reconnects
	isConnected bool
	notifyClose chan *amqp.Error
	done        chan struct{}
}

// NewConnection dials the broker, retrying a bounded number of times, and
// declares the notification topology.
func NewConnection(cfg RabbitMQConfig, logger *slog.Logger) (*Connection, error) {
	c := &Connection{
		logger: logger.With("component", "rabbitmq"),
		cfg:    cfg,
		done:   make(chan struct{}),
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = c.connect(); err != nil {
			c.logger.Error("connect failed", "attempt", i+1, "max_attempts", maxRetries, "error", err)
			time.Sleep(retryInterval)
			continue
		}
		if err = c.setupTopology(); err != nil {
			c.Close()
			return nil, fmt.Errorf("setup rabbitmq topology: %w", err)
		}
		c.logger.Info("connected", "exchange", cfg.Exchange, "queue", cfg.Queue)
		go c.reconnectLoop()
		return c, nil
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", maxRetries, err)
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open publisher channel: %w", err)
	}

	c.conn = conn
	c.pubChannel = ch
	c.isConnected = true
	c.notifyClose = make(chan *amqp.Error, 1)
	c.conn.NotifyClose(c.notifyClose)
	return nil
}

func (c *Connection) reconnectLoop() {
	for {
		select {
		case <-c.done:
			return
		case err := <-c.notifyClose:
			if err == nil {
				// Graceful close.
				return
			}
			c.logger.Error("connection lost", "error", err)
			c.mu.Lock()
			c.isConnected = false
			c.mu.Unlock()

			backoff := time.Second
			for {
				select {
				case <-c.done:
					return
				case <-time.After(backoff):
				}

				if err := c.connect(); err != nil {
					c.logger.Error("reconnect failed", "backoff", backoff, "error", err)
					backoff = min(time.Duration(float64(backoff)*1.5), maxBackoff)
					continue
				}
				if err := c.setupTopology(); err != nil {
					c.logger.Error("redeclare topology failed", "error", err)
					continue
				}
				c.logger.Info("reconnected")
				break
			}
		}
	}
}

// setupTopology declares the topic exchange and the bot queue bound to
// every notification routing key.
func (c *Connection) setupTopology() error {
	c.mu.RLock()
	if !c.isConnected {
		c.mu.RUnlock()
		return fmt.Errorf("rabbitmq not connected")
	}
	ch, err := c.conn.Channel()
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("open setup channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	if err := ch.QueueBind(c.cfg.Queue, bindingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", c.cfg.Queue, c.cfg.Exchange, err)
	}
	return nil
}

// Publish sends a persistent JSON message to the exchange. It is goroutine-safe.
func (c *Connection) Publish(ctx context.Context, routingKey string, body []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isConnected {
		return fmt.Errorf("rabbitmq not connected")
	}
	return c.pubChannel.PublishWithContext(ctx, c.cfg.Exchange, routingKey, false, false, newPublishing(body, time.Now()))
}

func newPublishing(body []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}
}

// Close shuts down the connection and the reconnect loop.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	c.isConnected = false

	if c.pubChannel != nil {
		_ = c.pubChannel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
