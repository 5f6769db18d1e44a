package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// ExchangeName is the topic exchange transaction events are routed through.
	ExchangeName = "payment_exchange"
	// QueueName is the durable queue the transaction worker consumes from.
	QueueName = "transaction_queue"
	// RoutingKey binds the queue to the exchange.
	RoutingKey = "transaction.created"

	connectAttempts = 5
	connectDelay    = 5 * time.Second
	reconnectDelay  = 5 * time.Second
	publishTimeout  = 5 * time.Second
)

// Client owns a process-wide RabbitMQ connection and channel with the
// transaction-event topology declared on it. The channel is guarded so that
// publish/consume calls made before Connect succeeds fail fast instead of
// blocking.
type Client struct {
	url    string
	logger *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{url: url, logger: logger}
}

// Connect dials the broker with a bounded retry loop and declares the
// exchange, queue and binding. On success it installs a close watcher that
// schedules reconnect attempts if the connection drops later.
func (c *Client) Connect() error {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = amqp.Dial(c.url)
		if err == nil {
			break
		}
		c.logger.Warn("RabbitMQ connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("attempts_left", connectAttempts-attempt),
			zap.Error(err),
		)
		if attempt < connectAttempts {
			time.Sleep(connectDelay)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectAttempts, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	c.logger.Info("Connected to RabbitMQ",
		zap.String("exchange", ExchangeName),
		zap.String("queue", QueueName),
		zap.String("routing_key", RoutingKey),
	)

	go c.watchClose(conn)
	return nil
}

func declareTopology(channel *amqp.Channel) error {
	if err := channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", ExchangeName, err)
	}

	if _, err := channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", QueueName, err)
	}

	if err := channel.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", QueueName, err)
	}

	return nil
}

// watchClose blocks until the connection reports a close event, then keeps
// trying to reconnect unless the client was shut down deliberately.
func (c *Client) watchClose(conn *amqp.Connection) {
	closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if closeErr == nil {
		// Graceful close.
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	c.logger.Warn("RabbitMQ connection lost, scheduling reconnect", zap.Error(closeErr))

	for {
		time.Sleep(reconnectDelay)

		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		if err := c.Connect(); err != nil {
			c.logger.Error("RabbitMQ reconnect failed", zap.Error(err))
			continue
		}
		return
	}
}

// Publish sends a persistent message to the transaction exchange. The broker
// (or channel) error is returned to the caller rather than swallowed.
func (c *Client) Publish(ctx context.Context, body []byte, headers amqp.Table) error {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if channel == nil {
		return fmt.Errorf("rabbitmq channel is not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}

	err := channel.PublishWithContext(
		ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume subscribes to the transaction queue with a prefetch of exactly one
// unacknowledged message and manual acknowledgment. The caller must Ack or
// Nack every delivery.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	c.mu.RLock()
	channel := c.channel
	c.mu.RUnlock()

	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is not initialized")
	}

	if err := channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	return deliveries, nil
}

// Close tears the channel and connection down and stops reconnect attempts.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("Failed to close RabbitMQ channel", zap.Error(err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
		c.conn = nil
	}
}
