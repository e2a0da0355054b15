package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// DefaultExchange is used when Config.Exchange is empty.
const DefaultExchange = "ecofinds.events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	// amqp.Channel is not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the marketplace topic exchange.
func NewClient(cfg Config) (*Client, error) {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Printf("RabbitMQ client connected, exchange %s declared.", exchange)

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Message builds the publishing for a marketplace event.
func Message(payload map[string]interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event payload to JSON: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}, nil
}

// Publish sends payload to the exchange under routingKey.
func (c *Client) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := Message(payload, time.Now())
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	log.Printf(" [x] Sent %s event: %s", routingKey, msg.Body)
	return nil
}

// ConsumeEvents binds a durable queue to the exchange for each pattern and
// hands every delivery to handler. Deliveries are acked when handler
// succeeds and requeued otherwise.
func (c *Client) ConsumeEvents(queueName string, patterns []string, handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	for _, pattern := range patterns {
		if err := c.channel.QueueBind(queue.Name, pattern, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", queue.Name, pattern, err)
		}
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for marketplace events on %s", queue.Name)

	go func() {
		for msg := range msgs {
			Dispatch(msg, handler)
		}
	}()

	return nil
}

// Dispatch runs handler for one delivery and settles it.
func Dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
		// Malformed bodies will never succeed, so they are dropped.
		if nackErr := msg.Nack(false, !isPermanent(err)); nackErr != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
	}
}

// PermanentError marks a delivery that must not be requeued.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func isPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// LogEvent is a handler that decodes and logs a marketplace event.
func LogEvent(msg amqp.Delivery) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return &PermanentError{Err: fmt.Errorf("decode %s: %w", msg.RoutingKey, err)}
	}
	log.Printf("Marketplace event %s: %v", msg.RoutingKey, payload)
	return nil
}
