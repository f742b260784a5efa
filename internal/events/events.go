// Package events publishes order notifications to the kitchen queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"capriccio/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// OrderPlaced is the message sent to the kitchen for every submitted order.
type OrderPlaced struct {
	Order     model.Order `json:"order"`
	Persisted bool        `json:"persisted"`
	PlacedAt  time.Time   `json:"placedAt"`
}

// Publisher delivers order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     channel
	queue  string
	logger zerolog.Logger
}

// Dial connects to the broker and declares the durable order queue.
func Dial(url, queue string, logger zerolog.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	p, err := newPublisher(ch, queue, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string, logger zerolog.Logger) (*amqpPublisher, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &amqpPublisher{
		ch:     ch,
		queue:  queue,
		logger: logger.With().Str("component", "order-events").Str("queue", queue).Logger(),
	}, nil
}

// PublishOrderPlaced sends the event as a persistent JSON message on the
// default exchange.
func (p *amqpPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.PlacedAt,
		Type:         "order.placed",
		Body:         body,
	}
	if event.Persisted {
		msg.MessageId = event.Order.ID.String()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug().Bool("persisted", event.Persisted).Int("items", len(event.Order.Items)).Msg("order event published")
	return nil
}

// Close releases the channel and connection.
func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type nopPublisher struct{}

// NewNop returns a publisher that drops every event.
func NewNop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

func (nopPublisher) Close() error { return nil }
