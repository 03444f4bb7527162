package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dimpinis9/estately/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const LifecycleEventType = "entity.bulk_mutated"

// LifecycleEvent announces the ids a bulk operation actually changed
type LifecycleEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OwnerID    uint      `json:"owner_id"`
	Kind       string    `json:"kind"`
	Action     string    `json:"action"`
	EntityIDs  []string  `json:"entity_ids"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLifecycleEvent fills the identifiers and type of a new event
func NewLifecycleEvent(ownerID uint, kind, action string, entityIDs []string, occurredAt time.Time) LifecycleEvent {
	return LifecycleEvent{
		EventID:    uuid.NewString(),
		Type:       LifecycleEventType,
		OwnerID:    ownerID,
		Kind:       kind,
		Action:     action,
		EntityIDs:  entityIDs,
		OccurredAt: occurredAt,
	}
}

// EventPublisher delivers lifecycle events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
	Close() error
}

// NoopEventPublisher drops every event. Used when the queue is disabled.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher { return NoopEventPublisher{} }

func (NoopEventPublisher) Publish(context.Context, LifecycleEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }

// RabbitMQPublisher publishes persistent JSON messages to a durable topic exchange
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
	timeout    time.Duration

	// amqp channels must not be shared across goroutines
	mu sync.Mutex
}

// NewRabbitMQPublisher dials the broker and declares the exchange
func NewRabbitMQPublisher(cfg config.QueueConfig) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &RabbitMQPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		timeout:    cfg.Timeout,
	}, nil
}

// Publish sends one event; routing key is "<configured key>.<kind>"
func (p *RabbitMQPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx,
		p.exchange,
		p.routingKey+"."+event.Kind,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

// Close releases the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
