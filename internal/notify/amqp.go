package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "orders"

// Channel is the part of amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher puts placed orders on a durable RabbitMQ queue, e.g. for the
// warehouse that picks and ships them.
type AMQPPublisher struct {
	ch    Channel
	queue string
	conn  *amqp.Connection
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("url is empty")
	}
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("conn.Channel: %w", err)
	}

	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ch.QueueDeclare: %w", err)
	}

	p := NewAMQPPublisherWithChannel(ch, queue)
	p.conn = conn
	return p, nil
}

func NewAMQPPublisherWithChannel(ch Channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

func (p *AMQPPublisher) NotifyOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	payload, err := json.Marshal(mapOrderPlaced(event))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.OrderNumber,
		Timestamp:    event.PlacedAt.UTC(),
		Type:         eventType,
		Headers:      amqp.Table{eventTypeHeader: eventType},
		Body:         payload,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("ch.PublishWithContext: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
