package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "order-confirmations"

	eventTypeHeader = "event_type"
	eventType       = "order.placed"
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes placed orders for downstream consumers such as a
// mail worker. Messages are keyed by order number.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers are empty")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
	}

	return NewKafkaPublisherWithWriter(w), nil
}

func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

type orderPlacedEvent struct {
	OrderID        string            `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	ClientName     string            `json:"clientName"`
	ClientEmail    string            `json:"clientEmail"`
	DeliveryMethod string            `json:"deliveryMethod"`
	Region         string            `json:"region,omitempty"`
	Items          []orderPlacedItem `json:"items"`
	ShippingFee    json.Number       `json:"shippingFee"`
	Total          json.Number       `json:"total"`
	Currency       string            `json:"currency"`
	PlacedAt       time.Time         `json:"placedAt"`
}

type orderPlacedItem struct {
	ProductID       string      `json:"productId"`
	Name            string      `json:"name"`
	Quantity        int         `json:"quantity"`
	TotalItemAmount json.Number `json:"totalItemAmount"`
}

func (p *KafkaPublisher) NotifyOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	payload, err := json.Marshal(mapOrderPlaced(event))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func mapOrderPlaced(event domain.OrderPlaced) orderPlacedEvent {
	req := event.Request

	out := orderPlacedEvent{
		OrderID:        event.OrderID,
		OrderNumber:    event.OrderNumber,
		ClientName:     event.Customer.Name,
		ClientEmail:    event.Customer.Email,
		DeliveryMethod: req.DeliveryMethod.String(),
		Region:         req.Region,
		Items:          make([]orderPlacedItem, 0, len(event.Lines)),
		ShippingFee:    json.Number(req.ShippingFee.Amount.String()),
		Total:          json.Number(req.Total.Amount.String()),
		Currency:       req.Total.Currency.String(),
		PlacedAt:       event.PlacedAt.UTC(),
	}

	for _, line := range event.Lines {
		out.Items = append(out.Items, orderPlacedItem{
			ProductID:       line.Product.ID.String(),
			Name:            line.Product.Name,
			Quantity:        line.Quantity,
			TotalItemAmount: json.Number(line.LineTotal().Amount.String()),
		})
	}

	return out
}
