package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/notify"
	"github.com/nikolayk812/storefront/internal/port"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var peso = currency.MustParseISO("PHP")

func TestRenderConfirmation(t *testing.T) {
	tests := []struct {
		name         string
		event        domain.OrderPlaced
		wantContains []string
		wantMissing  []string
	}{
		{
			name:  "delivery: ok",
			event: placedEvent(domain.DeliveryMethodDelivery),
			wantContains: []string{
				"Hi Jane Dela Cruz,",
				"Your order number is ORD-42.",
				"- Hard Hat x 2: PHP 200.00",
				"- Safety Gloves x 1: PHP 50.00",
				"Subtotal: PHP 250.00",
				"Shipping: PHP 150.00",
				"Total:    PHP 400.00",
				"PO number: PO-9",
				"Deliver to: 12 Rizal St (Lagao)",
			},
			wantMissing: []string{"Pick-up date"},
		},
		{
			name:  "pick-up: ok",
			event: placedEvent(domain.DeliveryMethodPickUp),
			wantContains: []string{
				"Shipping: PHP 0.00",
				"Total:    PHP 250.00",
				"Pick-up date: 2026-03-11",
			},
			wantMissing: []string{"Deliver to"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := notify.RenderConfirmation(tt.event)
			require.NoError(t, err)

			assert.Equal(t, "jane@example.com", msg.To)
			assert.Equal(t, "Jane Dela Cruz", msg.Name)
			assert.Equal(t, "Order confirmation ORD-42", msg.Subject)
			for _, s := range tt.wantContains {
				assert.Contains(t, msg.Body, s)
			}
			for _, s := range tt.wantMissing {
				assert.NotContains(t, msg.Body, s)
			}
		})
	}
}

func TestRenderConfirmation_NoEmail(t *testing.T) {
	event := placedEvent(domain.DeliveryMethodPickUp)
	event.Customer.Email = ""

	_, err := notify.RenderConfirmation(event)
	require.EqualError(t, err, "customer email is empty")
}

func TestMailer(t *testing.T) {
	var got notify.Message

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	mailer, err := notify.NewMailer(srv.URL + "/send")
	require.NoError(t, err)

	require.NoError(t, mailer.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodDelivery)))

	assert.Equal(t, "jane@example.com", got.To)
	assert.Equal(t, "Order confirmation ORD-42", got.Subject)
	assert.Contains(t, got.Body, "Hard Hat")
}

func TestMailer_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	mailer, err := notify.NewMailer(srv.URL, client.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = mailer.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.ErrorIs(t, err, domain.ErrEmailNotSent)
	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)

	_, err = notify.NewMailer("")
	require.ErrorContains(t, err, "url is empty")
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	publisher := notify.NewKafkaPublisherWithWriter(w)
	event := placedEvent(domain.DeliveryMethodDelivery)

	require.NoError(t, publisher.NotifyOrderPlaced(t.Context(), event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "ORD-42", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("order.placed")}}, msg.Headers)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-42", payload["orderId"])
	assert.Equal(t, "ORD-42", payload["orderNumber"])
	assert.Equal(t, "jane@example.com", payload["clientEmail"])
	assert.Equal(t, "Lagao", payload["region"])
	assert.Equal(t, float64(400), payload["total"])
	assert.Equal(t, "PHP", payload["currency"])
	assert.Len(t, payload["items"], 2)

	require.NoError(t, publisher.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteFails(t *testing.T) {
	publisher := notify.NewKafkaPublisherWithWriter(&fakeWriter{err: kafka.LeaderNotAvailable})

	err := publisher.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.ErrorIs(t, err, kafka.LeaderNotAvailable)
}

func TestNewKafkaPublisher_NoBrokers(t *testing.T) {
	_, err := notify.NewKafkaPublisher(notify.DefaultTopic)
	require.EqualError(t, err, "brokers are empty")
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	publisher := notify.NewAMQPPublisherWithChannel(ch, notify.DefaultQueue)
	event := placedEvent(domain.DeliveryMethodDelivery)

	require.NoError(t, publisher.NotifyOrderPlaced(t.Context(), event))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, notify.DefaultQueue, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "ORD-42", got.msg.MessageId)
	assert.Equal(t, "order.placed", got.msg.Headers["event_type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &payload))
	assert.Equal(t, "order-42", payload["orderId"])
	assert.Equal(t, float64(400), payload["total"])

	require.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishFails(t *testing.T) {
	publisher := notify.NewAMQPPublisherWithChannel(&fakeChannel{err: amqp.ErrClosed}, notify.DefaultQueue)

	err := publisher.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.ErrorIs(t, err, amqp.ErrClosed)

	_, err = notify.NewAMQPPublisher("", notify.DefaultQueue)
	require.EqualError(t, err, "url is empty")
}

func TestMulti(t *testing.T) {
	first := &countingNotifier{}
	failing := &countingNotifier{err: errors.New("smtp down")}
	last := &countingNotifier{}

	err := notify.Multi{first, failing, last}.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.ErrorContains(t, err, "smtp down")

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, last.calls, "a failing notifier does not stop the rest")

	require.NoError(t, notify.Multi{}.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp)))

	mail := &countingNotifier{err: fmt.Errorf("%w: 502", domain.ErrEmailNotSent)}
	err = notify.Multi{failing, mail}.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.ErrorIs(t, err, domain.ErrEmailNotSent)

	err = notify.Multi{failing}.NotifyOrderPlaced(t.Context(), placedEvent(domain.DeliveryMethodPickUp))
	require.NotErrorIs(t, err, domain.ErrEmailNotSent)
}

var (
	_ port.Notifier = notify.Multi{}
	_ port.Notifier = (*notify.AMQPPublisher)(nil)
	_ notify.Channel = (*amqp.Channel)(nil)
)

type fakeWriter struct {
	mu       sync.Mutex
	err      error
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	return nil
}

type publishedMessage struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	mu        sync.Mutex
	err       error
	published []publishedMessage
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, publishedMessage{key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) NotifyOrderPlaced(context.Context, domain.OrderPlaced) error {
	n.calls++
	return n.err
}

func placedEvent(method domain.DeliveryMethod) domain.OrderPlaced {
	pickup := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)

	lines := []domain.CartLine{
		{Product: product("Hard Hat", "100"), Quantity: 2},
		{Product: product("Safety Gloves", "50"), Quantity: 1},
	}

	req := domain.OrderRequest{
		DeliveryMethod: method,
		CompanyName:    "Acme Trading",
		PONumber:       "PO-9",
		ContactNumber:  "09171234567",
		ClientName:     "Jane Dela Cruz",
		ClientEmail:    "jane@example.com",
		ShippingFee:    php("0"),
		Total:          php("250"),
		OrderNumber:    "ORD-42",
	}
	if method == domain.DeliveryMethodDelivery {
		req.Address = "12 Rizal St"
		req.Region = "Lagao"
		req.ShippingFee = php("150")
		req.Total = php("400")
	} else {
		req.PickupDate = &pickup
	}

	return domain.OrderPlaced{
		OrderID:     "order-42",
		OrderNumber: "ORD-42",
		Customer:    domain.User{ID: "user-1", Name: "Jane Dela Cruz", Email: "jane@example.com"},
		Request:     req,
		Lines:       lines,
		PlacedAt:    time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func product(name, price string) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: uuid.New(), Name: name, Price: php(price)}
}

func php(amount string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(amount), peso)
}
