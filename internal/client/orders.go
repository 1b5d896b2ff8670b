package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nikolayk812/storefront/internal/domain"
	"golang.org/x/text/currency"
)

// IdempotencyKeyHeader carries the client order number so the order backend
// can recognise a resent order.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderClient creates orders and reads the order history of the order backend.
type OrderClient struct {
	baseURL string
	unit    currency.Unit
	hc      *http.Client
}

func NewOrders(baseURL string, unit currency.Unit, opts ...Option) (*OrderClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}

	o := newOptions(opts)

	return &OrderClient{
		baseURL: baseURL,
		unit:    unit,
		hc:      o.httpClient,
	}, nil
}

// CreateOrder posts the order. Only 201 Created counts as a placed order.
func (c *OrderClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.SubmissionResult, error) {
	header := http.Header{}
	if req.OrderNumber != "" {
		header.Set(IdempotencyKeyHeader, req.OrderNumber)
	}

	var created orderCreatedDTO
	err := doJSON(ctx, c.hc, http.MethodPost, joinURL(c.baseURL, "/checkout"), header, mapOrderRequest(req), &created, http.StatusCreated)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("doJSON: %w", err)
	}

	orderID := created.OrderID
	if orderID == "" {
		orderID = created.ID
	}

	return domain.SubmissionResult{
		OrderID:     orderID,
		RedirectURL: created.RedirectURL,
		OrderNumber: req.OrderNumber,
	}, nil
}

func (c *OrderClient) ListOrders(ctx context.Context, email string) ([]domain.Order, error) {
	if email == "" {
		return nil, fmt.Errorf("email is empty")
	}

	u := joinURL(c.baseURL, "/orders") + "?" + url.Values{"email": {email}}.Encode()

	var dtos []orderDTO
	if err := doJSON(ctx, c.hc, http.MethodGet, u, nil, nil, &dtos, http.StatusOK); err != nil {
		return nil, fmt.Errorf("doJSON: %w", err)
	}

	orders := make([]domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		order, err := mapOrder(dto, c.unit)
		if err != nil {
			return nil, fmt.Errorf("mapOrder[%s]: %w", dto.ID, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (c *OrderClient) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("orderID is empty")
	}

	u := joinURL(c.baseURL, "/order-details") + "?" + url.Values{"orderId": {orderID}}.Encode()

	var dto orderDTO
	if err := doJSON(ctx, c.hc, http.MethodGet, u, nil, nil, &dto, http.StatusOK); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
		}
		return domain.Order{}, fmt.Errorf("doJSON: %w", err)
	}

	order, err := mapOrder(dto, c.unit)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mapOrder: %w", err)
	}
	return order, nil
}
