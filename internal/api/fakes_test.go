package api_test

import (
	"context"
	"io"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
)

type fakeCatalog struct {
	products map[string]domain.ProductSnapshot
}

func (c *fakeCatalog) ListProducts(_ context.Context, query domain.ProductQuery) ([]domain.ProductSnapshot, error) {
	var out []domain.ProductSnapshot
	for _, p := range c.products {
		if query.IsFeatured != nil && p.IsFeatured != *query.IsFeatured {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID string) (domain.ProductSnapshot, error) {
	p, ok := c.products[productID]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	return p, nil
}

type fakeOrders struct {
	mu       sync.Mutex
	err      error
	received []domain.OrderRequest
	orders   map[string][]domain.Order
}

func (o *fakeOrders) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.SubmissionResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.received = append(o.received, req)
	if o.err != nil {
		return domain.SubmissionResult{}, o.err
	}
	return domain.SubmissionResult{OrderID: "order-1"}, nil
}

func (o *fakeOrders) ListOrders(_ context.Context, email string) ([]domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.orders[email], nil
}

func (o *fakeOrders) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, orders := range o.orders {
		for _, order := range orders {
			if order.ID == orderID {
				return order, nil
			}
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (o *fakeOrders) setErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *fakeOrders) requests() []domain.OrderRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.OrderRequest(nil), o.received...)
}

type fakeUploader struct {
	mu          sync.Mutex
	name        string
	contentType string
	body        []byte
}

func (u *fakeUploader) Upload(_ context.Context, doc domain.Document) (domain.DocumentRef, error) {
	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return domain.DocumentRef{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.name = doc.Name
	u.contentType = doc.ContentType
	u.body = body

	return domain.DocumentRef{URL: "https://files.example.com/" + doc.Name, Name: doc.Name}, nil
}
