package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

type OrderBackend interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.SubmissionResult, error)
}

type OrderHistory interface {
	ListOrders(ctx context.Context, email string) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, event domain.OrderPlaced) error
}

// AuthProvider reports the signed-in user, ok is false for anonymous requests.
type AuthProvider interface {
	CurrentUser(ctx context.Context) (domain.User, bool)
}

type DocumentUploader interface {
	Upload(ctx context.Context, doc domain.Document) (domain.DocumentRef, error)
}

type Catalog interface {
	ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.ProductSnapshot, error)
	GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error)
}
