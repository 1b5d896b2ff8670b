package port

import (
	"context"

	"github.com/nikolayk812/storefront/internal/domain"
)

// CartRepository persists one whole cart document per storage key.
// Load returns domain.ErrCartNotFound when nothing was stored under the key yet.
type CartRepository interface {
	Load(ctx context.Context, key string) (domain.Cart, error)
	Save(ctx context.Context, key string, cart domain.Cart) error
}
