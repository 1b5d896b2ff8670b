package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

// memoryRepository keeps encoded documents, so it goes through the same
// serialization as the durable backends.
type memoryRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() port.CartRepository {
	return &memoryRepository{docs: make(map[string][]byte)}
}

func (r *memoryRepository) Load(_ context.Context, key string) (domain.Cart, error) {
	if key == "" {
		return domain.Cart{}, fmt.Errorf("key is empty")
	}

	r.mu.RLock()
	data, ok := r.docs[key]
	r.mu.RUnlock()

	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}

	cart, err := decodeCart(data)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decodeCart: %w", err)
	}
	return cart, nil
}

func (r *memoryRepository) Save(_ context.Context, key string, cart domain.Cart) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	data, err := encodeCart(cart)
	if err != nil {
		return fmt.Errorf("encodeCart: %w", err)
	}

	r.mu.Lock()
	r.docs[key] = data
	r.mu.Unlock()

	return nil
}
