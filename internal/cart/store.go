// Package cart holds the per-device cart store: the single source of truth for
// what the user intends to buy. Every mutation runs under one lock and is
// persisted synchronously before the lock is released.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/text/currency"
)

// StorageName is the fixed name every cart document is stored under.
const StorageName = "cart-storage"

func StorageKey(deviceID string) string {
	return StorageName + ":" + deviceID
}

type Notice string

const (
	NoticeNone            Notice = ""
	NoticeAdded           Notice = "Item added to cart."
	NoticeQuantityUpdated Notice = "Item quantity updated."
	NoticeRemoved         Notice = "Item removed from the cart."
	NoticeCleared         Notice = "Cart cleared."
)

type Store struct {
	mu   sync.Mutex
	cart domain.Cart

	repo        port.CartRepository
	key         string
	degraded    bool
	hydrated    bool
	cleared     bool
	dirty       bool
	saveTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) { s.saveTimeout = d }
}

// Open hydrates the store from repo. A missing document yields an empty cart in
// unit. When the load fails the store starts empty and degraded, and the stored
// cart is loaded again before anything is saved over it.
func Open(ctx context.Context, repo port.CartRepository, key string, unit currency.Unit, opts ...Option) *Store {
	s := &Store{
		cart:        domain.NewCart(unit),
		repo:        repo,
		key:         key,
		saveTimeout: 5 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("storage_key", key)

	if err := s.hydrate(ctx); err != nil {
		s.persistenceFailed("load", err)
	}

	return s
}

// Hydrate retries loading a cart whose first load failed and saves the merged
// result. It is a no-op once the stored cart has been read.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return
	}

	if !s.rehydrate(ctx) {
		return
	}
	if s.dirty {
		s.save(ctx)
	}
}

// AddItem appends product with quantity or increments its existing line.
func (s *Store) AddItem(ctx context.Context, product domain.ProductSnapshot, quantity int) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed, err := s.cart.Add(product, quantity)
	if err != nil {
		return NoticeNone, domain.NewValidationError(err, domain.FieldError{Field: "product", Message: err.Error()})
	}

	s.mutated(ctx, "add")

	if existed {
		return NoticeQuantityUpdated, nil
	}
	return NoticeAdded, nil
}

// RemoveItem is a no-op for an absent product.
func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Remove(productID) {
		return NoticeNone
	}

	s.mutated(ctx, "remove")
	return NoticeRemoved
}

func (s *Store) IncrementQuantity(ctx context.Context, productID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Increment(productID) {
		return false
	}

	s.mutated(ctx, "increment")
	return true
}

// DecrementQuantity is refused at quantity 1, the line stays in the cart.
func (s *Store) DecrementQuantity(ctx context.Context, productID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Decrement(productID) {
		return false
	}

	s.mutated(ctx, "decrement")
	return true
}

func (s *Store) RemoveAll(ctx context.Context) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	if !s.hydrated {
		s.cleared = true
	}
	s.mutated(ctx, "clear")

	return NoticeCleared
}

// RemoveOrdered takes an order's lines out of the cart, keeping whatever was
// added while the order was being placed.
func (s *Store) RemoveOrdered(ctx context.Context, ordered domain.Cart) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Subtract(ordered) {
		return NoticeNone
	}

	s.mutated(ctx, "ordered")
	if s.cart.IsEmpty() {
		return NoticeCleared
	}
	return NoticeQuantityUpdated
}

func (s *Store) Items() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Clone().Lines
}

func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Clone()
}

func (s *Store) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Total()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.ItemCount()
}

func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.LineCount()
}

// Degraded reports whether the last persistence attempt failed and the cart
// currently lives in memory only.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.degraded
}

// mutated must be called with s.mu held.
func (s *Store) mutated(ctx context.Context, op string) {
	if s.metrics != nil {
		s.metrics.CartMutations.WithLabelValues(op).Inc()
	}
	s.dirty = true

	if !s.hydrated && !s.rehydrate(ctx) {
		return
	}
	s.save(ctx)
}

// rehydrate must be called with s.mu held. It reports whether the stored cart
// has been read; until then nothing may be saved under the key.
func (s *Store) rehydrate(ctx context.Context) bool {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if err := s.hydrate(loadCtx); err != nil {
		s.persistenceFailed("load", err)
		return false
	}
	return true
}

// hydrate must be called with s.mu held. Stored lines go in front of the lines
// collected in memory; a line present in both keeps the sum of its quantities.
// A cart cleared while unhydrated discards the stored lines.
func (s *Store) hydrate(ctx context.Context) error {
	loaded, err := s.repo.Load(ctx, s.key)
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		s.markHydrated()
		return nil
	case err != nil:
		return err
	}

	defer s.markHydrated()

	if err := loaded.Validate(); err != nil {
		s.logger.Warn("discarding invalid stored cart", "error", err)
		return nil
	}
	if s.cleared {
		return nil
	}
	if loaded.IsEmpty() {
		loaded.Currency = s.cart.Currency
	}

	for _, line := range s.cart.Lines {
		if _, err := loaded.Add(line.Product, line.Quantity); err != nil {
			s.logger.Warn("dropping cart line that cannot be merged", "product_id", line.Product.ID, "error", err)
		}
	}
	s.cart = loaded

	return nil
}

func (s *Store) markHydrated() {
	s.hydrated = true
	s.cleared = false
}

// save must be called with s.mu held.
func (s *Store) save(ctx context.Context) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if err := s.repo.Save(saveCtx, s.key, s.cart.Clone()); err != nil {
		s.persistenceFailed("save", err)
		return
	}
	s.dirty = false

	if s.degraded {
		s.logger.Info("cart persistence recovered")
		s.degraded = false
	}
}

func (s *Store) persistenceFailed(op string, err error) {
	s.degraded = true
	s.logger.Warn("cart persistence unavailable, keeping cart in memory", "op", op, "error", err)

	if s.metrics != nil {
		s.metrics.PersistenceFailures.WithLabelValues(op).Inc()
	}
}
