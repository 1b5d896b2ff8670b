package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

const (
	loadCartSQL = `SELECT document FROM cart_storage WHERE storage_key = $1`

	saveCartSQL = `
INSERT INTO cart_storage (storage_key, document)
VALUES ($1, $2)
ON CONFLICT (storage_key) DO UPDATE
SET document   = EXCLUDED.document,
    revision   = cart_storage.revision + 1,
    updated_at = NOW()`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cartRepository struct {
	q querier
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{q: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{q: tx}
}

func (r *cartRepository) Load(ctx context.Context, key string) (domain.Cart, error) {
	if key == "" {
		return domain.Cart{}, fmt.Errorf("key is empty")
	}

	var data []byte
	err := r.q.QueryRow(ctx, loadCartSQL, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.QueryRow: %w", err)
	}

	cart, err := decodeCart(data)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decodeCart: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, key string, cart domain.Cart) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	data, err := encodeCart(cart)
	if err != nil {
		return fmt.Errorf("encodeCart: %w", err)
	}

	if _, err := r.q.Exec(ctx, saveCartSQL, key, data); err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}

	return nil
}
