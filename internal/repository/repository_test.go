package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/text/currency"
)

var peso = currency.MustParseISO("PHP")

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

// testRepositoryContract runs the behaviour every CartRepository must share.
func testRepositoryContract(t *testing.T, repo port.CartRepository) {
	t.Helper()

	t.Run("load missing key: not found", func(t *testing.T) {
		_, err := repo.Load(t.Context(), gofakeit.UUID())
		require.ErrorIs(t, err, domain.ErrCartNotFound)
	})

	t.Run("load with empty key: error", func(t *testing.T) {
		_, err := repo.Load(t.Context(), "")
		require.EqualError(t, err, "key is empty")
	})

	t.Run("save with empty key: error", func(t *testing.T) {
		err := repo.Save(t.Context(), "", randomCart(1))
		require.EqualError(t, err, "key is empty")
	})

	t.Run("save and load: round trip", func(t *testing.T) {
		ctx := t.Context()
		key := "cart-storage:" + gofakeit.UUID()
		cart := randomCart(3)

		require.NoError(t, repo.Save(ctx, key, cart))

		loaded, err := repo.Load(ctx, key)
		require.NoError(t, err)
		assertCart(t, cart, loaded)
	})

	t.Run("save twice: last write wins", func(t *testing.T) {
		ctx := t.Context()
		key := "cart-storage:" + gofakeit.UUID()

		require.NoError(t, repo.Save(ctx, key, randomCart(2)))

		second := randomCart(1)
		require.NoError(t, repo.Save(ctx, key, second))

		loaded, err := repo.Load(ctx, key)
		require.NoError(t, err)
		assertCart(t, second, loaded)
	})

	t.Run("save empty cart: ok", func(t *testing.T) {
		ctx := t.Context()
		key := "cart-storage:" + gofakeit.UUID()

		require.NoError(t, repo.Save(ctx, key, domain.NewCart(peso)))

		loaded, err := repo.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, loaded.IsEmpty())
		assert.Equal(t, peso.String(), loaded.Currency.String())
	})
}

func randomCart(lines int) domain.Cart {
	cart := domain.NewCart(peso)
	for range lines {
		_, err := cart.Add(randomProduct(), gofakeit.IntRange(1, 10))
		if err != nil {
			panic(err)
		}
	}
	return cart
}

func randomProduct() domain.ProductSnapshot {
	stock := gofakeit.IntRange(0, 100)

	return domain.ProductSnapshot{
		ID:          uuid.MustParse(gofakeit.UUID()),
		Name:        gofakeit.ProductName(),
		Description: gofakeit.ProductDescription(),
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 1000)).Round(2),
			Currency: peso,
		},
		CategoryID:   gofakeit.UUID(),
		CategoryName: gofakeit.ProductCategory(),
		SizeID:       gofakeit.UUID(),
		SizeName:     "XL",
		ColorID:      gofakeit.UUID(),
		ColorName:    gofakeit.Color(),
		Images: []domain.Image{
			{ID: gofakeit.UUID(), URL: gofakeit.URL()},
		},
		IsFeatured: gofakeit.Bool(),
		Stock:      &stock,
	}
}

func assertCart(t *testing.T, expected, actual domain.Cart) {
	t.Helper()

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	opts := cmp.Options{
		currencyComparer,
		cmpopts.EquateEmpty(),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}
