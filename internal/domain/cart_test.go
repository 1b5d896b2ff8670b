package domain_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var peso = currency.MustParseISO("PHP")

func TestCart_Add(t *testing.T) {
	productA := product("100")
	productB := product("50")

	tests := []struct {
		name       string
		adds       []domain.ProductSnapshot
		quantities []int
		wantLines  []int
		wantError  error
	}{
		{
			name:       "add new product: ok",
			adds:       []domain.ProductSnapshot{productA},
			quantities: []int{1},
			wantLines:  []int{1},
		},
		{
			name:       "add same product three times: single line",
			adds:       []domain.ProductSnapshot{productA, productA, productA},
			quantities: []int{1, 1, 1},
			wantLines:  []int{3},
		},
		{
			name:       "add with explicit quantity: ok",
			adds:       []domain.ProductSnapshot{productA, productB, productA},
			quantities: []int{2, 1, 3},
			wantLines:  []int{5, 1},
		},
		{
			name:       "add zero quantity: error",
			adds:       []domain.ProductSnapshot{productA},
			quantities: []int{0},
			wantError:  domain.ErrInvalidQuantity,
		},
		{
			name:       "add negative price: error",
			adds:       []domain.ProductSnapshot{product("-1")},
			quantities: []int{1},
			wantError:  domain.ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := domain.NewCart(peso)

			var err error
			for i, p := range tt.adds {
				_, err = cart.Add(p, tt.quantities[i])
				if err != nil {
					break
				}
			}
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				assert.True(t, cart.IsEmpty())
				return
			}
			require.NoError(t, err)

			require.Len(t, cart.Lines, len(tt.wantLines))
			for i, want := range tt.wantLines {
				assert.Equal(t, want, cart.Lines[i].Quantity)
			}
			require.NoError(t, cart.Validate())
		})
	}
}

func TestCart_Add_ReportsExisting(t *testing.T) {
	cart := domain.NewCart(peso)
	p := product("10")

	existed, err := cart.Add(p, 1)
	require.NoError(t, err)
	assert.False(t, existed)

	existed, err = cart.Add(p, 1)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestCart_Add_CurrencyMismatch(t *testing.T) {
	cart := domain.NewCart(peso)

	p := product("10")
	p.Price.Currency = currency.USD

	_, err := cart.Add(p, 1)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.True(t, cart.IsEmpty())
}

func TestCart_Add_AdoptsCurrencyWhenUnset(t *testing.T) {
	var cart domain.Cart

	p := product("10")
	p.Price.Currency = currency.EUR

	_, err := cart.Add(p, 1)
	require.NoError(t, err)
	assert.Equal(t, currency.EUR, cart.Currency)
}

func TestCart_Add_SnapshotIsCopied(t *testing.T) {
	cart := domain.NewCart(peso)
	p := product("100")
	p.Images = []domain.Image{{ID: "1", URL: gofakeit.URL()}}

	_, err := cart.Add(p, 1)
	require.NoError(t, err)

	p.Price.Amount = decimal.RequireFromString("999")
	p.Images[0].URL = "changed"

	line, ok := cart.Line(p.ID)
	require.True(t, ok)
	assert.True(t, line.Product.Price.Amount.Equal(decimal.RequireFromString("100")))
	assert.NotEqual(t, "changed", line.Product.Images[0].URL)
}

func TestCart_Decrement(t *testing.T) {
	cart := domain.NewCart(peso)
	a := product("100")
	b := product("50")

	_, err := cart.Add(a, 2)
	require.NoError(t, err)
	_, err = cart.Add(b, 1)
	require.NoError(t, err)

	assert.True(t, cart.Decrement(a.ID))
	assert.False(t, cart.Decrement(a.ID), "quantity 1 is the floor")
	assert.False(t, cart.Decrement(a.ID))
	assert.False(t, cart.Decrement(uuid.New()), "absent product")

	line, ok := cart.Line(a.ID)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 2, cart.LineCount())
}

func TestCart_Increment(t *testing.T) {
	cart := domain.NewCart(peso)
	a := product("5")

	assert.False(t, cart.Increment(a.ID))
	assert.True(t, cart.IsEmpty())

	_, err := cart.Add(a, 1)
	require.NoError(t, err)
	assert.True(t, cart.Increment(a.ID))
	assert.True(t, cart.Increment(a.ID))

	assert.Equal(t, 3, cart.ItemCount())
}

func TestCart_Remove(t *testing.T) {
	cart := domain.NewCart(peso)
	a := product("100")
	b := product("50")
	c := product("25")

	for _, p := range []domain.ProductSnapshot{a, b, c} {
		_, err := cart.Add(p, 1)
		require.NoError(t, err)
	}
	before := cart.Clone()

	assert.False(t, cart.Remove(uuid.New()))
	assert.Empty(t, cmp.Diff(before, cart, cartCmpOpts()))

	assert.True(t, cart.Remove(a.ID))
	assert.False(t, cart.Remove(a.ID))

	_, err := cart.Add(a, 1)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.Product.ID)
	}
	assert.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, ids, "re-added product goes to the end")
}

func TestCart_Remove_DoesNotAliasClone(t *testing.T) {
	cart := domain.NewCart(peso)
	a := product("1")
	b := product("2")
	_, _ = cart.Add(a, 1)
	_, _ = cart.Add(b, 1)

	clone := cart.Clone()
	cart.Remove(a.ID)

	require.Len(t, clone.Lines, 2)
	assert.Equal(t, a.ID, clone.Lines[0].Product.ID)
}

func TestCart_Subtract(t *testing.T) {
	a := product("100")
	b := product("50")
	late := product("20")

	cart := domain.NewCart(peso)
	_, _ = cart.Add(a, 2)
	_, _ = cart.Add(b, 1)
	ordered := cart.Clone()

	_, _ = cart.Add(a, 1)
	_, _ = cart.Add(late, 3)

	assert.True(t, cart.Subtract(ordered))

	want := []domain.CartLine{{Product: a, Quantity: 1}, {Product: late, Quantity: 3}}
	assert.Empty(t, cmp.Diff(want, cart.Lines, cartCmpOpts()))

	assert.True(t, cart.Subtract(ordered), "a line still present is taken out")
	assert.Empty(t, cmp.Diff([]domain.CartLine{{Product: late, Quantity: 3}}, cart.Lines, cartCmpOpts()))
	assert.False(t, cart.Subtract(ordered))
}

func TestCart_Totals(t *testing.T) {
	// Scenarios: A(100)x2 + B(50)x1 = 250, then decrement A twice, then remove B.
	cart := domain.NewCart(peso)
	a := product("100")
	b := product("50")

	_, _ = cart.Add(a, 1)
	_, _ = cart.Add(a, 1)
	_, _ = cart.Add(b, 1)

	assertMoney(t, "250", cart.Total())
	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, 2, cart.LineCount())

	lineA, _ := cart.Line(a.ID)
	assertMoney(t, "200", lineA.LineTotal())

	cart.Decrement(a.ID)
	cart.Decrement(a.ID)
	assertMoney(t, "150", cart.Total())
	assert.Equal(t, 2, cart.LineCount())

	cart.Remove(b.ID)
	assertMoney(t, "100", cart.Total())
	assert.Equal(t, 1, cart.LineCount())
}

func TestCart_Total_MatchesSumOfLines(t *testing.T) {
	for range 20 {
		cart := domain.NewCart(peso)
		want := decimal.Zero

		for range gofakeit.IntRange(0, 8) {
			p := product(decimal.NewFromFloat(gofakeit.Price(0, 500)).StringFixed(2))
			qty := gofakeit.IntRange(1, 5)
			_, err := cart.Add(p, qty)
			require.NoError(t, err)
			want = want.Add(p.Price.Amount.Mul(decimal.NewFromInt(int64(qty))))
		}

		assert.True(t, want.Equal(cart.Total().Amount), "want %s got %s", want, cart.Total().Amount)
	}
}

func TestCart_Validate(t *testing.T) {
	a := product("1")

	tests := []struct {
		name      string
		cart      domain.Cart
		wantError string
	}{
		{
			name: "valid cart: ok",
			cart: domain.Cart{Currency: peso, Lines: []domain.CartLine{{Product: a, Quantity: 1}}},
		},
		{
			name:      "duplicate line: error",
			cart:      domain.Cart{Currency: peso, Lines: []domain.CartLine{{Product: a, Quantity: 1}, {Product: a, Quantity: 2}}},
			wantError: "duplicate line for product " + a.ID.String(),
		},
		{
			name:      "zero quantity: error",
			cart:      domain.Cart{Currency: peso, Lines: []domain.CartLine{{Product: a, Quantity: 0}}},
			wantError: "product " + a.ID.String() + ": quantity must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cart.Validate()
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func product(price string) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:   uuid.MustParse(gofakeit.UUID()),
		Name: gofakeit.ProductName(),
		Price: domain.Money{
			Amount:   decimal.RequireFromString(price),
			Currency: peso,
		},
		CategoryID: gofakeit.UUID(),
	}
}

func assertMoney(t *testing.T, want string, got domain.Money) {
	t.Helper()

	assert.True(t, decimal.RequireFromString(want).Equal(got.Amount), "want %s got %s", want, got.Amount)
	assert.Equal(t, peso, got.Currency)
}

func cartCmpOpts() cmp.Options {
	return cmp.Options{
		cmp.Comparer(func(x, y currency.Unit) bool {
			return x.String() == y.String()
		}),
		cmpopts.EquateEmpty(),
	}
}
