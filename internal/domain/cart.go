package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// Cart is the ordered collection of lines for one device.
// Lines keep the order in which products were first added.
type Cart struct {
	Currency currency.Unit
	Lines    []CartLine
}

type CartLine struct {
	Product  ProductSnapshot
	Quantity int
}

func NewCart(unit currency.Unit) Cart {
	return Cart{Currency: unit}
}

func (l CartLine) LineTotal() Money {
	return l.Product.Price.Mul(l.Quantity)
}

// Add appends a new line or bumps the quantity of the existing one.
// It reports whether a line for the product already existed.
func (c *Cart) Add(product ProductSnapshot, quantity int) (bool, error) {
	if quantity < 1 {
		return false, ErrInvalidQuantity
	}
	if product.Price.IsNegative() {
		return false, ErrInvalidPrice
	}

	if len(c.Lines) == 0 && c.Currency == (currency.Unit{}) {
		c.Currency = product.Price.Currency
	}
	if product.Price.Currency != c.Currency {
		return false, fmt.Errorf("%w: product %s priced in %s, cart in %s",
			ErrCurrencyMismatch, product.ID, product.Price.Currency, c.Currency)
	}

	if i := c.index(product.ID); i >= 0 {
		c.Lines[i].Quantity += quantity
		return true, nil
	}

	c.Lines = append(c.Lines, CartLine{Product: product.clone(), Quantity: quantity})
	return false, nil
}

func (c *Cart) Remove(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}

	c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
	return true
}

func (c *Cart) Increment(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}

	c.Lines[i].Quantity++
	return true
}

// Decrement lowers the quantity by one but never below 1.
// Removing a line is always an explicit Remove.
func (c *Cart) Decrement(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 || c.Lines[i].Quantity <= 1 {
		return false
	}

	c.Lines[i].Quantity--
	return true
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// Subtract takes the quantities of ordered out of the cart and drops the lines
// that reach zero. Lines added after ordered was taken are kept.
func (c *Cart) Subtract(ordered Cart) bool {
	changed := false
	for _, line := range ordered.Lines {
		i := c.index(line.Product.ID)
		if i < 0 {
			continue
		}

		changed = true
		if c.Lines[i].Quantity > line.Quantity {
			c.Lines[i].Quantity -= line.Quantity
			continue
		}
		c.Lines = slices.Delete(c.Lines, i, i+1)
	}
	return changed
}

func (c Cart) Line(productID uuid.UUID) (CartLine, bool) {
	i := c.index(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.Lines[i], true
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is recomputed on every call.
func (c Cart) Total() Money {
	total := ZeroMoney(c.Currency)
	for _, line := range c.Lines {
		total.Amount = total.Amount.Add(line.LineTotal().Amount)
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c Cart) ItemCount() int {
	var n int
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

func (c Cart) LineCount() int {
	return len(c.Lines)
}

func (c Cart) Clone() Cart {
	clone := Cart{Currency: c.Currency}
	if c.Lines != nil {
		clone.Lines = make([]CartLine, len(c.Lines))
		for i, line := range c.Lines {
			clone.Lines[i] = CartLine{Product: line.Product.clone(), Quantity: line.Quantity}
		}
	}
	return clone
}

// Validate checks the structural invariants: unique product ids,
// quantities of at least 1 and a single currency.
func (c Cart) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(c.Lines))
	for _, line := range c.Lines {
		id := line.Product.ID
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate line for product %s", id)
		}
		seen[id] = struct{}{}

		if line.Quantity < 1 {
			return fmt.Errorf("product %s: %w", id, ErrInvalidQuantity)
		}
		if line.Product.Price.Currency != c.Currency {
			return fmt.Errorf("product %s: %w", id, ErrCurrencyMismatch)
		}
	}
	return nil
}

func (c Cart) index(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
