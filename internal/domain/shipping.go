package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type DeliveryMethod string

const (
	DeliveryMethodPickUp   DeliveryMethod = "pick-up"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodPickUp || m == DeliveryMethodDelivery
}

func (m DeliveryMethod) String() string {
	return string(m)
}

// ShippingRates maps a shipping region to its flat delivery fee.
type ShippingRates struct {
	Currency currency.Unit
	Fees     map[string]decimal.Decimal
}

type ShippingRegion struct {
	Name string
	Fee  Money
}

func (r ShippingRates) Fee(region string) (Money, bool) {
	fee, ok := r.Fees[region]
	if !ok {
		return Money{}, false
	}
	return NewMoney(fee, r.Currency), true
}

// Regions lists the table sorted by region name.
func (r ShippingRates) Regions() []ShippingRegion {
	regions := make([]ShippingRegion, 0, len(r.Fees))
	for name, fee := range r.Fees {
		regions = append(regions, ShippingRegion{Name: name, Fee: NewMoney(fee, r.Currency)})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions
}

// ShippingFee is zero for pick-up and the region's flat fee for delivery.
func ShippingFee(method DeliveryMethod, region string, rates ShippingRates) (Money, error) {
	switch method {
	case DeliveryMethodPickUp:
		return ZeroMoney(rates.Currency), nil
	case DeliveryMethodDelivery:
		fee, ok := rates.Fee(region)
		if !ok {
			return Money{}, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
		}
		return fee, nil
	default:
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func GrandTotal(cartTotal, shippingFee Money) (Money, error) {
	return cartTotal.Add(shippingFee)
}
