package domain

import (
	"github.com/google/uuid"
)

type Image struct {
	ID  string
	URL string
}

// ProductSnapshot is the copy of a catalog product taken when it is added to a cart.
// The cart line owns it, so later catalog price changes never reach existing lines.
type ProductSnapshot struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Price        Money
	CategoryID   string
	CategoryName string
	SizeID       string
	SizeName     string
	ColorID      string
	ColorName    string
	Images       []Image
	IsFeatured   bool
	Stock        *int
}

func (p ProductSnapshot) clone() ProductSnapshot {
	c := p
	if p.Images != nil {
		c.Images = append([]Image(nil), p.Images...)
	}
	if p.Stock != nil {
		stock := *p.Stock
		c.Stock = &stock
	}
	return c
}

type ProductQuery struct {
	CategoryID string
	ColorID    string
	SizeID     string
	IsFeatured *bool
}
