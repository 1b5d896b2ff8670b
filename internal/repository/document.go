package repository

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const documentVersion = 1

// cartDocument is the persisted shape of a cart, shared by every backend.
// Amounts are decimal strings so no backend ever rounds through float64.
type cartDocument struct {
	Version  int            `json:"version" bson:"version"`
	Currency string         `json:"currency" bson:"currency"`
	Items    []lineDocument `json:"items" bson:"items"`
}

type lineDocument struct {
	Product  productDocument `json:"product" bson:"product"`
	Quantity int             `json:"quantity" bson:"quantity"`
}

type productDocument struct {
	ID            string          `json:"id" bson:"id"`
	Name          string          `json:"name" bson:"name"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty"`
	Price         string          `json:"price" bson:"price"`
	PriceCurrency string          `json:"priceCurrency" bson:"price_currency"`
	CategoryID    string          `json:"categoryId,omitempty" bson:"category_id,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty" bson:"category_name,omitempty"`
	SizeID        string          `json:"sizeId,omitempty" bson:"size_id,omitempty"`
	SizeName      string          `json:"sizeName,omitempty" bson:"size_name,omitempty"`
	ColorID       string          `json:"colorId,omitempty" bson:"color_id,omitempty"`
	ColorName     string          `json:"colorName,omitempty" bson:"color_name,omitempty"`
	Images        []imageDocument `json:"images,omitempty" bson:"images,omitempty"`
	IsFeatured    bool            `json:"isFeatured,omitempty" bson:"is_featured,omitempty"`
	Stock         *int            `json:"stock,omitempty" bson:"stock,omitempty"`
}

type imageDocument struct {
	ID  string `json:"id" bson:"id"`
	URL string `json:"url" bson:"url"`
}

func encodeCart(cart domain.Cart) ([]byte, error) {
	data, err := json.Marshal(mapCartToDocument(cart))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (domain.Cart, error) {
	var doc cartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	cart, err := mapDocumentToCart(doc)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapDocumentToCart: %w", err)
	}
	return cart, nil
}

func mapCartToDocument(cart domain.Cart) cartDocument {
	doc := cartDocument{
		Version:  documentVersion,
		Currency: cart.Currency.String(),
		Items:    make([]lineDocument, 0, len(cart.Lines)),
	}

	for _, line := range cart.Lines {
		doc.Items = append(doc.Items, lineDocument{
			Product:  mapProductToDocument(line.Product),
			Quantity: line.Quantity,
		})
	}

	return doc
}

func mapProductToDocument(p domain.ProductSnapshot) productDocument {
	doc := productDocument{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.Amount.String(),
		PriceCurrency: p.Price.Currency.String(),
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
		SizeID:        p.SizeID,
		SizeName:      p.SizeName,
		ColorID:       p.ColorID,
		ColorName:     p.ColorName,
		IsFeatured:    p.IsFeatured,
		Stock:         p.Stock,
	}

	for _, img := range p.Images {
		doc.Images = append(doc.Images, imageDocument{ID: img.ID, URL: img.URL})
	}

	return doc
}

func mapDocumentToCart(doc cartDocument) (domain.Cart, error) {
	if doc.Version != documentVersion {
		return domain.Cart{}, fmt.Errorf("document version[%d] is not supported", doc.Version)
	}

	unit, err := currency.ParseISO(doc.Currency)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("currency[%s] is not valid: %w", doc.Currency, err)
	}

	cart := domain.Cart{Currency: unit}

	for i, item := range doc.Items {
		p, err := mapDocumentToProduct(item.Product)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("items[%d]: %w", i, err)
		}

		cart.Lines = append(cart.Lines, domain.CartLine{Product: p, Quantity: item.Quantity})
	}

	return cart, nil
}

func mapDocumentToProduct(doc productDocument) (domain.ProductSnapshot, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("product id[%s] is not valid: %w", doc.ID, err)
	}

	amount, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("price[%s] is not valid: %w", doc.Price, err)
	}

	unit, err := currency.ParseISO(doc.PriceCurrency)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("currency[%s] is not valid: %w", doc.PriceCurrency, err)
	}

	p := domain.ProductSnapshot{
		ID:           id,
		Name:         doc.Name,
		Description:  doc.Description,
		Price:        domain.Money{Amount: amount, Currency: unit},
		CategoryID:   doc.CategoryID,
		CategoryName: doc.CategoryName,
		SizeID:       doc.SizeID,
		SizeName:     doc.SizeName,
		ColorID:      doc.ColorID,
		ColorName:    doc.ColorName,
		IsFeatured:   doc.IsFeatured,
		Stock:        doc.Stock,
	}

	for _, img := range doc.Images {
		p.Images = append(p.Images, domain.Image{ID: img.ID, URL: img.URL})
	}

	return p, nil
}
