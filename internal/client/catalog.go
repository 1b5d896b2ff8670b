package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"
)

type catalog struct {
	baseURL string
	unit    currency.Unit
	hc      *http.Client
	group   singleflight.Group
}

// NewCatalog reads products from the remote catalog. Prices arrive as decimal
// strings and are taken to be in unit.
func NewCatalog(baseURL string, unit currency.Unit, opts ...Option) (port.Catalog, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}

	o := newOptions(opts)

	return &catalog{
		baseURL: baseURL,
		unit:    unit,
		hc:      o.httpClient,
	}, nil
}

func (c *catalog) ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.ProductSnapshot, error) {
	params := url.Values{}
	if query.CategoryID != "" {
		params.Set("categoryId", query.CategoryID)
	}
	if query.ColorID != "" {
		params.Set("colorId", query.ColorID)
	}
	if query.SizeID != "" {
		params.Set("sizeId", query.SizeID)
	}
	if query.IsFeatured != nil {
		params.Set("isFeatured", strconv.FormatBool(*query.IsFeatured))
	}

	u := joinURL(c.baseURL, "/products")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var dtos []productDTO
	if err := doJSON(ctx, c.hc, http.MethodGet, u, nil, nil, &dtos, http.StatusOK); err != nil {
		return nil, fmt.Errorf("doJSON: %w", err)
	}

	products := make([]domain.ProductSnapshot, 0, len(dtos))
	for _, dto := range dtos {
		p, err := mapProduct(dto, c.unit)
		if err != nil {
			return nil, fmt.Errorf("mapProduct: %w", err)
		}
		products = append(products, p)
	}

	return products, nil
}

// GetProduct collapses concurrent lookups of the same product into one request.
func (c *catalog) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	if productID == "" {
		return domain.ProductSnapshot{}, fmt.Errorf("productID is empty")
	}

	v, err, _ := c.group.Do(productID, func() (any, error) {
		var dto productDTO
		u := joinURL(c.baseURL, "/products/"+url.PathEscape(productID))

		if err := doJSON(ctx, c.hc, http.MethodGet, u, nil, nil, &dto, http.StatusOK); err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
			}
			return nil, fmt.Errorf("doJSON: %w", err)
		}

		p, err := mapProduct(dto, c.unit)
		if err != nil {
			return nil, fmt.Errorf("mapProduct: %w", err)
		}
		return p, nil
	})
	if err != nil {
		return domain.ProductSnapshot{}, err
	}

	// every caller gets its own copy of the shared snapshot
	p := v.(domain.ProductSnapshot)
	p.Images = append([]domain.Image(nil), p.Images...)
	return p, nil
}
