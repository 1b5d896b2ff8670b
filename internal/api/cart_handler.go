package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
)

const maxRequestBodySize = 1 << 20

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	// one when omitted
	Quantity *int `json:"quantity,omitempty"`
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, mapCart(h.session(r).Cart, ""))
}

func (h *handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be a UUID")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.deps.Catalog.GetProduct(r.Context(), productID.String())
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("catalog.GetProduct: %w", err))
		return
	}

	store := h.session(r).Cart
	notice, err := store.AddItem(r.Context(), product, quantity)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapCart(store, notice))
}

func (h *handler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	store := h.session(r).Cart
	notice := store.RemoveItem(r.Context(), productID)

	respondJSON(w, http.StatusOK, mapCart(store, notice))
}

func (h *handler) incrementItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	store := h.session(r).Cart
	if !store.IncrementQuantity(r.Context(), productID) {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}

	respondJSON(w, http.StatusOK, mapCart(store, cart.NoticeNone))
}

// decrementItem never removes a line. At quantity 1 the cart is returned unchanged.
func (h *handler) decrementItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	store := h.session(r).Cart
	if !store.DecrementQuantity(r.Context(), productID) {
		if _, found := store.Snapshot().Line(productID); !found {
			respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
			return
		}
		respondJSON(w, http.StatusOK, mapCart(store, cart.NoticeNone))
		return
	}

	respondJSON(w, http.StatusOK, mapCart(store, cart.NoticeQuantityUpdated))
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store := h.session(r).Cart
	notice := store.RemoveAll(r.Context())

	respondJSON(w, http.StatusOK, mapCart(store, notice))
}

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := domain.ProductQuery{
		CategoryID: q.Get("categoryId"),
		ColorID:    q.Get("colorId"),
		SizeID:     q.Get("sizeId"),
	}
	if v := q.Get("isFeatured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "isFeatured must be true or false")
			return
		}
		query.IsFeatured = &featured
	}

	products, err := h.deps.Catalog.ListProducts(r.Context(), query)
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("catalog.ListProducts: %w", err))
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, mapProduct(p))
	}

	respondJSON(w, http.StatusOK, views)
}

func (h *handler) listRegions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, mapRegions(h.deps.Rates))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a UUID")
		return uuid.UUID{}, false
	}
	return productID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("body is empty")
		}
		return fmt.Errorf("dec.Decode: %w", err)
	}
	return nil
}
