package api

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/nikolayk812/storefront/internal/auth"
	"github.com/nikolayk812/storefront/internal/domain"
)

// listOrders returns the order history of the signed-in user.
func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondErr(w, r, h.logger, domain.ErrNotAuthenticated)
		return
	}

	orders, err := h.deps.History.ListOrders(r.Context(), user.Email)
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("history.ListOrders: %w", err))
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, mapOrder(o))
	}

	respondJSON(w, http.StatusOK, views)
}

// getOrder answers 404 for an order that is not in the signed-in user's
// history, whether or not it exists.
func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondErr(w, r, h.logger, domain.ErrNotAuthenticated)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is required")
		return
	}

	owned, err := h.deps.History.ListOrders(r.Context(), user.Email)
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("history.ListOrders: %w", err))
		return
	}
	if !slices.ContainsFunc(owned, func(o domain.Order) bool { return o.ID == orderID }) {
		respondErr(w, r, h.logger, fmt.Errorf("order[%s]: %w", orderID, domain.ErrOrderNotFound))
		return
	}

	order, err := h.deps.History.GetOrder(r.Context(), orderID)
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("history.GetOrder: %w", err))
		return
	}

	respondJSON(w, http.StatusOK, mapOrder(order))
}
