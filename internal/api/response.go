package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikolayk812/storefront/internal/auth"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/domain"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Details string              `json:"details,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
	// State is the checkout state a rejected submission left the session in.
	State string `json:"state,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondErr maps domain and upstream failures to a status and an error code.
// Anything unknown is logged and answered with 500 without leaking details.
func respondErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, resp := mapErr(r, logger, err)
	respondJSON(w, status, resp)
}

func mapErr(r *http.Request, logger *slog.Logger, err error) (int, ErrorResponse) {
	var (
		ve *domain.ValidationError
		se *client.StatusError
	)

	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:  ve.Error(),
			Code:   "validation_failed",
			Fields: ve.Fields,
		}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: domain.ErrNotAuthenticated.Error(), Code: "unauthenticated"}
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "unauthorized"}
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict, ErrorResponse{Error: domain.ErrSubmissionInFlight.Error(), Code: "submission_in_flight"}
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "illegal_transition"}
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrSubmissionFailed):
		logger.WarnContext(r.Context(), "order submission failed", "error", err)
		return http.StatusBadGateway, ErrorResponse{Error: domain.ErrSubmissionFailed.Error(), Code: "submission_failed"}
	case errors.As(err, &se):
		logger.WarnContext(r.Context(), "upstream service failed", "error", err)
		return http.StatusBadGateway, ErrorResponse{Error: "the store backend is unavailable, please try again", Code: "upstream_error"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "the request took too long, please try again", Code: "timeout"}
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err)
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"}
	}
}
