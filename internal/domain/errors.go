package domain

import (
	"errors"
	"strings"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrNotAuthenticated   = errors.New("sign in to place an order")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrSubmissionFailed   = errors.New("order submission failed, please try again")
	ErrUnknownRegion      = errors.New("unknown shipping region")
	ErrUnknownMethod      = errors.New("unknown delivery method")
	ErrEmailNotSent       = errors.New("confirmation email not sent")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a user-correctable failure. It never reaches the network layer.
type ValidationError struct {
	Fields []FieldError
	cause  error
}

func NewValidationError(cause error, fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields, cause: cause}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.cause != nil {
			return e.cause.Error()
		}
		return "validation failed"
	}

	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
