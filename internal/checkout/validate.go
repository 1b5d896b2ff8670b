package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nikolayk812/storefront/internal/domain"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// validateDraft checks the draft for its delivery method. Only the fields the
// chosen method requires are enforced.
func (c *Coordinator) validateDraft(draft domain.OrderDraft) error {
	var fields []domain.FieldError

	err := c.validate.Struct(draft)
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields = append(fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	case err != nil:
		return fmt.Errorf("validate.Struct: %w", err)
	}

	switch draft.DeliveryMethod {
	case domain.DeliveryMethodDelivery:
		if draft.Region != "" {
			if _, ok := c.rates.Fee(draft.Region); !ok {
				fields = append(fields, domain.FieldError{Field: "region", Message: domain.ErrUnknownRegion.Error()})
			}
		}
	case domain.DeliveryMethodPickUp:
		if draft.PickupDate != nil && beforeDay(*draft.PickupDate, c.now()) {
			fields = append(fields, domain.FieldError{Field: "pickupDate", Message: "must not be in the past"})
		}
	}

	if len(fields) > 0 {
		return domain.NewValidationError(nil, fields...)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	default:
		return "is not valid"
	}
}

func beforeDay(t, now time.Time) bool {
	y1, m1, d1 := t.In(now.Location()).Date()
	y2, m2, d2 := now.Date()

	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}

// validateCart rejects carts that cannot be ordered.
func validateCart(cart domain.Cart) error {
	if cart.IsEmpty() {
		return domain.NewValidationError(domain.ErrEmptyCart, domain.FieldError{Field: "cart", Message: domain.ErrEmptyCart.Error()})
	}
	if err := cart.Validate(); err != nil {
		return domain.NewValidationError(err, domain.FieldError{Field: "cart", Message: err.Error()})
	}
	return nil
}
