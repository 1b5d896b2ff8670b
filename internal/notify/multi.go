package notify

import (
	"context"
	"errors"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

// Multi hands every event to all notifiers. One failing notifier does not
// stop the others, the failures are joined.
type Multi []port.Notifier

func (m Multi) NotifyOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyOrderPlaced(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
