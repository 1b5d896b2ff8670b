package notify

import (
	"context"
	"fmt"

	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

type mailer struct {
	client *client.MailClient
}

// NewMailer sends confirmations to the mail collaborator at url. Its failures
// wrap domain.ErrEmailNotSent.
func NewMailer(url string, opts ...client.Option) (port.Notifier, error) {
	mc, err := client.NewMail(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("client.NewMail: %w", err)
	}

	return &mailer{client: mc}, nil
}

func (m *mailer) NotifyOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	msg, err := RenderConfirmation(event)
	if err != nil {
		return fmt.Errorf("%w: RenderConfirmation: %w", domain.ErrEmailNotSent, err)
	}

	if err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: client.Send: %w", domain.ErrEmailNotSent, err)
	}
	return nil
}
