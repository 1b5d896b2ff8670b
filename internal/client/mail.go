package client

import (
	"context"
	"fmt"
	"net/http"
)

// MailClient posts rendered messages to the mail collaborator, which may
// answer with any 2xx status.
type MailClient struct {
	url string
	hc  *http.Client
}

func NewMail(url string, opts ...Option) (*MailClient, error) {
	if url == "" {
		return nil, fmt.Errorf("url is empty")
	}

	o := newOptions(opts)

	return &MailClient{url: url, hc: o.httpClient}, nil
}

func (c *MailClient) Send(ctx context.Context, msg any) error {
	if err := doJSON(ctx, c.hc, http.MethodPost, c.url, nil, msg, nil, anySuccess); err != nil {
		return fmt.Errorf("doJSON: %w", err)
	}
	return nil
}
