// Package client talks to the remote storefront collaborators over HTTP: the
// catalog, the order backend and the document upload service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 30 * time.Second
	// error bodies are kept for diagnostics only
	maxErrorBody = 4 << 10

	// anySuccess as wantStatus accepts every 2xx answer
	anySuccess = 0
)

// StatusError is returned when a collaborator answers with an unexpected status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type options struct {
	httpClient *http.Client
}

type Option func(*options)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func newOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// doJSON sends in as a JSON body (when not nil) and decodes a response with
// wantStatus into out (when not nil).
func doJSON(
	ctx context.Context,
	hc *http.Client,
	method, url string,
	header http.Header,
	in, out any,
	wantStatus int,
) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return do(hc, req, out, wantStatus)
}

func do(hc *http.Client, req *http.Request, out any, wantStatus int) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("hc.Do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusOK(resp.StatusCode, wantStatus) {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}
	return nil
}

func statusOK(got, want int) bool {
	if want == anySuccess {
		return got >= 200 && got <= 299
	}
	return got == want
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
