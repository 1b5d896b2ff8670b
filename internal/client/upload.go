package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
)

const DefaultMaxDocumentSize = 10 << 20

var (
	allowedDocumentTypes = []string{"application/pdf", "image/png", "image/jpeg"}
	quoteEscaper         = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
)

type uploader struct {
	baseURL string
	maxSize int64
	hc      *http.Client
}

// NewUploader stores purchase order documents in the remote upload service.
func NewUploader(baseURL string, maxSize int64, opts ...Option) (port.DocumentUploader, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}

	o := newOptions(opts)

	return &uploader{
		baseURL: baseURL,
		maxSize: maxSize,
		hc:      o.httpClient,
	}, nil
}

func (u *uploader) Upload(ctx context.Context, doc domain.Document) (domain.DocumentRef, error) {
	if err := u.check(doc); err != nil {
		return domain.DocumentRef{}, err
	}

	content, err := io.ReadAll(io.LimitReader(doc.Body, u.maxSize+1))
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("io.ReadAll: %w", err)
	}
	if int64(len(content)) > u.maxSize {
		return domain.DocumentRef{}, tooLarge(u.maxSize)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(doc.Name)))
	h.Set("Content-Type", doc.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("mw.CreatePart: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return domain.DocumentRef{}, fmt.Errorf("part.Write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.DocumentRef{}, fmt.Errorf("mw.Close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(u.baseURL, "/upload"), &body)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var ref domain.DocumentRef
	if err := do(u.hc, req, &ref, http.StatusOK); err != nil {
		return domain.DocumentRef{}, fmt.Errorf("do: %w", err)
	}
	if ref.URL == "" {
		return domain.DocumentRef{}, fmt.Errorf("upload response has no url")
	}
	if ref.Name == "" {
		ref.Name = doc.Name
	}

	return ref, nil
}

func (u *uploader) check(doc domain.Document) error {
	if doc.Name == "" {
		return domain.NewValidationError(nil, domain.FieldError{Field: "document", Message: "file name is required"})
	}
	if doc.Body == nil {
		return domain.NewValidationError(nil, domain.FieldError{Field: "document", Message: "file is empty"})
	}
	if !slices.Contains(allowedDocumentTypes, doc.ContentType) {
		return domain.NewValidationError(nil, domain.FieldError{
			Field:   "document",
			Message: fmt.Sprintf("content type %q is not allowed, use PDF, PNG or JPEG", doc.ContentType),
		})
	}
	if doc.Size > u.maxSize {
		return tooLarge(u.maxSize)
	}
	return nil
}

func tooLarge(maxSize int64) error {
	return domain.NewValidationError(nil, domain.FieldError{
		Field:   "document",
		Message: fmt.Sprintf("file is larger than %d bytes", maxSize),
	})
}
