package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/client"
	"github.com/nikolayk812/storefront/internal/domain"
)

// uploads may exceed the document limit by the multipart framing
const multipartOverhead = 1 << 20

type DraftRequestDTO struct {
	DeliveryMethod string `json:"deliveryMethod"`
	CompanyName    string `json:"companyName"`
	PONumber       string `json:"poNumber"`
	ContactNumber  string `json:"contactNumber"`
	Address        string `json:"address"`
	Region         string `json:"region"`
	// 2006-01-02 or RFC 3339
	PickupDate     string `json:"pickupDate"`
	AttachedPOURL  string `json:"attachedPOUrl"`
	AttachedPOName string `json:"attachedPOName"`
}

type SubmitRequestDTO struct {
	Confirm bool `json:"confirm"`
}

func (h *handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	h.respondCheckout(w, r, h.session(r))
}

func (h *handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	draft, err := mapDraftRequest(req)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	sess := h.session(r)
	if err := sess.Checkout.UpdateDraft(draft); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.respondCheckout(w, r, sess)
}

func (h *handler) attachDocument(w http.ResponseWriter, r *http.Request) {
	if h.deps.Uploader == nil {
		respondError(w, http.StatusNotImplemented, "not_implemented", "document upload is not configured")
		return
	}

	maxSize := h.deps.MaxUploadSize
	if maxSize <= 0 {
		maxSize = client.DefaultMaxDocumentSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondErr(w, r, h.logger, domain.NewValidationError(nil, domain.FieldError{
				Field:   "document",
				Message: fmt.Sprintf("file is larger than %d bytes", maxSize),
			}))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "multipart field file is required")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ref, err := h.session(r).Checkout.AttachDocument(r.Context(), domain.Document{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, ref)
}

func (h *handler) review(w http.ResponseWriter, r *http.Request) {
	summary, err := h.session(r).Checkout.Review(r.Context())
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, mapSummary(summary))
}

func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if err := sess.Checkout.Edit(r.Context()); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.respondCheckout(w, r, sess)
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !req.Confirm {
		respondError(w, http.StatusBadRequest, "confirmation_required", "confirm the order before placing it")
		return
	}

	sess := h.session(r)
	result, err := sess.Checkout.Submit(r.Context())
	if err != nil {
		status, resp := mapErr(r, h.logger, err)
		if checkout.IsRejected(err) {
			resp.State = sess.Checkout.State().String()
		}
		respondJSON(w, status, resp)
		return
	}

	respondJSON(w, http.StatusCreated, mapResult(result))
}

func (h *handler) resetCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if err := sess.Checkout.Reset(); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	h.respondCheckout(w, r, sess)
}

func (h *handler) respondCheckout(w http.ResponseWriter, r *http.Request, sess *Session) {
	summary, err := sess.Checkout.Summary()
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("checkout.Summary: %w", err))
		return
	}

	view := checkoutView{
		State:   sess.Checkout.State().String(),
		Draft:   mapDraft(sess.Checkout.Draft()),
		Summary: mapSummary(summary),
		Regions: mapRegions(h.deps.Rates),
	}
	if result, ok := sess.Checkout.Result(); ok {
		rv := mapResult(result)
		view.Result = &rv
	}

	respondJSON(w, http.StatusOK, view)
}

func mapDraftRequest(req DraftRequestDTO) (domain.OrderDraft, error) {
	draft := domain.OrderDraft{
		DeliveryMethod: domain.DeliveryMethod(req.DeliveryMethod),
		CompanyName:    req.CompanyName,
		PONumber:       req.PONumber,
		ContactNumber:  req.ContactNumber,
		Address:        req.Address,
		Region:         req.Region,
		AttachedPOURL:  req.AttachedPOURL,
		AttachedPOName: req.AttachedPOName,
	}

	if req.PickupDate != "" {
		date, err := parseDate(req.PickupDate)
		if err != nil {
			return domain.OrderDraft{}, domain.NewValidationError(err, domain.FieldError{
				Field:   "pickupDate",
				Message: "must be a date like 2026-03-11",
			})
		}
		draft.PickupDate = &date
	}

	return draft, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("time.Parse: %w", err)
	}
	return t, nil
}
