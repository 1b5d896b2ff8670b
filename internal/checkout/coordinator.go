// Package checkout drives one checkout session from the draft form to a
// placed order. The Coordinator owns the session state machine, validates the
// draft, submits the order exactly once at a time and clears the cart only
// after the order backend accepted it.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
)

const (
	DefaultSubmitTimeout = 30 * time.Second
	DefaultNotifyTimeout = 10 * time.Second

	// WarningNotificationFailed is surfaced when the order was placed but the
	// confirmation email could not be sent. Failures of the order event
	// publishers are only logged and counted.
	WarningNotificationFailed = "Order placed, but the confirmation email could not be sent."

	defaultRedirectURL = "/"
)

// CartStore is the part of the cart store checkout reads and clears.
type CartStore interface {
	Snapshot() domain.Cart
	RemoveOrdered(ctx context.Context, ordered domain.Cart) cart.Notice
}

type Coordinator struct {
	mu    sync.Mutex
	state domain.CheckoutState
	draft domain.OrderDraft

	// order number of the current logical submission and the fingerprint of
	// the request it was issued for
	orderNumber string
	fingerprint string
	result      *domain.SubmissionResult

	cart     CartStore
	backend  port.OrderBackend
	notifier port.Notifier
	auth     port.AuthProvider
	uploader port.DocumentUploader
	rates    domain.ShippingRates

	validate      *validator.Validate
	submitTimeout time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	newReference  func() string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Coordinator)

func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.submitTimeout = d }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.notifyTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithUploader enables AttachDocument.
func WithUploader(u port.DocumentUploader) Option {
	return func(c *Coordinator) { c.uploader = u }
}

// WithNotifier sends an order confirmation after every placed order.
func WithNotifier(n port.Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func New(
	cartStore CartStore,
	backend port.OrderBackend,
	auth port.AuthProvider,
	rates domain.ShippingRates,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		state:         domain.CheckoutStateCollecting,
		cart:          cartStore,
		backend:       backend,
		auth:          auth,
		rates:         rates,
		validate:      newValidator(),
		submitTimeout: DefaultSubmitTimeout,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
		newReference:  func() string { return "ORD-" + uuid.NewString() },
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() domain.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Coordinator) Draft() domain.OrderDraft {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.draft
}

// Result is the outcome of the last successful submission.
func (c *Coordinator) Result() (domain.SubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result == nil {
		return domain.SubmissionResult{}, false
	}
	return *c.result, true
}

// UpdateDraft replaces the form fields. An attached document survives unless
// the new draft names a different one.
func (c *Coordinator) UpdateDraft(draft domain.OrderDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CheckoutStateCollecting {
		return fmt.Errorf("%w: update draft in state %s", domain.ErrIllegalTransition, c.state)
	}

	if draft.AttachedPOURL == "" {
		draft.AttachedPOURL = c.draft.AttachedPOURL
		draft.AttachedPOName = c.draft.AttachedPOName
	}

	c.draft = draft
	return nil
}

// AttachDocument uploads the purchase order document and records its
// location on the draft.
func (c *Coordinator) AttachDocument(ctx context.Context, doc domain.Document) (domain.DocumentRef, error) {
	if c.uploader == nil {
		return domain.DocumentRef{}, fmt.Errorf("document upload is not configured")
	}
	if state := c.State(); state != domain.CheckoutStateCollecting {
		return domain.DocumentRef{}, fmt.Errorf("%w: attach document in state %s", domain.ErrIllegalTransition, state)
	}

	ref, err := c.uploader.Upload(ctx, doc)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("uploader.Upload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the session moved on while the upload was running
	if c.state != domain.CheckoutStateCollecting {
		return domain.DocumentRef{}, fmt.Errorf("%w: attach document in state %s", domain.ErrIllegalTransition, c.state)
	}

	c.draft.AttachedPOURL = ref.URL
	c.draft.AttachedPOName = ref.Name

	return ref, nil
}

// Review validates the draft and the cart and moves the session to Reviewing.
func (c *Coordinator) Review(ctx context.Context) (domain.OrderSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case domain.CheckoutStateCollecting, domain.CheckoutStateFailed:
	default:
		return domain.OrderSummary{}, fmt.Errorf("%w: review in state %s", domain.ErrIllegalTransition, c.state)
	}

	snapshot := c.cart.Snapshot()
	if err := validateCart(snapshot); err != nil {
		return domain.OrderSummary{}, err
	}
	if err := c.validateDraft(c.draft); err != nil {
		return domain.OrderSummary{}, err
	}

	summary, err := c.summarize(snapshot, c.draft)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("c.summarize: %w", err)
	}

	c.transition(ctx, domain.CheckoutStateReviewing)
	return summary, nil
}

// Edit returns to the form from Reviewing or Failed.
func (c *Coordinator) Edit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.CheckoutStateCollecting {
		return nil
	}
	if !domain.CanTransitionTo(c.state, domain.CheckoutStateCollecting) {
		return fmt.Errorf("%w: edit in state %s", domain.ErrIllegalTransition, c.state)
	}

	c.transition(ctx, domain.CheckoutStateCollecting)
	return nil
}

// Summary is the live recap of the cart and the current draft. Until a
// delivery method and a known region are chosen the shipping fee is zero.
func (c *Coordinator) Summary() (domain.OrderSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fee, err := domain.ShippingFee(c.draft.DeliveryMethod, c.draft.Region, c.rates)
	if err != nil {
		fee = domain.ZeroMoney(c.rates.Currency)
	}

	return recap(c.cart.Snapshot(), c.draft, fee)
}

// Reset discards the draft and starts a new session. It is refused while an
// order is being submitted.
func (c *Coordinator) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.CheckoutStateSubmitting {
		return domain.ErrSubmissionInFlight
	}

	c.state = domain.CheckoutStateCollecting
	c.draft = domain.OrderDraft{}
	c.orderNumber = ""
	c.fingerprint = ""
	c.result = nil
	return nil
}

// Submit places the order. Preconditions are re-checked right before the
// network call; a failed precondition never reaches the order backend.
// Submitting from Failed is a retry and reuses the order number while the
// order content is unchanged.
func (c *Coordinator) Submit(ctx context.Context) (domain.SubmissionResult, error) {
	req, user, snapshot, err := c.beginSubmission(ctx)
	if err != nil {
		c.observe("rejected")
		return domain.SubmissionResult{}, err
	}

	logger := c.logger.With("order_number", req.OrderNumber)

	callCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	start := c.now()
	result, err := c.backend.CreateOrder(callCtx, req)
	cancel()
	if c.metrics != nil {
		c.metrics.SubmissionDuration.Observe(c.now().Sub(start).Seconds())
	}

	if err != nil {
		c.mu.Lock()
		c.transition(ctx, domain.CheckoutStateFailed)
		c.mu.Unlock()

		c.observe("failure")
		logger.Error("order submission failed", "error", err)
		return domain.SubmissionResult{}, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}

	if result.RedirectURL == "" {
		result.RedirectURL = defaultRedirectURL
	}
	result.OrderNumber = req.OrderNumber

	c.cart.RemoveOrdered(ctx, snapshot)

	if c.notifier != nil {
		if err := c.notify(ctx, result, user, req, snapshot); err != nil {
			logger.Warn("order confirmation not delivered", "order_id", result.OrderID, "error", err)
			if c.metrics != nil {
				c.metrics.NotificationFailures.Inc()
			}
			if errors.Is(err, domain.ErrEmailNotSent) {
				result.Warnings = append(result.Warnings, WarningNotificationFailed)
			}
		}
	}

	c.mu.Lock()
	c.result = &result
	c.transition(ctx, domain.CheckoutStateSubmitted)
	c.mu.Unlock()

	c.observe("success")
	logger.Info("order placed", "order_id", result.OrderID)

	return result, nil
}

// beginSubmission checks the preconditions and moves the session to
// Submitting. The returned request is what goes over the wire.
func (c *Coordinator) beginSubmission(ctx context.Context) (domain.OrderRequest, domain.User, domain.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case domain.CheckoutStateSubmitting:
		return domain.OrderRequest{}, domain.User{}, domain.Cart{}, domain.ErrSubmissionInFlight
	case domain.CheckoutStateReviewing, domain.CheckoutStateFailed:
	default:
		return domain.OrderRequest{}, domain.User{}, domain.Cart{},
			fmt.Errorf("%w: submit in state %s", domain.ErrIllegalTransition, c.state)
	}

	user, ok := c.auth.CurrentUser(ctx)
	if !ok {
		return domain.OrderRequest{}, domain.User{}, domain.Cart{}, domain.ErrNotAuthenticated
	}

	snapshot := c.cart.Snapshot()
	if err := validateCart(snapshot); err != nil {
		return domain.OrderRequest{}, domain.User{}, domain.Cart{}, err
	}

	if err := c.validateDraft(c.draft); err != nil {
		c.transition(ctx, domain.CheckoutStateCollecting)
		return domain.OrderRequest{}, domain.User{}, domain.Cart{}, err
	}

	req, err := c.buildRequest(snapshot, c.draft, user)
	if err != nil {
		return domain.OrderRequest{}, domain.User{}, domain.Cart{}, fmt.Errorf("c.buildRequest: %w", err)
	}

	fp := fingerprint(req)
	if c.orderNumber == "" || fp != c.fingerprint {
		c.orderNumber = c.newReference()
		c.fingerprint = fp
	}
	req.OrderNumber = c.orderNumber

	if c.state == domain.CheckoutStateFailed {
		c.transition(ctx, domain.CheckoutStateReviewing)
	}
	c.transition(ctx, domain.CheckoutStateSubmitting)

	return req, user, snapshot, nil
}

func (c *Coordinator) buildRequest(snapshot domain.Cart, draft domain.OrderDraft, user domain.User) (domain.OrderRequest, error) {
	summary, err := c.summarize(snapshot, draft)
	if err != nil {
		return domain.OrderRequest{}, fmt.Errorf("c.summarize: %w", err)
	}

	req := domain.OrderRequest{
		Items:          make([]domain.OrderItemRequest, 0, len(snapshot.Lines)),
		DeliveryMethod: draft.DeliveryMethod,
		CompanyName:    draft.CompanyName,
		PONumber:       draft.PONumber,
		ContactNumber:  draft.ContactNumber,
		AttachedPOURL:  draft.AttachedPOURL,
		ClientName:     user.Name,
		ClientEmail:    user.Email,
		ShippingFee:    summary.ShippingFee,
		Total:          summary.GrandTotal,
	}

	switch draft.DeliveryMethod {
	case domain.DeliveryMethodDelivery:
		req.Address = draft.Address
		req.Region = draft.Region
	case domain.DeliveryMethodPickUp:
		req.PickupDate = draft.PickupDate
	}

	for _, line := range snapshot.Lines {
		req.Items = append(req.Items, domain.OrderItemRequest{
			ProductID:       line.Product.ID,
			Quantity:        line.Quantity,
			TotalItemAmount: line.LineTotal(),
		})
	}

	return req, nil
}

func (c *Coordinator) summarize(snapshot domain.Cart, draft domain.OrderDraft) (domain.OrderSummary, error) {
	fee, err := domain.ShippingFee(draft.DeliveryMethod, draft.Region, c.rates)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("domain.ShippingFee: %w", err)
	}

	return recap(snapshot, draft, fee)
}

func recap(snapshot domain.Cart, draft domain.OrderDraft, fee domain.Money) (domain.OrderSummary, error) {
	subtotal := snapshot.Total()
	if snapshot.IsEmpty() {
		subtotal = domain.ZeroMoney(fee.Currency)
	}

	grand, err := domain.GrandTotal(subtotal, fee)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("domain.GrandTotal: %w", err)
	}

	return domain.OrderSummary{
		Lines:          snapshot.Lines,
		Subtotal:       subtotal,
		ShippingFee:    fee,
		GrandTotal:     grand,
		ItemCount:      snapshot.ItemCount(),
		LineCount:      snapshot.LineCount(),
		DeliveryMethod: draft.DeliveryMethod,
		Region:         draft.Region,
	}, nil
}

func (c *Coordinator) notify(
	ctx context.Context,
	result domain.SubmissionResult,
	user domain.User,
	req domain.OrderRequest,
	snapshot domain.Cart,
) error {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()

	err := c.notifier.NotifyOrderPlaced(notifyCtx, domain.OrderPlaced{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Customer:    user,
		Request:     req,
		Lines:       snapshot.Lines,
		PlacedAt:    c.now(),
	})
	if err != nil {
		return fmt.Errorf("notifier.NotifyOrderPlaced: %w", err)
	}
	return nil
}

// transition must be called with c.mu held.
func (c *Coordinator) transition(ctx context.Context, to domain.CheckoutState) {
	if !domain.CanTransitionTo(c.state, to) {
		// every caller checks the state first, reaching this is a bug
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", c.state, to))
	}

	c.logger.DebugContext(ctx, "checkout state changed", "from", c.state, "to", to)
	c.state = to
}

func (c *Coordinator) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.Submissions.WithLabelValues(outcome).Inc()
	}
}

// fingerprint identifies the content of an order request, the order number
// excluded, so retries of the same order can be recognised.
func fingerprint(req domain.OrderRequest) string {
	h := sha256.New()

	for _, item := range req.Items {
		write(h, "item", item.ProductID.String(), item.Quantity, item.TotalItemAmount.String())
	}
	write(h, "delivery", req.DeliveryMethod, req.Address, req.Region)
	if req.PickupDate != nil {
		write(h, "pickup", req.PickupDate.UTC().Format(time.DateOnly))
	}
	write(h, "company", req.CompanyName, req.PONumber, req.ContactNumber, req.AttachedPOURL)
	write(h, "client", req.ClientName, req.ClientEmail)
	write(h, "totals", req.ShippingFee.String(), req.Total.String())

	return hex.EncodeToString(h.Sum(nil))
}

func write(h hash.Hash, fields ...any) {
	for _, f := range fields {
		_, _ = fmt.Fprintf(h, "%v\x1f", f)
	}
	_, _ = h.Write([]byte{'\n'})
}

// IsRejected reports whether err is a precondition failure that never reached
// the order backend.
func IsRejected(err error) bool {
	return domain.IsValidation(err) ||
		errors.Is(err, domain.ErrNotAuthenticated) ||
		errors.Is(err, domain.ErrSubmissionInFlight) ||
		errors.Is(err, domain.ErrIllegalTransition)
}
