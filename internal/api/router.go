// Package api is the HTTP surface of the storefront: the cart, the checkout
// flow and the order history of the signed-in user.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nikolayk812/storefront/internal/auth"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Deps are the collaborators of the HTTP surface. Uploader, Notifier and
// Verifier are optional.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Carts    port.CartRepository
	Catalog  port.Catalog
	Orders   port.OrderBackend
	History  port.OrderHistory
	Uploader port.DocumentUploader
	Notifier port.Notifier
	Verifier *auth.Verifier

	Rates domain.ShippingRates

	RequestTimeout time.Duration
	SaveTimeout    time.Duration
	SubmitTimeout  time.Duration
	SessionTTL     time.Duration
	MaxUploadSize  int64
	SecureCookies  bool

	// Now is the clock of the checkout sessions, time.Now when nil.
	Now func() time.Time
}

type handler struct {
	deps     Deps
	logger   *slog.Logger
	sessions *Sessions
}

func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}

	h := &handler{deps: deps, logger: deps.Logger}
	h.sessions = NewSessions(h.openSession, deps.SessionTTL, deps.Now)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LogMiddleware(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "storefront")
		})
		r.Use(DeviceMiddleware(deps.SecureCookies))
		if deps.Verifier != nil {
			r.Use(auth.Middleware(deps.Verifier, deps.Logger))
		}

		r.Get("/products", h.listProducts)
		r.Get("/shipping-regions", h.listRegions)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addItem)
			r.Delete("/items/{productID}", h.removeItem)
			r.Post("/items/{productID}/increment", h.incrementItem)
			r.Post("/items/{productID}/decrement", h.decrementItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.getCheckout)
			r.Delete("/", h.resetCheckout)
			r.Put("/draft", h.updateDraft)
			r.Post("/attachment", h.attachDocument)
			r.Post("/review", h.review)
			r.Post("/edit", h.edit)
			r.Post("/submit", h.submit)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Get("/{orderID}", h.getOrder)
		})
	})

	return r
}

func (h *handler) openSession(ctx context.Context, deviceID string) *Session {
	logger := h.logger.With("device_id", deviceID)

	cartOpts := []cart.Option{cart.WithLogger(logger), cart.WithMetrics(h.deps.Metrics)}
	if h.deps.SaveTimeout > 0 {
		cartOpts = append(cartOpts, cart.WithSaveTimeout(h.deps.SaveTimeout))
	}
	store := cart.Open(ctx, h.deps.Carts, cart.StorageKey(deviceID), h.deps.Rates.Currency, cartOpts...)

	checkoutOpts := []checkout.Option{
		checkout.WithLogger(logger),
		checkout.WithMetrics(h.deps.Metrics),
		checkout.WithClock(h.deps.Now),
	}
	if h.deps.SubmitTimeout > 0 {
		checkoutOpts = append(checkoutOpts, checkout.WithSubmitTimeout(h.deps.SubmitTimeout))
	}
	if h.deps.Uploader != nil {
		checkoutOpts = append(checkoutOpts, checkout.WithUploader(h.deps.Uploader))
	}
	if h.deps.Notifier != nil {
		checkoutOpts = append(checkoutOpts, checkout.WithNotifier(h.deps.Notifier))
	}

	return &Session{
		Cart:     store,
		Checkout: checkout.New(store, h.deps.Orders, auth.Provider{}, h.deps.Rates, checkoutOpts...),
	}
}

func (h *handler) session(r *http.Request) *Session {
	sess := h.sessions.Get(r.Context(), deviceIDFromContext(r.Context()))
	sess.Cart.Hydrate(r.Context())
	return sess
}
