package api

import (
	"context"
	"sync"
	"time"

	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Session is the cart and the checkout of one device.
type Session struct {
	Cart     *cart.Store
	Checkout *checkout.Coordinator

	lastSeen time.Time
}

type SessionFactory func(ctx context.Context, deviceID string) *Session

// Sessions keeps the live sessions in memory. The cart itself outlives an
// evicted session in its repository and is hydrated again on the next request.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time

	group singleflight.Group
	open  SessionFactory
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(open SessionFactory, ttl time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		open:     open,
		ttl:      ttl,
		now:      now,
	}
}

// Get returns the session of deviceID, opening it on first use. Concurrent
// first requests of one device share a single hydration.
func (s *Sessions) Get(ctx context.Context, deviceID string) *Session {
	if sess, ok := s.lookup(deviceID); ok {
		return sess
	}

	v, _, _ := s.group.Do(deviceID, func() (any, error) {
		if sess, ok := s.lookup(deviceID); ok {
			return sess, nil
		}

		// shared by every waiting request, so one cancelled caller must not abort it
		sess := s.open(context.WithoutCancel(ctx), deviceID)

		s.mu.Lock()
		sess.lastSeen = s.now()
		s.sessions[deviceID] = sess
		s.mu.Unlock()

		return sess, nil
	})

	return v.(*Session)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Sessions) lookup(deviceID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	sess, ok := s.sessions[deviceID]
	if ok {
		sess.lastSeen = now
	}
	return sess, ok
}

// sweep drops sessions idle for longer than ttl, at most once per ttl.
// A session with an order in flight is kept.
func (s *Sessions) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now

	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) < s.ttl {
			continue
		}
		if sess.Checkout.State() == domain.CheckoutStateSubmitting {
			continue
		}
		delete(s.sessions, id)
	}
}
