package checkout_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nikolayk812/storefront/internal/domain"
)

type fakeBackend struct {
	mu       sync.Mutex
	result   domain.SubmissionResult
	err      error
	received []domain.OrderRequest
}

func (b *fakeBackend) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.SubmissionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.received = append(b.received, req)
	if b.err != nil {
		return domain.SubmissionResult{}, b.err
	}
	return b.result, nil
}

func (b *fakeBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *fakeBackend) requests() []domain.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.OrderRequest(nil), b.received...)
}

// blockingBackend holds the first call until release is closed.
type blockingBackend struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingBackend) CreateOrder(ctx context.Context, _ domain.OrderRequest) (domain.SubmissionResult, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}

	select {
	case <-b.release:
		return domain.SubmissionResult{OrderID: "order-blocking"}, nil
	case <-ctx.Done():
		return domain.SubmissionResult{}, ctx.Err()
	}
}

type hangingBackend struct{}

func (hangingBackend) CreateOrder(ctx context.Context, _ domain.OrderRequest) (domain.SubmissionResult, error) {
	<-ctx.Done()
	return domain.SubmissionResult{}, ctx.Err()
}

type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	received []domain.OrderPlaced
}

func (n *fakeNotifier) NotifyOrderPlaced(_ context.Context, event domain.OrderPlaced) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.received = append(n.received, event)
	return nil
}

func (n *fakeNotifier) events() []domain.OrderPlaced {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.OrderPlaced(nil), n.received...)
}

type fakeAuth struct {
	user *domain.User
}

func (a fakeAuth) CurrentUser(context.Context) (domain.User, bool) {
	if a.user == nil {
		return domain.User{}, false
	}
	return *a.user, true
}

type fakeUploader struct {
	ref domain.DocumentRef
	err error
}

func (u *fakeUploader) Upload(context.Context, domain.Document) (domain.DocumentRef, error) {
	if u.err != nil {
		return domain.DocumentRef{}, u.err
	}
	return u.ref, nil
}
