package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/domain/listing"
	"github.com/kasoamart/boostpay/internal/domain/outbox"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/google/uuid"
)

// --- Transaction Repository Mock ---

// MockTransactionRepository is an in-memory implementation of
// boost.Repository with the same atomicity semantics as the postgres
// conditional update, so concurrency tests exercise the real contract.
type MockTransactionRepository struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*boost.Transaction

	CreateFunc                func(ctx context.Context, t *boost.Transaction) error
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*boost.Transaction, error)
	TransitionFromPendingFunc func(ctx context.Context, id uuid.UUID, to boost.Status, gatewayRef, failureReason *string) (bool, error)
	SetGatewayRefFunc         func(ctx context.Context, id uuid.UUID, ref string) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[uuid.UUID]*boost.Transaction),
	}
}

// AddTransaction pre-populates the mock with a transaction.
func (m *MockTransactionRepository) AddTransaction(t *boost.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *boost.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*boost.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	// Copies keep callers from mutating stored state around the
	// conditional update.
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, to boost.Status, gatewayRef, failureReason *string) (bool, error) {
	if m.TransitionFromPendingFunc != nil {
		return m.TransitionFromPendingFunc(ctx, id, to, gatewayRef, failureReason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return false, nil
	}
	if t.Status != boost.StatusPending {
		return false, nil
	}
	now := time.Now()
	t.Status = to
	// Matches the conditional update's COALESCE: a nil ref keeps
	// whatever the collect acknowledgement recorded.
	if gatewayRef != nil {
		t.GatewayRef = gatewayRef
	}
	t.FailureReason = failureReason
	t.UpdatedAt = now
	t.CompletedAt = &now
	return true, nil
}

func (m *MockTransactionRepository) SetGatewayRef(ctx context.Context, id uuid.UUID, ref string) error {
	if m.SetGatewayRefFunc != nil {
		return m.SetGatewayRefFunc(ctx, id, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domainErrors.ErrTransactionNotFound
	}
	t.GatewayRef = &ref
	t.UpdatedAt = time.Now()
	return nil
}

func (m *MockTransactionRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*boost.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*boost.Transaction
	for _, t := range m.transactions {
		if t.Status == boost.StatusPending && t.ExpiresAt.Before(before) {
			cp := *t
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// --- Package Repository Mock ---

type MockPackageRepository struct {
	mu       sync.Mutex
	packages map[uuid.UUID]*catalog.Package

	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*catalog.Package, error)
	ListActiveFunc func(ctx context.Context) ([]*catalog.Package, error)
}

func NewMockPackageRepository() *MockPackageRepository {
	return &MockPackageRepository{
		packages: make(map[uuid.UUID]*catalog.Package),
	}
}

func (m *MockPackageRepository) AddPackage(p *catalog.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.ID] = p
}

func (m *MockPackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Package, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, domainErrors.ErrUnknownPackage
	}
	return p, nil
}

func (m *MockPackageRepository) ListActive(ctx context.Context) ([]*catalog.Package, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Package
	for _, p := range m.packages {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Listing Repository Mock ---

type MockListingRepository struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listing.Listing

	// SetPremiumCalls counts applications, for exactly-once assertions.
	SetPremiumCalls int

	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
	SetPremiumFunc func(ctx context.Context, id uuid.UUID, until time.Time) error
}

func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{
		listings: make(map[uuid.UUID]*listing.Listing),
	}
}

func (m *MockListingRepository) AddListing(l *listing.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, domainErrors.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockListingRepository) SetPremium(ctx context.Context, id uuid.UUID, until time.Time) error {
	if m.SetPremiumFunc != nil {
		return m.SetPremiumFunc(ctx, id, until)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domainErrors.ErrListingNotFound
	}
	m.SetPremiumCalls++
	l.IsPremium = true
	l.PremiumUntil = &until
	return nil
}

// GetListingByID returns the stored listing (test helper, no context needed).
func (m *MockListingRepository) GetListingByID(id uuid.UUID) *listing.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings[id]
}

// PremiumCalls returns the number of SetPremium applications.
func (m *MockListingRepository) PremiumCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SetPremiumCalls
}

// --- Outbox Repository Mock ---

type MockOutboxRepository struct {
	mu      sync.Mutex
	entries []*outbox.Entry

	InsertFunc        func(ctx context.Context, entry *outbox.Entry) error
	GetPendingFunc    func(ctx context.Context, limit int) ([]*outbox.Entry, error)
	MarkPublishedFunc func(ctx context.Context, id uuid.UUID) error
	MarkFailedFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = outbox.StatusPublished
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.RetryCount++
			if e.RetryCount >= e.MaxRetries {
				e.Status = outbox.StatusFailed
			}
		}
	}
	return nil
}

// Entries returns a snapshot of everything inserted.
func (m *MockOutboxRepository) Entries() []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*outbox.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// --- Transaction Manager Mock ---

type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Gateway Stub ---

// StubGateway is a scripted gateway for service tests.
type StubGateway struct {
	CollectFunc     func(ctx context.Context, req gateway.CollectRequest) (*gateway.CollectResult, error)
	QueryStatusFunc func(ctx context.Context, reference string) (*gateway.StatusResult, error)
}

func (g *StubGateway) Name() string { return "stub" }

func (g *StubGateway) Collect(ctx context.Context, req gateway.CollectRequest) (*gateway.CollectResult, error) {
	if g.CollectFunc != nil {
		return g.CollectFunc(ctx, req)
	}
	return &gateway.CollectResult{GatewayRef: "stub_col_1"}, nil
}

func (g *StubGateway) QueryStatus(ctx context.Context, reference string) (*gateway.StatusResult, error) {
	if g.QueryStatusFunc != nil {
		return g.QueryStatusFunc(ctx, reference)
	}
	return &gateway.StatusResult{Code: gateway.CodePending}, nil
}
