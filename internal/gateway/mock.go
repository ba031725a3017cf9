package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/google/uuid"
)

// MockGateway simulates a mobile money provider for local development
// and tests. Collections start PENDING and resolve to a configurable
// terminal code after a settle delay.
type MockGateway struct {
	name        string
	latency     time.Duration
	settleAfter time.Duration
	settleCode  string
	rejectRate  float64 // 0.0 to 1.0

	mu          sync.Mutex
	collections map[string]mockCollection
}

type mockCollection struct {
	gatewayRef string
	startedAt  time.Time
}

type MockGatewayOption func(*MockGateway)

func WithLatency(d time.Duration) MockGatewayOption {
	return func(g *MockGateway) { g.latency = d }
}

// WithSettlement sets how long a collection stays pending and which
// code it settles to afterwards.
func WithSettlement(after time.Duration, code string) MockGatewayOption {
	return func(g *MockGateway) {
		g.settleAfter = after
		g.settleCode = code
	}
}

func WithRejectRate(rate float64) MockGatewayOption {
	return func(g *MockGateway) { g.rejectRate = rate }
}

func NewMockGateway(name string, opts ...MockGatewayOption) *MockGateway {
	g := &MockGateway{
		name:        name,
		latency:     50 * time.Millisecond,
		settleAfter: 10 * time.Second,
		settleCode:  CodePaid,
		collections: make(map[string]mockCollection),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *MockGateway) Name() string { return g.name }

func (g *MockGateway) Collect(ctx context.Context, req CollectRequest) (*CollectResult, error) {
	select {
	case <-time.After(g.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if rand.Float64() < g.rejectRate {
		return nil, fmt.Errorf("%w: %s: simulated rejection for %s",
			domainErrors.ErrGatewayRejected, g.name, req.Reference)
	}

	ref := fmt.Sprintf("%s_col_%s", g.name, uuid.New().String()[:8])
	g.mu.Lock()
	g.collections[req.Reference] = mockCollection{gatewayRef: ref, startedAt: time.Now()}
	g.mu.Unlock()

	return &CollectResult{GatewayRef: ref}, nil
}

func (g *MockGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	select {
	case <-time.After(g.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	col, ok := g.collections[reference]
	g.mu.Unlock()
	if !ok {
		return &StatusResult{Code: CodePending, Message: "collection unknown"}, nil
	}

	if time.Since(col.startedAt) < g.settleAfter {
		return &StatusResult{Code: CodePending, GatewayRef: col.gatewayRef}, nil
	}
	return &StatusResult{
		Code:       g.settleCode,
		GatewayRef: col.gatewayRef,
		Message:    "settled",
	}, nil
}
