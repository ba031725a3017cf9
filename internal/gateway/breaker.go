package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway wraps a Gateway with circuit breakers so a failing
// provider stops being hammered. Collect and status calls trip
// independently: a broken status endpoint must not block initiations.
type BreakerGateway struct {
	inner     Gateway
	collectCB *gobreaker.CircuitBreaker[*CollectResult]
	statusCB  *gobreaker.CircuitBreaker[*StatusResult]
}

// NewBreakerGateway wraps the given gateway.
func NewBreakerGateway(inner Gateway) *BreakerGateway {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 10 && failureRatio >= 0.6
			},
		}
	}
	return &BreakerGateway{
		inner:     inner,
		collectCB: gobreaker.NewCircuitBreaker[*CollectResult](settings(inner.Name() + "-collect")),
		statusCB:  gobreaker.NewCircuitBreaker[*StatusResult](settings(inner.Name() + "-status")),
	}
}

func (g *BreakerGateway) Name() string { return g.inner.Name() }

func (g *BreakerGateway) Collect(ctx context.Context, req CollectRequest) (*CollectResult, error) {
	return g.collectCB.Execute(func() (*CollectResult, error) {
		return g.inner.Collect(ctx, req)
	})
}

func (g *BreakerGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	return g.statusCB.Execute(func() (*StatusResult, error) {
		return g.inner.QueryStatus(ctx, reference)
	})
}
