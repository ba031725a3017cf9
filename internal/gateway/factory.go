package gateway

import (
	"github.com/kasoamart/boostpay/internal/config"
)

// FromConfig builds the configured gateway wrapped in circuit breakers.
// With use_mock set it returns the in-memory gateway, which settles
// collections on its own and needs no external service.
func FromConfig(cfg *config.GatewayConfig) Gateway {
	if cfg.UseMock {
		return NewBreakerGateway(NewMockGateway(cfg.Name))
	}
	client := NewClient(cfg.Name, cfg.BaseURL, cfg.APIKey, cfg.RequestTimeout)
	return NewBreakerGateway(client)
}
