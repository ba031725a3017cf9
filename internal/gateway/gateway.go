package gateway

import (
	"context"

	"github.com/kasoamart/boostpay/internal/domain/boost"
)

// CollectRequest asks the gateway to start collecting payment from the
// payer's phone. Reference is our transaction id and is the correlation
// key for every later status query and webhook.
type CollectRequest struct {
	Reference   string
	AmountCents int64
	Currency    string
	PhoneNumber string
	Network     string
	CallbackURL string
}

// CollectResult is the gateway's acknowledgement of an initiated collection.
type CollectResult struct {
	GatewayRef string
}

// StatusResult is the gateway's answer to a status query.
type StatusResult struct {
	Code       string
	GatewayRef string
	Message    string
}

// Gateway is the outbound interface to the mobile money provider.
type Gateway interface {
	// Name returns the gateway name.
	Name() string
	// Collect initiates a collection from the payer's phone.
	Collect(ctx context.Context, req CollectRequest) (*CollectResult, error)
	// QueryStatus queries the outcome of a collection by correlation reference.
	QueryStatus(ctx context.Context, reference string) (*StatusResult, error)
}

// Gateway status vocabulary. Kept here so provider-specific codes never
// leak into the reconciler's state machine.
const (
	CodePaid      = "PAID"
	CodePending   = "PENDING"
	CodeExpired   = "EXPIRED"
	CodeTimeout   = "TIMEOUT"
	CodeCancelled = "CANCELLED"
	CodeDeclined  = "DECLINED"
)

// MapStatusCode translates a gateway status code into a transaction
// status. Unknown or transient codes map to pending so a flaky answer
// can never terminate a transaction early.
func MapStatusCode(code string) boost.Status {
	switch code {
	case CodePaid:
		return boost.StatusSuccess
	case CodeExpired, CodeTimeout:
		return boost.StatusExpired
	case CodeCancelled, CodeDeclined:
		return boost.StatusCancelled
	default:
		return boost.StatusPending
	}
}
