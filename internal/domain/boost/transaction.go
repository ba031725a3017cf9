package boost

import (
	"time"

	"github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the transaction status in the state machine.
// Pending is the only non-terminal state; every other status is
// absorbing and write-once.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

// Network represents a mobile money carrier.
type Network string

const (
	NetworkMTN        Network = "mtn"
	NetworkVodafone   Network = "vodafone"
	NetworkAirtelTigo Network = "airteltigo"
)

// PaymentWindow is how long a collection stays open before it can no
// longer resolve to success.
const PaymentWindow = 120 * time.Second

// Transaction represents a single boost-purchase attempt. Listing,
// package, phone and network are fixed at creation; only status,
// gateway_ref and failure_reason change afterwards, and only once.
type Transaction struct {
	ID            uuid.UUID
	ListingID     uuid.UUID
	PackageID     uuid.UUID
	PhoneNumber   string
	Network       Network
	Status        Status
	ExpiresAt     time.Time
	GatewayRef    *string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// NewTransaction creates a pending transaction. The phone number is
// validated against the carrier's numbering plan and stored in
// normalized local form.
func NewTransaction(listingID, packageID uuid.UUID, phoneNumber string, network Network, window time.Duration) (*Transaction, error) {
	normalized, err := ValidatePhone(network, phoneNumber)
	if err != nil {
		return nil, err
	}
	if window <= 0 {
		window = PaymentWindow
	}

	now := time.Now()
	return &Transaction{
		ID:          uuid.New(),
		ListingID:   listingID,
		PackageID:   packageID,
		PhoneNumber: normalized,
		Network:     network,
		Status:      StatusPending,
		ExpiresAt:   now.Add(window),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsTerminal reports whether the transaction has reached an absorbing state.
func (t *Transaction) IsTerminal() bool {
	return t.Status != StatusPending
}

// Expired reports whether the payment window has closed at the given instant.
// The stored expiry is authoritative; UI countdowns are cosmetic.
func (t *Transaction) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// CanTransitionTo checks whether the transaction may move to the given status.
// The only legal transitions are pending -> {success, expired, cancelled, error}.
func (t *Transaction) CanTransitionTo(next Status) bool {
	if t.Status != StatusPending {
		return false
	}
	switch next {
	case StatusSuccess, StatusExpired, StatusCancelled, StatusError:
		return true
	}
	return false
}

// TransitionTo applies an in-memory transition. Persistence must use
// the repository's conditional update so concurrent callers cannot
// both win; this method only keeps the entity consistent for the caller
// that did win.
func (t *Transaction) TransitionTo(next Status) error {
	if !t.CanTransitionTo(next) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(t.Status)+" to "+string(next),
			errors.ErrInvalidStateTransition,
		)
	}
	now := time.Now()
	t.Status = next
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// MarkSuccess records a confirmed payment with the gateway's own reference.
func (t *Transaction) MarkSuccess(gatewayRef string) error {
	if err := t.TransitionTo(StatusSuccess); err != nil {
		return err
	}
	if gatewayRef != "" {
		t.GatewayRef = &gatewayRef
	}
	return nil
}

// MarkExpired records that the payment window closed without confirmation.
func (t *Transaction) MarkExpired() error {
	return t.TransitionTo(StatusExpired)
}

// MarkCancelled records that the payer declined the collection prompt.
func (t *Transaction) MarkCancelled(gatewayRef string) error {
	if err := t.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	if gatewayRef != "" {
		t.GatewayRef = &gatewayRef
	}
	return nil
}

// MarkError records an initiation-time failure after the row was created.
func (t *Transaction) MarkError(reason string) error {
	if err := t.TransitionTo(StatusError); err != nil {
		return err
	}
	t.FailureReason = &reason
	return nil
}

// ValidStatus reports whether s is a known transaction status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusSuccess, StatusExpired, StatusCancelled, StatusError:
		return true
	}
	return false
}
