package boost

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for transaction persistence.
// Transactions are never deleted; terminal rows are retained for audit
// and idempotency history.
type Repository interface {
	// Create inserts a new pending transaction.
	Create(ctx context.Context, t *Transaction) error

	// GetByID retrieves a transaction by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// TransitionFromPending atomically moves a still-pending transaction
	// to the given terminal status, recording the gateway reference and
	// failure reason when present. It returns false when the row was no
	// longer pending, in which case the caller lost the race and must
	// re-read instead of applying side effects.
	TransitionFromPending(ctx context.Context, id uuid.UUID, to Status, gatewayRef, failureReason *string) (bool, error)

	// SetGatewayRef records the gateway's own reference on a pending
	// transaction once the collection has been acknowledged.
	SetGatewayRef(ctx context.Context, id uuid.UUID, ref string) error

	// ListStalePending returns pending transactions whose payment window
	// closed before the given instant, oldest first.
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*Transaction, error)
}
