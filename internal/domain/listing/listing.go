package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Listing carries only the premium fields this service owns. All other
// listing attributes belong to the marketplace service.
type Listing struct {
	ID           uuid.UUID
	IsPremium    bool
	PremiumUntil *time.Time
}

// Repository defines the listing mutation surface available to the
// boost applier. SetPremium may be called again by a later successful
// transaction, overwriting premium_until; that is accepted behavior.
type Repository interface {
	// GetByID retrieves a listing's premium fields.
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// SetPremium marks the listing premium until the given instant.
	SetPremium(ctx context.Context, id uuid.UUID, until time.Time) error
}
