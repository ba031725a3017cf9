package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines outbox persistence.
type Repository interface {
	// Insert stores a new pending entry.
	Insert(ctx context.Context, entry *Entry) error

	// GetPending returns pending entries, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	// MarkPublished records a successful publish.
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed increments the retry count; entries past their retry
	// budget stay failed for manual inspection.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
