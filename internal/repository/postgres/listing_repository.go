package postgres

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/domain/listing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingRepository implements listing.Repository using PostgreSQL.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	l := &listing.Listing{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, is_premium, premium_until FROM listings WHERE id = $1`, id,
	).Scan(&l.ID, &l.IsPremium, &l.PremiumUntil)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// SetPremium marks the listing premium until the given instant.
func (r *ListingRepository) SetPremium(ctx context.Context, id uuid.UUID, until time.Time) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE listings SET is_premium = TRUE, premium_until = $2, updated_at = NOW()
		 WHERE id = $1`, id, until,
	)
	if err != nil {
		return fmt.Errorf("set listing premium: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrListingNotFound
	}
	return nil
}
