package postgres

import (
	"context"
	"fmt"

	"github.com/kasoamart/boostpay/internal/domain/catalog"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PackageRepository implements catalog.Repository using PostgreSQL.
type PackageRepository struct {
	pool *pgxpool.Pool
}

func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

func (r *PackageRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Package, error) {
	p := &catalog.Package{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, name, duration_days, price_cents, currency, active, created_at
		 FROM boost_packages WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.DurationDays, &p.PriceCents, &p.Currency, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrUnknownPackage
		}
		return nil, fmt.Errorf("get boost package: %w", err)
	}
	return p, nil
}

func (r *PackageRepository) ListActive(ctx context.Context) ([]*catalog.Package, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, name, duration_days, price_cents, currency, active, created_at
		 FROM boost_packages WHERE active ORDER BY price_cents ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active boost packages: %w", err)
	}
	defer rows.Close()

	var packages []*catalog.Package
	for rows.Next() {
		p := &catalog.Package{}
		if err := rows.Scan(&p.ID, &p.Name, &p.DurationDays, &p.PriceCents, &p.Currency, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan boost package: %w", err)
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}
