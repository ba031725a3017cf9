package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Package is a purchasable boost tier. The catalog is read-only from
// this service's point of view.
type Package struct {
	ID           uuid.UUID
	Name         string
	DurationDays int
	PriceCents   int64
	Currency     string
	Active       bool
	CreatedAt    time.Time
}

// PremiumUntil returns the premium expiry for a boost applied at the
// given instant.
func (p *Package) PremiumUntil(from time.Time) time.Time {
	return from.Add(time.Duration(p.DurationDays) * 24 * time.Hour)
}

// Repository defines read access to the boost package catalog.
type Repository interface {
	// GetByID retrieves a package by ID regardless of its active flag.
	GetByID(ctx context.Context, id uuid.UUID) (*Package, error)

	// ListActive returns packages currently offered for sale.
	ListActive(ctx context.Context) ([]*Package, error)
}
