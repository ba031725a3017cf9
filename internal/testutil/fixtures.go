package testutil

import (
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	"github.com/kasoamart/boostpay/internal/domain/listing"
	"github.com/google/uuid"
)

// NewTestTransaction returns a pending transaction with sensible defaults.
func NewTestTransaction(opts ...func(*boost.Transaction)) *boost.Transaction {
	now := time.Now()
	t := &boost.Transaction{
		ID:          uuid.New(),
		ListingID:   uuid.New(),
		PackageID:   uuid.New(),
		PhoneNumber: "0244123456",
		Network:     boost.NetworkMTN,
		Status:      boost.StatusPending,
		ExpiresAt:   now.Add(boost.PaymentWindow),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func WithStatus(s boost.Status) func(*boost.Transaction) {
	return func(t *boost.Transaction) {
		t.Status = s
		if s != boost.StatusPending {
			now := time.Now()
			t.CompletedAt = &now
		}
	}
}

func WithExpiresAt(at time.Time) func(*boost.Transaction) {
	return func(t *boost.Transaction) {
		t.ExpiresAt = at
	}
}

func WithListingID(id uuid.UUID) func(*boost.Transaction) {
	return func(t *boost.Transaction) {
		t.ListingID = id
	}
}

func WithPackageID(id uuid.UUID) func(*boost.Transaction) {
	return func(t *boost.Transaction) {
		t.PackageID = id
	}
}

func WithGatewayRef(ref string) func(*boost.Transaction) {
	return func(t *boost.Transaction) {
		t.GatewayRef = &ref
	}
}

// NewTestPackage returns an active 7-day boost package priced in pesewas.
func NewTestPackage(opts ...func(*catalog.Package)) *catalog.Package {
	p := &catalog.Package{
		ID:           uuid.New(),
		Name:         "Weekly Boost",
		DurationDays: 7,
		PriceCents:   1500,
		Currency:     "GHS",
		Active:       true,
		CreatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func WithDurationDays(days int) func(*catalog.Package) {
	return func(p *catalog.Package) {
		p.DurationDays = days
	}
}

func WithActive(active bool) func(*catalog.Package) {
	return func(p *catalog.Package) {
		p.Active = active
	}
}

// NewTestListing returns a non-premium listing.
func NewTestListing(opts ...func(*listing.Listing)) *listing.Listing {
	l := &listing.Listing{
		ID:        uuid.New(),
		IsPremium: false,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
