package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/domain/listing"
	"github.com/rs/zerolog"
)

// BoostApplier marks a listing premium after its boost payment confirmed.
type BoostApplier struct {
	packages catalog.Repository
	listings listing.Repository
	logger   zerolog.Logger
}

func NewBoostApplier(packages catalog.Repository, listings listing.Repository, logger zerolog.Logger) *BoostApplier {
	return &BoostApplier{
		packages: packages,
		listings: listings,
		logger:   logger.With().Str("component", "boost_applier").Logger(),
	}
}

// Apply sets the listing premium for the purchased package's duration,
// counted from the moment of application. The caller must already hold a
// confirmed transaction; Apply never touches transaction state.
func (a *BoostApplier) Apply(ctx context.Context, txn *boost.Transaction) error {
	pkg, err := a.packages.GetByID(ctx, txn.PackageID)
	if err != nil {
		return fmt.Errorf("%w: resolve package %s: %v", domainErrors.ErrBoostNotApplied, txn.PackageID, err)
	}

	until := pkg.PremiumUntil(time.Now())
	if err := a.listings.SetPremium(ctx, txn.ListingID, until); err != nil {
		return fmt.Errorf("%w: set premium on listing %s: %v", domainErrors.ErrBoostNotApplied, txn.ListingID, err)
	}

	a.logger.Info().
		Str("listing_id", txn.ListingID.String()).
		Str("transaction_id", txn.ID.String()).
		Time("premium_until", until).
		Msg("listing boosted")
	return nil
}
