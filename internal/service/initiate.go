package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/internal/domain/listing"
	"github.com/kasoamart/boostpay/internal/domain/outbox"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InitiateInput carries the caller's boost purchase request.
type InitiateInput struct {
	ListingID   uuid.UUID
	PackageID   uuid.UUID
	PhoneNumber string
	Network     boost.Network
}

// InitiateService creates pending boost transactions and starts the
// mobile money collection for them.
type InitiateService struct {
	transactions boost.Repository
	packages     catalog.Repository
	listings     listing.Repository
	outboxRepo   outbox.Repository
	txManager    TransactionManager
	gw           gateway.Gateway

	paymentWindow time.Duration
	callbackURL   string

	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewInitiateService(
	transactions boost.Repository,
	packages catalog.Repository,
	listings listing.Repository,
	outboxRepo outbox.Repository,
	txManager TransactionManager,
	gw gateway.Gateway,
	paymentWindow time.Duration,
	callbackURL string,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *InitiateService {
	return &InitiateService{
		transactions:  transactions,
		packages:      packages,
		listings:      listings,
		outboxRepo:    outboxRepo,
		txManager:     txManager,
		gw:            gw,
		paymentWindow: paymentWindow,
		callbackURL:   callbackURL,
		logger:        logger.With().Str("component", "initiate_service").Logger(),
		metrics:       metrics,
	}
}

// Initiate validates the request, persists a pending transaction and asks
// the gateway to collect payment. The pending row is created before the
// gateway call on purpose: if the gateway rejects the collection the row
// is immediately moved to error, so every attempt leaves an auditable
// trail and the caller never polls a transaction that does not exist.
func (s *InitiateService) Initiate(ctx context.Context, in InitiateInput) (*boost.Transaction, error) {
	if !boost.ValidNetwork(in.Network) {
		return nil, domainErrors.ErrUnknownNetwork
	}

	if _, err := s.listings.GetByID(ctx, in.ListingID); err != nil {
		return nil, err
	}

	pkg, err := s.packages.GetByID(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, domainErrors.ErrUnknownPackage
	}

	txn, err := boost.NewTransaction(in.ListingID, in.PackageID, in.PhoneNumber, in.Network, s.paymentWindow)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.transactions.Create(ctx, txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		entry := outbox.NewEntry("boost_transaction", txn.ID, "boost.collection_initiated", map[string]any{
			"transaction_id": txn.ID.String(),
			"listing_id":     txn.ListingID.String(),
			"expires_at":     txn.ExpiresAt.UTC().Format(time.RFC3339),
		})
		if err := s.outboxRepo.Insert(ctx, entry); err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gw.Collect(ctx, gateway.CollectRequest{
		Reference:   txn.ID.String(),
		AmountCents: pkg.PriceCents,
		Currency:    pkg.Currency,
		PhoneNumber: txn.PhoneNumber,
		Network:     string(txn.Network),
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		s.failFast(ctx, txn, err)
		return nil, fmt.Errorf("initiate collection: %w", err)
	}

	if result.GatewayRef != "" {
		if refErr := s.transactions.SetGatewayRef(ctx, txn.ID, result.GatewayRef); refErr != nil {
			s.logger.Warn().Err(refErr).
				Str("transaction_id", txn.ID.String()).
				Msg("failed to record gateway reference")
		} else {
			txn.GatewayRef = &result.GatewayRef
		}
	}

	if s.metrics != nil {
		s.metrics.BoostsInitiated.WithLabelValues(string(txn.Network)).Inc()
	}
	s.logger.Info().
		Str("transaction_id", txn.ID.String()).
		Str("listing_id", txn.ListingID.String()).
		Str("network", string(txn.Network)).
		Time("expires_at", txn.ExpiresAt).
		Msg("collection initiated")

	return txn, nil
}

// failFast moves a freshly created transaction to error after the gateway
// rejected the collection. A lost race here means a webhook already
// resolved the transaction, which is fine.
func (s *InitiateService) failFast(ctx context.Context, txn *boost.Transaction, cause error) {
	reason := cause.Error()
	won, err := s.transactions.TransitionFromPending(ctx, txn.ID, boost.StatusError, nil, &reason)
	if err != nil {
		s.logger.Error().Err(err).
			Str("transaction_id", txn.ID.String()).
			Msg("failed to mark rejected transaction as error")
		return
	}
	if won {
		txn.Status = boost.StatusError
		txn.FailureReason = &reason
		if s.metrics != nil {
			s.metrics.TransactionOutcomes.WithLabelValues(string(boost.StatusError)).Inc()
		}
	}
	s.logger.Warn().Err(cause).
		Str("transaction_id", txn.ID.String()).
		Msg("gateway rejected collection")
}
