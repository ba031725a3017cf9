package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckResult is the reconciler's answer to a status check.
type CheckResult struct {
	TransactionID uuid.UUID
	Status        boost.Status
	ExpiresAt     time.Time
	Message       string
}

// ReconcileService drives pending transactions to a terminal state. It is
// the single write path for status: pollers, webhooks and the background
// sweeper all converge here, and the conditional update in the repository
// guarantees that exactly one caller wins the terminal transition.
type ReconcileService struct {
	transactions boost.Repository
	gw           gateway.Gateway
	applier      *BoostApplier

	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewReconcileService(
	transactions boost.Repository,
	gw gateway.Gateway,
	applier *BoostApplier,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *ReconcileService {
	return &ReconcileService{
		transactions: transactions,
		gw:           gw,
		applier:      applier,
		logger:       logger.With().Str("component", "reconcile_service").Logger(),
		metrics:      metrics,
	}
}

// CheckStatus reconciles one transaction and returns its current status.
//
// Order matters: a terminal row short-circuits before anything else, and
// the expiry check runs before the gateway is consulted, so a payment
// confirmed after the window closed can never resurrect the transaction.
func (s *ReconcileService) CheckStatus(ctx context.Context, id uuid.UUID) (*CheckResult, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if txn.IsTerminal() {
		return s.result(txn), nil
	}

	if txn.Expired(time.Now()) {
		return s.finalize(ctx, txn, boost.StatusExpired, nil, nil)
	}

	status, err := s.gw.QueryStatus(ctx, txn.ID.String())
	if err != nil {
		// Transient gateway trouble never terminates a transaction;
		// the next check or the sweeper will settle it.
		s.logger.Warn().Err(err).
			Str("transaction_id", txn.ID.String()).
			Msg("gateway status query failed, leaving pending")
		s.observeCheck(boost.StatusPending)
		return s.result(txn), nil
	}

	mapped := gateway.MapStatusCode(status.Code)
	if mapped == boost.StatusPending {
		s.observeCheck(boost.StatusPending)
		return s.result(txn), nil
	}

	var gatewayRef *string
	if status.GatewayRef != "" {
		gatewayRef = &status.GatewayRef
	}
	var reason *string
	if mapped == boost.StatusCancelled && status.Message != "" {
		reason = &status.Message
	}
	return s.finalize(ctx, txn, mapped, gatewayRef, reason)
}

// finalize attempts the pending-to-terminal transition. Only the winner
// of the conditional update applies side effects; a loser re-reads and
// reports whatever the winner wrote.
func (s *ReconcileService) finalize(ctx context.Context, txn *boost.Transaction, to boost.Status, gatewayRef, failureReason *string) (*CheckResult, error) {
	won, err := s.transactions.TransitionFromPending(ctx, txn.ID, to, gatewayRef, failureReason)
	if err != nil {
		return nil, fmt.Errorf("transition transaction %s: %w", txn.ID, err)
	}

	if !won {
		if s.metrics != nil {
			s.metrics.CASConflicts.Inc()
		}
		current, err := s.transactions.GetByID(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		s.observeCheck(current.Status)
		return s.result(current), nil
	}

	txn.Status = to
	if gatewayRef != nil {
		txn.GatewayRef = gatewayRef
	}
	txn.FailureReason = failureReason
	now := time.Now()
	txn.UpdatedAt = now
	txn.CompletedAt = &now

	if s.metrics != nil {
		s.metrics.TransactionOutcomes.WithLabelValues(string(to)).Inc()
	}
	s.logger.Info().
		Str("transaction_id", txn.ID.String()).
		Str("status", string(to)).
		Msg("transaction reconciled")

	if to == boost.StatusSuccess {
		// Best effort: a payment already confirmed is never rolled back
		// because the listing write failed.
		if err := s.applier.Apply(ctx, txn); err != nil {
			s.logger.Error().Err(err).
				Str("transaction_id", txn.ID.String()).
				Str("listing_id", txn.ListingID.String()).
				Msg("boost application failed, needs remediation")
			if s.metrics != nil {
				s.metrics.BoostApplyFailures.Inc()
			}
		}
	}

	s.observeCheck(to)
	return s.result(txn), nil
}

func (s *ReconcileService) observeCheck(status boost.Status) {
	if s.metrics != nil {
		s.metrics.ReconcileCalls.WithLabelValues(string(status)).Inc()
	}
}

func (s *ReconcileService) result(txn *boost.Transaction) *CheckResult {
	r := &CheckResult{
		TransactionID: txn.ID,
		Status:        txn.Status,
		ExpiresAt:     txn.ExpiresAt,
	}
	switch txn.Status {
	case boost.StatusSuccess:
		r.Message = "payment confirmed and boost applied"
	case boost.StatusExpired:
		r.Message = "payment window closed before confirmation"
	case boost.StatusCancelled:
		r.Message = "payment declined by payer"
	case boost.StatusError:
		if txn.FailureReason != nil {
			r.Message = *txn.FailureReason
		} else {
			r.Message = "collection could not be initiated"
		}
	}
	return r
}
