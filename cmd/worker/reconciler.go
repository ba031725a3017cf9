package main

import (
	"context"
	"time"

	"github.com/kasoamart/boostpay/internal/domain/boost"
	infraRedis "github.com/kasoamart/boostpay/internal/infrastructure/redis"
	"github.com/kasoamart/boostpay/internal/observability"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type reconcileStream interface {
	Read(ctx context.Context) ([]redis.XStream, error)
	Claim(ctx context.Context, minIdleTime time.Duration) ([]redis.XMessage, error)
	Ack(ctx context.Context, messageID string) error
}

type transactionLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type statusChecker interface {
	CheckStatus(ctx context.Context, id uuid.UUID) (*service.CheckResult, error)
}

// streamReconciler settles initiated transactions server-side when no
// client is polling and no webhook lands. A message is acked only once
// its transaction is terminal (or unreconcilable); still-pending
// messages stay in the group's pending-entries list and the claim pass
// re-delivers them after claimMinIdle, so every transaction keeps
// getting checked until it settles or the sweeper expires it.
type streamReconciler struct {
	consumer     reconcileStream
	checker      statusChecker
	lockFor      func(id uuid.UUID) transactionLock
	claimMinIdle time.Duration
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

func (r *streamReconciler) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		claimed, err := r.consumer.Claim(ctx, r.claimMinIdle)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to claim pending messages")
		} else {
			r.handle(ctx, claimed)
		}

		streams, err := r.consumer.Read(ctx)
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}
		for _, stream := range streams {
			r.handle(ctx, stream.Messages)
		}
	}
}

func (r *streamReconciler) handle(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		idStr, _ := msg.Values["transaction_id"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			r.logger.Error().Str("raw", idStr).Msg("Invalid transaction ID in stream message")
			r.consumer.Ack(ctx, msg.ID)
			continue
		}

		// One reconciler per transaction; a loser leaves the message
		// unacked so the claim pass re-delivers it later.
		lock := r.lockFor(id)
		acquired, err := lock.Acquire(ctx)
		if err != nil || !acquired {
			r.logger.Warn().Str("transaction_id", id.String()).Msg("Could not acquire lock, skipping")
			continue
		}

		result, err := r.checker.CheckStatus(ctx, id)
		if err != nil {
			r.logger.Error().Err(err).Str("transaction_id", id.String()).Msg("Failed to reconcile transaction")
			r.observe("error")
			lock.Release(ctx)
			r.consumer.Ack(ctx, msg.ID)
			continue
		}

		r.observe("success")
		lock.Release(ctx)

		if result.Status == boost.StatusPending {
			// Still waiting on the payer; the claim pass picks this
			// message up again once it has idled long enough.
			continue
		}
		r.consumer.Ack(ctx, msg.ID)
	}
}

func (r *streamReconciler) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.ReconcileStream, outcome).Inc()
	}
}
