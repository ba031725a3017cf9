package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasoamart/boostpay/internal/bootstrap"
	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/gateway"
	infraRedis "github.com/kasoamart/boostpay/internal/infrastructure/redis"
	"github.com/kasoamart/boostpay/internal/repository/postgres"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "boostpay-worker", "boostpay_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories & services ---
	transactionRepo := postgres.NewTransactionRepository(app.Pool)
	packageRepo := postgres.NewPackageRepository(app.Pool)
	listingRepo := postgres.NewListingRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	streamProducer := infraRedis.NewStreamProducer(app.Redis)

	gw := gateway.FromConfig(&app.Config.Gateway)
	applier := service.NewBoostApplier(packageRepo, listingRepo, app.Logger)
	reconcileSvc := service.NewReconcileService(transactionRepo, gw, applier, app.Logger, app.Metrics)

	// --- Reconcile stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.ReconcileStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.ReconcileStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Reconciler (reads transaction ids from Redis Streams and settles
	//    them server-side when no client is polling).
	reconciler := &streamReconciler{
		consumer: consumer,
		checker:  reconcileSvc,
		lockFor: func(id uuid.UUID) transactionLock {
			return infraRedis.NewDistributedLock(app.Redis, "boost:"+id.String(), app.Config.Boost.LockTTL)
		},
		claimMinIdle: workerCfg.ClaimMinIdle,
		logger:       app.Logger.With().Str("component", "stream_reconciler").Logger(),
		metrics:      app.Metrics,
	}
	g.Go(func() error {
		return reconciler.run(gCtx)
	})

	// 2. Outbox publisher (polls the outbox table and feeds the stream).
	g.Go(func() error {
		return runOutboxPublisher(gCtx, app.Logger, txManager, outboxRepo, streamProducer, workerCfg.OutboxPollInterval)
	})

	// 3. Sweeper (expires abandoned pending transactions whose window
	//    closed with no poll and no webhook).
	g.Go(func() error {
		return runSweeper(gCtx, app, transactionRepo, reconcileSvc)
	})

	// 4. Idempotency key janitor.
	g.Go(func() error {
		return runIdempotencyCleanup(gCtx, app.Logger, idempotencyRepo)
	})

	// 5. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runOutboxPublisher(
	ctx context.Context,
	logger zerolog.Logger,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	streamProducer *infraRedis.StreamProducer,
	pollInterval time.Duration,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			entries, err := outboxRepo.GetPending(txCtx, 10)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := streamProducer.PublishReconcileEvent(
					ctx, entry.AggregateID.String(), entry.EventType, entry.Payload,
				); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to publish outbox event")
					outboxRepo.MarkFailed(txCtx, entry.ID)
					continue
				}
				outboxRepo.MarkPublished(txCtx, entry.ID)
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Outbox publisher error")
		}
	}
}

func runSweeper(
	ctx context.Context,
	app *bootstrap.App,
	transactionRepo *postgres.TransactionRepository,
	reconcileSvc *service.ReconcileService,
) error {
	logger := app.Logger
	cfg := app.Config.Worker
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		stale, err := transactionRepo.ListStalePending(ctx, time.Now(), cfg.SweepBatchSize)
		if err != nil {
			logger.Error().Err(err).Msg("Sweeper query failed")
			continue
		}

		for _, txn := range stale {
			result, err := reconcileSvc.CheckStatus(ctx, txn.ID)
			if err != nil {
				logger.Error().Err(err).Str("transaction_id", txn.ID.String()).Msg("Sweeper reconciliation failed")
				continue
			}
			if result.Status == boost.StatusExpired {
				app.Metrics.SweeperExpired.Inc()
			}
		}
		if len(stale) > 0 {
			logger.Info().Int("count", len(stale)).Msg("Swept stale pending transactions")
		}
	}
}

func runIdempotencyCleanup(
	ctx context.Context,
	logger zerolog.Logger,
	idempotencyRepo *postgres.IdempotencyRepository,
) error {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		removed, err := idempotencyRepo.Cleanup(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Idempotency cleanup failed")
			continue
		}
		if removed > 0 {
			logger.Info().Int64("removed", removed).Msg("Cleaned up expired idempotency keys")
		}
	}
}
