package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kasoamart/boostpay/internal/bootstrap"
	"github.com/kasoamart/boostpay/internal/controller"
	"github.com/kasoamart/boostpay/internal/gateway"
	"github.com/kasoamart/boostpay/internal/repository/postgres"
	"github.com/kasoamart/boostpay/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "boostpay-api", "boostpay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	transactionRepo := postgres.NewTransactionRepository(app.Pool)
	packageRepo := postgres.NewPackageRepository(app.Pool)
	listingRepo := postgres.NewListingRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Gateway & services ---
	gw := gateway.FromConfig(&app.Config.Gateway)
	applier := service.NewBoostApplier(packageRepo, listingRepo, app.Logger)
	initiateSvc := service.NewInitiateService(
		transactionRepo, packageRepo, listingRepo, outboxRepo, txManager, gw,
		app.Config.Boost.PaymentWindow, app.Config.Gateway.CallbackURL,
		app.Logger, app.Metrics,
	)
	reconcileSvc := service.NewReconcileService(transactionRepo, gw, applier, app.Logger, app.Metrics)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:             app.Pool,
		RedisClient:      app.Redis,
		TransactionRepo:  transactionRepo,
		PackageRepo:      packageRepo,
		InitiateService:  initiateSvc,
		ReconcileService: reconcileSvc,
		IdempotencyRepo:  idempotencyRepo,
		Metrics:          app.Metrics,
		Logger:           app.Logger,
		ServerConfig:     app.Config.Server,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
