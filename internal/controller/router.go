package controller

import (
	"time"

	"github.com/kasoamart/boostpay/internal/config"
	"github.com/kasoamart/boostpay/internal/domain/boost"
	"github.com/kasoamart/boostpay/internal/domain/catalog"
	customMW "github.com/kasoamart/boostpay/internal/middleware"
	"github.com/kasoamart/boostpay/internal/observability"
	"github.com/kasoamart/boostpay/internal/repository/postgres"
	"github.com/kasoamart/boostpay/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Pool             *pgxpool.Pool
	RedisClient      *redis.Client
	TransactionRepo  boost.Repository
	PackageRepo      catalog.Repository
	InitiateService  *service.InitiateService
	ReconcileService *service.ReconcileService
	IdempotencyRepo  *postgres.IdempotencyRepository
	Metrics          *observability.Metrics
	Logger           zerolog.Logger
	ServerConfig     config.ServerConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.ServerConfig.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.ServerConfig.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.SecurityHeaders())
	r.Use(customMW.Metrics(deps.Metrics))
	r.Use(customMW.RateLimit(deps.ServerConfig.RateLimitPerMin))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	boostH := NewBoostController(deps.InitiateService, deps.ReconcileService, deps.TransactionRepo)
	webhookH := NewWebhookController(deps.ReconcileService, deps.Logger)
	catalogH := NewCatalogController(deps.PackageRepo)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating endpoints.
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

		// Boosts
		r.With(idempotencyMW).Post("/boosts", boostH.Create)
		r.Get("/boosts/{id}", boostH.Get)
		r.Get("/boosts/{id}/status", boostH.Status)

		// Catalog
		r.Get("/packages", catalogH.List)

		// Gateway callbacks
		r.Post("/webhooks/collection", webhookH.Collection)
	})

	return r
}
