package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/switchledger/internal/adapter/http/handler"
	"github.com/iho/switchledger/internal/adapter/http/middleware"
	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/metrics"
	"github.com/iho/switchledger/internal/usecase"
)

// RouterConfig holds dependencies for the router. Metrics, Gatherer,
// IdempotencyStore, RateLimiter and Authenticator are optional. Without an
// Authenticator the API is open.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	MovementHandler *handler.MovementHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Authenticator    middleware.TokenVerifier
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		if cfg.Authenticator != nil {
			r.Use(middleware.Authenticate(cfg.Authenticator))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Metrics).Wrap)
		}

		requireRole := func(role domain.Role) func(http.Handler) http.Handler {
			if cfg.Authenticator == nil {
				return func(next http.Handler) http.Handler { return next }
			}
			return middleware.RequireRole(role)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.With(requireRole(domain.RoleAdmin)).Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/code/{code}", cfg.AccountHandler.GetByCode)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.With(requireRole(domain.RoleOperator)).Post("/{id}/movements", cfg.MovementHandler.Apply)
			r.Get("/{id}/movements", cfg.AccountHandler.ListMovements)
		})

		// Switch instructions
		r.With(requireRole(domain.RoleOperator)).Post("/ledger/movements", cfg.LedgerHandler.ApplyInstruction)
	})

	return r
}
