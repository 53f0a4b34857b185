package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nhangsach/depositledger/internal/adapter/http/handler"
	"github.com/nhangsach/depositledger/internal/adapter/http/middleware"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	DeductionHandler   *handler.DeductionHandler
	VendorHandler      *handler.VendorHandler
	VendorOrderHandler *handler.VendorOrderHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
	MetricsHandler     http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Post("/deductions", cfg.DeductionHandler.Create)

		r.Route("/vendors/{id}", func(r chi.Router) {
			r.Post("/deposits", cfg.VendorHandler.Deposit)
			r.Post("/refunds", cfg.VendorHandler.Refund)
			r.Get("/balance", cfg.VendorHandler.Balance)
			r.Get("/transactions", cfg.VendorHandler.Transactions)
			r.Get("/reconciliation", cfg.VendorHandler.Reconcile)
		})

		r.Get("/reconciliation", cfg.VendorHandler.ReconcileAll)

		r.Put("/vendor-orders/{id}/status", cfg.VendorOrderHandler.UpdateStatus)
	})

	return r
}
