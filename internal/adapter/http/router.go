package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/balanceledger/internal/adapter/http/handler"
	"github.com/iho/balanceledger/internal/adapter/http/middleware"
	"github.com/iho/balanceledger/internal/infrastructure/metrics"
	"github.com/iho/balanceledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	ReportHandler      *handler.ReportHandler
	HealthHandler      *handler.HealthHandler

	// Optional.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsGatherer  prometheus.Gatherer
	Logger           *zerolog.Logger
	CORSOrigins      []string
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	if cfg.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(*cfg.Logger).Wrap)
	}
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader, "X-Request-Id"},
			ExposedHeaders: []string{"X-Idempotency-Replay"},
			MaxAge:         300,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// Older clients ask for reports at the root.
	r.Get("/report", cfg.ReportHandler.Report)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Put("/", cfg.AccountHandler.Update)
				r.Delete("/", cfg.AccountHandler.Delete)
				r.Get("/verify", cfg.AccountHandler.Verify)

				r.Post("/transactions", cfg.TransactionHandler.Append)
				r.Get("/transactions", cfg.TransactionHandler.ListByAccount)

				r.Get("/balance", cfg.ReportHandler.Balance)
				r.Get("/window", cfg.ReportHandler.Window)
			})
		})

		r.Route("/transactions/{id}", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.Get)
			r.Put("/", cfg.TransactionHandler.Update)
			r.Delete("/", cfg.TransactionHandler.Delete)
		})

		r.Get("/reports", cfg.ReportHandler.Report)
	})

	return r
}
