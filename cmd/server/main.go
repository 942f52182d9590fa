package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iho/balanceledger/internal/adapter/clientgate"
	httpAdapter "github.com/iho/balanceledger/internal/adapter/http"
	"github.com/iho/balanceledger/internal/adapter/http/handler"
	"github.com/iho/balanceledger/internal/adapter/http/middleware"
	"github.com/iho/balanceledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/balanceledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/balanceledger/internal/adapter/repository/redis"
	"github.com/iho/balanceledger/internal/infrastructure/config"
	"github.com/iho/balanceledger/internal/infrastructure/logger"
	"github.com/iho/balanceledger/internal/infrastructure/metrics"
	"github.com/iho/balanceledger/internal/infrastructure/postgres"
	"github.com/iho/balanceledger/internal/infrastructure/redis"
	"github.com/iho/balanceledger/internal/usecase"
)

// limiterIdleTTL is how long an idle client keeps its rate limit bucket.
const limiterIdleTTL = time.Hour

func main() {
	// Console output until the configured logger is installed.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadWithDotenv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// app is the wired service.
type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the repository set selected by STORAGE_DRIVER.
type storage struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	transactions usecase.TransactionRepository
	idGen        usecase.IDGenerator
	checks       map[string]handler.Check
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	if a.rateLimiter != nil {
		go sweepLimiters(ctx, a.rateLimiter)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func newApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	a := &app{}

	store, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	var owners usecase.OwnerDirectory = clientgate.NewHTTPDirectory(clientgate.Config{
		BaseURL:    cfg.ClientServiceURL,
		Timeout:    cfg.ClientServiceTimeout,
		MaxRetries: cfg.ClientServiceRetries,
	})

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, redis.ClientConfig{
			URL:            cfg.RedisURL,
			ConnectRetries: cfg.RedisConnectRetries,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { redisClient.Close() })
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		owners = clientgate.NewCachedDirectory(owners, redisRepo.NewCache(redisClient, "owners:"), cfg.OwnerCacheTTL)
		store.checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		log.Warn().Msg("REDIS_URL is empty: idempotency keys and owner caching are disabled")
	}

	reg.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(reg)

	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.transactions, store.idGen, m)
	transactionUC := usecase.NewTransactionUseCase(store.txManager, store.accounts, store.transactions, store.idGen, m)
	reportUC := usecase.NewReportUseCase(store.txManager, store.accounts, store.transactions, owners, m)
	reconciliationUC := usecase.NewReconciliationUseCase(store.txManager, store.accounts, store.transactions)

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, reconciliationUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
		HealthHandler:      handler.NewHealthHandler(store.checks),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        a.rateLimiter,
		Metrics:            m,
		MetricsGatherer:    gatherer,
		Logger:             &log.Logger,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage: data is lost on restart")

		s := memory.NewStore()
		return &storage{
			txManager:    memory.NewTxManager(s),
			accounts:     memory.NewAccountRepository(s),
			transactions: memory.NewTransactionRepository(s),
			idGen:        postgresRepo.NewULIDGenerator(),
			checks:       map[string]handler.Check{},
		}, func() {}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		idGen:        postgresRepo.NewULIDGenerator(),
		checks: map[string]handler.Check{
			"postgres": pool.Ping,
		},
	}, pool.Close, nil
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdleTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(limiterIdleTTL); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle rate limiters")
			}
		}
	}
}
