package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/nhangsach/depositledger/internal/adapter/http"
	"github.com/nhangsach/depositledger/internal/adapter/http/handler"
	"github.com/nhangsach/depositledger/internal/adapter/http/middleware"
	postgresRepo "github.com/nhangsach/depositledger/internal/adapter/repository/postgres"
	redisRepo "github.com/nhangsach/depositledger/internal/adapter/repository/redis"
	"github.com/nhangsach/depositledger/internal/infrastructure/config"
	"github.com/nhangsach/depositledger/internal/infrastructure/eventpublisher"
	"github.com/nhangsach/depositledger/internal/infrastructure/logger"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
	"github.com/nhangsach/depositledger/internal/infrastructure/postgres"
	"github.com/nhangsach/depositledger/internal/infrastructure/redis"
	"github.com/nhangsach/depositledger/internal/usecase"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	poolStatsInterval = 15 * time.Second
	outboxRetention   = 7 * 24 * time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339Nano
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	vendorRepo := postgresRepo.NewVendorRepository(pool)
	orderRepo := postgresRepo.NewVendorOrderRepository(pool)
	txRepo := postgresRepo.NewDepositTransactionRepository(pool)
	outboxRepo := newOutboxRepository(cfg, pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient).WithMetrics(m)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Initialize use cases
	ledgerUC := usecase.NewDepositLedgerUseCase(txManager, vendorRepo, orderRepo, txRepo, outboxRepo, idGen, retrier, appLogger, m)
	fulfillmentUC := usecase.NewFulfillmentUseCase(txManager, orderRepo, outboxRepo, idGen, ledgerUC, appLogger, m)
	reportingUC := usecase.NewReportingUseCase(vendorRepo, txRepo)
	reconcileUC := usecase.NewReconciliationUseCase(vendorRepo, txRepo, appLogger, m)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(
		handler.Check{Name: "postgres", Ping: pool.Ping},
		handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }},
	)

	rateLimiter := newRateLimiter(cfg, m)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		DeductionHandler:   handler.NewDeductionHandler(ledgerUC),
		VendorHandler:      handler.NewVendorHandler(ledgerUC, reportingUC, reconcileUC),
		VendorOrderHandler: handler.NewVendorOrderHandler(fulfillmentUC),
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Logger:             appLogger,
		Metrics:            m,
		MetricsHandler:     promhttp.Handler(),
	})

	// Background workers
	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  newEventSink(cfg, redisClient, appLogger),
			Logger:     appLogger,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  outboxRetention,
		})
		go func() {
			if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}
	go recordPoolStats(ctx, pool, m)
	if rateLimiter != nil {
		go cleanupLimiters(ctx, rateLimiter)
	}

	// Create server
	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

// newOutboxRepository returns a repository that discards events when the
// outbox is disabled.
func newOutboxRepository(cfg *config.Config, pool *pgxpool.Pool) usecase.OutboxRepository {
	if !cfg.OutboxEnabled {
		return postgresRepo.NewNullOutboxRepository()
	}
	return postgresRepo.NewOutboxRepository(pool)
}

// newEventSink picks where relayed outbox events go.
func newEventSink(cfg *config.Config, client *goredis.Client, appLogger zerolog.Logger) eventpublisher.Publisher {
	if cfg.OutboxPublisher == config.OutboxPublisherLog {
		return eventpublisher.NewLogPublisher(appLogger)
	}
	return redisRepo.NewEventChannel(client, cfg.EventsChannel)
}

func newRateLimiter(cfg *config.Config, m *metrics.Metrics) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
}

func listenAddr(port string) string {
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

func recordPoolStats(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		m.DBConnections.Set(float64(pool.Stat().AcquiredConns()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(limiterIdleTTL)
		}
	}
}
