package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/fraud"
	"github.com/iho/gowallet/internal/infrastructure/alerting"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	demoUsername = "testuser"
	demoPassword = "password123"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	m := metrics.New(prometheus.DefaultRegisterer)

	var checkers []handler.Checker

	// Alert delivery
	sink, closeSink, sinkChecker, err := buildAlertSink(ctx, cfg, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up alert sink")
	}
	defer closeSink()
	if sinkChecker != nil {
		checkers = append(checkers, sinkChecker)
	}

	dispatcher := alerting.NewDispatcher(sink, alerting.Config{
		QueueSize:       cfg.AlertQueueSize,
		Workers:         cfg.AlertWorkers,
		DeliveryTimeout: cfg.AlertDeliveryTimeout,
		Logger:          appLogger,
		Recorder:        m,
	})

	// Initialize repositories
	directory := memory.NewAccountDirectory()
	credentials := memory.NewCredentialStore()
	idGen := memory.NewULIDGenerator()
	jwtManager := auth.NewJWTManager(resolveJWTSecret(cfg.JWTSecret, appLogger), cfg.JWTExpiration)

	// Initialize use cases
	detector := fraud.NewDetector(fraud.Config{
		VelocityWindow:           cfg.FraudVelocityWindow,
		VelocityLimit:            cfg.FraudVelocityLimit,
		LargeWithdrawalThreshold: cfg.FraudLargeWithdrawalThreshold,
	})
	walletUC := usecase.NewWalletUseCase(directory, detector, dispatcher, idGen, m, appLogger)
	userUC := usecase.NewUserUseCase(directory, credentials, jwtManager, m, usecase.UserConfig{
		AdminUsers: cfg.AdminUsers,
	})
	reportUC := usecase.NewReportUseCase(directory)
	reconUC := usecase.NewReconciliationUseCase(directory)

	if cfg.SeedDemoUser {
		if err := seedDemoUser(ctx, userUC, walletUC); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo user")
		}
		log.Info().Str("username", demoUsername).Msg("seeded demo user")
	}

	// Connect to Redis (optional)
	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checkers = append(checkers, redis.NewChecker(redisClient))
	} else {
		log.Warn().Msg("REDIS_URL not set, idempotency keys disabled")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go rateLimiter.StartCleanup(cleanupCtx, time.Minute, 10*time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:    handler.NewWalletHandler(walletUC),
		AuthHandler:      handler.NewAuthHandler(userUC),
		AdminHandler:     handler.NewAdminHandler(reportUC, reconUC),
		HealthHandler:    handler.NewHealthHandler(checkers...),
		Authenticator:    middleware.NewAuthenticator(jwtManager, m).WithSessions(userUC),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		Gatherer:         prometheus.DefaultGatherer,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		Logger:           appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Drain alerts raised by in-flight requests
	if err := dispatcher.Close(shutdownCtx); err != nil {
		stats := dispatcher.Stats()
		log.Error().Err(err).Int("pending", stats.QueueDepth).Msg("alert dispatcher did not drain")
	}

	log.Info().Msg("server stopped")
}

// buildAlertSink returns the log sink, plus the Postgres alert store when
// ALERT_DATABASE_URL is set.
func buildAlertSink(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (alerting.Sink, func(), handler.Checker, error) {
	logSink := alerting.NewLogSink(logger, "")
	if cfg.AlertDatabaseURL == "" {
		return logSink, func() {}, nil, nil
	}

	if err := postgres.RunMigrations(cfg.AlertDatabaseURL, logger); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.AlertDatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info().Msg("connected to alert database")

	repo := postgresRepo.NewAlertRepository(pool, postgresRepo.NewRetrier(logger))
	return alerting.MultiSink{logSink, repo}, pool.Close, postgres.NewChecker(pool), nil
}

// resolveJWTSecret returns secret, or a random one when it is empty. Tokens
// signed with a random secret do not survive a restart.
func resolveJWTSecret(secret string, logger zerolog.Logger) string {
	if secret != "" {
		return secret
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logger.Fatal().Err(err).Msg("failed to generate JWT secret")
	}
	logger.Warn().Msg("JWT_SECRET not set, using a random secret")
	return hex.EncodeToString(buf)
}

type demoRegistrar interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error)
}

type demoFunder interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.OperationResult, error)
}

// seedDemoUser registers testuser with a 100 USD opening deposit.
func seedDemoUser(ctx context.Context, users demoRegistrar, wallets demoFunder) error {
	if _, err := users.Register(ctx, usecase.RegisterInput{Username: demoUsername, Password: demoPassword}); err != nil {
		return fmt.Errorf("register demo user: %w", err)
	}

	_, err := wallets.Deposit(ctx, usecase.DepositInput{
		UserID:   demoUsername,
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
	})
	if err != nil {
		return fmt.Errorf("fund demo user: %w", err)
	}
	return nil
}
