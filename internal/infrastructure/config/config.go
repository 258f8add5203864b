package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Authentication
	JWTSecret     string        `env:"JWT_SECRET"     envDefault:""`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	AdminUsers    []string      `env:"ADMIN_USERS"    envSeparator:","`

	// Redis (optional - leave empty to disable idempotency keys)
	RedisURL       string        `env:"REDIS_URL"       envDefault:""`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Alert sink database (optional - leave empty to log alerts instead)
	AlertDatabaseURL string `env:"ALERT_DATABASE_URL" envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"1"`

	// Alert dispatch
	AlertQueueSize       int           `env:"ALERT_QUEUE_SIZE"       envDefault:"1000"`
	AlertWorkers         int           `env:"ALERT_WORKERS"          envDefault:"2"`
	AlertDeliveryTimeout time.Duration `env:"ALERT_DELIVERY_TIMEOUT" envDefault:"5s"`

	// Fraud heuristics
	FraudVelocityWindow           time.Duration   `env:"FRAUD_VELOCITY_WINDOW"            envDefault:"5m"`
	FraudVelocityLimit            int             `env:"FRAUD_VELOCITY_LIMIT"             envDefault:"3"`
	FraudLargeWithdrawalThreshold decimal.Decimal `env:"FRAUD_LARGE_WITHDRAWAL_THRESHOLD" envDefault:"1000"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Seed a demo account (testuser / password123) at startup
	SeedDemoUser bool `env:"SEED_DEMO_USER" envDefault:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.FraudVelocityWindow <= 0 {
		errs = append(errs, fmt.Errorf("FRAUD_VELOCITY_WINDOW must be positive, got %s", c.FraudVelocityWindow))
	}
	if c.FraudVelocityLimit < 1 {
		errs = append(errs, fmt.Errorf("FRAUD_VELOCITY_LIMIT must be at least 1, got %d", c.FraudVelocityLimit))
	}
	if !c.FraudLargeWithdrawalThreshold.IsPositive() {
		errs = append(errs, fmt.Errorf("FRAUD_LARGE_WITHDRAWAL_THRESHOLD must be positive, got %s", c.FraudLargeWithdrawalThreshold))
	}
	if c.AlertQueueSize < 1 {
		errs = append(errs, fmt.Errorf("ALERT_QUEUE_SIZE must be at least 1, got %d", c.AlertQueueSize))
	}
	if c.AlertWorkers < 1 {
		errs = append(errs, fmt.Errorf("ALERT_WORKERS must be at least 1, got %d", c.AlertWorkers))
	}

	return errors.Join(errs...)
}
