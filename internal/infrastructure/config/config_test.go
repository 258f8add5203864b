package config_test

import (
	"testing"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.RedisURL != "" {
		t.Fatalf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.FraudVelocityWindow != 5*time.Minute || cfg.FraudVelocityLimit != 3 {
		t.Fatalf("unexpected velocity defaults: %s / %d", cfg.FraudVelocityWindow, cfg.FraudVelocityLimit)
	}

	if cfg.FraudLargeWithdrawalThreshold.String() != "1000" {
		t.Fatalf("expected threshold 1000, got %s", cfg.FraudLargeWithdrawalThreshold)
	}

	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("ADMIN_USERS", "root,ops")
	t.Setenv("FRAUD_VELOCITY_WINDOW", "2m")
	t.Setenv("FRAUD_LARGE_WITHDRAWAL_THRESHOLD", "250.50")
	t.Setenv("SEED_DEMO_USER", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if len(cfg.AdminUsers) != 2 || cfg.AdminUsers[1] != "ops" {
		t.Fatalf("expected admin users override, got %v", cfg.AdminUsers)
	}

	if cfg.FraudVelocityWindow != 2*time.Minute {
		t.Fatalf("expected velocity window override, got %s", cfg.FraudVelocityWindow)
	}

	if cfg.FraudLargeWithdrawalThreshold.String() != "250.5" {
		t.Fatalf("expected threshold override, got %s", cfg.FraudLargeWithdrawalThreshold)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.SeedDemoUser {
		t.Fatalf("expected secret and seed settings, got secret=%s seed=%v", cfg.JWTSecret, cfg.SeedDemoUser)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsNonPositiveThresholds(t *testing.T) {
	t.Setenv("FRAUD_VELOCITY_LIMIT", "0")
	t.Setenv("FRAUD_LARGE_WITHDRAWAL_THRESHOLD", "-1")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}
