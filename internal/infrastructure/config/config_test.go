package config_test

import (
	"testing"
	"time"

	"github.com/iho/switchledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SIGNING_KEY", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.SigningKey != "" {
		t.Fatalf("expected signing key default to be empty, got %q", cfg.SigningKey)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StorageDriver != config.StorageDriverPostgres {
		t.Fatalf("expected postgres storage by default, got %s", cfg.StorageDriver)
	}

	if cfg.MovementTimeout != 5*time.Second || cfg.MovementMaxRetries != 10 {
		t.Fatalf("unexpected engine defaults: timeout=%s retries=%d", cfg.MovementTimeout, cfg.MovementMaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("MOVEMENT_TIMEOUT", "750ms")
	t.Setenv("MOVEMENT_MAX_RETRIES", "3")
	t.Setenv("SIGNING_KEY", "top-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StorageDriver != config.StorageDriverMemory {
		t.Fatalf("expected memory storage, got %s", cfg.StorageDriver)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.MovementTimeout != 750*time.Millisecond || cfg.MovementMaxRetries != 3 {
		t.Fatalf("expected engine overrides, got timeout=%s retries=%d", cfg.MovementTimeout, cfg.MovementMaxRetries)
	}

	if cfg.SigningKey != "top-secret" {
		t.Fatalf("expected signing key to be set, got %q", cfg.SigningKey)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadInvalidStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}
}

func TestLoadRejectsNonPositiveRetries(t *testing.T) {
	t.Setenv("MOVEMENT_MAX_RETRIES", "0")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for zero retries")
	}
}
