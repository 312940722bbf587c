package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("YATUBE_DB_DRIVER", "")
	t.Setenv("YATUBE_CACHE_TTL", "")
	t.Setenv("YATUBE_KAFKA_BROKERS", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", cfg.DBDriver)
	}
	if cfg.CacheTTL != 20*time.Second {
		t.Errorf("Expected 20s cache TTL, got %s", cfg.CacheTTL)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("Expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("YATUBE_CACHE_TTL", "1m")
	t.Setenv("YATUBE_KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("YATUBE_REDIS_DB", "3")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("Expected 1m cache TTL, got %s", cfg.CacheTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("Expected two trimmed brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("Expected redis db 3, got %d", cfg.RedisDB)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("YATUBE_SESSION_TTL", "")
	t.Setenv("YATUBE_CACHE_TTL", "soon")
	t.Setenv("YATUBE_REDIS_DB", "zero")

	cfg := Load()

	if cfg.CacheTTL != 20*time.Second {
		t.Errorf("Expected fallback TTL, got %s", cfg.CacheTTL)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("Expected fallback redis db 0, got %d", cfg.RedisDB)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("Expected two warnings, got %v", cfg.Warnings)
	}
	if !strings.Contains(cfg.Warnings[0], "YATUBE_CACHE_TTL") || !strings.Contains(cfg.Warnings[1], "YATUBE_REDIS_DB") {
		t.Errorf("Expected warnings to name the variables, got %v", cfg.Warnings)
	}
}

func TestLoadValidValuesHaveNoWarnings(t *testing.T) {
	t.Setenv("YATUBE_CACHE_TTL", "5s")
	t.Setenv("YATUBE_REDIS_DB", "1")
	t.Setenv("YATUBE_SESSION_TTL", "")

	if cfg := Load(); len(cfg.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", cfg.Warnings)
	}
}
