package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the yatube server and admin CLI.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string
	DBDSN    string

	JWTSecret  string
	SessionTTL time.Duration

	MediaDir string

	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	CORSOrigins []string

	// Warnings lists values that were ignored while loading. Load runs before
	// logging is configured, so callers log these once their logger is set up.
	Warnings []string
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load() *Config {
	l := &loader{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.warn("config: .env file not loaded: %v", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("YATUBE_LOG_LEVEL", "info"),

		DBDriver: getEnv("YATUBE_DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("YATUBE_DB_DSN", "yatube.db"),

		// Default for development only - should be set in production
		JWTSecret:  getEnv("JWT_SECRET", "yatube-dev-secret-change-in-production"),
		SessionTTL: l.duration("YATUBE_SESSION_TTL", 24*time.Hour),

		MediaDir: getEnv("YATUBE_MEDIA_DIR", "media"),

		CacheTTL:      l.duration("YATUBE_CACHE_TTL", 20*time.Second),
		RedisAddr:     os.Getenv("YATUBE_REDIS_ADDR"),
		RedisPassword: os.Getenv("YATUBE_REDIS_PASSWORD"),
		RedisDB:       l.int("YATUBE_REDIS_DB", 0),

		KafkaBrokers: getList("YATUBE_KAFKA_BROKERS"),
		KafkaTopic:   getEnv("YATUBE_KAFKA_TOPIC", "yatube.activity"),

		CORSOrigins: getList("YATUBE_CORS_ORIGINS"),
	}
	cfg.Warnings = l.warnings
	return cfg
}

type loader struct {
	warnings []string
}

func (l *loader) warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.warn("config: invalid duration %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func (l *loader) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.warn("config: invalid integer %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated variable, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
