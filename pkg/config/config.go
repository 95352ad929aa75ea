// Package config loads engine configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Backend
	BackendURL     string
	BackendTimeout time.Duration
	VerifyTimeout  time.Duration

	// Pricing: per-offering unit price in whole currency units.
	UnitPrice      int64
	LocalizedPrice string

	// Local device store
	SQLitePath string

	// Optional sync-mode Postgres for the attempt audit trail.
	DatabaseURL string

	// Optional Redis product-metadata cache.
	RedisURL        string
	ProductCacheTTL time.Duration

	// Optional RabbitMQ event mirror.
	AMQPURL string

	// Non-interactive login fallback.
	UserID    string
	AuthToken string
}

// Load loads configuration from environment variables, with an optional
// .env file.
func Load() (*Config, error) {
	// Load .env if present; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL:     getEnv("MINILINGO_BACKEND_URL", "https://api.minilingo.app"),
		BackendTimeout: getDurationEnv("MINILINGO_BACKEND_TIMEOUT", 15*time.Second),
		VerifyTimeout:  getDurationEnv("MINILINGO_VERIFY_TIMEOUT", 30*time.Second),

		UnitPrice:      getInt64Env("MINILINGO_UNIT_PRICE", 60),
		LocalizedPrice: getEnv("MINILINGO_LOCALIZED_PRICE", "₹60"),

		SQLitePath:  getEnv("MINILINGO_SQLITE_PATH", defaultSQLitePath()),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:        getEnv("REDIS_URL", ""),
		ProductCacheTTL: getDurationEnv("MINILINGO_PRODUCT_CACHE_TTL", 15*time.Minute),

		AMQPURL: getEnv("AMQP_URL", ""),

		UserID:    getEnv("MINILINGO_USER_ID", ""),
		AuthToken: getEnv("MINILINGO_AUTH_TOKEN", ""),
	}
	return cfg, nil
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "minilingo.db"
	}
	return home + "/.minilingo/minilingo.db"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
