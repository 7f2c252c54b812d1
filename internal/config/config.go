package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	// ResetTokenSecret signs password-reset tokens.
	ResetTokenSecret string
	ResetTokenTTL    time.Duration

	LogLevel  string
	LogFormat string

	// ReportFeedValidityFilter controls whether the report live feed excludes
	// reports whose validity window has passed. The prediction feed always filters.
	ReportFeedValidityFilter bool

	// WebSocket connection limits.
	MaxConnections      int64
	MaxConnectionsPerIP int

	// AuthRatePerMinute throttles login/register/reset attempts per IP.
	AuthRatePerMinute float64
	AuthRateBurst     int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		ResetTokenSecret: getEnv("RESET_TOKEN_SECRET", ""),
		ResetTokenTTL:    time.Hour,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ResetTokenSecret == "" {
		return nil, fmt.Errorf("RESET_TOKEN_SECRET is required")
	}
	if len(cfg.ResetTokenSecret) < 32 {
		return nil, fmt.Errorf("RESET_TOKEN_SECRET must be at least 32 characters, got %d", len(cfg.ResetTokenSecret))
	}

	var err error
	if cfg.ReportFeedValidityFilter, err = getEnvBool("REPORT_FEED_VALIDITY_FILTER", true); err != nil {
		return nil, err
	}
	if cfg.MaxConnections, err = getEnvInt64("MAX_CONNECTIONS", 10000); err != nil {
		return nil, err
	}
	if cfg.MaxConnectionsPerIP, err = getEnvInt("MAX_CONNECTIONS_PER_IP", 50); err != nil {
		return nil, err
	}
	if cfg.AuthRatePerMinute, err = getEnvFloat("AUTH_RATE_PER_MINUTE", 5); err != nil {
		return nil, err
	}
	if cfg.AuthRateBurst, err = getEnvInt("AUTH_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.MaxConnections <= 0 {
		return nil, fmt.Errorf("MAX_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return nil, fmt.Errorf("MAX_CONNECTIONS_PER_IP must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}
