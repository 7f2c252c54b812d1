package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/futurepulse")
	t.Setenv("RESET_TOKEN_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.True(t, cfg.ReportFeedValidityFilter)
	assert.Equal(t, int64(10000), cfg.MaxConnections)
	assert.Equal(t, 50, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 5.0, cfg.AuthRatePerMinute)
	assert.Equal(t, 5, cfg.AuthRateBurst)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("REPORT_FEED_VALIDITY_FILTER", "false")
	t.Setenv("MAX_CONNECTIONS", "100")
	t.Setenv("MAX_CONNECTIONS_PER_IP", "3")
	t.Setenv("AUTH_RATE_PER_MINUTE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.False(t, cfg.ReportFeedValidityFilter)
	assert.Equal(t, int64(100), cfg.MaxConnections)
	assert.Equal(t, 3, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 30.0, cfg.AuthRatePerMinute)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RESET_TOKEN_SECRET", testSecret)

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLoad_RequiresResetTokenSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/futurepulse")
	t.Setenv("RESET_TOKEN_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "RESET_TOKEN_SECRET is required")
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/futurepulse")
	t.Setenv("RESET_TOKEN_SECRET", strings.Repeat("x", 31))

	_, err := Load()
	assert.ErrorContains(t, err, "at least 32 characters")
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CONNECTIONS", "plenty")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_CONNECTIONS must be an integer")
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CONNECTIONS", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_CONNECTIONS must be positive")
}
