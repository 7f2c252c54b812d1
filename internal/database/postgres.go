package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/metrics"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	slog.Info("Database SSL mode", "sslmode", extractSSLMode(databaseURL))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS email_verified BOOLEAN NOT NULL DEFAULT FALSE`,
		`CREATE TABLE IF NOT EXISTS tokens (
			key TEXT PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			location TEXT NOT NULL DEFAULT '',
			latitude NUMERIC(9,6) NOT NULL,
			longitude NUMERIC(9,6) NOT NULL,
			report_type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			sensor_data JSONB NOT NULL DEFAULT '{}',
			verification_status BOOLEAN NOT NULL DEFAULT FALSE,
			rating DOUBLE PRECISION,
			valid_until TIMESTAMPTZ,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_valid_until ON reports(valid_until)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			predicted_event TEXT NOT NULL,
			generated_text TEXT NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			valid_until TIMESTAMPTZ,
			ai_model_version TEXT NOT NULL DEFAULT 'GPT-4',
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			report_id UUID NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_valid_until ON predictions(valid_until)`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			rating INTEGER,
			comment TEXT NOT NULL DEFAULT '',
			is_accurate BOOLEAN NOT NULL DEFAULT FALSE,
			parent_feedback_id UUID REFERENCES feedbacks(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			prediction_id UUID NOT NULL REFERENCES predictions(id) ON DELETE CASCADE,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedbacks_prediction_id ON feedbacks(prediction_id)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}

// observe records query latency for a repository operation.
func observe(clock clockwork.Clock, operation string) func() {
	start := clock.Now()
	return func() {
		metrics.DBQueryDuration.WithLabelValues(operation).Observe(clock.Since(start).Seconds())
	}
}
