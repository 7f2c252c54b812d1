package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/domain"
)

// predictionColumns must match the Scan order in scanPrediction.
const predictionColumns = `id, predicted_event, generated_text, confidence_score,
	valid_until, ai_model_version, user_id, report_id, timestamp`

// PredictionRepo implements domain.PredictionRepository backed by PostgreSQL.
type PredictionRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewPredictionRepo(pool *pgxpool.Pool, clock clockwork.Clock) *PredictionRepo {
	return &PredictionRepo{pool: pool, clock: clock}
}

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var p domain.Prediction
	err := row.Scan(
		&p.ID, &p.PredictedEvent, &p.GeneratedText, &p.ConfidenceScore,
		&p.ValidUntil, &p.AIModelVersion, &p.UserID, &p.ReportID, &p.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PredictionRepo) Create(ctx context.Context, np domain.NewPrediction) (*domain.Prediction, error) {
	defer observe(r.clock, "prediction_create")()

	modelVersion := np.AIModelVersion
	if modelVersion == "" {
		modelVersion = "GPT-4"
	}

	prediction, err := scanPrediction(r.pool.QueryRow(ctx, `
		INSERT INTO predictions (predicted_event, generated_text, confidence_score,
			valid_until, ai_model_version, user_id, report_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+predictionColumns,
		np.PredictedEvent, np.GeneratedText, np.ConfidenceScore,
		np.ValidUntil, modelVersion, np.UserID, np.ReportID))
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	return prediction, nil
}

func (r *PredictionRepo) ListAll(ctx context.Context) ([]domain.Prediction, error) {
	defer observe(r.clock, "prediction_list_all")()

	rows, err := r.pool.Query(ctx, `
		SELECT `+predictionColumns+` FROM predictions ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return collectPredictions(rows)
}

func (r *PredictionRepo) ListValid(ctx context.Context, now time.Time) ([]domain.Prediction, error) {
	defer observe(r.clock, "prediction_list_valid")()

	// NULL valid_until never satisfies >=, so expired-by-omission rows are excluded.
	rows, err := r.pool.Query(ctx, `
		SELECT `+predictionColumns+` FROM predictions
		WHERE valid_until >= $1
		ORDER BY timestamp DESC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid predictions: %w", err)
	}
	return collectPredictions(rows)
}

func (r *PredictionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prediction, error) {
	defer observe(r.clock, "prediction_get_by_id")()

	prediction, err := scanPrediction(r.pool.QueryRow(ctx, `
		SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPredictionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return prediction, nil
}

func collectPredictions(rows pgx.Rows) ([]domain.Prediction, error) {
	defer rows.Close()

	predictions := make([]domain.Prediction, 0)
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, *prediction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	return predictions, nil
}
