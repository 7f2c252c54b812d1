package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/domain"
)

// feedbackColumns must match the Scan order in scanFeedback.
const feedbackColumns = `id, rating, comment, is_accurate, parent_feedback_id, user_id, prediction_id, timestamp`

// FeedbackRepo implements domain.FeedbackRepository backed by PostgreSQL.
type FeedbackRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewFeedbackRepo(pool *pgxpool.Pool, clock clockwork.Clock) *FeedbackRepo {
	return &FeedbackRepo{pool: pool, clock: clock}
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var f domain.Feedback
	err := row.Scan(
		&f.ID, &f.Rating, &f.Comment, &f.IsAccurate, &f.ParentFeedbackID,
		&f.UserID, &f.PredictionID, &f.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeedbackRepo) Create(ctx context.Context, nf domain.NewFeedback) (*domain.Feedback, error) {
	defer observe(r.clock, "feedback_create")()

	feedback, err := scanFeedback(r.pool.QueryRow(ctx, `
		INSERT INTO feedbacks (rating, comment, is_accurate, user_id, prediction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+feedbackColumns,
		nf.Rating, nf.Comment, nf.IsAccurate, nf.UserID, nf.PredictionID))
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	return feedback, nil
}

func (r *FeedbackRepo) ListByPrediction(ctx context.Context, predictionID uuid.UUID) ([]domain.Feedback, error) {
	defer observe(r.clock, "feedback_list_by_prediction")()

	rows, err := r.pool.Query(ctx, `
		SELECT `+feedbackColumns+` FROM feedbacks
		WHERE prediction_id = $1
		ORDER BY timestamp DESC`, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedbacks := make([]domain.Feedback, 0)
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, *feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	return feedbacks, nil
}
