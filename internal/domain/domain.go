package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

type User struct {
	ID            uuid.UUID `db:"id"`
	Username      string    `db:"username"`
	Email         string    `db:"email"`
	PasswordHash  string    `db:"password_hash"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type Report struct {
	ID                 uuid.UUID      `db:"id"`
	Location           string         `db:"location"`
	Latitude           float64        `db:"latitude"`
	Longitude          float64        `db:"longitude"`
	ReportType         string         `db:"report_type"`
	Description        string         `db:"description"`
	Status             string         `db:"status"`
	SensorData         map[string]any `db:"sensor_data"`
	VerificationStatus bool           `db:"verification_status"`
	Rating             *float64       `db:"rating"`
	ValidUntil         *time.Time     `db:"valid_until"`
	UserID             uuid.UUID      `db:"user_id"`
	Timestamp          time.Time      `db:"timestamp"`
}

type Prediction struct {
	ID              uuid.UUID  `db:"id"`
	PredictedEvent  string     `db:"predicted_event"`
	GeneratedText   string     `db:"generated_text"`
	ConfidenceScore float64    `db:"confidence_score"`
	ValidUntil      *time.Time `db:"valid_until"`
	AIModelVersion  string     `db:"ai_model_version"`
	UserID          *uuid.UUID `db:"user_id"`
	ReportID        uuid.UUID  `db:"report_id"`
	Timestamp       time.Time  `db:"timestamp"`
}

type Feedback struct {
	ID               uuid.UUID  `db:"id"`
	Rating           *int       `db:"rating"`
	Comment          string     `db:"comment"`
	IsAccurate       bool       `db:"is_accurate"`
	ParentFeedbackID *uuid.UUID `db:"parent_feedback_id"`
	UserID           *uuid.UUID `db:"user_id"`
	PredictionID     uuid.UUID  `db:"prediction_id"`
	Timestamp        time.Time  `db:"timestamp"`
}

// APIToken is an opaque bearer token issued at registration and login.
type APIToken struct {
	Key       string    `db:"key"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// --- Repository ports ---

// UserRepository handles user accounts and their API tokens.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	CreateToken(ctx context.Context, userID uuid.UUID) (*APIToken, error)
	GetUserByToken(ctx context.Context, key string) (*User, error)
}

// NewReport bundles the fields a client supplies when submitting a report.
type NewReport struct {
	Location    string
	Latitude    float64
	Longitude   float64
	ReportType  string
	Description string
	SensorData  map[string]any
	Rating      *float64
	ValidUntil  *time.Time
	UserID      uuid.UUID
}

type ReportRepository interface {
	Create(ctx context.Context, r NewReport) (*Report, error)
	// ListAll returns every report ordered by timestamp descending.
	ListAll(ctx context.Context) ([]Report, error)
	// ListValid returns reports whose valid_until is at or after now,
	// ordered by timestamp descending. NULL valid_until is excluded.
	ListValid(ctx context.Context, now time.Time) ([]Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
}

// NewPrediction bundles the fields of an AI prediction being attached to a report.
type NewPrediction struct {
	PredictedEvent  string
	GeneratedText   string
	ConfidenceScore float64
	ValidUntil      *time.Time
	AIModelVersion  string
	UserID          *uuid.UUID
	ReportID        uuid.UUID
}

type PredictionRepository interface {
	Create(ctx context.Context, p NewPrediction) (*Prediction, error)
	ListAll(ctx context.Context) ([]Prediction, error)
	ListValid(ctx context.Context, now time.Time) ([]Prediction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Prediction, error)
}

// NewFeedback bundles a user's feedback on a prediction.
type NewFeedback struct {
	Rating       *int
	Comment      string
	IsAccurate   bool
	UserID       *uuid.UUID
	PredictionID uuid.UUID
}

type FeedbackRepository interface {
	Create(ctx context.Context, f NewFeedback) (*Feedback, error)
	ListByPrediction(ctx context.Context, predictionID uuid.UUID) ([]Feedback, error)
}
