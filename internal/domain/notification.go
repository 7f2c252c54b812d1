package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// iso8601Z renders timestamps the way the live-feed clients expect:
// UTC with zero-padded fields and a literal "Z" suffix.
const iso8601Z = "2006-01-02T15:04:05Z"

// FormatTimestampZ renders t as strict UTC ISO-8601 with a trailing "Z".
func FormatTimestampZ(t time.Time) string {
	return t.UTC().Format(iso8601Z)
}

// Notification is the payload of a broadcast on the notifications topic.
// It is a closed union: TextNotification or PredictionNotification.
// Consumers switch on the concrete type instead of inspecting raw JSON shape.
type Notification interface {
	notificationPayload()
}

// TextNotification carries a plain human-readable message.
// It marshals as a bare JSON string.
type TextNotification struct {
	Message string
}

func (TextNotification) notificationPayload() {}

func (n TextNotification) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Message)
}

// PredictionNotification carries the serialized record of a freshly created
// prediction. This is the canonical event-trigger payload.
type PredictionNotification struct {
	ID              uuid.UUID `json:"id"`
	PredictedEvent  string    `json:"predicted_event"`
	GeneratedText   string    `json:"generated_text"`
	ConfidenceScore float64   `json:"confidence_score"`
	ValidUntil      *string   `json:"valid_until"`
	AIModelVersion  string    `json:"ai_model_version"`
	ReportID        uuid.UUID `json:"report_id"`
	Timestamp       string    `json:"timestamp"`
}

func (PredictionNotification) notificationPayload() {}

// NotificationFromPrediction projects a prediction into its broadcast form.
func NotificationFromPrediction(p Prediction) PredictionNotification {
	n := PredictionNotification{
		ID:              p.ID,
		PredictedEvent:  p.PredictedEvent,
		GeneratedText:   p.GeneratedText,
		ConfidenceScore: p.ConfidenceScore,
		AIModelVersion:  p.AIModelVersion,
		ReportID:        p.ReportID,
		Timestamp:       FormatTimestampZ(p.Timestamp),
	}
	if p.ValidUntil != nil {
		v := FormatTimestampZ(*p.ValidUntil)
		n.ValidUntil = &v
	}
	return n
}
