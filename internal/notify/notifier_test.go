package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawhncho/futurepulse/internal/domain"
)

// fakePublisher records published payloads instead of fanning them out.
type fakePublisher struct {
	topics   []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(topic string, data []byte) {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, data)
}

func TestNotifier_PredictionCreated(t *testing.T) {
	pub := &fakePublisher{}
	notifier := NewNotifier(pub)

	validUntil := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	prediction := domain.Prediction{
		ID:              uuid.MustParse("4b7c0f51-9a71-4b3f-9e25-1c3b8a2f6d90"),
		PredictedEvent:  "flooding in sector 4",
		GeneratedText:   "Heavy rainfall expected to cause flooding.",
		ConfidenceScore: 0.87,
		ValidUntil:      &validUntil,
		AIModelVersion:  "GPT-4",
		ReportID:        uuid.MustParse("8d1f3a6e-2b4c-4d5e-8f90-123456789abc"),
		Timestamp:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	notifier.PredictionCreated(prediction)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, TopicNotifications, pub.topics[0])

	var result map[string]map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &result))

	record, ok := result["notification"]
	require.True(t, ok, "payload must be wrapped in a notification envelope")
	assert.Equal(t, "flooding in sector 4", record["predicted_event"])
	assert.Equal(t, "Heavy rainfall expected to cause flooding.", record["generated_text"])
	assert.Equal(t, 0.87, record["confidence_score"])
	assert.Equal(t, "2024-01-01T13:00:00Z", record["valid_until"])
	assert.Equal(t, "2024-01-01T12:00:00Z", record["timestamp"])
	assert.Equal(t, "GPT-4", record["ai_model_version"])
}

func TestNotifier_PredictionWithoutExpiry(t *testing.T) {
	pub := &fakePublisher{}
	notifier := NewNotifier(pub)

	notifier.PredictionCreated(domain.Prediction{
		ID:             uuid.New(),
		PredictedEvent: "minor event",
		ReportID:       uuid.New(),
		Timestamp:      time.Now(),
	})

	require.Len(t, pub.payloads, 1)

	var result map[string]map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &result))
	assert.Nil(t, result["notification"]["valid_until"])
}

func TestNotifier_Announce(t *testing.T) {
	pub := &fakePublisher{}
	notifier := NewNotifier(pub)

	notifier.Announce("maintenance at midnight")

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, TopicNotifications, pub.topics[0])

	// A text notification is a bare JSON string inside the envelope
	assert.JSONEq(t, `{"notification": "maintenance at midnight"}`, string(pub.payloads[0]))
}
