// Package notify is the single fan-out point for "a new prediction exists" events.
//
// The Notifier wraps each payload in a {"notification": ...} envelope and
// publishes it on the fixed notifications topic. Calls return once delivery has
// been handed to the hub; they never fail, regardless of how many subscribers
// are connected.
package notify

import (
	"encoding/json"
	"log/slog"

	"github.com/pawhncho/futurepulse/internal/domain"
	"github.com/pawhncho/futurepulse/internal/metrics"
)

// TopicNotifications is the broadcast topic all notification subscribers join.
const TopicNotifications = "notifications"

// Publisher is the slice of the hub the notifier needs.
type Publisher interface {
	Publish(topic string, data []byte)
}

type Notifier struct {
	hub Publisher
}

func NewNotifier(hub Publisher) *Notifier {
	return &Notifier{hub: hub}
}

// PredictionCreated is the event trigger for the prediction write path.
// It must be called exactly once, after the prediction row is durably
// committed, and only on successful commit.
func (n *Notifier) PredictionCreated(p domain.Prediction) {
	n.publish(domain.NotificationFromPrediction(p), "prediction")
}

// Announce broadcasts a plain text notification.
func (n *Notifier) Announce(message string) {
	n.publish(domain.TextNotification{Message: message}, "text")
}

type envelope struct {
	Notification domain.Notification `json:"notification"`
}

func (n *Notifier) publish(payload domain.Notification, kind string) {
	data, err := json.Marshal(envelope{Notification: payload})
	if err != nil {
		slog.Error("Failed to marshal notification", "kind", kind, "error", err)
		return
	}
	n.hub.Publish(TopicNotifications, data)
	metrics.NotificationsPublishedTotal.WithLabelValues(kind).Inc()
}
