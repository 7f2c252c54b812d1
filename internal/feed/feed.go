// Package feed computes the point-in-time snapshots served on the live
// report and prediction feeds. Every poll is an independent, full
// recomputation: no cursor, no diffing across polls.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/domain"
	"github.com/pawhncho/futurepulse/internal/metrics"
)

// ReportView serializes a report record for the live feed.
type ReportView struct {
	ID                 uuid.UUID      `json:"id"`
	Location           string         `json:"location"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	ReportType         string         `json:"report_type"`
	Description        string         `json:"description"`
	Status             string         `json:"status"`
	SensorData         map[string]any `json:"sensor_data"`
	VerificationStatus bool           `json:"verification_status"`
	Rating             *float64       `json:"rating"`
	User               uuid.UUID      `json:"user"`
	Timestamp          time.Time      `json:"timestamp"`
}

// PredictionView is the fixed projection served on the prediction feed.
// ValidUntil is rendered as strict UTC ISO-8601 with a trailing "Z".
type PredictionView struct {
	PredictedEvent  string  `json:"predicted_event"`
	GeneratedText   string  `json:"generated_text"`
	ConfidenceScore float64 `json:"confidence_score"`
	ValidUntil      string  `json:"valid_until"`
	AIModelVersion  string  `json:"ai_model_version"`
}

// ReportViewFrom projects a report record into its serialized form.
func ReportViewFrom(r domain.Report) ReportView {
	return ReportView{
		ID:                 r.ID,
		Location:           r.Location,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		ReportType:         r.ReportType,
		Description:        r.Description,
		Status:             r.Status,
		SensorData:         r.SensorData,
		VerificationStatus: r.VerificationStatus,
		Rating:             r.Rating,
		User:               r.UserID,
		Timestamp:          r.Timestamp,
	}
}

// Service answers feed polls with fresh snapshots from the data access layer.
type Service struct {
	reports       domain.ReportRepository
	predictions   domain.PredictionRepository
	clock         clockwork.Clock
	filterReports bool
}

// NewService creates a feed service. filterReports controls whether the report
// feed applies the validity-window filter; the prediction feed always does.
func NewService(reports domain.ReportRepository, predictions domain.PredictionRepository, clock clockwork.Clock, filterReports bool) *Service {
	return &Service{
		reports:       reports,
		predictions:   predictions,
		clock:         clock,
		filterReports: filterReports,
	}
}

// ReportSnapshot returns all matching reports, newest first.
// An empty result is an empty slice, never nil.
func (s *Service) ReportSnapshot(ctx context.Context) ([]ReportView, error) {
	start := s.clock.Now()

	var (
		records []domain.Report
		err     error
	)
	if s.filterReports {
		records, err = s.reports.ListValid(ctx, s.clock.Now())
	} else {
		records, err = s.reports.ListAll(ctx)
	}
	if err != nil {
		metrics.FeedSnapshotErrors.WithLabelValues("reports").Inc()
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}

	views := make([]ReportView, 0, len(records))
	for _, r := range records {
		views = append(views, ReportViewFrom(r))
	}

	metrics.FeedSnapshotDuration.WithLabelValues("reports").Observe(s.clock.Since(start).Seconds())
	return views, nil
}

// PredictionSnapshot returns all predictions still inside their validity
// window, newest first. Records with no validity timestamp are treated as
// already expired and excluded.
func (s *Service) PredictionSnapshot(ctx context.Context) ([]PredictionView, error) {
	start := s.clock.Now()

	records, err := s.predictions.ListValid(ctx, s.clock.Now())
	if err != nil {
		metrics.FeedSnapshotErrors.WithLabelValues("predictions").Inc()
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}

	views := make([]PredictionView, 0, len(records))
	for _, p := range records {
		view := PredictionView{
			PredictedEvent:  p.PredictedEvent,
			GeneratedText:   p.GeneratedText,
			ConfidenceScore: p.ConfidenceScore,
			AIModelVersion:  p.AIModelVersion,
		}
		if p.ValidUntil != nil {
			view.ValidUntil = domain.FormatTimestampZ(*p.ValidUntil)
		}
		views = append(views, view)
	}

	metrics.FeedSnapshotDuration.WithLabelValues("predictions").Observe(s.clock.Since(start).Seconds())
	return views, nil
}
