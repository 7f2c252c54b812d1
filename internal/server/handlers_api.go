package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawhncho/futurepulse/internal/domain"
	apperrors "github.com/pawhncho/futurepulse/internal/errors"
	"github.com/pawhncho/futurepulse/internal/feed"
)

func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}

type submitReportRequest struct {
	Location    string         `json:"location"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	ReportType  string         `json:"report_type"`
	Description string         `json:"description"`
	SensorData  map[string]any `json:"sensor_data"`
	Rating      *float64       `json:"rating"`
	ValidUntil  *time.Time     `json:"valid_until"`
}

func (s *Server) handleSubmitReport(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req submitReportRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ReportType == "" {
		return apperrors.ValidationError("report_type is required")
	}

	report, err := s.reports.Create(c.Request().Context(), domain.NewReport{
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ReportType:  req.ReportType,
		Description: req.Description,
		SensorData:  req.SensorData,
		Rating:      req.Rating,
		ValidUntil:  req.ValidUntil,
		UserID:      userID,
	})
	if err != nil {
		return apperrors.InternalError("failed to submit report", err)
	}

	return s.created(c, feed.ReportViewFrom(*report))
}

func (s *Server) handleListReports(c echo.Context) error {
	reports, err := s.reports.ListAll(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list reports", err)
	}

	views := make([]feed.ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, feed.ReportViewFrom(r))
	}
	return s.ok(c, views)
}

type submitPredictionRequest struct {
	PredictedEvent  string     `json:"predicted_event"`
	GeneratedText   string     `json:"generated_text"`
	ConfidenceScore float64    `json:"confidence_score"`
	ValidUntil      *time.Time `json:"valid_until"`
	AIModelVersion  string     `json:"ai_model_version"`
}

func (s *Server) handleSubmitPrediction(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	reportID, err := uuid.Parse(c.QueryParam("report"))
	if err != nil {
		return apperrors.ValidationError("Invalid report")
	}

	var req submitPredictionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.PredictedEvent == "" {
		return apperrors.ValidationError("predicted_event is required")
	}
	if req.ConfidenceScore < 0 || req.ConfidenceScore > 1 {
		return apperrors.ValidationError("confidence_score must be between 0 and 1")
	}

	ctx := c.Request().Context()

	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			return apperrors.NotFoundError("Report not found")
		}
		return apperrors.InternalError("failed to load report", err)
	}

	prediction, err := s.predictions.Create(ctx, domain.NewPrediction{
		PredictedEvent:  req.PredictedEvent,
		GeneratedText:   req.GeneratedText,
		ConfidenceScore: req.ConfidenceScore,
		ValidUntil:      req.ValidUntil,
		AIModelVersion:  req.AIModelVersion,
		UserID:          &userID,
		ReportID:        reportID,
	})
	if err != nil {
		return apperrors.InternalError("failed to submit prediction", err)
	}

	// Fires only after the row is durably committed.
	s.notifier.PredictionCreated(*prediction)

	return s.created(c, domain.NotificationFromPrediction(*prediction))
}

func (s *Server) handleListPredictions(c echo.Context) error {
	predictions, err := s.predictions.ListAll(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list predictions", err)
	}

	views := make([]domain.PredictionNotification, 0, len(predictions))
	for _, p := range predictions {
		views = append(views, domain.NotificationFromPrediction(p))
	}
	return s.ok(c, views)
}

type feedbackView struct {
	ID               uuid.UUID  `json:"id"`
	Rating           *int       `json:"rating"`
	Comment          string     `json:"comment"`
	IsAccurate       bool       `json:"is_accurate"`
	ParentFeedbackID *uuid.UUID `json:"parent_feedback"`
	User             *uuid.UUID `json:"user"`
	PredictionID     uuid.UUID  `json:"prediction"`
	Timestamp        time.Time  `json:"timestamp"`
}

func feedbackViewFrom(f domain.Feedback) feedbackView {
	return feedbackView{
		ID:               f.ID,
		Rating:           f.Rating,
		Comment:          f.Comment,
		IsAccurate:       f.IsAccurate,
		ParentFeedbackID: f.ParentFeedbackID,
		User:             f.UserID,
		PredictionID:     f.PredictionID,
		Timestamp:        f.Timestamp,
	}
}

type submitFeedbackRequest struct {
	Rating     *int   `json:"rating"`
	Comment    string `json:"comment"`
	IsAccurate bool   `json:"is_accurate"`
}

func (s *Server) handleSubmitFeedback(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	predictionID, err := uuid.Parse(c.QueryParam("prediction"))
	if err != nil {
		return apperrors.ValidationError("Invalid prediction")
	}

	var req submitFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	ctx := c.Request().Context()

	if _, err := s.predictions.GetByID(ctx, predictionID); err != nil {
		if errors.Is(err, domain.ErrPredictionNotFound) {
			return apperrors.NotFoundError("Prediction not found")
		}
		return apperrors.InternalError("failed to load prediction", err)
	}

	feedback, err := s.feedbacks.Create(ctx, domain.NewFeedback{
		Rating:       req.Rating,
		Comment:      req.Comment,
		IsAccurate:   req.IsAccurate,
		UserID:       &userID,
		PredictionID: predictionID,
	})
	if err != nil {
		return apperrors.InternalError("failed to submit feedback", err)
	}

	return s.created(c, feedbackViewFrom(*feedback))
}

func (s *Server) handleListFeedback(c echo.Context) error {
	predictionID, err := uuid.Parse(c.QueryParam("prediction"))
	if err != nil {
		return apperrors.ValidationError("Invalid parameters")
	}

	feedbacks, err := s.feedbacks.ListByPrediction(c.Request().Context(), predictionID)
	if err != nil {
		return apperrors.InternalError("failed to list feedback", err)
	}

	views := make([]feedbackView, 0, len(feedbacks))
	for _, f := range feedbacks {
		views = append(views, feedbackViewFrom(f))
	}
	return s.ok(c, views)
}
