package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/pawhncho/futurepulse/internal/config"
	"github.com/pawhncho/futurepulse/internal/domain"
	"github.com/pawhncho/futurepulse/internal/feed"
	"github.com/pawhncho/futurepulse/internal/hub"
	"github.com/pawhncho/futurepulse/internal/notify"
)

// --- In-memory repository fakes ---

type memUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]domain.User
	tokens map[string]uuid.UUID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:  make(map[uuid.UUID]domain.User),
		tokens: make(map[string]uuid.UUID),
	}
}

func (m *memUserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
		if u.Email == email {
			return nil, domain.ErrEmailTaken
		}
	}
	user := domain.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash}
	m.users[user.ID] = user
	return &user, nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func (m *memUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.EmailVerified = true
	m.users[id] = u
	return nil
}

func (m *memUserRepo) CreateToken(ctx context.Context, userID uuid.UUID) (*domain.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("token-%s", uuid.New())
	m.tokens[key] = userID
	return &domain.APIToken{Key: key, UserID: userID}, nil
}

func (m *memUserRepo) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tokens[key]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	u := m.users[userID]
	return &u, nil
}

type memReportRepo struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
	clock   clockwork.Clock
}

func (m *memReportRepo) Create(ctx context.Context, r domain.NewReport) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	report := domain.Report{
		ID:          uuid.New(),
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ReportType:  r.ReportType,
		Description: r.Description,
		Status:      "pending",
		SensorData:  r.SensorData,
		Rating:      r.Rating,
		ValidUntil:  r.ValidUntil,
		UserID:      r.UserID,
		Timestamp:   m.clock.Now(),
	}
	if report.SensorData == nil {
		report.SensorData = map[string]any{}
	}
	m.reports = append(m.reports, report)
	return &report, nil
}

func (m *memReportRepo) ListAll(ctx context.Context) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Report, len(m.reports))
	copy(out, m.reports)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memReportRepo) ListValid(ctx context.Context, now time.Time) ([]domain.Report, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var valid []domain.Report
	for _, r := range all {
		if r.ValidUntil != nil && !r.ValidUntil.Before(now) {
			valid = append(valid, r)
		}
	}
	return valid, nil
}

func (m *memReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

type memPredictionRepo struct {
	mu          sync.Mutex
	predictions []domain.Prediction
	err         error
	clock       clockwork.Clock
}

func (m *memPredictionRepo) Create(ctx context.Context, p domain.NewPrediction) (*domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	version := p.AIModelVersion
	if version == "" {
		version = "GPT-4"
	}
	prediction := domain.Prediction{
		ID:              uuid.New(),
		PredictedEvent:  p.PredictedEvent,
		GeneratedText:   p.GeneratedText,
		ConfidenceScore: p.ConfidenceScore,
		ValidUntil:      p.ValidUntil,
		AIModelVersion:  version,
		UserID:          p.UserID,
		ReportID:        p.ReportID,
		Timestamp:       m.clock.Now(),
	}
	m.predictions = append(m.predictions, prediction)
	return &prediction, nil
}

func (m *memPredictionRepo) ListAll(ctx context.Context) ([]domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Prediction, len(m.predictions))
	copy(out, m.predictions)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memPredictionRepo) ListValid(ctx context.Context, now time.Time) ([]domain.Prediction, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var valid []domain.Prediction
	for _, p := range all {
		if p.ValidUntil != nil && !p.ValidUntil.Before(now) {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

func (m *memPredictionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.predictions {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrPredictionNotFound
}

type memFeedbackRepo struct {
	mu        sync.Mutex
	feedbacks []domain.Feedback
	clock     clockwork.Clock
}

func (m *memFeedbackRepo) Create(ctx context.Context, f domain.NewFeedback) (*domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	feedback := domain.Feedback{
		ID:           uuid.New(),
		Rating:       f.Rating,
		Comment:      f.Comment,
		IsAccurate:   f.IsAccurate,
		UserID:       f.UserID,
		PredictionID: f.PredictionID,
		Timestamp:    m.clock.Now(),
	}
	m.feedbacks = append(m.feedbacks, feedback)
	return &feedback, nil
}

func (m *memFeedbackRepo) ListByPrediction(ctx context.Context, predictionID uuid.UUID) ([]domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Feedback
	for _, f := range m.feedbacks {
		if f.PredictionID == predictionID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// --- Test server fixture ---

type fixture struct {
	server      *Server
	users       *memUserRepo
	reports     *memReportRepo
	predictions *memPredictionRepo
	feedbacks   *memFeedbackRepo
	hub         *hub.Hub
	clock       clockwork.Clock
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                   "test",
		Port:                     "0",
		ResetTokenSecret:         "0123456789abcdef0123456789abcdef",
		ResetTokenTTL:            time.Hour,
		ReportFeedValidityFilter: true,
		MaxConnections:           100,
		MaxConnectionsPerIP:      100,
		AuthRatePerMinute:        60000,
		AuthRateBurst:            1000,
	}
}

func newFixture(t *testing.T, opts ...func(*fixture)) *fixture {
	t.Helper()

	f := &fixture{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(f)
	}

	f.users = newMemUserRepo()
	f.reports = &memReportRepo{clock: f.clock}
	f.predictions = &memPredictionRepo{clock: f.clock}
	f.feedbacks = &memFeedbackRepo{clock: f.clock}

	f.hub = hub.NewHub(clockwork.NewRealClock())
	t.Cleanup(f.hub.Stop)

	feeds := feed.NewService(f.reports, f.predictions, f.clock, true)

	srv, err := NewServer(testConfig(), Deps{
		Users:       f.users,
		Reports:     f.reports,
		Predictions: f.predictions,
		Feedbacks:   f.feedbacks,
		Feeds:       feeds,
		Hub:         f.hub,
		Notifier:    notify.NewNotifier(f.hub),
		Clock:       f.clock,
	})
	require.NoError(t, err)
	f.server = srv
	return f
}

func withClock(clock clockwork.Clock) func(*fixture) {
	return func(f *fixture) { f.clock = clock }
}

// doJSON performs a request against the echo instance and decodes the envelope.
func (f *fixture) doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	f.server.echo.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec.Code, envelope
}

const echoHeaderContentType = "Content-Type"

// registerUser creates an account through the API and returns its token.
func (f *fixture) registerUser(t *testing.T, username string) string {
	t.Helper()

	code, envelope := f.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusCreated, code)

	data := envelope["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}
