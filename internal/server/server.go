package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pawhncho/futurepulse/internal/config"
	"github.com/pawhncho/futurepulse/internal/domain"
	apperrors "github.com/pawhncho/futurepulse/internal/errors"
	"github.com/pawhncho/futurepulse/internal/feed"
	"github.com/pawhncho/futurepulse/internal/hub"
	"github.com/pawhncho/futurepulse/internal/notify"
	"github.com/pawhncho/futurepulse/internal/redis"
)

// Deps bundles the collaborators the server needs.
type Deps struct {
	Users       domain.UserRepository
	Tokens      redis.TokenAuthenticator
	Reports     domain.ReportRepository
	Predictions domain.PredictionRepository
	Feedbacks   domain.FeedbackRepository
	Feeds       *feed.Service
	Hub         *hub.Hub
	Notifier    *notify.Notifier
	Mailer      Mailer
	Clock       clockwork.Clock
	DB          *pgxpool.Pool
	Redis       *goredis.Client
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	users       domain.UserRepository
	tokens      redis.TokenAuthenticator
	reports     domain.ReportRepository
	predictions domain.PredictionRepository
	feedbacks   domain.FeedbackRepository
	feeds       *feed.Service
	hub         *hub.Hub
	notifier    *notify.Notifier
	mailer      Mailer
	clock       clockwork.Clock
	db          *pgxpool.Pool
	redisClient *goredis.Client
	limits      *ConnectionLimits
	startTime   time.Time
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Reports == nil || deps.Predictions == nil || deps.Feedbacks == nil {
		return nil, fmt.Errorf("missing repository dependency")
	}
	if deps.Hub == nil || deps.Notifier == nil || deps.Feeds == nil {
		return nil, fmt.Errorf("missing broadcast dependency")
	}

	tokens := deps.Tokens
	if tokens == nil {
		tokens = deps.Users
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = LogMailer{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		users:       deps.Users,
		tokens:      tokens,
		reports:     deps.Reports,
		predictions: deps.Predictions,
		feedbacks:   deps.Feedbacks,
		feeds:       deps.Feeds,
		hub:         deps.Hub,
		notifier:    deps.Notifier,
		mailer:      mailer,
		clock:       clock,
		db:          deps.DB,
		redisClient: deps.Redis,
		limits:      NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP),
		startTime:   clock.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
