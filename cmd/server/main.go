package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pawhncho/futurepulse/internal/config"
	"github.com/pawhncho/futurepulse/internal/database"
	"github.com/pawhncho/futurepulse/internal/feed"
	"github.com/pawhncho/futurepulse/internal/hub"
	"github.com/pawhncho/futurepulse/internal/logging"
	"github.com/pawhncho/futurepulse/internal/notify"
	"github.com/pawhncho/futurepulse/internal/redis"
	"github.com/pawhncho/futurepulse/internal/server"
	"github.com/pawhncho/futurepulse/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting futurepulse", "version", version.Version, "env", cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()

	users := database.NewUserRepo(pool, clock)
	reports := database.NewReportRepo(pool, clock)
	predictions := database.NewPredictionRepo(pool, clock)
	feedbacks := database.NewFeedbackRepo(pool, clock)

	// Redis is optional; without it token auth hits PostgreSQL directly.
	var (
		redisClient *goredis.Client
		tokens      redis.TokenAuthenticator = users
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		tokens = redis.NewTokenCache(redisClient, users)
	}

	broadcastHub := hub.NewHub(clock)
	notifier := notify.NewNotifier(broadcastHub)
	feeds := feed.NewService(reports, predictions, clock, cfg.ReportFeedValidityFilter)

	srv, err := server.NewServer(cfg, server.Deps{
		Users:       users,
		Tokens:      tokens,
		Reports:     reports,
		Predictions: predictions,
		Feedbacks:   feedbacks,
		Feeds:       feeds,
		Hub:         broadcastHub,
		Notifier:    notifier,
		Clock:       clock,
		DB:          pool,
		Redis:       redisClient,
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.Start(); err != nil {
			slog.Info("HTTP server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	broadcastHub.Stop()

	slog.Info("Shutdown complete")
}
