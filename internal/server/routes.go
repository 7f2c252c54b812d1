package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth routes (rate limited per IP)
	authLimiter := newRateLimiter(s.config.AuthRatePerMinute/60, s.config.AuthRateBurst)
	s.echo.POST("/api/auth/register", s.handleRegister, authLimiter)
	s.echo.POST("/api/auth/login", s.handleLogin, authLimiter)
	s.echo.POST("/api/auth/forgot-password", s.handleForgotPassword, authLimiter)
	s.echo.POST("/api/auth/reset-password/:token", s.handleResetPassword, authLimiter)
	s.echo.POST("/api/auth/send-verification-email", s.handleSendVerificationEmail, s.requireAuth)
	s.echo.POST("/api/auth/verify-email/:token", s.handleVerifyEmail, authLimiter)

	// API routes (token authenticated)
	s.echo.POST("/api/reports", s.handleSubmitReport, s.requireAuth)
	s.echo.GET("/api/reports", s.handleListReports, s.requireAuth)
	s.echo.POST("/api/predictions", s.handleSubmitPrediction, s.requireAuth)
	s.echo.GET("/api/predictions", s.handleListPredictions, s.requireAuth)
	s.echo.POST("/api/feedback", s.handleSubmitFeedback, s.requireAuth)
	s.echo.GET("/api/feedback", s.handleListFeedback)

	// Live WebSocket endpoints (public)
	s.echo.GET("/ws/reports", s.handleReportFeed)
	s.echo.GET("/ws/predictions", s.handlePredictionFeed)
	s.echo.GET("/ws/notifications", s.handleNotifications)
}
