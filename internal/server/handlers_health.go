package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pawhncho/futurepulse/internal/version"
)

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthStatus struct {
	Status string                 `json:"status"`
	Uptime string                 `json:"uptime"`
	Checks map[string]healthCheck `json:"checks,omitempty"`
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthStatus{
		Status: "ok",
		Uptime: s.clock.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleReadiness pings the backing stores. Any failing check flips the
// overall status to unhealthy and the response to 503.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx := c.Request().Context()
	checks := make(map[string]healthCheck)
	healthy := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["postgres"] = healthCheck{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			checks["postgres"] = healthCheck{Status: "ok"}
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = healthCheck{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			checks["redis"] = healthCheck{Status: "ok"}
		}
	}

	status := healthStatus{
		Status: "ok",
		Uptime: s.clock.Since(s.startTime).Round(time.Second).String(),
		Checks: checks,
	}
	if !healthy {
		status.Status = "unhealthy"
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
