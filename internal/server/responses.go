package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// successResponse writes the API envelope all endpoints share:
// {"status": "success", "code": <http>, "data": ..., "timestamp": ...}
func (s *Server) successResponse(c echo.Context, code int, data any) error {
	if err := c.JSON(code, map[string]any{
		"status":    "success",
		"code":      code,
		"data":      data,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) ok(c echo.Context, data any) error {
	return s.successResponse(c, http.StatusOK, data)
}

func (s *Server) created(c echo.Context, data any) error {
	return s.successResponse(c, http.StatusCreated, data)
}
