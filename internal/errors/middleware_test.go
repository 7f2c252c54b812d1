package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware())
	e.GET("/test", handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_PassesSuccessThrough(t *testing.T) {
	rec := doRequest(t, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddleware_ConvertsStructuredError(t *testing.T) {
	rec := doRequest(t, func(c echo.Context) error {
		return NotFoundError("report not found")
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, float64(http.StatusNotFound), body["code"])
	assert.Equal(t, "report not found", body["data"])
}

func TestMiddleware_ConvertsPlainError(t *testing.T) {
	rec := doRequest(t, func(c echo.Context) error {
		return fmt.Errorf("pool exhausted")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["data"], "internal details must not leak")
}

func TestMiddleware_EchoHTTPErrorPassesThrough(t *testing.T) {
	rec := doRequest(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, string(TypeNotFound), typeForStatus(http.StatusNotFound))
	assert.Equal(t, string(TypeUnauthorized), typeForStatus(http.StatusUnauthorized))
	assert.Equal(t, string(TypeValidation), typeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, string(TypeInternal), typeForStatus(http.StatusBadGateway))
}
