package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/pawhncho/futurepulse/internal/domain"
	apperrors "github.com/pawhncho/futurepulse/internal/errors"
)

const rateLimiterExpiry = 5 * time.Minute

// requireAuth resolves the API token from the Authorization header
// ("Bearer <key>" or "Token <key>") or the token query parameter, and stores
// the authenticated user in the request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := extractToken(c)
		if key == "" {
			return apperrors.UnauthorizedError("Invalid token")
		}

		user, err := s.tokens.GetUserByToken(c.Request().Context(), key)
		if errors.Is(err, domain.ErrTokenNotFound) {
			return apperrors.UnauthorizedError("Invalid token")
		}
		if err != nil {
			return apperrors.InternalError("failed to authenticate", err)
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	for _, scheme := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	return c.QueryParam("token")
}

func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}
