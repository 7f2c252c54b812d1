package server

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawhncho/futurepulse/internal/domain"
	apperrors "github.com/pawhncho/futurepulse/internal/errors"
)

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`\d`)
	emailRe = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.ValidationError("Password must be at least 8 characters long")
	}
	if !upperRe.MatchString(password) {
		return apperrors.ValidationError("Password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		return apperrors.ValidationError("Password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		return apperrors.ValidationError("Password must contain at least one number")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return apperrors.ValidationError("Invalid email format")
	}
	return nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("Username, email and password are required")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	ctx := c.Request().Context()

	user, err := s.users.Create(ctx, req.Username, req.Email, string(hash))
	if errors.Is(err, domain.ErrUsernameTaken) {
		return apperrors.ValidationError("Username already exists")
	}
	if errors.Is(err, domain.ErrEmailTaken) {
		return apperrors.ValidationError("Email already exists")
	}
	if err != nil {
		return apperrors.InternalError("failed to create user", err)
	}

	token, err := s.users.CreateToken(ctx, user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	return s.created(c, map[string]string{"token": token.Key})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.ValidationError("Username and password are required")
	}

	ctx := c.Request().Context()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.UnauthorizedError("Invalid credentials")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return apperrors.UnauthorizedError("Invalid credentials")
	}

	token, err := s.users.CreateToken(ctx, user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	return s.ok(c, map[string]string{"token": token.Key})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}

	ctx := c.Request().Context()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("User not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	resetToken, err := s.signResetToken(user.ID)
	if err != nil {
		return apperrors.InternalError("failed to sign reset token", err)
	}

	resetURL := fmt.Sprintf("%s://%s/reset-password/%s", c.Scheme(), c.Request().Host, resetToken)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		return apperrors.InternalError("failed to send reset email", err)
	}

	return s.ok(c, "Email has been sent")
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) handleResetPassword(c echo.Context) error {
	userID, err := s.parseResetToken(c.Param("token"))
	if err != nil {
		return apperrors.ValidationError("Invalid or expired token")
	}

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	ctx := c.Request().Context()
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("User not found")
		}
		return apperrors.InternalError("failed to update password", err)
	}

	return s.ok(c, "Password has been updated")
}

func (s *Server) handleSendVerificationEmail(c echo.Context) error {
	user, ok := c.Get("user").(*domain.User)
	if !ok {
		return apperrors.InternalError("invalid user in context", nil)
	}
	if user.EmailVerified {
		return apperrors.ValidationError("Email is already verified")
	}

	verifyToken, err := s.signUserToken(user.ID, tokenPurposeVerifyEmail)
	if err != nil {
		return apperrors.InternalError("failed to sign verification token", err)
	}

	verifyURL := fmt.Sprintf("%s://%s/verify-email/%s", c.Scheme(), c.Request().Host, verifyToken)
	if err := s.mailer.SendEmailVerification(c.Request().Context(), user.Email, verifyURL); err != nil {
		return apperrors.InternalError("failed to send verification email", err)
	}

	return s.ok(c, "Email has been sent")
}

func (s *Server) handleVerifyEmail(c echo.Context) error {
	userID, err := s.parseUserToken(c.Param("token"), tokenPurposeVerifyEmail)
	if err != nil {
		return apperrors.ValidationError("Invalid or expired token")
	}

	if err := s.users.MarkEmailVerified(c.Request().Context(), userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("User not found")
		}
		return apperrors.InternalError("failed to verify email", err)
	}

	return s.ok(c, "Email has been verified")
}

// Token purposes are carried in the audience claim so a reset token can never
// pass as a verification token or vice versa.
const (
	tokenPurposeReset       = "password-reset"
	tokenPurposeVerifyEmail = "email-verify"
)

func (s *Server) signResetToken(userID uuid.UUID) (string, error) {
	return s.signUserToken(userID, tokenPurposeReset)
}

func (s *Server) parseResetToken(raw string) (uuid.UUID, error) {
	return s.parseUserToken(raw, tokenPurposeReset)
}

func (s *Server) signUserToken(userID uuid.UUID, purpose string) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{purpose},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ResetTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.ResetTokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) parseUserToken(raw, purpose string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.ResetTokenSecret), nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithAudience(purpose))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse %s token: %w", purpose, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("%s token missing subject", purpose)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s token subject is not a UUID: %w", purpose, err)
	}
	return userID, nil
}
