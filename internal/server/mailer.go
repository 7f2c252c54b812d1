package server

import (
	"context"
	"log/slog"
)

// Mailer delivers password-reset and email-verification links. Email transport
// lives outside this service; the default implementation only logs the URLs.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
	SendEmailVerification(ctx context.Context, email, verifyURL string) error
}

// LogMailer writes links to the structured log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, resetURL string) error {
	slog.Info("Password reset requested", "email", email, "reset_url", resetURL)
	return nil
}

func (LogMailer) SendEmailVerification(_ context.Context, email, verifyURL string) error {
	slog.Info("Email verification requested", "email", email, "verify_url", verifyURL)
	return nil
}
