package uptask

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Implementations
// can wrap logrus, slog, etc.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService issues and verifies stateless session credentials.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(raw string) (*SessionClaims, error)
}

// Mailer delivers outbound notifications. Implementations must be safe for
// concurrent use; callers dispatch fire-and-forget.
type Mailer interface {
	SendConfirmationEmail(ctx context.Context, to EmailRecipient) error
	SendPasswordResetEmail(ctx context.Context, to EmailRecipient) error
}

// EmailRecipient carries the notification payload. Token holds the raw
// verification value; this is the only place it leaves the store before
// consumption.
type EmailRecipient struct {
	Email string
	Name  string
	Token string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] UPTASK "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] UPTASK "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] UPTASK "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] UPTASK "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
