package uptask

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

const emailDispatchTimeout = 15 * time.Second

// dispatchEmail runs a send in the background. Delivery is best-effort:
// failures are logged and never fail or block the request that triggered
// the notification.
func dispatchEmail(logger Logger, kind string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			logger.Warn("failed to dispatch %s email: %s", kind, err)
		}
	}()
}

// SMTPMailer sends auth notifications through an SMTP relay.
type SMTPMailer struct {
	client      *mail.Client
	from        string
	frontendURL string
}

// NewSMTPMailer builds the mailer from process configuration.
func NewSMTPMailer(cfg SMTPConfig, frontendURL string) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create smtp client")
	}

	return &SMTPMailer{
		client:      client,
		from:        cfg.From,
		frontendURL: frontendURL,
	}, nil
}

func (m *SMTPMailer) SendConfirmationEmail(ctx context.Context, to EmailRecipient) error {
	body := fmt.Sprintf(`<p>Hi %s, you have created your UpTask account, almost
	everything is ready, you only need to confirm it.</p>
	<p>Visit the following link:</p>
	<a href="%s/auth/confirm-account">Confirm account</a>
	<p>Enter the code: <b>%s</b></p>
	<p>This code expires in 10 minutes.</p>`, to.Name, m.frontendURL, to.Token)

	return m.send(ctx, to.Email, "UpTask - Confirm your account", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to EmailRecipient) error {
	body := fmt.Sprintf(`<p>Hi %s, you have requested to reset your password.</p>
	<p>Visit the following link:</p>
	<a href="%s/auth/new-password">Reset password</a>
	<p>Enter the code: <b>%s</b></p>
	<p>This code expires in 10 minutes.</p>`, to.Name, m.frontendURL, to.Token)

	return m.send(ctx, to.Email, "UpTask - Reset your password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid recipient address")
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "smtp delivery failed")
	}

	return nil
}

var _ Mailer = (*SMTPMailer)(nil)

// NoopMailer drops every notification. Useful for local development when no
// SMTP relay is configured.
type NoopMailer struct {
	Logger Logger
}

func (m NoopMailer) SendConfirmationEmail(_ context.Context, to EmailRecipient) error {
	if m.Logger != nil {
		m.Logger.Info("confirmation email suppressed: to=%s token=%s", to.Email, to.Token)
	}
	return nil
}

func (m NoopMailer) SendPasswordResetEmail(_ context.Context, to EmailRecipient) error {
	if m.Logger != nil {
		m.Logger.Info("password reset email suppressed: to=%s token=%s", to.Email, to.Token)
	}
	return nil
}

var _ Mailer = (*NoopMailer)(nil)
