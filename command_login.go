package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type LoginMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(token string)
}

func (e LoginMessage) Type() string { return "auth.login" }

// LoginHandler verifies credentials and mints a session token. This is the
// only path that ever produces a session credential. An unconfirmed account
// never logs in; each such attempt issues a fresh confirmation token while
// older pending tokens keep their own expiry.
type LoginHandler struct {
	repo   RepositoryManager
	tokens TokenService
	mailer Mailer
	logger Logger
}

func NewLoginHandler(repo RepositoryManager, tokens TokenService, mailer Mailer) *LoginHandler {
	return &LoginHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if !user.Confirmed {
		h.resendConfirmation(ctx, user)
		return ErrNotConfirmed
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		return ErrBadCredentials
	}

	signed, err := h.tokens.Generate(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint session token")
	}

	if event.OnResponse != nil {
		event.OnResponse(signed)
	}

	return nil
}

func (h *LoginHandler) resendConfirmation(ctx context.Context, user *User) {
	token, err := h.repo.Tokens().Issue(ctx, user.ID)
	if err != nil {
		h.logger.Warn("could not issue confirmation token on login for user %s: %s", user.ID.String(), err)
		return
	}

	dispatchEmail(h.logger, "confirmation", func(ctx context.Context) error {
		return h.mailer.SendConfirmationEmail(ctx, EmailRecipient{
			Email: user.Email,
			Name:  user.Name,
			Token: token.Value,
		})
	})
}
