package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RequestConfirmationCodeMessage struct {
	Email string `json:"email"`
}

func (e RequestConfirmationCodeMessage) Type() string { return "auth.request_code" }

// RequestConfirmationCodeHandler re-issues a confirmation token for an
// account still pending confirmation.
type RequestConfirmationCodeHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewRequestConfirmationCodeHandler(repo RepositoryManager, mailer Mailer) *RequestConfirmationCodeHandler {
	return &RequestConfirmationCodeHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *RequestConfirmationCodeHandler) WithLogger(logger Logger) *RequestConfirmationCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestConfirmationCodeHandler) Execute(ctx context.Context, event RequestConfirmationCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation code request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestConfirmationCodeHandler) execute(ctx context.Context, event RequestConfirmationCodeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if user.Confirmed {
		return ErrAlreadyConfirmed
	}

	token, err := h.repo.Tokens().Issue(ctx, user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
	}

	dispatchEmail(h.logger, "confirmation", func(ctx context.Context) error {
		return h.mailer.SendConfirmationEmail(ctx, EmailRecipient{
			Email: user.Email,
			Name:  user.Name,
			Token: token.Value,
		})
	})

	return nil
}
