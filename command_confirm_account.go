package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ConfirmAccountMessage struct {
	Token string `json:"token"`
}

func (e ConfirmAccountMessage) Type() string { return "auth.confirm" }

// ConfirmAccountHandler consumes a verification token and flips the owning
// account to confirmed. Consumption is atomic; a replayed token observes
// ErrTokenNotFound.
type ConfirmAccountHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewConfirmAccountHandler(repo RepositoryManager) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ConfirmAccountHandler) WithLogger(logger Logger) *ConfirmAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userID, err := h.repo.Tokens().Consume(ctx, event.Token)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			h.logger.Warn("consumed token referenced a missing user %s", userID.String())
			return ErrTokenNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account for confirmation")
	}

	if user.Confirmed {
		return nil
	}

	user.Confirmed = true
	if _, err := h.repo.Users().Save(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account confirmation")
	}

	return nil
}
