package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ValidateTokenMessage struct {
	Token string `json:"token"`
}

func (e ValidateTokenMessage) Type() string { return "auth.validate_token" }

// ValidateTokenHandler checks a reset token without consuming it, letting a
// client gate its UI before collecting the new password. The destructive
// consume happens only in the later reset step, so this check is
// deliberately non-atomic.
type ValidateTokenHandler struct {
	repo RepositoryManager
}

func NewValidateTokenHandler(repo RepositoryManager) *ValidateTokenHandler {
	return &ValidateTokenHandler{repo: repo}
}

func (h *ValidateTokenHandler) Execute(ctx context.Context, event ValidateTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token validation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ValidateTokenHandler) execute(ctx context.Context, event ValidateTokenMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if _, err := h.repo.Tokens().Peek(ctx, event.Token); err != nil {
		return err
	}

	return nil
}
