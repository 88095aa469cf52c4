package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type UpdateProfileMessage struct {
	UserID uuid.UUID `json:"-"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

func (e UpdateProfileMessage) Type() string { return "account.update_profile" }

// UpdateProfileHandler changes name and email for the authenticated user.
type UpdateProfileHandler struct {
	repo RepositoryManager
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	if other, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
		if other.ID != event.UserID {
			return ErrEmailTaken
		}
	} else if !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	user, err := h.repo.Users().GetByID(ctx, event.UserID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	user.Name = event.Name
	user.Email = email
	if _, err := h.repo.Users().Save(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
	}

	return nil
}

type UpdatePasswordMessage struct {
	UserID          uuid.UUID `json:"-"`
	CurrentPassword string    `json:"current_password"`
	Password        string    `json:"password"`
}

func (e UpdatePasswordMessage) Type() string { return "account.update_password" }

// UpdatePasswordHandler rotates the password of an authenticated user after
// verifying the current one.
type UpdatePasswordHandler struct {
	repo RepositoryManager
}

func NewUpdatePasswordHandler(repo RepositoryManager) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{repo: repo}
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByID(ctx, event.UserID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if err := ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
		return ErrBadCredentials
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	user.PasswordHash = hash
	if _, err := h.repo.Users().Save(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
	}

	return nil
}

type CheckPasswordMessage struct {
	UserID   uuid.UUID `json:"-"`
	Password string    `json:"password"`
}

func (e CheckPasswordMessage) Type() string { return "account.check_password" }

// CheckPasswordHandler re-verifies the password of an authenticated user,
// used by clients to gate destructive actions like project deletion.
type CheckPasswordHandler struct {
	repo RepositoryManager
}

func NewCheckPasswordHandler(repo RepositoryManager) *CheckPasswordHandler {
	return &CheckPasswordHandler{repo: repo}
}

func (h *CheckPasswordHandler) Execute(ctx context.Context, event CheckPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password check",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CheckPasswordHandler) execute(ctx context.Context, event CheckPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByID(ctx, event.UserID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		return ErrBadCredentials
	}

	return nil
}
