package uptask

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "auth.register" }

// RegisterUserHandler creates an unconfirmed account, issues a verification
// token, and dispatches the confirmation email.
type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	if _, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Name:         event.Name,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    false,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	if user, err = h.repo.Users().Create(ctx, user); err != nil {
		// the unique index lost a race with a concurrent registration
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	// The token save is independent of the identity save: if it fails the
	// account still exists and a fresh code can be requested later, so we
	// log instead of rolling back.
	token, err := h.repo.Tokens().Issue(ctx, user.ID)
	if err != nil {
		h.logger.Warn("could not issue confirmation token for user %s: %s", user.ID.String(), err)
		return nil
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
