package uptask

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailTaken       = "EMAIL_ALREADY_REGISTERED"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeTokenNotFound    = "TOKEN_NOT_FOUND"
	TextCodeNotConfirmed     = "ACCOUNT_NOT_CONFIRMED"
	TextCodeAlreadyConfirmed = "ACCOUNT_ALREADY_CONFIRMED"
	TextCodeBadCredentials   = "INVALID_CREDENTIALS"
	TextCodeSessionMissing   = "SESSION_MISSING"
	TextCodeSessionMalformed = "SESSION_MALFORMED"
	TextCodeSessionInvalid   = "SESSION_INVALID"
	TextCodeSessionExpired   = "SESSION_EXPIRED"
	TextCodeProjectNotFound  = "PROJECT_NOT_FOUND"
	TextCodeTaskNotFound     = "TASK_NOT_FOUND"
	TextCodeNoteNotFound     = "NOTE_NOT_FOUND"
	TextCodeNotMember        = "NOT_A_TEAM_MEMBER"
	TextCodeNotOwner         = "NOT_PROJECT_OWNER"
	TextCodeNotNoteAuthor    = "NOT_NOTE_AUTHOR"
)

// ErrEmailTaken is returned when registering with an email that already resolves.
var ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when no user matches the given email or id.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenNotFound covers missing, already consumed, and expired verification tokens.
var ErrTokenNotFound = errors.New("token not found or expired", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotConfirmed is returned on login attempts against an unconfirmed account.
var ErrNotConfirmed = errors.New("account has not been confirmed, a new confirmation email was sent", errors.CategoryAuth).
	WithTextCode(TextCodeNotConfirmed).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyConfirmed is returned when requesting a confirmation code for a confirmed account.
var ErrAlreadyConfirmed = errors.New("account is already confirmed", errors.CategoryAuthz).
	WithTextCode(TextCodeAlreadyConfirmed).
	WithCode(errors.CodeForbidden)

// ErrBadCredentials is returned on a failed password check.
var ErrBadCredentials = errors.New("incorrect password", errors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrSessionMissing is returned when a request carries no bearer credential.
var ErrSessionMissing = errors.New("missing session token", errors.CategoryAuth).
	WithTextCode(TextCodeSessionMissing).
	WithCode(errors.CodeUnauthorized)

// ErrSessionMalformed is returned when the bearer credential cannot be parsed.
var ErrSessionMalformed = errors.New("malformed session token", errors.CategoryAuth).
	WithTextCode(TextCodeSessionMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrSessionInvalid is returned when the credential signature does not verify.
var ErrSessionInvalid = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrSessionExpired is returned when the credential is past its expiry.
var ErrSessionExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrProjectNotFound is returned when a path project id does not resolve.
var ErrProjectNotFound = errors.New("project not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProjectNotFound).
	WithCode(errors.CodeNotFound)

// ErrTaskNotFound is returned when a path task id does not resolve, or when
// the task does not belong to the resolved project. The mismatch case is
// deliberately NotFound rather than Forbidden so callers cannot probe for
// task existence under a project they can see.
var ErrTaskNotFound = errors.New("task not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTaskNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoteNotFound is returned when a note id does not resolve within the task.
var ErrNoteNotFound = errors.New("note not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNoteNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotMember is returned when an authenticated user is neither owner nor
// team member of the resolved project.
var ErrNotMember = errors.New("action not permitted", errors.CategoryAuthz).
	WithTextCode(TextCodeNotMember).
	WithCode(errors.CodeForbidden)

// ErrNotOwner is returned when an operation requires project ownership and
// the user only has team membership.
var ErrNotOwner = errors.New("only the project owner can perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodeNotOwner).
	WithCode(errors.CodeForbidden)

// ErrNotNoteAuthor is returned when a member tries to delete a note they
// did not write.
var ErrNotNoteAuthor = errors.New("only the note author can delete it", errors.CategoryAuthz).
	WithTextCode(TextCodeNotNoteAuthor).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects empty required string inputs.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the codec-level mismatch error.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// RespondError maps a domain error to an HTTP response. Rich errors carry
// their own status code; anything else is reported as an opaque 500 so
// collaborator failures never leak internals.
func RespondError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		logger.Error("unexpected error: %s", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}
	if status < fiber.StatusBadRequest {
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed: %s category=%s", richErr.Message, richErr.Category)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": richErr.Message,
	})
}

// statusForCategory derives an HTTP status for rich errors that never had an
// explicit code attached, like wrapped collaborator failures.
func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
