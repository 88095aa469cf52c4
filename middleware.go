package uptask

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Middleware holds the authorization chain handlers. Route groups compose
// them in order: RequireAuth, ResolveProject, ResolveTask, and the
// membership or ownership gate the route needs.
type Middleware struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewMiddleware(repo RepositoryManager, tokens TokenService) *Middleware {
	return &Middleware{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (m *Middleware) WithLogger(logger Logger) *Middleware {
	m.logger = logger
	return m
}

// RequireAuth verifies the bearer credential, loads the account it names,
// and stores both in request locals. Token verification errors and a
// missing account all surface as the credential's own error so callers
// cannot distinguish a revoked account from a bad token.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			return RespondError(c, m.logger, err)
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			return RespondError(c, m.logger, err)
		}

		user, err := m.repo.Users().GetByID(c.UserContext(), claims.UserID())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return RespondError(c, m.logger, ErrSessionInvalid)
			}
			return RespondError(c, m.logger, err)
		}

		c.Locals(localUser, user)
		c.Locals(localClaims, claims)

		// mirror the identity into the request context so command handlers
		// invoked downstream can read it without a fiber dependency
		ctx := WithClaimsContext(WithContext(c.UserContext(), user), claims)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// ResolveProject loads the project named by the :projectID param. A
// malformed id and a missing row both answer not found.
func (m *Middleware) ResolveProject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("projectID"))
		if err != nil {
			return RespondError(c, m.logger, ErrProjectNotFound)
		}

		project, err := m.repo.Projects().GetByID(c.UserContext(), id)
		if err != nil {
			return RespondError(c, m.logger, err)
		}

		c.Locals(localProject, project)

		return c.Next()
	}
}

// ResolveTask loads the task named by the :taskID param. A task that
// exists but belongs to a different project answers not found, not
// forbidden, so the route never confirms the task exists elsewhere.
func (m *Middleware) ResolveTask() fiber.Handler {
	return func(c *fiber.Ctx) error {
		project, ok := ProjectFromLocals(c)
		if !ok {
			return RespondError(c, m.logger, ErrProjectNotFound)
		}

		id, err := uuid.Parse(c.Params("taskID"))
		if err != nil {
			return RespondError(c, m.logger, ErrTaskNotFound)
		}

		task, err := m.repo.Tasks().GetByID(c.UserContext(), id)
		if err != nil {
			return RespondError(c, m.logger, err)
		}

		if task.ProjectID != project.ID {
			return RespondError(c, m.logger, ErrTaskNotFound)
		}

		c.Locals(localTask, task)

		return c.Next()
	}
}

// RequireMembership admits the project owner or any team member.
func (m *Middleware) RequireMembership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromLocals(c)
		if !ok {
			return RespondError(c, m.logger, ErrSessionMissing)
		}

		project, ok := ProjectFromLocals(c)
		if !ok {
			return RespondError(c, m.logger, ErrProjectNotFound)
		}

		if !project.IsOwner(user.ID) && !project.IsMember(user.ID) {
			return RespondError(c, m.logger, ErrNotMember)
		}

		return c.Next()
	}
}

// RequireOwnership admits only the project owner. Members who reach an
// owner-only route get forbidden, not a masked not found, since project
// resolution already admitted them to the project.
func (m *Middleware) RequireOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromLocals(c)
		if !ok {
			return RespondError(c, m.logger, ErrSessionMissing)
		}

		project, ok := ProjectFromLocals(c)
		if !ok {
			return RespondError(c, m.logger, ErrProjectNotFound)
		}

		if !project.IsOwner(user.ID) {
			return RespondError(c, m.logger, ErrNotOwner)
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrSessionMissing
	}

	const scheme = "Bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrSessionMalformed
	}

	raw := strings.TrimSpace(header[len(scheme):])
	if raw == "" {
		return "", ErrSessionMalformed
	}

	return raw, nil
}
