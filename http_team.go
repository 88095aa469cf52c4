package uptask

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TeamController manages a project's collaborator list. All routes are
// owner-gated; collaboration is granted, never self-served.
type TeamController struct {
	repo   RepositoryManager
	logger Logger
}

func NewTeamController(repo RepositoryManager) *TeamController {
	if repo == nil {
		panic("missing RepositoryManager in team controller")
	}
	return &TeamController{
		repo:   repo,
		logger: defLogger{},
	}
}

func (t *TeamController) WithLogger(logger Logger) *TeamController {
	t.logger = logger
	return t
}

// FindMember looks up a candidate collaborator by email. The response is
// trimmed to id, name and email so the directory never leaks more.
func (t *TeamController) FindMember(c *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, t.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	user, err := t.repo.Users().GetByEmail(c.UserContext(), payload.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return RespondError(c, t.logger, ErrUserNotFound)
		}
		return RespondError(c, t.logger, err)
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (t *TeamController) List(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrProjectNotFound)
	}

	team, err := t.repo.Projects().Team(c.UserContext(), project.ID)
	if err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(team)
}

// AddMemberPayload names the account to add by id.
type AddMemberPayload struct {
	ID string `json:"id"`
}

func (r AddMemberPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, is.UUID),
	)
}

func (t *TeamController) AddMember(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrProjectNotFound)
	}

	payload := new(AddMemberPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, t.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	userID, err := uuid.Parse(payload.ID)
	if err != nil {
		return RespondError(c, t.logger, ErrUserNotFound)
	}

	user, err := t.repo.Users().GetByID(c.UserContext(), userID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return RespondError(c, t.logger, ErrUserNotFound)
		}
		return RespondError(c, t.logger, err)
	}

	// the owner is implicitly a member; adding them would only create a
	// redundant join row
	if project.IsOwner(user.ID) {
		return c.JSON(fiber.Map{"message": "User added to the project"})
	}

	if err := t.repo.Projects().AddMember(c.UserContext(), project.ID, user.ID); err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(fiber.Map{"message": "User added to the project"})
}

func (t *TeamController) RemoveMember(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrProjectNotFound)
	}

	userID, err := uuid.Parse(c.Params("userID"))
	if err != nil {
		return RespondError(c, t.logger, ErrUserNotFound)
	}

	removed, err := t.repo.Projects().RemoveMember(c.UserContext(), project.ID, userID)
	if err != nil {
		return RespondError(c, t.logger, err)
	}
	if !removed {
		return RespondError(c, t.logger, ErrUserNotFound)
	}

	return c.JSON(fiber.Map{"message": "User removed from the project"})
}
