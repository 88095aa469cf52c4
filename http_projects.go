package uptask

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// ProjectController exposes project CRUD. Routes that reach a handler have
// already passed RequireAuth, and the single-project routes additionally
// ResolveProject plus a membership or ownership gate.
type ProjectController struct {
	repo   RepositoryManager
	logger Logger
}

func NewProjectController(repo RepositoryManager) *ProjectController {
	if repo == nil {
		panic("missing RepositoryManager in project controller")
	}
	return &ProjectController{
		repo:   repo,
		logger: defLogger{},
	}
}

func (p *ProjectController) WithLogger(logger Logger) *ProjectController {
	p.logger = logger
	return p
}

// ProjectPayload is the create and update body.
type ProjectPayload struct {
	Name        string `json:"projectName"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}

func (r ProjectPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ClientName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
	)
}

func (p *ProjectController) Create(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, p.logger, ErrSessionMissing)
	}

	payload := new(ProjectPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, p.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	project := &Project{
		Name:        payload.Name,
		ClientName:  payload.ClientName,
		Description: payload.Description,
		OwnerID:     user.ID,
	}

	project, err := p.repo.Projects().Create(c.UserContext(), project)
	if err != nil {
		return RespondError(c, p.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

func (p *ProjectController) List(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, p.logger, ErrSessionMissing)
	}

	projects, err := p.repo.Projects().ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return RespondError(c, p.logger, err)
	}

	return c.JSON(projects)
}

func (p *ProjectController) Get(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, p.logger, ErrProjectNotFound)
	}

	tasks, err := p.repo.Tasks().ListByProject(c.UserContext(), project.ID)
	if err != nil {
		return RespondError(c, p.logger, err)
	}
	project.Tasks = tasks

	return c.JSON(project)
}

func (p *ProjectController) Update(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, p.logger, ErrProjectNotFound)
	}

	payload := new(ProjectPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, p.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	project.Name = payload.Name
	project.ClientName = payload.ClientName
	project.Description = payload.Description

	project, err := p.repo.Projects().Update(c.UserContext(), project)
	if err != nil {
		return RespondError(c, p.logger, err)
	}

	return c.JSON(project)
}

func (p *ProjectController) Delete(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, p.logger, ErrProjectNotFound)
	}

	if err := p.repo.Projects().Delete(c.UserContext(), project.ID); err != nil {
		return RespondError(c, p.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Project deleted"})
}
