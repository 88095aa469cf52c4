package uptask

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// TaskController exposes task CRUD nested under a project. Content
// mutations require ownership; reads and status updates only membership.
type TaskController struct {
	repo   RepositoryManager
	logger Logger
}

func NewTaskController(repo RepositoryManager) *TaskController {
	if repo == nil {
		panic("missing RepositoryManager in task controller")
	}
	return &TaskController{
		repo:   repo,
		logger: defLogger{},
	}
}

func (t *TaskController) WithLogger(logger Logger) *TaskController {
	t.logger = logger
	return t
}

// TaskPayload is the create and update body.
type TaskPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r TaskPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
	)
}

func (t *TaskController) Create(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrProjectNotFound)
	}

	payload := new(TaskPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, t.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	task := &Task{
		ProjectID:   project.ID,
		Name:        payload.Name,
		Description: payload.Description,
	}

	task, err := t.repo.Tasks().Create(c.UserContext(), task)
	if err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (t *TaskController) List(c *fiber.Ctx) error {
	project, ok := ProjectFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrProjectNotFound)
	}

	tasks, err := t.repo.Tasks().ListByProject(c.UserContext(), project.ID)
	if err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(tasks)
}

func (t *TaskController) Get(c *fiber.Ctx) error {
	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrTaskNotFound)
	}

	return c.JSON(task)
}

func (t *TaskController) Update(c *fiber.Ctx) error {
	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrTaskNotFound)
	}

	payload := new(TaskPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, t.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	task.Name = payload.Name
	task.Description = payload.Description

	task, err := t.repo.Tasks().Update(c.UserContext(), task)
	if err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(task)
}

func (t *TaskController) Delete(c *fiber.Ctx) error {
	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrTaskNotFound)
	}

	if err := t.repo.Tasks().Delete(c.UserContext(), task.ID); err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// TaskStatusPayload is the status transition body.
type TaskStatusPayload struct {
	Status string `json:"status"`
}

func (r TaskStatusPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(
			TaskStatusPending,
			TaskStatusOnHold,
			TaskStatusInProgress,
			TaskStatusUnderReview,
			TaskStatusCompleted,
		)),
	)
}

// UpdateStatus moves a task through the workflow and records who did it.
// Any team member may do this, not just the project owner.
func (t *TaskController) UpdateStatus(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrSessionMissing)
	}

	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, t.logger, ErrTaskNotFound)
	}

	payload := new(TaskStatusPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, t.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	task, err := t.repo.Tasks().UpdateStatus(c.UserContext(), task.ID, payload.Status, user.ID)
	if err != nil {
		return RespondError(c, t.logger, err)
	}

	return c.JSON(task)
}
