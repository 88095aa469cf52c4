package uptask

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// NoteController manages task comments. Any team member may write and
// read notes; deletion is restricted to the note's author.
type NoteController struct {
	repo   RepositoryManager
	logger Logger
}

func NewNoteController(repo RepositoryManager) *NoteController {
	if repo == nil {
		panic("missing RepositoryManager in note controller")
	}
	return &NoteController{
		repo:   repo,
		logger: defLogger{},
	}
}

func (n *NoteController) WithLogger(logger Logger) *NoteController {
	n.logger = logger
	return n
}

// NotePayload is the note creation body.
type NotePayload struct {
	Content string `json:"content"`
}

func (r NotePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

func (n *NoteController) Create(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, n.logger, ErrSessionMissing)
	}

	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, n.logger, ErrTaskNotFound)
	}

	payload := new(NotePayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, n.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	note := &Note{
		TaskID:   task.ID,
		AuthorID: user.ID,
		Content:  payload.Content,
	}

	note, err := n.repo.Notes().Create(c.UserContext(), note)
	if err != nil {
		return RespondError(c, n.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (n *NoteController) List(c *fiber.Ctx) error {
	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, n.logger, ErrTaskNotFound)
	}

	notes, err := n.repo.Notes().ListByTask(c.UserContext(), task.ID)
	if err != nil {
		return RespondError(c, n.logger, err)
	}

	return c.JSON(notes)
}

func (n *NoteController) Delete(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, n.logger, ErrSessionMissing)
	}

	task, ok := TaskFromLocals(c)
	if !ok {
		return RespondError(c, n.logger, ErrTaskNotFound)
	}

	noteID, err := uuid.Parse(c.Params("noteID"))
	if err != nil {
		return RespondError(c, n.logger, ErrNoteNotFound)
	}

	note, err := n.repo.Notes().GetByID(c.UserContext(), noteID)
	if err != nil {
		return RespondError(c, n.logger, err)
	}

	// a note id from another task is treated as absent
	if note.TaskID != task.ID {
		return RespondError(c, n.logger, ErrNoteNotFound)
	}

	if note.AuthorID != user.ID {
		return RespondError(c, n.logger, ErrNotNoteAuthor)
	}

	if err := n.repo.Notes().Delete(c.UserContext(), note.ID); err != nil {
		return RespondError(c, n.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Note deleted"})
}
