package uptask

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// AuthController exposes the account lifecycle over JSON: registration,
// confirmation, login, password recovery, and profile management.
type AuthController struct {
	repo             RepositoryManager
	tokens           TokenService
	mailer           Mailer
	logger           Logger
	debug            bool
	deterministicIDs bool
}

func NewAuthController(repo RepositoryManager, tokens TokenService, mailer Mailer) *AuthController {
	if repo == nil {
		panic("missing RepositoryManager in auth controller")
	}
	if tokens == nil {
		panic("missing TokenService in auth controller")
	}
	if mailer == nil {
		panic("missing Mailer in auth controller")
	}

	return &AuthController{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (a *AuthController) WithLogger(logger Logger) *AuthController {
	a.logger = logger
	return a
}

// WithDebug enables payload dumps on the registration path. Never enable
// in production.
func (a *AuthController) WithDebug(debug bool) *AuthController {
	a.debug = debug
	return a
}

// WithDeterministicIDs derives new account ids from the registration email
// instead of minting random ones, so re-seeded environments keep stable ids.
func (a *AuthController) WithDeterministicIDs(enabled bool) *AuthController {
	a.deterministicIDs = enabled
	return a
}

// CreateAccountPayload is the registration body.
type CreateAccountPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r CreateAccountPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) CreateAccount(c *fiber.Ctx) error {
	payload := new(CreateAccountPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: a.deterministicIDs,
	}

	if a.debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(msg))
		fmt.Println("============================")
	}

	if err := NewRegisterUserHandler(a.repo, a.mailer).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created, check your email to confirm it",
	})
}

// TokenPayload carries a six digit verification code.
type TokenPayload struct {
	Token string `json:"token"`
}

func (r TokenPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

func (a *AuthController) ConfirmAccount(c *fiber.Ctx) error {
	payload := new(TokenPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := ConfirmAccountMessage{Token: payload.Token}

	if err := NewConfirmAccountHandler(a.repo).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Account confirmed"})
}

// LoginPayload is the credential body.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	var signed string
	msg := LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(token string) {
			signed = token
		},
	}

	if err := NewLoginHandler(a.repo, a.tokens, a.mailer).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"token": signed})
}

// EmailPayload carries an account email for code re-issue flows.
type EmailPayload struct {
	Email string `json:"email"`
}

func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) RequestConfirmationCode(c *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := RequestConfirmationCodeMessage{Email: payload.Email}

	if err := NewRequestConfirmationCodeHandler(a.repo, a.mailer).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "A new code was sent to your email"})
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(EmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := InitializePasswordResetMessage{Email: payload.Email}

	if err := NewInitializePasswordResetHandler(a.repo, a.mailer).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Check your email for instructions"})
}

func (a *AuthController) ValidateToken(c *fiber.Ctx) error {
	payload := new(TokenPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := ValidateTokenMessage{Token: payload.Token}

	if err := NewValidateTokenHandler(a.repo).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Valid code, set your new password"})
}

// NewPasswordPayload is the body for the token-gated password reset.
type NewPasswordPayload struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r NewPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPasswordWithToken(c *fiber.Ctx) error {
	payload := new(NewPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := FinalizePasswordResetMessage{
		Token:    c.Params("token"),
		Password: payload.Password,
	}

	if err := NewFinalizePasswordResetHandler(a.repo).WithLogger(a.logger).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// CurrentUser returns the account behind the session credential.
func (a *AuthController) CurrentUser(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, a.logger, ErrSessionMissing)
	}
	return c.JSON(user)
}

// UpdateProfilePayload is the profile mutation body.
type UpdateProfilePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, a.logger, ErrSessionMissing)
	}

	payload := new(UpdateProfilePayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := UpdateProfileMessage{
		UserID: user.ID,
		Name:   payload.Name,
		Email:  payload.Email,
	}

	if err := NewUpdateProfileHandler(a.repo).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Profile updated"})
}

// ChangePasswordPayload rotates a password for a logged in user.
type ChangePasswordPayload struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) UpdatePassword(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, a.logger, ErrSessionMissing)
	}

	payload := new(ChangePasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := UpdatePasswordMessage{
		UserID:          user.ID,
		CurrentPassword: payload.CurrentPassword,
		Password:        payload.Password,
	}

	if err := NewUpdatePasswordHandler(a.repo).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// PasswordPayload carries a bare password for re-authentication checks.
type PasswordPayload struct {
	Password string `json:"password"`
}

func (r PasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) CheckPassword(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return RespondError(c, a.logger, ErrSessionMissing)
	}

	payload := new(PasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return respondParseError(c, a.logger, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(c, err)
	}

	msg := CheckPasswordMessage{
		UserID:   user.ID,
		Password: payload.Password,
	}

	if err := NewCheckPasswordHandler(a.repo).Execute(c.UserContext(), msg); err != nil {
		return RespondError(c, a.logger, err)
	}

	return c.JSON(fiber.Map{"message": "Correct password"})
}

// ValidateStringEquals checks that both values match.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func respondParseError(c *fiber.Ctx, logger Logger, err error) error {
	logger.Error("failed to parse request body: %s", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "malformed request body",
	})
}

func respondValidationError(c *fiber.Ctx, err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
