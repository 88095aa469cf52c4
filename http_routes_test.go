package uptask_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uptask "github.com/FacundoZu/UpTask-Backend"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testApp struct {
	app    *fiber.App
	repo   uptask.RepositoryManager
	db     *bun.DB
	tokens uptask.TokenService
	mailer *recordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	repo, db := newTestRepo(t)
	tokens := newTestTokenService()
	mailer := &recordingMailer{}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	mw := uptask.NewMiddleware(repo, tokens)

	uptask.RegisterAuthRoutes(app, uptask.NewAuthController(repo, tokens, mailer), mw)
	uptask.RegisterProjectRoutes(app,
		uptask.NewProjectController(repo),
		uptask.NewTaskController(repo),
		uptask.NewTeamController(repo),
		uptask.NewNoteController(repo),
		mw,
	)

	return &testApp{app: app, repo: repo, db: db, tokens: tokens, mailer: mailer}
}

// newConfirmedUser registers, confirms, and returns the user with a live
// session credential.
func (ta *testApp) newConfirmedUser(t *testing.T, email string) (*uptask.User, string) {
	t.Helper()

	user := registerUser(t, ta.repo, ta.mailer, email)
	confirmUser(t, ta.repo, ta.db, user)

	signed, err := ta.tokens.Generate(user)
	require.NoError(t, err)

	return user, signed
}

func (ta *testApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()

	defer res.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func (ta *testApp) createProject(t *testing.T, token, name string) string {
	t.Helper()

	res := ta.request(t, http.MethodPost, "/api/projects/", token, map[string]string{
		"projectName": name,
		"clientName":  "ACME",
		"description": "a project",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	return decodeBody(t, res)["id"].(string)
}

func (ta *testApp) createTask(t *testing.T, token, projectID, name string) string {
	t.Helper()

	res := ta.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks/", projectID), token, map[string]string{
		"name":        name,
		"description": "a task",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	return decodeBody(t, res)["id"].(string)
}

func (ta *testApp) addMember(t *testing.T, ownerToken, projectID string, member *uptask.User) {
	t.Helper()

	res := ta.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%s/team", projectID), ownerToken, map[string]string{
		"id": member.ID.String(),
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestRoutesRequireCredential(t *testing.T) {
	ta := newTestApp(t)

	res := ta.request(t, http.MethodGet, "/api/projects/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/auth/user", "garbage-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestAuthEndpointsRoundTrip(t *testing.T) {
	ta := newTestApp(t)

	res := ta.request(t, http.MethodPost, "/api/auth/create-account", "", map[string]string{
		"name":                  "Pepe",
		"email":                 "pepe@example.com",
		"password":              "hunter22hunter22",
		"password_confirmation": "hunter22hunter22",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	user, err := ta.repo.Users().GetByEmail(context.Background(), "pepe@example.com")
	require.NoError(t, err)

	res = ta.request(t, http.MethodPost, "/api/auth/confirm-account", "", map[string]string{
		"token": tokenValueFor(t, ta.db, user.ID),
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res = ta.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "pepe@example.com",
		"password": "hunter22hunter22",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	token, ok := decodeBody(t, res)["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	res = ta.request(t, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "pepe@example.com", decodeBody(t, res)["email"])
}

func TestAuthEndpointValidation(t *testing.T) {
	ta := newTestApp(t)

	// mismatched confirmation
	res := ta.request(t, http.MethodPost, "/api/auth/create-account", "", map[string]string{
		"name":                  "Pepe",
		"email":                 "pepe@example.com",
		"password":              "hunter22hunter22",
		"password_confirmation": "something-else",
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	// non-numeric token
	res = ta.request(t, http.MethodPost, "/api/auth/confirm-account", "", map[string]string{
		"token": "abc123",
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestProjectVisibility(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	member, memberToken := ta.newConfirmedUser(t, "member@example.com")
	_, strangerToken := ta.newConfirmedUser(t, "stranger@example.com")

	projectID := ta.createProject(t, ownerToken, "Website")
	ta.addMember(t, ownerToken, projectID, member)

	// listing is scoped to ownership or membership
	res := ta.request(t, http.MethodGet, "/api/projects/", strangerToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, "[]", string(bytes.TrimSpace(body)))

	res = ta.request(t, http.MethodGet, "/api/projects/"+projectID, memberToken, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/projects/"+projectID, strangerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	// unknown and malformed ids answer not found
	res = ta.request(t, http.MethodGet, "/api/projects/6a5e6d2f-0000-4000-8000-000000000000", ownerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/projects/not-a-uuid", ownerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestProjectMutationIsOwnerOnly(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	member, memberToken := ta.newConfirmedUser(t, "member@example.com")

	projectID := ta.createProject(t, ownerToken, "Website")
	ta.addMember(t, ownerToken, projectID, member)

	update := map[string]string{
		"projectName": "Website v2",
		"clientName":  "ACME",
		"description": "updated",
	}

	res := ta.request(t, http.MethodPut, "/api/projects/"+projectID, memberToken, update)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res = ta.request(t, http.MethodPut, "/api/projects/"+projectID, ownerToken, update)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Website v2", decodeBody(t, res)["projectName"])

	res = ta.request(t, http.MethodDelete, "/api/projects/"+projectID, memberToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res = ta.request(t, http.MethodDelete, "/api/projects/"+projectID, ownerToken, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/projects/"+projectID, ownerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestTaskStatusAsymmetry(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	member, memberToken := ta.newConfirmedUser(t, "member@example.com")

	projectID := ta.createProject(t, ownerToken, "Website")
	ta.addMember(t, ownerToken, projectID, member)

	taskID := ta.createTask(t, ownerToken, projectID, "Design")
	taskPath := fmt.Sprintf("/api/projects/%s/tasks/%s", projectID, taskID)

	// members may not touch task content
	res := ta.request(t, http.MethodPut, taskPath, memberToken, map[string]string{
		"name":        "Design v2",
		"description": "updated",
	})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res = ta.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks/", projectID), memberToken, map[string]string{
		"name":        "Sneaky task",
		"description": "nope",
	})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	// but they may move the task through the workflow
	res = ta.request(t, http.MethodPost, taskPath+"/status", memberToken, map[string]string{
		"status": uptask.TaskStatusInProgress,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, uptask.TaskStatusInProgress, decodeBody(t, res)["status"])

	// an unknown status is rejected before it reaches storage
	res = ta.request(t, http.MethodPost, taskPath+"/status", memberToken, map[string]string{
		"status": "done",
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	// the history records who made the change
	res = ta.request(t, http.MethodGet, taskPath, memberToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	history, ok := decodeBody(t, res)["completedBy"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, member.ID.String(), entry["user"])
	assert.Equal(t, uptask.TaskStatusInProgress, entry["status"])
}

func TestTaskFromAnotherProjectIsAbsent(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")

	projectA := ta.createProject(t, ownerToken, "Alpha")
	projectB := ta.createProject(t, ownerToken, "Beta")
	taskA := ta.createTask(t, ownerToken, projectA, "Design")

	// same owner, wrong project: absence, not a permission error
	res := ta.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%s/tasks/%s", projectB, taskA), ownerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res = ta.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%s/tasks/%s", projectA, taskA), ownerToken, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestTeamManagement(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	member, memberToken := ta.newConfirmedUser(t, "member@example.com")
	other, _ := ta.newConfirmedUser(t, "other@example.com")

	projectID := ta.createProject(t, ownerToken, "Website")
	ta.addMember(t, ownerToken, projectID, member)

	// members can look up collaborators but not change the roster
	res := ta.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%s/team/find", projectID), memberToken, map[string]string{
		"email": "other@example.com",
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, other.ID.String(), decodeBody(t, res)["id"])

	res = ta.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%s/team", projectID), memberToken, map[string]string{
		"id": other.ID.String(),
	})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%s/team/%s", projectID, member.ID), memberToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	// removal revokes access
	res = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%s/team/%s", projectID, member.ID), ownerToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res = ta.request(t, http.MethodGet, "/api/projects/"+projectID, memberToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	// removing someone who is not on the roster reports absence
	res = ta.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%s/team/%s", projectID, member.ID), ownerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestNotesAuthorPolicy(t *testing.T) {
	ta := newTestApp(t)

	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	member, memberToken := ta.newConfirmedUser(t, "member@example.com")

	projectID := ta.createProject(t, ownerToken, "Website")
	ta.addMember(t, ownerToken, projectID, member)

	taskID := ta.createTask(t, ownerToken, projectID, "Design")
	notesPath := fmt.Sprintf("/api/projects/%s/tasks/%s/notes", projectID, taskID)

	res := ta.request(t, http.MethodPost, notesPath+"/", memberToken, map[string]string{
		"content": "looks good to me",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	noteID := decodeBody(t, res)["id"].(string)

	// even the project owner cannot delete someone else's note
	res = ta.request(t, http.MethodDelete, notesPath+"/"+noteID, ownerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	res = ta.request(t, http.MethodDelete, notesPath+"/"+noteID, memberToken, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res = ta.request(t, http.MethodGet, notesPath+"/", memberToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, "[]", string(bytes.TrimSpace(body)))
}

func TestSessionForRemovedUserIsRejected(t *testing.T) {
	ta := newTestApp(t)
	user, token := ta.newConfirmedUser(t, "ghost@example.com")

	res := ta.request(t, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	// remove the account out from under the live credential
	_, err := ta.db.NewDelete().
		Model((*uptask.User)(nil)).
		Where("id = ?", user.ID).
		Exec(context.Background())
	require.NoError(t, err)

	res = ta.request(t, http.MethodGet, "/api/auth/user", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestOversizedPasswordIsBadRequest(t *testing.T) {
	ta := newTestApp(t)
	_, token := ta.newConfirmedUser(t, "longpass@example.com")

	long := strings.Repeat("a", 80)
	res := ta.request(t, http.MethodPost, "/api/auth/update-password", token, map[string]string{
		"current_password":      "hunter22hunter22",
		"password":              long,
		"password_confirmation": long,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	// 40 two-byte runes clear the rune-counted length rule but exceed the
	// 72 byte hash input limit; still a client error, never a 500
	wide := strings.Repeat("ñ", 40)
	res = ta.request(t, http.MethodPost, "/api/auth/update-password", token, map[string]string{
		"current_password":      "hunter22hunter22",
		"password":              wide,
		"password_confirmation": wide,
	})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestUnknownTaskAbsentForNonMembers(t *testing.T) {
	ta := newTestApp(t)
	_, ownerToken := ta.newConfirmedUser(t, "owner@example.com")
	_, strangerToken := ta.newConfirmedUser(t, "stranger@example.com")

	projectID := ta.createProject(t, ownerToken, "Launch")

	// a task id that resolves nowhere reads as absent even to callers the
	// membership gate would reject
	res := ta.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/tasks/%s", projectID, uuid.NewString()),
		strangerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	// an existing task stays gated
	taskID := ta.createTask(t, ownerToken, projectID, "Plan rollout")
	res = ta.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/tasks/%s", projectID, taskID),
		strangerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}

func TestRequireAuthMirrorsIdentityIntoContext(t *testing.T) {
	repo, db := newTestRepo(t)
	tokens := newTestTokenService()
	mailer := &recordingMailer{}

	user := registerUser(t, repo, mailer, "mirror@example.com")
	confirmUser(t, repo, db, user)

	signed, err := tokens.Generate(user)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	mw := uptask.NewMiddleware(repo, tokens)

	app.Get("/whoami", mw.RequireAuth(), func(c *fiber.Ctx) error {
		ctxUser, ok := uptask.FromContext(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		claims, ok := uptask.GetClaims(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"id":      ctxUser.ID.String(),
			"subject": claims.UserID(),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, user.ID.String(), body["id"])
	assert.Equal(t, user.ID.String(), body["subject"])
}
