package uptask

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterAuthRoutes mounts the account lifecycle under /api/auth.
func RegisterAuthRoutes(app fiber.Router, auth *AuthController, mw *Middleware) {
	g := app.Group("/api/auth")

	g.Post("/create-account", auth.CreateAccount)
	g.Post("/confirm-account", auth.ConfirmAccount)
	g.Post("/login", auth.Login)
	g.Post("/request-code", auth.RequestConfirmationCode)
	g.Post("/forgot-password", auth.ForgotPassword)
	g.Post("/validate-token", auth.ValidateToken)
	g.Post("/update-password/:token", auth.ResetPasswordWithToken)

	g.Get("/user", mw.RequireAuth(), auth.CurrentUser)

	// profile management, all behind a live session
	g.Put("/profile", mw.RequireAuth(), auth.UpdateProfile)
	g.Post("/update-password", mw.RequireAuth(), auth.UpdatePassword)
	g.Post("/check-password", mw.RequireAuth(), auth.CheckPassword)
}

// RegisterProjectRoutes mounts projects, tasks, team, and notes under
// /api/projects. Middleware order matters: auth, then resource resolution,
// then the membership or ownership gate of the specific route.
func RegisterProjectRoutes(app fiber.Router, projects *ProjectController, tasks *TaskController, team *TeamController, notes *NoteController, mw *Middleware) {
	g := app.Group("/api/projects", mw.RequireAuth())

	g.Post("/", projects.Create)
	g.Get("/", projects.List)

	p := g.Group("/:projectID", mw.ResolveProject())

	p.Get("/", mw.RequireMembership(), projects.Get)
	p.Put("/", mw.RequireOwnership(), projects.Update)
	p.Delete("/", mw.RequireOwnership(), projects.Delete)

	// tasks: content mutations are owner only, reads and status updates
	// admit any member
	t := p.Group("/tasks")

	t.Post("/", mw.RequireOwnership(), tasks.Create)
	t.Get("/", mw.RequireMembership(), tasks.List)

	// resolve the task before gating so a nonexistent id reads as absent
	// even to callers the membership check would reject
	tt := t.Group("/:taskID", mw.ResolveTask(), mw.RequireMembership())

	tt.Get("/", tasks.Get)
	tt.Put("/", mw.RequireOwnership(), tasks.Update)
	tt.Delete("/", mw.RequireOwnership(), tasks.Delete)
	tt.Post("/status", tasks.UpdateStatus)

	// team management is owner only except member lookup by email, which
	// only needs a session
	p.Post("/team/find", mw.RequireMembership(), team.FindMember)
	p.Get("/team", mw.RequireMembership(), team.List)
	p.Post("/team", mw.RequireOwnership(), team.AddMember)
	p.Delete("/team/:userID", mw.RequireOwnership(), team.RemoveMember)

	// notes hang off a resolved task
	n := tt.Group("/notes")

	n.Post("/", notes.Create)
	n.Get("/", notes.List)
	n.Delete("/:noteID", notes.Delete)
}
