package uptask

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// Locals keys populated by the middleware chain.
const (
	localUser    = "user"
	localClaims  = "claims"
	localProject = "project"
	localTask    = "task"
)

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the SessionClaims in the given context
func WithClaimsContext(r context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the SessionClaims from the standard context
func GetClaims(ctx context.Context) (*SessionClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*SessionClaims)
	return raw, ok
}

// UserFromLocals returns the authenticated user set by RequireAuth.
func UserFromLocals(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(localUser).(*User)
	return user, ok
}

// ClaimsFromLocals returns the verified session claims set by RequireAuth.
func ClaimsFromLocals(c *fiber.Ctx) (*SessionClaims, bool) {
	claims, ok := c.Locals(localClaims).(*SessionClaims)
	return claims, ok
}

// ProjectFromLocals returns the project resolved by ResolveProject.
func ProjectFromLocals(c *fiber.Ctx) (*Project, bool) {
	project, ok := c.Locals(localProject).(*Project)
	return project, ok
}

// TaskFromLocals returns the task resolved by ResolveTask.
func TaskFromLocals(c *fiber.Ctx) (*Task, bool) {
	task, ok := c.Locals(localTask).(*Task)
	return task, ok
}
