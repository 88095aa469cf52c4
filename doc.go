// Package uptask implements a project and task tracking backend: account
// registration with emailed verification codes, JWT sessions, and a
// project / task / note hierarchy with owner and team-member roles.
//
// The package is organized around three layers. Repositories (repo_*.go)
// wrap bun for persistence. Command handlers (command_*.go) hold the auth
// flows and are transport agnostic. Controllers (http_*.go) bind the
// handlers and repositories to fiber routes, with authorization enforced
// by the middleware chain in middleware.go.
package uptask
