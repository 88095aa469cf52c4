package uptask

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a registered account. Confirmed stays false until the user
// consumes a verification token issued at registration.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Confirmed     bool       `bun:"confirmed,notnull,default:false" json:"confirmed"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// VerificationToken is a short-lived single-use code proving control of
// a user's email. Rows are only ever created or deleted, never updated.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vtk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Value         string     `bun:"value,notnull,unique" json:"token,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Project is the top-level unit. The owner has full mutation rights;
// team members get read access plus task status updates.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"projectName,omitempty"`
	ClientName    string     `bun:"client_name,notnull" json:"clientName,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"manager,omitempty"`
	Team          []*User    `bun:"m2m:project_members,join:Project=User" json:"team,omitempty"`
	Tasks         []*Task    `bun:"rel:has-many,join:id=project_id" json:"tasks,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsOwner reports whether the user is the project owner.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// IsMember reports whether the user is the owner or on the team. Team
// must have been loaded for the membership half of the check to apply.
func (p *Project) IsMember(userID uuid.UUID) bool {
	if p.IsOwner(userID) {
		return true
	}
	for _, member := range p.Team {
		if member != nil && member.ID == userID {
			return true
		}
	}
	return false
}

// ProjectMember is the join row backing Project.Team.
type ProjectMember struct {
	bun.BaseModel `bun:"table:project_members,alias:pmb"`
	ProjectID     uuid.UUID `bun:"project_id,pk,type:uuid" json:"project_id"`
	Project       *Project  `bun:"rel:belongs-to,join:project_id=id" json:"-"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

// TaskStatus enumerates the task workflow states.
type TaskStatus = string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusOnHold      TaskStatus = "onHold"
	TaskStatusInProgress  TaskStatus = "inProgress"
	TaskStatusUnderReview TaskStatus = "underReview"
	TaskStatusCompleted   TaskStatus = "completed"
)

// TaskStatuses lists every valid workflow state.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusOnHold,
	TaskStatusInProgress,
	TaskStatusUnderReview,
	TaskStatusCompleted,
}

// IsValidTaskStatus reports whether s is one of the known workflow states.
func IsValidTaskStatus(s string) bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task belongs to exactly one project for its whole lifetime. Status
// changes append to StatusHistory; entries are never rewritten.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID           `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProjectID     uuid.UUID           `bun:"project_id,notnull,type:uuid" json:"project,omitempty"`
	Name          string              `bun:"name,notnull" json:"name,omitempty"`
	Description   string              `bun:"description,notnull" json:"description,omitempty"`
	Status        TaskStatus          `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	StatusHistory []*TaskStatusChange `bun:"rel:has-many,join:id=task_id" json:"completedBy,omitempty"`
	Notes         []*Note             `bun:"rel:has-many,join:id=task_id" json:"notes,omitempty"`
	CreatedAt     *time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time          `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// TaskStatusChange records who moved a task into a status, and when.
type TaskStatusChange struct {
	bun.BaseModel `bun:"table:task_status_changes,alias:tsc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TaskID        uuid.UUID  `bun:"task_id,notnull,type:uuid" json:"-"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user,omitempty"`
	Status        TaskStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Note is a comment attached to a task. Only its author may delete it.
type Note struct {
	bun.BaseModel `bun:"table:notes,alias:nte"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TaskID        uuid.UUID  `bun:"task_id,notnull,type:uuid" json:"task,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"createdBy,omitempty"`
	Content       string     `bun:"content,notnull" json:"content,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
