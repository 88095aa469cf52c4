package uptask_test

import (
	"testing"
	"time"

	uptask "github.com/FacundoZu/UpTask-Backend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProjectMembership(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	stranger := uuid.New()

	project := &uptask.Project{
		ID:      uuid.New(),
		OwnerID: owner,
		Team:    []*uptask.User{{ID: member}},
	}

	assert.True(t, project.IsOwner(owner))
	assert.False(t, project.IsOwner(member))

	assert.True(t, project.IsMember(owner))
	assert.True(t, project.IsMember(member))
	assert.False(t, project.IsMember(stranger))
}

func TestTaskStatusValidation(t *testing.T) {
	for _, status := range uptask.TaskStatuses {
		assert.True(t, uptask.IsValidTaskStatus(status), status)
	}

	assert.False(t, uptask.IsValidTaskStatus("done"))
	assert.False(t, uptask.IsValidTaskStatus(""))
	assert.False(t, uptask.IsValidTaskStatus("Pending"))
}

func TestVerificationTokenExpired(t *testing.T) {
	now := time.Now()
	token := &uptask.VerificationToken{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, token.Expired(now))
	assert.False(t, token.Expired(now.Add(10*time.Minute-time.Second)))
	assert.True(t, token.Expired(now.Add(10*time.Minute)))
	assert.True(t, token.Expired(now.Add(time.Hour)))
}
