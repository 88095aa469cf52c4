package uptask_test

import (
	"context"
	"testing"

	uptask "github.com/FacundoZu/UpTask-Backend"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersLookupMissReportsNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Users().GetByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, uptask.ErrUserNotFound)
	assert.True(t, goerrors.IsNotFound(err))

	_, err = repo.Users().GetByID(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, uptask.ErrUserNotFound)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestUsersLookupNormalizesEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	mailer := &recordingMailer{}

	user := registerUser(t, repo, mailer, "pepe@example.com")

	found, err := repo.Users().GetByEmail(context.Background(), "  PEPE@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}
