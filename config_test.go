package uptask_test

import (
	"testing"
	"time"

	uptask "github.com/FacundoZu/UpTask-Backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("UPTASK_JWT_SECRET", "test-secret")

	cfg, err := uptask.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Addr())
	assert.Equal(t, "test-secret", cfg.Session.SigningKey)
	assert.Equal(t, uptask.TokenTTL, cfg.Session.TokenTTL)
	assert.Equal(t, []string{"uptask-client"}, cfg.Session.Audience)
	assert.NotEmpty(t, cfg.FrontendURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("UPTASK_JWT_SECRET", "test-secret")
	t.Setenv("UPTASK_PORT", "8081")
	t.Setenv("UPTASK_SESSION_TTL", "2h")
	t.Setenv("UPTASK_JWT_AUDIENCE", "web, mobile")
	t.Setenv("UPTASK_SMTP_PORT", "2525")
	t.Setenv("UPTASK_DEBUG", "true")
	t.Setenv("UPTASK_DETERMINISTIC_IDS", "true")

	cfg, err := uptask.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"web", "mobile"}, cfg.Session.Audience)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Storage.DeterministicIDs)
}

func TestLoadConfigRequiresSigningKey(t *testing.T) {
	t.Setenv("UPTASK_JWT_SECRET", "")

	_, err := uptask.LoadConfig()
	assert.Error(t, err)
}
