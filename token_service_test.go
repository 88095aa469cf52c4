package uptask_test

import (
	"strings"
	"testing"
	"time"

	uptask "github.com/FacundoZu/UpTask-Backend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

func newTestTokenService() *uptask.TokenServiceImpl {
	return uptask.NewTokenService(testSigningKey, time.Hour, "uptask", []string{"uptask-client"}, nil)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	ts := newTestTokenService()
	user := &uptask.User{ID: uuid.New(), Email: "pepe@example.com"}

	signed, err := ts.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ts.Validate(signed)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.Equal(t, "uptask", claims.Issuer)

	id, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestTokenServiceGenerateNilUser(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Generate(nil)
	assert.Error(t, err)
}

func TestTokenServiceValidateEmpty(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Validate("")
	assert.ErrorIs(t, err, uptask.ErrSessionMissing)
}

func TestTokenServiceValidateExpired(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	issuer := newTestTokenService().WithClock(func() time.Time { return past })

	signed, err := issuer.Generate(&uptask.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(signed)
	assert.ErrorIs(t, err, uptask.ErrSessionExpired)
}

func TestTokenServiceValidateTampered(t *testing.T) {
	ts := newTestTokenService()

	signed, err := ts.Generate(&uptask.User{ID: uuid.New()})
	require.NoError(t, err)

	// flip part of the signature
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("A", len(parts[2]))

	_, err = ts.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, uptask.ErrSessionInvalid)
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	other := uptask.NewTokenService([]byte("a-completely-different-key!!!..."), time.Hour, "uptask", []string{"uptask-client"}, nil)

	signed, err := other.Generate(&uptask.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(signed)
	assert.ErrorIs(t, err, uptask.ErrSessionInvalid)
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	other := uptask.NewTokenService(testSigningKey, time.Hour, "somebody-else", []string{"uptask-client"}, nil)

	signed, err := other.Generate(&uptask.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(signed)
	assert.Error(t, err)
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Validate("not-a-jwt")
	assert.ErrorIs(t, err, uptask.ErrSessionMalformed)
}
