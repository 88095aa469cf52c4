package uptask_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	uptask "github.com/FacundoZu/UpTask-Backend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	uptask.RegisterModels(db)

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, uptask.Migrate(context.Background(), db))

	return db
}

func newTestRepo(t *testing.T) (uptask.RepositoryManager, *bun.DB) {
	t.Helper()

	db := newTestDB(t)
	repo := uptask.NewRepositoryManager(db, uptask.TokenTTL)
	repo.MustValidate()

	return repo, db
}

// recordingMailer captures dispatched notifications. Deliveries happen on a
// goroutine, so reads go through waitFor.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []uptask.EmailRecipient
	resets []uptask.EmailRecipient
}

func (m *recordingMailer) SendConfirmationEmail(_ context.Context, to uptask.EmailRecipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to uptask.EmailRecipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, to)
	return nil
}

func (m *recordingMailer) confirmations() []uptask.EmailRecipient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uptask.EmailRecipient(nil), m.sent...)
}

func (m *recordingMailer) passwordResets() []uptask.EmailRecipient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uptask.EmailRecipient(nil), m.resets...)
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// tokenValueFor reads the latest verification token issued to a user
// straight from storage, standing in for reading the email.
func tokenValueFor(t *testing.T, db *bun.DB, userID uuid.UUID) string {
	t.Helper()

	var token uptask.VerificationToken
	err := db.NewSelect().
		Model(&token).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Scan(context.Background())
	require.NoError(t, err)

	return token.Value
}

func registerUser(t *testing.T, repo uptask.RepositoryManager, mailer uptask.Mailer, email string) *uptask.User {
	t.Helper()

	handler := uptask.NewRegisterUserHandler(repo, mailer)
	err := handler.Execute(context.Background(), uptask.RegisterUserMessage{
		Name:     "Test User",
		Email:    email,
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByEmail(context.Background(), email)
	require.NoError(t, err)

	return user
}

func confirmUser(t *testing.T, repo uptask.RepositoryManager, db *bun.DB, user *uptask.User) {
	t.Helper()

	value := tokenValueFor(t, db, user.ID)
	err := uptask.NewConfirmAccountHandler(repo).Execute(context.Background(), uptask.ConfirmAccountMessage{
		Token: value,
	})
	require.NoError(t, err)
}
