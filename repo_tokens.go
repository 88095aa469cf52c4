package uptask

import (
	"context"
	"crypto/rand"
	"database/sql"
	"math/big"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenTTL is how long a verification token stays usable after issuance.
const TokenTTL = 10 * time.Minute

const tokenIssueAttempts = 5

// VerificationTokens is the store for short-lived single-use tokens.
//
// Consume is the only destructive read and runs as one atomic statement,
// so two concurrent requests presenting the same value cannot both succeed.
type VerificationTokens interface {
	Issue(ctx context.Context, userID uuid.UUID) (*VerificationToken, error)
	Consume(ctx context.Context, value string) (uuid.UUID, error)
	Peek(ctx context.Context, value string) (uuid.UUID, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type verificationTokens struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
}

var _ VerificationTokens = (*verificationTokens)(nil)

// TokenStoreOption customizes the token store.
type TokenStoreOption func(*verificationTokens)

// WithTokenClock injects a custom clock, useful for tests.
func WithTokenClock(clock func() time.Time) TokenStoreOption {
	return func(r *verificationTokens) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewVerificationTokensRepository creates the token store. A non-positive
// ttl falls back to TokenTTL.
func NewVerificationTokensRepository(db *bun.DB, ttl time.Duration, opts ...TokenStoreOption) VerificationTokens {
	if ttl <= 0 {
		ttl = TokenTTL
	}

	store := &verificationTokens{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// Issue persists a fresh token for the user. The generated value is checked
// against live tokens; a collision retries generation instead of failing
// the caller, with the unique index closing the remaining race.
func (r *verificationTokens) Issue(ctx context.Context, userID uuid.UUID) (*VerificationToken, error) {
	var lastErr error

	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		value, err := generateTokenValue()
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate token value")
		}

		exists, err := r.db.NewSelect().
			Model((*VerificationToken)(nil)).
			Where("value = ?", value).
			Exists(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check token uniqueness")
		}
		if exists {
			continue
		}

		token := &VerificationToken{
			ID:        uuid.New(),
			Value:     value,
			UserID:    userID,
			ExpiresAt: r.now().Add(r.ttl),
		}

		if _, err := r.db.NewInsert().Model(token).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist verification token")
		}

		return token, nil
	}

	return nil, errors.Wrap(lastErr, errors.CategoryInternal, "could not issue a unique verification token")
}

// Consume finds and deletes the token in a single statement, returning the
// owning user id. Expired rows are treated as absent even when the reaper
// has not removed them yet. Exactly one of any set of concurrent callers
// observes success; the rest get ErrTokenNotFound.
func (r *verificationTokens) Consume(ctx context.Context, value string) (uuid.UUID, error) {
	deleted := &VerificationToken{}

	err := r.db.NewDelete().
		Model(deleted).
		Where("value = ?", value).
		Where("expires_at > ?", r.now()).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrTokenNotFound
		}
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume verification token")
	}

	return deleted.UserID, nil
}

// Peek checks a token without consuming it, so a client can gate its UI
// before collecting a new password. The destructive step happens only in a
// later Consume.
func (r *verificationTokens) Peek(ctx context.Context, value string) (uuid.UUID, error) {
	token := &VerificationToken{}

	err := r.db.NewSelect().
		Model(token).
		Where("?TableAlias.value = ?", value).
		Where("?TableAlias.expires_at > ?", r.now()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrTokenNotFound
		}
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up verification token")
	}

	return token.UserID, nil
}

// DeleteExpired reaps tokens past expiry. Correctness never depends on the
// reaping cadence; Consume and Peek already treat expired rows as absent.
func (r *verificationTokens) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("expires_at <= ?", r.now()).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to reap expired tokens")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// generateTokenValue returns a 6 ASCII digit code from a CSPRNG.
func generateTokenValue() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	digits := n.String()
	if len(digits) < 6 {
		digits = strings.Repeat("0", 6-len(digits)) + digits
	}
	return digits, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
