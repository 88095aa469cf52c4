package uptask

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

const reapTimeout = 30 * time.Second

// TokenReaper periodically purges expired verification tokens. Expiry is
// already enforced at consume time; the reaper just keeps the table from
// accumulating dead rows.
type TokenReaper struct {
	repo     RepositoryManager
	schedule string
	logger   Logger
	cron     *cron.Cron
}

func NewTokenReaper(repo RepositoryManager, schedule string) *TokenReaper {
	return &TokenReaper{
		repo:     repo,
		schedule: schedule,
		logger:   defLogger{},
		cron:     cron.New(),
	}
}

func (r *TokenReaper) WithLogger(logger Logger) *TokenReaper {
	r.logger = logger
	return r
}

// Start registers the schedule and launches the cron loop.
func (r *TokenReaper) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.reap); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight reap to finish.
func (r *TokenReaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *TokenReaper) reap() {
	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()

	purged, err := r.repo.Tokens().DeleteExpired(ctx)
	if err != nil {
		r.logger.Error("token reap failed: %s", err)
		return
	}

	if purged > 0 {
		r.logger.Info("purged %d expired verification tokens", purged)
	}
}
