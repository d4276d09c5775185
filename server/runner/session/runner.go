package session

import (
	"context"
	"log/slog"
	"time"
)

// Store is the part of the store the runner needs.
type Store interface {
	DeleteExpiredSessions(ctx context.Context, now int64) (int64, error)
}

// Runner periodically deletes expired sessions.
type Runner struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// NewRunner creates a session cleanup runner that wakes up every hour.
func NewRunner(store Store) *Runner {
	return &Runner{
		store:    store,
		interval: time.Hour,
		now:      time.Now,
	}
}

// Run starts the background task and blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("session runner stopped")
			return
		}
	}
}

// RunOnce deletes the sessions that are expired now.
func (r *Runner) RunOnce(ctx context.Context) {
	deleted, err := r.store.DeleteExpiredSessions(ctx, r.now().Unix())
	if err != nil {
		slog.Error("failed to delete expired sessions", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		slog.Info("expired sessions deleted", slog.Int64("count", deleted))
	}
}
