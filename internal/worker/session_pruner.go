// Package worker runs background maintenance for the reservation site.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/hotel-reservations/internal/observability/metrics"
)

// DefaultPruneInterval is used when the pruner is built with a non-positive interval.
const DefaultPruneInterval = 15 * time.Minute

// ExpiredSessionDeleter removes sessions that expired before reference.
type ExpiredSessionDeleter interface {
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SessionPruner periodically deletes expired sessions so the session table
// does not grow without bound between sign-ins.
type SessionPruner struct {
	sessions ExpiredSessionDeleter
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSessionPruner creates a pruner that runs every interval.
func NewSessionPruner(sessions ExpiredSessionDeleter, interval time.Duration, now func() time.Time, logger *slog.Logger) *SessionPruner {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPruner{
		sessions: sessions,
		interval: interval,
		now:      now,
		logger:   logger.With("component", "session_pruner"),
	}
}

// Start blocks until ctx is cancelled, pruning on every tick.
func (p *SessionPruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("session pruner started", slog.Duration("interval", p.interval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("session pruner stopped")
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes the sessions expired at the current time.
func (p *SessionPruner) PruneOnce(ctx context.Context) error {
	if err := p.sessions.DeleteExpiredSessions(ctx, p.now()); err != nil {
		metrics.ObserveSessionPrune("error")
		p.logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err)
		return err
	}
	metrics.ObserveSessionPrune("ok")
	p.logger.DebugContext(ctx, "expired sessions pruned")
	return nil
}
