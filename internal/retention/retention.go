// Package retention runs the purge of old archived records, once at startup
// and optionally on an interval.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes expired archived records. *ledger.Ledger satisfies it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper is best effort: failures are logged and never returned.
type Sweeper struct {
	purger Purger
}

func NewSweeper(p Purger) *Sweeper {
	return &Sweeper{purger: p}
}

// RunOnce performs a single sweep and returns the number of records deleted.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Retention sweep failed", "error", err)
		return 0
	}
	slog.InfoContext(ctx, "Retention sweep completed", "deleted", n)
	return n
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the periodic sweep and Run returns immediately.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Starting periodic retention sweep", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
