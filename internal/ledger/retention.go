package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/weekledger/internal/events"
)

// PurgeExpired deletes archived records created more than the retention
// window before now and returns how many were deleted.
func (l *Ledger) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := l.now().Add(-l.retention)

	n, err := l.store.PurgeArchivedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge archived records: %w", err)
	}

	l.metrics.RecordsPurged.Add(float64(n))
	slog.InfoContext(ctx, "Purged expired archived records", "count", n, "cutoff", cutoff)

	if n > 0 {
		e := events.New(events.RecordsPurged)
		e.Count = n
		l.publish(ctx, e)
	}
	return n, nil
}
