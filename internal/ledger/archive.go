package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/weekledger/internal/events"
	"github.com/mmynk/weekledger/internal/metrics"
	"github.com/mmynk/weekledger/internal/settlement"
	"github.com/mmynk/weekledger/internal/storage"
)

// ArchiveWeek archives every record of week once all of their split members
// have paid. Records of the week are loaded regardless of archive state, so
// re-archiving a settled week succeeds again.
//
// Returns ErrNotFound when the week has no records and ErrPreconditionFailed
// when any member is unpaid; in both cases nothing is modified.
func (l *Ledger) ArchiveWeek(ctx context.Context, week string) error {
	var archived int64
	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Records) error {
		records, err := tx.ListByWeek(ctx, week)
		if err != nil {
			return fmt.Errorf("load week %s: %w", week, err)
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: no records found for week %s", ErrNotFound, week)
		}

		if !settlement.IsWeekFullySettled(records) {
			return fmt.Errorf("%w: cannot archive: not all split members have paid for all records this week (unpaid: %s)",
				ErrPreconditionFailed, strings.Join(settlement.UnpaidMembers(records), ", "))
		}

		archived, err = tx.SetArchived(ctx, week)
		if err != nil {
			return fmt.Errorf("archive week %s: %w", week, err)
		}
		return nil
	})
	if err != nil {
		l.metrics.ArchiveAttempts.WithLabelValues(archiveOutcome(err)).Inc()
		slog.WarnContext(ctx, "Archive rejected", "week", week, "error", err)
		return err
	}

	l.metrics.ArchiveAttempts.WithLabelValues(metrics.OutcomeArchived).Inc()
	slog.InfoContext(ctx, "Week archived", "week", week, "records", archived)

	e := events.New(events.WeekArchived)
	e.Week, e.Count = week, archived
	l.publish(ctx, e)
	return nil
}

func archiveOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return metrics.OutcomeUnsettled
	default:
		return metrics.OutcomeError
	}
}
