package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mmynk/weekledger/internal/events"
	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/settlement"
	"github.com/mmynk/weekledger/internal/storage"
)

// NewRecord is the input of CreateRecord.
type NewRecord struct {
	Week         string
	Buyer        string
	Description  string
	Amount       float64
	SplitMembers []models.SplitMember
}

// Validate checks the amount of a new record. Week and buyer are free-form
// and may be empty.
func (n NewRecord) Validate() error {
	if math.IsNaN(n.Amount) || math.IsInf(n.Amount, 0) || n.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidArgument)
	}
	return nil
}

// PaidStatusUpdate is the input of UpdateMemberPaidStatus. Paid is a pointer
// so that a missing value can be told apart from false.
type PaidStatusUpdate struct {
	Name string
	Paid *bool
}

// Validate checks that both fields were supplied.
func (u PaidStatusUpdate) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if u.Paid == nil {
		return fmt.Errorf("%w: paid is required", ErrInvalidArgument)
	}
	return nil
}

// CreateRecord stores a new unarchived record.
func (l *Ledger) CreateRecord(ctx context.Context, in NewRecord) (*models.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	rec := &models.Record{
		Week:         in.Week,
		Buyer:        in.Buyer,
		Description:  in.Description,
		Amount:       in.Amount,
		SplitMembers: in.SplitMembers,
	}
	if err := l.store.InsertRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	l.metrics.RecordsCreated.Inc()
	slog.InfoContext(ctx, "Record created",
		"record_id", rec.ID,
		"week", rec.Week,
		"buyer", rec.Buyer,
		"members_count", len(rec.SplitMembers),
	)

	e := events.New(events.RecordCreated)
	e.RecordID, e.Week = rec.ID, rec.Week
	l.publish(ctx, e)

	return rec, nil
}

// ListAllRecords returns every record, archived or not, newest week first.
func (l *Ledger) ListAllRecords(ctx context.Context) ([]*models.Record, error) {
	records, err := l.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListUnsettledRecordsForWeek returns the unarchived records of week.
func (l *Ledger) ListUnsettledRecordsForWeek(ctx context.Context, week string) ([]*models.Record, error) {
	records, err := l.store.ListUnarchivedByWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("list records for week %s: %w", week, err)
	}
	return records, nil
}

// ListUnarchivedWeeks returns the weeks that still have unarchived records,
// newest first.
func (l *Ledger) ListUnarchivedWeeks(ctx context.Context) ([]string, error) {
	weeks, err := l.store.ListUnarchivedWeeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unarchived weeks: %w", err)
	}
	return weeks, nil
}

// DeleteRecord removes a record regardless of its archive state.
func (l *Ledger) DeleteRecord(ctx context.Context, id int64) error {
	if err := l.store.DeleteRecord(ctx, id); err != nil {
		return notFound(err, id)
	}

	l.metrics.RecordsDeleted.Inc()
	slog.InfoContext(ctx, "Record deleted", "record_id", id)

	e := events.New(events.RecordDeleted)
	e.RecordID = id
	l.publish(ctx, e)
	return nil
}

// UpdateMemberPaidStatus sets the paid flag of every split member named
// upd.Name on record id. Archived records are rejected. A name that matches
// no member leaves the record unchanged and is not an error.
func (l *Ledger) UpdateMemberPaidStatus(ctx context.Context, id int64, upd PaidStatusUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	var matched int
	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Records) error {
		rec, err := tx.GetRecord(ctx, id)
		if err != nil {
			return notFound(err, id)
		}
		if rec.IsArchived {
			return fmt.Errorf("%w: cannot change paid status: record %d is already archived", ErrPreconditionFailed, id)
		}

		var members []models.SplitMember
		members, matched = settlement.SetMemberPaid(rec.SplitMembers, upd.Name, *upd.Paid)
		if err := tx.UpdateSplitMembers(ctx, id, members); err != nil {
			return notFound(err, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.metrics.PaymentUpdates.Inc()
	slog.InfoContext(ctx, "Paid status updated",
		"record_id", id,
		"member", upd.Name,
		"paid", *upd.Paid,
		"matched", matched,
	)

	e := events.New(events.MemberPaidUpdated)
	e.RecordID, e.Member, e.Paid = id, upd.Name, upd.Paid
	l.publish(ctx, e)
	return nil
}
