// Package storagetest contains a behavioural test suite shared by every
// storage.Store implementation.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage"
)

// Factory opens an empty store whose clock is now.
type Factory func(t *testing.T, now func() time.Time) storage.Store

// Run exercises the storage.Store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()
	base := time.Date(2025, 10, 31, 16, 0, 0, 0, time.UTC)
	fixed := func() time.Time { return base }

	insert := func(t *testing.T, s storage.Store, week string, members ...models.SplitMember) *models.Record {
		t.Helper()
		rec := &models.Record{Week: week, Buyer: "Alice", Amount: 30, SplitMembers: members}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("InsertRecord failed: %v", err)
		}
		return rec
	}

	t.Run("InsertRecord assigns ID and CreatedAt", func(t *testing.T) {
		s := newStore(t, fixed)

		first := &models.Record{Week: "2025-W40", Buyer: "Alice", Description: "Groceries", Amount: 30, IsArchived: true}
		if err := s.InsertRecord(ctx, first); err != nil {
			t.Fatalf("InsertRecord failed: %v", err)
		}
		second := insert(t, s, "2025-W40")

		if first.ID == 0 || second.ID <= first.ID {
			t.Errorf("expected increasing IDs, got %d then %d", first.ID, second.ID)
		}
		if !first.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, base)
		}

		got, err := s.GetRecord(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got.IsArchived {
			t.Error("new record must not be archived")
		}
		if got.Description != "Groceries" || got.Amount != 30 || got.Buyer != "Alice" {
			t.Errorf("unexpected record: %+v", got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Errorf("stored CreatedAt = %v, want %v", got.CreatedAt, base)
		}
	})

	t.Run("GetRecord returns ErrNotFound", func(t *testing.T) {
		s := newStore(t, fixed)
		if _, err := s.GetRecord(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRecords sorts by week descending", func(t *testing.T) {
		s := newStore(t, fixed)
		insert(t, s, "2025-W38")
		insert(t, s, "2025-W40")
		insert(t, s, "2025-W39")

		records, err := s.ListRecords(ctx)
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		var weeks []string
		for _, r := range records {
			weeks = append(weeks, r.Week)
		}
		want := []string{"2025-W40", "2025-W39", "2025-W38"}
		if !reflect.DeepEqual(weeks, want) {
			t.Errorf("weeks = %v, want %v", weeks, want)
		}
	})

	t.Run("week queries and archive flag", func(t *testing.T) {
		s := newStore(t, fixed)
		insert(t, s, "2025-W39")
		insert(t, s, "2025-W40")
		insert(t, s, "2025-W40")
		insert(t, s, "2025-W41")

		n, err := s.SetArchived(ctx, "2025-W40")
		if err != nil {
			t.Fatalf("SetArchived failed: %v", err)
		}
		if n != 2 {
			t.Errorf("SetArchived touched %d rows, want 2", n)
		}
		// Idempotent: archived rows are touched again without error.
		if n, err := s.SetArchived(ctx, "2025-W40"); err != nil || n != 2 {
			t.Errorf("second SetArchived = (%d, %v), want (2, nil)", n, err)
		}

		all, err := s.ListByWeek(ctx, "2025-W40")
		if err != nil {
			t.Fatalf("ListByWeek failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("ListByWeek returned %d records, want 2", len(all))
		}
		for _, r := range all {
			if !r.IsArchived {
				t.Errorf("record %d not archived", r.ID)
			}
		}

		open, err := s.ListUnarchivedByWeek(ctx, "2025-W40")
		if err != nil {
			t.Fatalf("ListUnarchivedByWeek failed: %v", err)
		}
		if len(open) != 0 {
			t.Errorf("ListUnarchivedByWeek returned %d records, want 0", len(open))
		}

		weeks, err := s.ListUnarchivedWeeks(ctx)
		if err != nil {
			t.Fatalf("ListUnarchivedWeeks failed: %v", err)
		}
		want := []string{"2025-W41", "2025-W39"}
		if !reflect.DeepEqual(weeks, want) {
			t.Errorf("ListUnarchivedWeeks = %v, want %v", weeks, want)
		}
	})

	t.Run("ListUnarchivedWeeks is empty, not nil", func(t *testing.T) {
		s := newStore(t, fixed)
		weeks, err := s.ListUnarchivedWeeks(ctx)
		if err != nil {
			t.Fatalf("ListUnarchivedWeeks failed: %v", err)
		}
		if weeks == nil || len(weeks) != 0 {
			t.Errorf("ListUnarchivedWeeks = %#v, want empty slice", weeks)
		}
	})

	t.Run("DeleteRecord", func(t *testing.T) {
		s := newStore(t, fixed)
		rec := insert(t, s, "2025-W40")

		if err := s.DeleteRecord(ctx, rec.ID); err != nil {
			t.Fatalf("DeleteRecord failed: %v", err)
		}
		if _, err := s.GetRecord(ctx, rec.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected deleted record to be gone, got %v", err)
		}
		if err := s.DeleteRecord(ctx, rec.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("UpdateSplitMembers keeps extra fields", func(t *testing.T) {
		s := newStore(t, fixed)
		rec := insert(t, s, "2025-W40", models.SplitMember{Name: "Bob"})

		updated := []models.SplitMember{{
			Name:  "Bob",
			Paid:  true,
			Extra: map[string]json.RawMessage{"note": json.RawMessage(`"cash"`)},
		}}
		if err := s.UpdateSplitMembers(ctx, rec.ID, updated); err != nil {
			t.Fatalf("UpdateSplitMembers failed: %v", err)
		}

		got, err := s.GetRecord(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if len(got.SplitMembers) != 1 || !got.SplitMembers[0].Paid {
			t.Fatalf("unexpected members: %+v", got.SplitMembers)
		}
		if string(got.SplitMembers[0].Extra["note"]) != `"cash"` {
			t.Errorf("extra field = %s, want \"cash\"", got.SplitMembers[0].Extra["note"])
		}

		if err := s.UpdateSplitMembers(ctx, 999, updated); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PurgeArchivedBefore honours age and archive flag", func(t *testing.T) {
		now := base
		s := newStore(t, func() time.Time { return now })

		now = base.Add(-31 * 24 * time.Hour)
		old := insert(t, s, "2025-W30")
		oldOpen := insert(t, s, "2025-W31")

		now = base.Add(-29 * 24 * time.Hour)
		recent := insert(t, s, "2025-W32")

		now = base
		for _, w := range []string{"2025-W30", "2025-W32"} {
			if _, err := s.SetArchived(ctx, w); err != nil {
				t.Fatalf("SetArchived failed: %v", err)
			}
		}

		n, err := s.PurgeArchivedBefore(ctx, base.Add(-30*24*time.Hour))
		if err != nil {
			t.Fatalf("PurgeArchivedBefore failed: %v", err)
		}
		if n != 1 {
			t.Errorf("purged %d records, want 1", n)
		}
		if _, err := s.GetRecord(ctx, old.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("31-day-old archived record should be purged, got %v", err)
		}
		for _, keep := range []*models.Record{oldOpen, recent} {
			if _, err := s.GetRecord(ctx, keep.ID); err != nil {
				t.Errorf("record %d should be retained: %v", keep.ID, err)
			}
		}
	})

	t.Run("InTx commits on success and rolls back on error", func(t *testing.T) {
		s := newStore(t, fixed)
		rec := insert(t, s, "2025-W40", models.SplitMember{Name: "Bob"})

		boom := errors.New("boom")
		err := s.InTx(ctx, func(ctx context.Context, tx storage.Records) error {
			if err := tx.UpdateSplitMembers(ctx, rec.ID, []models.SplitMember{{Name: "Bob", Paid: true}}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("InTx error = %v, want %v", err, boom)
		}
		got, _ := s.GetRecord(ctx, rec.ID)
		if got.SplitMembers[0].Paid {
			t.Error("failed transaction must not persist changes")
		}

		err = s.InTx(ctx, func(ctx context.Context, tx storage.Records) error {
			_, err := tx.SetArchived(ctx, "2025-W40")
			return err
		})
		if err != nil {
			t.Fatalf("InTx failed: %v", err)
		}
		got, _ = s.GetRecord(ctx, rec.ID)
		if !got.IsArchived {
			t.Error("committed transaction should archive the record")
		}
	})
}
