package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage"
	"github.com/mmynk/weekledger/internal/storage/storagetest"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now func() time.Time) storage.Store {
		return newTestStore(t, WithClock(now))
	})
}

func TestNewCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	// Reopening runs migrations again without error.
	again, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	again.Close()
}

func TestAdoptsLegacyRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Rows written by the previous service rely on column defaults.
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO records (week, buyer, description, amount, split_members)
		 VALUES ('2025-W40', 'Alice', NULL, 12, '[{"name":"Bob","paid":false,"emoji":"🍕"}]')`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	records, err := store.ListUnarchivedByWeek(ctx, "2025-W40")
	if err != nil {
		t.Fatalf("ListUnarchivedByWeek failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.IsArchived || rec.Description != "" || rec.CreatedAt.IsZero() {
		t.Errorf("unexpected legacy record: %+v", rec)
	}
	if len(rec.SplitMembers) != 1 || rec.SplitMembers[0].Extra["emoji"] == nil {
		t.Errorf("unexpected legacy members: %+v", rec.SplitMembers)
	}
}

func TestEmptyMembersStoredAsArray(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &models.Record{Week: "2025-W40", Buyer: "Alice", Amount: 5}
	if err := store.InsertRecord(ctx, rec); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	var raw sql.NullString
	if err := store.db.QueryRowContext(ctx,
		"SELECT split_members FROM records WHERE id = ?", rec.ID).Scan(&raw); err != nil {
		t.Fatalf("query: %v", err)
	}
	if raw.String != "[]" {
		t.Errorf("split_members = %q, want []", raw.String)
	}
}
