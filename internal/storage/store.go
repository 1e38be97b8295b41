// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/weekledger/internal/models"
)

// ErrNotFound is returned when a record id matches no row.
var ErrNotFound = errors.New("record not found")

// Records defines the record operations a store supports, both directly and
// inside a transaction.
type Records interface {
	// InsertRecord persists a new, unarchived record.
	// The record's ID is populated by the store, and CreatedAt when zero.
	InsertRecord(ctx context.Context, rec *models.Record) error

	// GetRecord retrieves a record by ID, archived or not.
	// Returns ErrNotFound if no record has that ID.
	GetRecord(ctx context.Context, id int64) (*models.Record, error)

	// ListRecords returns every record sorted by week, descending.
	ListRecords(ctx context.Context) ([]*models.Record, error)

	// ListByWeek returns every record of a week regardless of archive state.
	ListByWeek(ctx context.Context, week string) ([]*models.Record, error)

	// ListUnarchivedByWeek returns the unarchived records of a week.
	ListUnarchivedByWeek(ctx context.Context, week string) ([]*models.Record, error)

	// ListUnarchivedWeeks returns the distinct weeks that still have
	// unarchived records, sorted descending.
	ListUnarchivedWeeks(ctx context.Context) ([]string, error)

	// DeleteRecord removes a record by ID.
	// Returns ErrNotFound if no record has that ID.
	DeleteRecord(ctx context.Context, id int64) error

	// UpdateSplitMembers overwrites a record's split members verbatim.
	// Returns ErrNotFound if no record has that ID.
	UpdateSplitMembers(ctx context.Context, id int64, members []models.SplitMember) error

	// SetArchived flags every record of a week as archived and returns the
	// number of rows touched. Already archived rows are touched again.
	SetArchived(ctx context.Context, week string) (int64, error)

	// PurgeArchivedBefore deletes archived records created before cutoff and
	// returns how many were deleted.
	PurgeArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store defines the interface for ledger storage.
// This abstraction allows swapping storage backends (SQLite, in-memory)
// without changing the ledger layer.
type Store interface {
	Records

	// InTx runs fn against a transactional view of the store. Writers are
	// serialized: no other InTx call observes or modifies the store until fn
	// returns. The transaction commits when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Records) error) error

	// Close releases any resources held by the store.
	Close() error
}
