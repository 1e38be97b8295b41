package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Records on top of a dbtx.
type queries struct {
	db  dbtx
	now func() time.Time
}

const recordColumns = "id, week, buyer, description, amount, split_members, is_archived, created_at"

// InsertRecord persists a new record.
func (q *queries) InsertRecord(ctx context.Context, rec *models.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = q.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)
	rec.IsArchived = false

	members, err := encodeMembers(rec.SplitMembers)
	if err != nil {
		return err
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO records (week, buyer, description, amount, split_members, is_archived, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		rec.Week, rec.Buyer, rec.Description, rec.Amount, members, rec.CreatedAt.Format(models.CreatedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read record id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetRecord retrieves a record by ID.
func (q *queries) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ?", id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// ListRecords returns all records, newest week first.
func (q *queries) ListRecords(ctx context.Context) ([]*models.Record, error) {
	return q.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records ORDER BY week DESC, id ASC")
}

// ListByWeek returns all records of a week.
func (q *queries) ListByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	return q.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE week = ? ORDER BY id ASC", week)
}

// ListUnarchivedByWeek returns the unarchived records of a week.
func (q *queries) ListUnarchivedByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	return q.listRecords(ctx,
		"SELECT "+recordColumns+" FROM records WHERE week = ? AND is_archived = 0 ORDER BY id ASC", week)
}

// ListUnarchivedWeeks returns distinct weeks with unarchived records, descending.
func (q *queries) ListUnarchivedWeeks(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT DISTINCT week FROM records WHERE is_archived = 0 ORDER BY week DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list unarchived weeks: %w", err)
	}
	defer rows.Close()

	weeks := []string{}
	for rows.Next() {
		var week string
		if err := rows.Scan(&week); err != nil {
			return nil, fmt.Errorf("failed to scan week: %w", err)
		}
		weeks = append(weeks, week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weeks: %w", err)
	}
	return weeks, nil
}

// DeleteRecord removes a record by ID.
func (q *queries) DeleteRecord(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return requireRow(res, id)
}

// UpdateSplitMembers overwrites the split members of a record.
func (q *queries) UpdateSplitMembers(ctx context.Context, id int64, members []models.SplitMember) error {
	encoded, err := encodeMembers(members)
	if err != nil {
		return err
	}

	res, err := q.db.ExecContext(ctx,
		"UPDATE records SET split_members = ? WHERE id = ?", encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update split members: %w", err)
	}
	return requireRow(res, id)
}

// SetArchived flags all records of a week as archived.
func (q *queries) SetArchived(ctx context.Context, week string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE records SET is_archived = 1 WHERE week = ?", week)
	if err != nil {
		return 0, fmt.Errorf("failed to archive week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// PurgeArchivedBefore deletes archived records created before cutoff.
func (q *queries) PurgeArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM records WHERE is_archived = 1 AND created_at < ?",
		cutoff.UTC().Format(models.CreatedAtLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge archived records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (q *queries) listRecords(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		rec         models.Record
		description sql.NullString
		members     sql.NullString
		archived    sql.NullInt64
		createdAt   sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Week, &rec.Buyer, &description, &rec.Amount,
		&members, &archived, &createdAt); err != nil {
		return nil, err
	}

	rec.Description = description.String
	rec.IsArchived = archived.Int64 != 0

	if members.Valid && members.String != "" {
		if err := json.Unmarshal([]byte(members.String), &rec.SplitMembers); err != nil {
			return nil, fmt.Errorf("decode split members of record %d: %w", rec.ID, err)
		}
	}

	if createdAt.Valid {
		t, err := time.ParseInLocation(models.CreatedAtLayout, createdAt.String, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of record %d: %w", rec.ID, err)
		}
		rec.CreatedAt = t
	}

	return &rec, nil
}

func encodeMembers(members []models.SplitMember) (string, error) {
	if members == nil {
		members = []models.SplitMember{}
	}
	b, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("failed to encode split members: %w", err)
	}
	return string(b), nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	return nil
}
