// Package memory provides an in-memory implementation of storage.Store.
// It is intended for tests and for running the service without a database file.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps records in a map guarded by a single mutex.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// New returns an empty store. A nil clock means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{data: &dataset{records: make(map[int64]*models.Record), now: now}}
}

// InTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds. The store stays locked until fn returns.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, work); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertRecord(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.InsertRecord(ctx, rec)
}

func (s *Store) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetRecord(ctx, id)
}

func (s *Store) ListRecords(ctx context.Context) ([]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListRecords(ctx)
}

func (s *Store) ListByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListByWeek(ctx, week)
}

func (s *Store) ListUnarchivedByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListUnarchivedByWeek(ctx, week)
}

func (s *Store) ListUnarchivedWeeks(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListUnarchivedWeeks(ctx)
}

func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteRecord(ctx, id)
}

func (s *Store) UpdateSplitMembers(ctx context.Context, id int64, members []models.SplitMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateSplitMembers(ctx, id, members)
}

func (s *Store) SetArchived(ctx context.Context, week string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SetArchived(ctx, week)
}

func (s *Store) PurgeArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PurgeArchivedBefore(ctx, cutoff)
}

// dataset implements storage.Records without locking.
type dataset struct {
	records map[int64]*models.Record
	nextID  int64
	now     func() time.Time
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		records: make(map[int64]*models.Record, len(d.records)),
		nextID:  d.nextID,
		now:     d.now,
	}
	for id, r := range d.records {
		c.records[id] = r.Clone()
	}
	return c
}

func (d *dataset) InsertRecord(_ context.Context, rec *models.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = d.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)
	rec.IsArchived = false

	d.nextID++
	rec.ID = d.nextID
	d.records[rec.ID] = rec.Clone()
	return nil
}

func (d *dataset) GetRecord(_ context.Context, id int64) (*models.Record, error) {
	r, ok := d.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	return r.Clone(), nil
}

func (d *dataset) ListRecords(_ context.Context) ([]*models.Record, error) {
	out := d.filter(func(*models.Record) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Week > out[j].Week })
	return out, nil
}

func (d *dataset) ListByWeek(_ context.Context, week string) ([]*models.Record, error) {
	return d.filter(func(r *models.Record) bool { return r.Week == week }), nil
}

func (d *dataset) ListUnarchivedByWeek(_ context.Context, week string) ([]*models.Record, error) {
	return d.filter(func(r *models.Record) bool { return r.Week == week && !r.IsArchived }), nil
}

func (d *dataset) ListUnarchivedWeeks(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	weeks := []string{}
	for _, r := range d.records {
		if r.IsArchived || seen[r.Week] {
			continue
		}
		seen[r.Week] = true
		weeks = append(weeks, r.Week)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))
	return weeks, nil
}

func (d *dataset) DeleteRecord(_ context.Context, id int64) error {
	if _, ok := d.records[id]; !ok {
		return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	delete(d.records, id)
	return nil
}

func (d *dataset) UpdateSplitMembers(_ context.Context, id int64, members []models.SplitMember) error {
	r, ok := d.records[id]
	if !ok {
		return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
	}
	r.SplitMembers = (&models.Record{SplitMembers: members}).Clone().SplitMembers
	return nil
}

func (d *dataset) SetArchived(_ context.Context, week string) (int64, error) {
	var n int64
	for _, r := range d.records {
		if r.Week == week {
			r.IsArchived = true
			n++
		}
	}
	return n, nil
}

func (d *dataset) PurgeArchivedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, r := range d.records {
		if r.IsArchived && r.CreatedAt.Before(cutoff) {
			delete(d.records, id)
			n++
		}
	}
	return n, nil
}

// filter returns clones of matching records ordered by id.
func (d *dataset) filter(keep func(*models.Record) bool) []*models.Record {
	out := []*models.Record{}
	for _, r := range d.records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
