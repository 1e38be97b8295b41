package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmynk/weekledger/internal/models"
)

// ErrUnavailable is returned by a Lazy store whose backend cannot be opened.
var ErrUnavailable = errors.New("storage unavailable")

// Opener opens a storage backend.
type Opener func() (Store, error)

var _ Store = (*Lazy)(nil)

// Lazy is a Store whose backend is opened on demand. Until an open succeeds,
// every call retries it and fails with ErrUnavailable.
type Lazy struct {
	open Opener

	mu    sync.Mutex
	store Store
}

// NewLazy returns a store that opens its backend with open.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// Open opens the backend if it is not open yet.
func (l *Lazy) Open() error {
	_, err := l.get()
	return err
}

func (l *Lazy) get() (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	store, err := l.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	l.store = store
	return store, nil
}

func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}

func (l *Lazy) InTx(ctx context.Context, fn func(ctx context.Context, tx Records) error) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.InTx(ctx, fn)
}

func (l *Lazy) InsertRecord(ctx context.Context, rec *models.Record) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.InsertRecord(ctx, rec)
}

func (l *Lazy) GetRecord(ctx context.Context, id int64) (*models.Record, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.GetRecord(ctx, id)
}

func (l *Lazy) ListRecords(ctx context.Context) ([]*models.Record, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.ListRecords(ctx)
}

func (l *Lazy) ListByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.ListByWeek(ctx, week)
}

func (l *Lazy) ListUnarchivedByWeek(ctx context.Context, week string) ([]*models.Record, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.ListUnarchivedByWeek(ctx, week)
}

func (l *Lazy) ListUnarchivedWeeks(ctx context.Context) ([]string, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.ListUnarchivedWeeks(ctx)
}

func (l *Lazy) DeleteRecord(ctx context.Context, id int64) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.DeleteRecord(ctx, id)
}

func (l *Lazy) UpdateSplitMembers(ctx context.Context, id int64, members []models.SplitMember) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.UpdateSplitMembers(ctx, id, members)
}

func (l *Lazy) SetArchived(ctx context.Context, week string) (int64, error) {
	s, err := l.get()
	if err != nil {
		return 0, err
	}
	return s.SetArchived(ctx, week)
}

func (l *Lazy) PurgeArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s, err := l.get()
	if err != nil {
		return 0, err
	}
	return s.PurgeArchivedBefore(ctx, cutoff)
}
