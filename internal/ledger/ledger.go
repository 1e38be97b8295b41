// Package ledger implements the weekly expense workflow: recording expenses,
// marking split members as paid, archiving settled weeks and purging old
// archived records.
//
// The store is injected at construction. Read-modify-write sequences run
// inside Store.InTx so a settlement check and the archive it authorizes
// cannot interleave with a concurrent payment update.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/weekledger/internal/events"
	"github.com/mmynk/weekledger/internal/metrics"
	"github.com/mmynk/weekledger/internal/storage"
)

// DefaultRetention is how long archived records are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Error kinds surfaced to callers. Use errors.Is to test for them.
var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// Ledger orchestrates the store, the settlement rules, events and metrics.
type Ledger struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	retention time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets where change events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithMetrics sets the collectors updated by the ledger.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides the time source used by the retention purge.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRetention overrides DefaultRetention.
func WithRetention(d time.Duration) Option {
	return func(l *Ledger) { l.retention = d }
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: events.Noop{},
		now:       time.Now,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = metrics.New(prometheus.NewRegistry())
	}
	return l
}

// Retention returns the configured retention window.
func (l *Ledger) Retention() time.Duration {
	return l.retention
}

// publish sends e and logs, rather than returns, any failure: the change it
// describes is already committed.
func (l *Ledger) publish(ctx context.Context, e events.Event) {
	if err := l.publisher.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "type", e.Type, "error", err)
	}
}

// notFound translates storage.ErrNotFound into ErrNotFound.
func notFound(err error, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return err
}
