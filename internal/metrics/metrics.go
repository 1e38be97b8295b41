// Package metrics exposes Prometheus collectors for the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weekledger"

// Archive outcomes.
const (
	OutcomeArchived  = "archived"
	OutcomeUnsettled = "unsettled"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Metrics groups the collectors updated by the ledger and the RPC layer.
type Metrics struct {
	RecordsCreated  prometheus.Counter
	RecordsDeleted  prometheus.Counter
	PaymentUpdates  prometheus.Counter
	ArchiveAttempts *prometheus.CounterVec
	RecordsPurged   prometheus.Counter
	RPCDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Expense records created.",
		}),
		RecordsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_deleted_total",
			Help:      "Expense records deleted by id.",
		}),
		PaymentUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_updates_total",
			Help:      "Successful split member paid-status updates.",
		}),
		ArchiveAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_attempts_total",
			Help:      "Week archive attempts by outcome.",
		}, []string{"outcome"}),
		RecordsPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_purged_total",
			Help:      "Archived records removed by the retention sweep.",
		}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and result code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
