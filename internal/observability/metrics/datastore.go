package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains all Prometheus metrics related to the raw ledger.
type DatastoreMetrics struct {
	UpsertsTotal      *prometheus.CounterVec
	UpsertErrors      prometheus.Counter
	UpsertDuration    prometheus.Histogram
	RetentionDeleted  prometheus.Counter
	registry          *prometheus.Registry
}

// NewDatastoreMetrics creates a new instance of DatastoreMetrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.UpsertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datastore_upserts_total",
		Help: "Total number of raw ledger upserts by outcome",
	}, []string{"outcome"})

	m.UpsertErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datastore_upsert_errors_total",
		Help: "Total number of failed raw ledger upserts",
	})

	m.UpsertDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "datastore_upsert_duration_seconds",
		Help:    "Duration of raw ledger upsert transactions in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	m.RetentionDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datastore_retention_deleted_total",
		Help: "Total number of raw rows removed by the retention sweeper",
	})
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.UpsertsTotal.Collect(ch)
	ch <- m.UpsertErrors
	ch <- m.UpsertDuration
	ch <- m.RetentionDeleted
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.UpsertsTotal.Describe(ch)
	ch <- m.UpsertErrors.Desc()
	ch <- m.UpsertDuration.Desc()
	ch <- m.RetentionDeleted.Desc()
}
