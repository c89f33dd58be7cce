package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// UplinkMetrics contains all Prometheus metrics related to the batch
// uploader.
type UplinkMetrics struct {
	BatchesSent    prometheus.Counter
	RowsUploaded   prometheus.Counter
	UploadErrors   prometheus.Counter
	UploadDuration prometheus.Histogram
	registry       *prometheus.Registry
}

// NewUplinkMetrics creates a new instance of UplinkMetrics.
func NewUplinkMetrics(registry *prometheus.Registry) (*UplinkMetrics, error) {
	m := &UplinkMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register uplink metrics: %w", err)
	}
	return m, nil
}

func (m *UplinkMetrics) initMetrics() {
	m.BatchesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uplink_batches_sent_total",
		Help: "Total number of successfully delivered upload batches",
	})

	m.RowsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uplink_rows_uploaded_total",
		Help: "Total number of raw rows marked uploaded",
	})

	m.UploadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "uplink_errors_total",
		Help: "Total number of failed upload attempts",
	})

	m.UploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "uplink_upload_duration_seconds",
		Help:    "Duration of upload batch requests in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
}

// Collect implements the prometheus.Collector interface.
func (m *UplinkMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.BatchesSent
	ch <- m.RowsUploaded
	ch <- m.UploadErrors
	ch <- m.UploadDuration
}

// Describe implements the prometheus.Collector interface.
func (m *UplinkMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.BatchesSent.Desc()
	ch <- m.RowsUploaded.Desc()
	ch <- m.UploadErrors.Desc()
	ch <- m.UploadDuration.Desc()
}
