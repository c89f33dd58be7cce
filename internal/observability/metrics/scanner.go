// Package metrics provides custom Prometheus metrics for the radiowatch
// components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ScannerMetrics contains all Prometheus metrics related to scan scheduling.
type ScannerMetrics struct {
	ScanCyclesTotal     *prometheus.CounterVec
	DetectionsTotal     *prometheus.CounterVec
	DetectionsFiltered  *prometheus.CounterVec
	SourceErrors        *prometheus.CounterVec
	CycleDuration       *prometheus.HistogramVec
	SchedulerRunning    *prometheus.GaugeVec
	registry            *prometheus.Registry
}

// NewScannerMetrics creates a new instance of ScannerMetrics.
func NewScannerMetrics(registry *prometheus.Registry) (*ScannerMetrics, error) {
	m := &ScannerMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register scanner metrics: %w", err)
	}
	return m, nil
}

func (m *ScannerMetrics) initMetrics() {
	m.ScanCyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_cycles_total",
		Help: "Total number of completed scan cycles per sensor kind",
	}, []string{"kind"})

	m.DetectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_detections_total",
		Help: "Total number of detections forwarded to the ledger per sensor kind",
	}, []string{"kind"})

	m.DetectionsFiltered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_detections_filtered_total",
		Help: "Total number of detections dropped below the signal floor per sensor kind",
	}, []string{"kind"})

	m.SourceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_source_errors_total",
		Help: "Total number of observation source errors per sensor kind",
	}, []string{"kind"})

	m.CycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_cycle_duration_seconds",
		Help:    "Duration of scan cycles in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"kind"})

	m.SchedulerRunning = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_scheduler_running",
		Help: "Whether the scheduler for a sensor kind is currently running (1 or 0)",
	}, []string{"kind"})
}

// Collect implements the prometheus.Collector interface.
func (m *ScannerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ScanCyclesTotal.Collect(ch)
	m.DetectionsTotal.Collect(ch)
	m.DetectionsFiltered.Collect(ch)
	m.SourceErrors.Collect(ch)
	m.CycleDuration.Collect(ch)
	m.SchedulerRunning.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *ScannerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ScanCyclesTotal.Describe(ch)
	m.DetectionsTotal.Describe(ch)
	m.DetectionsFiltered.Describe(ch)
	m.SourceErrors.Describe(ch)
	m.CycleDuration.Describe(ch)
	m.SchedulerRunning.Describe(ch)
}
