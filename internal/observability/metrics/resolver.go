package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolverMetrics contains all Prometheus metrics related to identity
// resolution.
type ResolverMetrics struct {
	DevicesCreated    prometheus.Counter
	DevicesUpdated    prometheus.Counter
	LocationChanges   prometheus.Counter
	InvalidIdentities *prometheus.CounterVec
	ResolveErrors     prometheus.Counter
	registry          *prometheus.Registry
}

// NewResolverMetrics creates a new instance of ResolverMetrics.
func NewResolverMetrics(registry *prometheus.Registry) (*ResolverMetrics, error) {
	m := &ResolverMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register resolver metrics: %w", err)
	}
	return m, nil
}

func (m *ResolverMetrics) initMetrics() {
	m.DevicesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_devices_created_total",
		Help: "Total number of canonical devices created",
	})

	m.DevicesUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_devices_updated_total",
		Help: "Total number of canonical device updates",
	})

	m.LocationChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_location_changes_total",
		Help: "Total number of significant device location changes",
	})

	m.InvalidIdentities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_invalid_identities_total",
		Help: "Total number of detections excluded from canonicalization per sensor kind",
	}, []string{"kind"})

	m.ResolveErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_errors_total",
		Help: "Total number of failed resolve operations",
	})
}

// Collect implements the prometheus.Collector interface.
func (m *ResolverMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.DevicesCreated
	ch <- m.DevicesUpdated
	ch <- m.LocationChanges
	m.InvalidIdentities.Collect(ch)
	ch <- m.ResolveErrors
}

// Describe implements the prometheus.Collector interface.
func (m *ResolverMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.DevicesCreated.Desc()
	ch <- m.DevicesUpdated.Desc()
	ch <- m.LocationChanges.Desc()
	m.InvalidIdentities.Describe(ch)
	ch <- m.ResolveErrors.Desc()
}
