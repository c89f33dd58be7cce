// Package observability provides metrics and monitoring capabilities for
// the radiowatch daemon.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/santiway/radiowatch/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Scanner   *metrics.ScannerMetrics
	Datastore *metrics.DatastoreMetrics
	Resolver  *metrics.ResolverMetrics
	MQTT      *metrics.MQTTMetrics
	Uplink    *metrics.UplinkMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to
// initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	scannerMetrics, err := metrics.NewScannerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	resolverMetrics, err := metrics.NewResolverMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	uplinkMetrics, err := metrics.NewUplinkMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create uplink metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Scanner:   scannerMetrics,
		Datastore: datastoreMetrics,
		Resolver:  resolverMetrics,
		MQTT:      mqttMetrics,
		Uplink:    uplinkMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided
// http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
