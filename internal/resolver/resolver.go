// Package resolver implements the ingest pipeline behind the scan
// schedulers: raw ledger upsert followed by cross-session identity
// resolution. Identity resolution is a derived view over the raw ledger;
// a resolution failure never fails the ingest of the raw row.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/logging"
	"github.com/santiway/radiowatch/internal/observability/metrics"
)

// Device publish event names.
const (
	EventCreated         = "created"
	EventLocationChanged = "location_changed"
)

// DevicePublisher pushes newly resolved devices to external consumers.
// The MQTT client implements it.
type DevicePublisher interface {
	PublishDevice(ctx context.Context, event string, dev *datastore.CanonicalDevice) error
}

// Resolver folds accepted detections into the canonical device table.
type Resolver struct {
	store     datastore.Interface
	publisher DevicePublisher
	metrics   *metrics.ResolverMetrics
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPublisher attaches a device publisher notified on creations and
// significant location changes.
func WithPublisher(p DevicePublisher) Option {
	return func(r *Resolver) { r.publisher = p }
}

// WithMetrics attaches resolver metrics.
func WithMetrics(m *metrics.ResolverMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New builds a Resolver over the given store.
func New(store datastore.Interface, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		log:   logging.ForService("resolver"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest stores one detection in the named session and, when the ledger
// accepted it as new or newer, resolves it into the canonical table.
// Ledger errors propagate to the caller; resolution errors are logged and
// swallowed so the raw row survives.
func (r *Resolver) Ingest(session string, det *detection.RawDetection) error {
	outcome, err := r.store.Upsert(session, det)
	if err != nil {
		return err
	}
	if outcome == datastore.SkippedStale {
		// A stale or duplicate delivery was discarded; counting it again
		// would skew the running statistics.
		return nil
	}
	r.Resolve(det)
	return nil
}

// Resolve updates the canonical record for one accepted detection.
// Detections with a structurally invalid identity are excluded; they stay
// in the raw ledger for audit but never reach the canonical table.
func (r *Resolver) Resolve(det *detection.RawDetection) {
	if !det.HasValidIdentity() {
		if r.metrics != nil {
			r.metrics.InvalidIdentities.WithLabelValues(string(det.Kind)).Inc()
		}
		r.log.Debug("invalid identity excluded from canonicalization",
			"kind", string(det.Kind), "natural_key", det.NaturalKey())
		return
	}

	res, err := r.store.UpsertCanonical(det, r.now())
	if err != nil {
		if r.metrics != nil {
			r.metrics.ResolveErrors.Inc()
		}
		r.log.Error("canonical resolve failed",
			"unique_identifier", det.UniqueIdentifier(), "error", err)
		return
	}

	if r.metrics != nil {
		if res.Created {
			r.metrics.DevicesCreated.Inc()
		} else {
			r.metrics.DevicesUpdated.Inc()
		}
		if res.LocationChanged && !res.Created {
			r.metrics.LocationChanges.Inc()
		}
	}

	r.publish(&res)
}

// publish notifies the publisher about creations and location changes.
func (r *Resolver) publish(res *datastore.ResolveResult) {
	if r.publisher == nil {
		return
	}
	event := ""
	switch {
	case res.Created:
		event = EventCreated
	case res.LocationChanged:
		event = EventLocationChanged
	default:
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.publisher.PublishDevice(ctx, event, &res.Device); err != nil {
		r.log.Warn("device publish failed",
			"event", event, "unique_identifier", res.Device.UniqueIdentifier, "error", err)
	}
}
