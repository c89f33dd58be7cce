package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
	"github.com/santiway/radiowatch/internal/logging"
	"github.com/santiway/radiowatch/internal/observability/metrics"
	"github.com/santiway/radiowatch/internal/oui"
)

// Scheduler drives one observation source at a configurable cadence.
// Settings updates and session changes take effect on the next cycle; a
// cycle already in flight always completes with the values it started with.
type Scheduler struct {
	source  Source
	sink    Sink
	metrics *metrics.ScannerMetrics
	log     *slog.Logger

	mu      sync.Mutex
	cfg     conf.ScannerSettings
	session string
	origin  *detection.Location
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler builds a stopped scheduler for the given source. The
// configuration is validated up front; metrics may be nil.
func NewScheduler(source Source, sink Sink, cfg conf.ScannerSettings, m *metrics.ScannerMetrics) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		source:  source,
		sink:    sink,
		metrics: m,
		log:     logging.ForService("scanner").With("kind", string(source.Kind())),
		cfg:     cfg,
	}, nil
}

// Start begins periodic scanning into the named session, stamping each
// stored detection with the origin location. Starting a running scheduler
// is a no-op.
func (s *Scheduler) Start(session string, origin *detection.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	s.session = session
	if origin != nil {
		loc := *origin
		s.origin = &loc
	} else {
		s.origin = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.setRunningGauge(1)
	s.log.Info("scheduler started", "session", session, "interval", s.cfg.Interval)
	go s.run(ctx, s.done)
}

// Stop halts periodic scanning before the next cycle. A cycle in flight
// completes normally. Stop is idempotent and returns once the scan
// goroutine has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.setRunningGauge(0)
	s.log.Info("scheduler stopped")
}

// UpdateSettings validates and applies new scan settings, effective on the
// next cycle. Invalid settings are rejected and the previous configuration
// stays in effect. Disabling a running scheduler stops it.
func (s *Scheduler) UpdateSettings(cfg conf.ScannerSettings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	running := s.cancel != nil
	s.mu.Unlock()

	if !cfg.Enabled && running {
		s.Stop()
	}
	return nil
}

// Settings returns a copy of the current scan settings.
func (s *Scheduler) Settings() conf.ScannerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Session returns the session currently receiving this scheduler's output.
func (s *Scheduler) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// IsRunning reports whether the scan loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// run is the scan loop. It waits one interval, executes a cycle and
// repeats until the context is cancelled or the source goes away.
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		interval := time.Duration(s.cfg.Interval * float64(time.Second))
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.RunCycle(ctx); err != nil {
			if errors.Is(err, ErrUnavailable) {
				// Capability switched off or permission revoked. No retry
				// loop; the operator restarts the scheduler explicitly.
				s.log.Warn("observation source unavailable, stopping scheduler")
				s.mu.Lock()
				s.cancel = nil
				s.done = nil
				s.mu.Unlock()
				s.setRunningGauge(0)
				return
			}
			s.log.Error("scan cycle failed", "error", err)
		}
	}
}

// RunCycle executes one scan cycle: poll the source, filter by signal
// floor, stamp session and origin, forward to the sink. A sink failure for
// one detection drops that detection only.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	session := s.session
	origin := s.origin
	s.mu.Unlock()

	kind := string(s.source.Kind())
	start := time.Now()

	events, err := s.source.PollOnce(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SourceErrors.WithLabelValues(kind).Inc()
		}
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return errors.New(err).
			Component("scanner").
			Category(errors.CategoryScannerSource).
			Context("kind", kind).
			Build()
	}

	stored, filtered := 0, 0
	for i := range events {
		det := events[i]
		if float64(det.SignalStrength) < cfg.SignalFloorDbm {
			filtered++
			continue
		}
		stampDetection(&det, origin)

		if err := s.sink.Ingest(session, &det); err != nil {
			if errors.Is(err, datastore.ErrSessionNotFound) {
				// The target session was deleted underneath us. Future
				// output goes to the protected default session.
				session = s.redirectToDefault()
				if err := s.sink.Ingest(session, &det); err != nil {
					s.log.Error("ingest failed after redirect", "error", err)
					continue
				}
			} else {
				// Losing one observation is acceptable, corrupting the
				// ledger is not. Drop and carry on.
				s.log.Error("ingest failed, detection dropped",
					"natural_key", det.NaturalKey(), "error", err)
				continue
			}
		}
		stored++
	}

	if s.metrics != nil {
		s.metrics.ScanCyclesTotal.WithLabelValues(kind).Inc()
		s.metrics.DetectionsTotal.WithLabelValues(kind).Add(float64(stored))
		s.metrics.DetectionsFiltered.WithLabelValues(kind).Add(float64(filtered))
		s.metrics.CycleDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	s.log.Debug("scan cycle complete",
		"events", len(events), "stored", stored, "filtered", filtered)
	return nil
}

// redirectToDefault switches the scheduler's output to the default session
// and returns it.
func (s *Scheduler) redirectToDefault() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != conf.DefaultSession {
		s.log.Warn("session deleted, redirecting scan output",
			"from", s.session, "to", conf.DefaultSession)
		s.session = conf.DefaultSession
	}
	return s.session
}

// stampDetection applies the scan cycle's origin location and fills in the
// vendor for link-layer detections. The sensor never supplies a location.
func stampDetection(det *detection.RawDetection, origin *detection.Location) {
	if origin != nil {
		loc := *origin
		det.Location = &loc
	}
	if det.Link != nil && det.Link.Vendor == "" {
		det.Link.Vendor = oui.Lookup(det.Link.Address)
	}
}

func (s *Scheduler) setRunningGauge(v float64) {
	if s.metrics != nil {
		s.metrics.SchedulerRunning.WithLabelValues(string(s.source.Kind())).Set(v)
	}
}
