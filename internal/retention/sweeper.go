// Package retention prunes old raw detections. The sweeper runs once at
// process start and walks every session; a failure in one session never
// blocks the others.
package retention

import (
	"log/slog"
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/errors"
	"github.com/santiway/radiowatch/internal/logging"
	"github.com/santiway/radiowatch/internal/observability/metrics"
)

// Sweeper deletes raw rows older than a configured age across all sessions.
type Sweeper struct {
	store   datastore.Interface
	metrics *metrics.DatastoreMetrics
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithMetrics attaches datastore metrics.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// New builds a Sweeper over the given store.
func New(store datastore.Interface, opts ...Option) *Sweeper {
	s := &Sweeper{
		store: store,
		log:   logging.ForService("retention"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep removes rows older than maxAge from every session and returns how
// many were deleted. Per-session errors are collected and joined; sweeping
// continues past them.
func (s *Sweeper) Sweep(maxAge time.Duration) (int64, error) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		return 0, errors.New(err).
			Component("retention").
			Category(errors.CategoryRetention).
			Build()
	}

	cutoff := s.now().Add(-maxAge)
	var removed int64
	var errs []error
	for _, session := range sessions {
		n, err := s.store.PurgeOlderThan(session, cutoff)
		if err != nil {
			s.log.Error("retention sweep failed for session",
				"session", session, "error", err)
			errs = append(errs, err)
			continue
		}
		removed += n
		if n > 0 {
			s.log.Info("retention sweep removed rows", "session", session, "removed", n)
		}
	}

	if s.metrics != nil && removed > 0 {
		s.metrics.RetentionDeleted.Add(float64(removed))
	}
	return removed, errors.Join(errs...)
}

// SweepFromSettings runs a sweep using the configured retention period.
// Disabled retention is a no-op.
func (s *Sweeper) SweepFromSettings(settings *conf.Settings) (int64, error) {
	if !settings.Retention.Enabled {
		return 0, nil
	}
	hours, err := conf.ParseRetentionPeriod(settings.Retention.MaxAge)
	if err != nil {
		return 0, errors.New(err).
			Component("retention").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return s.Sweep(time.Duration(hours) * time.Hour)
}
