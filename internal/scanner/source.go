// Package scanner runs the per-sensor-type scan schedulers. Each scheduler
// owns a repeating timer that polls an observation source, filters the
// returned events by signal floor, stamps them with the active session and
// origin location, and forwards them to the ingest sink.
package scanner

import (
	"context"

	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
)

// ErrUnavailable is reported by a Source whose underlying capability is
// switched off or not permitted. A scheduler that sees it stops itself
// instead of retrying.
var ErrUnavailable = errors.NewStd("observation source unavailable")

// Source yields batches of raw detection events for one sensor type.
// PollOnce may block on radio I/O; the context cancels a poll that is no
// longer wanted. A poll returning no events is not an error.
type Source interface {
	Kind() detection.Kind
	PollOnce(ctx context.Context) ([]detection.RawDetection, error)
}

// Sink receives the detections that survive a scan cycle. The realtime
// pipeline implements it with the ledger upsert followed by identity
// resolution.
type Sink interface {
	Ingest(session string, det *detection.RawDetection) error
}
