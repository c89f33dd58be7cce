package scanner

import (
	"context"
	"sync"

	"github.com/santiway/radiowatch/internal/detection"
)

// ScriptedSource replays predefined batches of detections, one batch per
// poll. Once the script is exhausted it returns empty polls, or the
// configured error. Used by tests and by dry-run mode.
type ScriptedSource struct {
	kind detection.Kind

	mu      sync.Mutex
	batches [][]detection.RawDetection
	next    int
	polls   int
	err     error
}

// NewScriptedSource builds a source of the given kind replaying the
// batches in order.
func NewScriptedSource(kind detection.Kind, batches ...[]detection.RawDetection) *ScriptedSource {
	return &ScriptedSource{kind: kind, batches: batches}
}

// FailWith makes every poll after the scripted batches return err.
func (s *ScriptedSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Kind implements Source.
func (s *ScriptedSource) Kind() detection.Kind { return s.kind }

// PollOnce implements Source.
func (s *ScriptedSource) PollOnce(ctx context.Context) ([]detection.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.next < len(s.batches) {
		batch := s.batches[s.next]
		s.next++
		return batch, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

// Polls returns how many times the source has been polled.
func (s *ScriptedSource) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}
