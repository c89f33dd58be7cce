// replay.go: observation source backed by a JSONL spool file. An external
// collector appends one JSON-encoded detection per line; each poll returns
// the lines added since the previous poll. This is the source the daemon
// ships with; real radio APIs live outside this repository and feed the
// spool.
package scanner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
)

// ReplaySource tails <spoolDir>/<kind>.jsonl.
type ReplaySource struct {
	kind detection.Kind
	path string

	mu     sync.Mutex
	offset int64
}

// NewReplaySource builds a spool-backed source for one sensor type. It
// reports ErrUnavailable when the spool directory does not exist.
func NewReplaySource(kind detection.Kind, spoolDir string) (*ReplaySource, error) {
	if spoolDir == "" {
		return nil, errors.New(ErrUnavailable).
			Component("scanner").
			Category(errors.CategoryScannerSource).
			Context("kind", string(kind)).
			Build()
	}
	if _, err := os.Stat(spoolDir); err != nil {
		return nil, errors.New(ErrUnavailable).
			Component("scanner").
			Category(errors.CategoryScannerSource).
			Context("spool", spoolDir).
			Build()
	}
	return &ReplaySource{
		kind: kind,
		path: filepath.Join(spoolDir, string(kind)+".jsonl"),
	}, nil
}

// Kind implements Source.
func (r *ReplaySource) Kind() detection.Kind { return r.kind }

// PollOnce implements Source. A missing spool file means the collector has
// not produced anything yet; that is an empty poll, not an error. Lines
// that fail to decode are skipped.
func (r *ReplaySource) PollOnce(ctx context.Context) ([]detection.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryScannerSource).
			Context("spool", r.path).
			Build()
	}
	defer f.Close()

	// A shrunken file means the spool was rotated; start over.
	if info, err := f.Stat(); err == nil && info.Size() < r.offset {
		r.offset = 0
	}
	if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryScannerSource).
			Context("spool", r.path).
			Build()
	}

	var events []detection.RawDetection
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// An unterminated trailing line stays in the file for the
			// next poll.
			break
		}
		r.offset += int64(len(line))

		var det detection.RawDetection
		if err := json.Unmarshal(line, &det); err != nil {
			continue
		}
		det.Kind = r.kind
		if det.TriageStatus == "" {
			det.TriageStatus = detection.TriageStatusUnset
		}
		events = append(events, det)
	}
	return events, nil
}
