package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/santiway/radiowatch/internal/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}

func TestNewReplaySourceRequiresSpoolDir(t *testing.T) {
	_, err := NewReplaySource(detection.KindWiFi, "")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewReplaySource(detection.KindWiFi, "/no/such/dir")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReplaySourceReturnsOnlyNewLines(t *testing.T) {
	dir := t.TempDir()
	source, err := NewReplaySource(detection.KindWiFi, dir)
	require.NoError(t, err)

	// No spool file yet: empty poll.
	events, err := source.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	path := filepath.Join(dir, "wifi.jsonl")
	appendLine(t, path, `{"name":"net-1","signalStrength":-60,"link":{"address":"AA:BB:CC:DD:EE:01"},"observedAt":"2026-08-28T10:00:00Z"}`)
	appendLine(t, path, `{"name":"net-2","signalStrength":-70,"link":{"address":"AA:BB:CC:DD:EE:02"},"observedAt":"2026-08-28T10:00:01Z"}`)

	events, err = source.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, detection.KindWiFi, events[0].Kind)
	assert.Equal(t, "net-1", events[0].Name)
	assert.Equal(t, detection.TriageStatusUnset, events[0].TriageStatus)
	assert.Equal(t, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), events[0].ObservedAt.UTC())

	// Second poll without new lines is empty.
	events, err = source.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	appendLine(t, path, `{"name":"net-3","signalStrength":-80,"link":{"address":"AA:BB:CC:DD:EE:03"}}`)
	events, err = source.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "net-3", events[0].Name)
}

func TestReplaySourceSkipsGarbageLines(t *testing.T) {
	dir := t.TempDir()
	source, err := NewReplaySource(detection.KindBluetooth, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "bluetooth.jsonl")
	appendLine(t, path, `not json at all`)
	appendLine(t, path, `{"name":"headset","signalStrength":-65,"link":{"address":"AA:BB:CC:DD:EE:04"}}`)

	events, err := source.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "headset", events[0].Name)
}

func TestReplaySourceHandlesRotation(t *testing.T) {
	dir := t.TempDir()
	source, err := NewReplaySource(detection.KindWiFi, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "wifi.jsonl")
	appendLine(t, path, `{"name":"before","signalStrength":-60,"link":{"address":"AA:BB:CC:DD:EE:01"}}`)
	_, err = source.PollOnce(context.Background())
	require.NoError(t, err)

	// Rotate: truncate and write a shorter file.
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	appendLine(t, path, `{"name":"after","signalStrength":-61,"link":{"address":"AA:BB:CC:DD:EE:02"}}`)

	events, err := source.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "after", events[0].Name)
}
