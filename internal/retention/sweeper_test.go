package retention

import (
	"testing"
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func storeDetection(t *testing.T, store datastore.Interface, session, addr string, observedAt time.Time) {
	t.Helper()
	det := detection.NewWiFi("net", addr, -60, observedAt)
	_, err := store.Upsert(session, &det)
	require.NoError(t, err)
}

func TestSweepRemovesOnlyOldRows(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	sweeper := New(store, WithClock(func() time.Time { return now }))

	storeDetection(t, store, conf.DefaultSession, "aa:bb:cc:dd:ee:01", now.Add(-time.Second))
	storeDetection(t, store, conf.DefaultSession, "aa:bb:cc:dd:ee:02", now.Add(-10*24*time.Hour))

	removed, err := sweeper.Sweep(3 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err := store.GetDetections(conf.DefaultSession, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", rows[0].NaturalKey)
}

func TestSweepCoversAllSessions(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	sweeper := New(store, WithClock(func() time.Time { return now }))

	require.NoError(t, store.CreateSession("survey-a"))
	require.NoError(t, store.CreateSession("survey-b"))

	old := now.Add(-30 * 24 * time.Hour)
	storeDetection(t, store, conf.DefaultSession, "aa:bb:cc:dd:ee:01", old)
	storeDetection(t, store, "survey-a", "aa:bb:cc:dd:ee:02", old)
	storeDetection(t, store, "survey-b", "aa:bb:cc:dd:ee:03", now)

	removed, err := sweeper.Sweep(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := store.CountDetections("survey-b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSweepFromSettings(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	sweeper := New(store, WithClock(func() time.Time { return now }))

	storeDetection(t, store, conf.DefaultSession, "aa:bb:cc:dd:ee:01", now.Add(-10*24*time.Hour))

	settings := &conf.Settings{}
	settings.Retention.Enabled = false
	removed, err := sweeper.SweepFromSettings(settings)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed, "disabled retention must not delete anything")

	settings.Retention.Enabled = true
	settings.Retention.MaxAge = "7d"
	removed, err = sweeper.SweepFromSettings(settings)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	settings.Retention.MaxAge = "bogus-"
	_, err = sweeper.SweepFromSettings(settings)
	assert.Error(t, err)
}
