package datastore

import (
	"testing"
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createDatabase initializes a temporary SQLite database for testing.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := New(settings)
	require.NotNil(t, store, "expected a store for SQLite settings")
	require.NoError(t, store.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})

	return store
}

func wifiDetection(bssid string, signal int, observedAt time.Time) detection.RawDetection {
	return detection.NewWiFi("test-net", bssid, signal, observedAt)
}

func TestOpenCreatesProtectedDefaultSession(t *testing.T) {
	store := createDatabase(t)

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	assert.Contains(t, sessions, conf.DefaultSession)
}

func TestCreateSessionIsIdempotent(t *testing.T) {
	store := createDatabase(t)

	require.NoError(t, store.CreateSession("survey-1"))
	require.NoError(t, store.CreateSession("survey-1"))

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	assert.Contains(t, sessions, "survey-1")
}

func TestCreateSessionRejectsUnsafeNames(t *testing.T) {
	store := createDatabase(t)

	for _, name := range []string{"", "a b", "x;drop", "-leading", "way/too/deep"} {
		err := store.CreateSession(name)
		assert.ErrorIs(t, err, ErrInvalidSessionName, "name %q", name)
	}
}

func TestDeleteSessionProtectsDefault(t *testing.T) {
	store := createDatabase(t)

	err := store.DeleteSession(conf.DefaultSession)
	require.ErrorIs(t, err, ErrProtectedSession)

	// The default session and its rows must be intact afterwards.
	exists, err := store.SessionExists(conf.DefaultSession)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteSessionRemovesRows(t *testing.T) {
	store := createDatabase(t)
	require.NoError(t, store.CreateSession("doomed"))

	det := wifiDetection("aa:bb:cc:dd:ee:01", -60, time.Now())
	_, err := store.Upsert("doomed", &det)
	require.NoError(t, err)

	require.NoError(t, store.DeleteSession("doomed"))

	exists, err := store.SessionExists("doomed")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetDetections("doomed", 0, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionUnknown(t *testing.T) {
	store := createDatabase(t)

	err := store.DeleteSession("never-created")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCountDetections(t *testing.T) {
	store := createDatabase(t)

	now := time.Now()
	for i, addr := range []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02", "aa:bb:cc:dd:ee:03"} {
		det := wifiDetection(addr, -60-i, now)
		_, err := store.Upsert(conf.DefaultSession, &det)
		require.NoError(t, err)
	}

	count, err := store.CountDetections(conf.DefaultSession)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
