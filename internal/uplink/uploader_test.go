package uplink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
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

func uplinkSettings(endpoint string, batchSize int) *conf.Settings {
	settings := &conf.Settings{}
	settings.Main.Name = "node-1"
	settings.Uplink.Enabled = true
	settings.Uplink.Endpoint = endpoint
	settings.Uplink.BatchSize = batchSize
	return settings
}

func TestNewRequiresEndpoint(t *testing.T) {
	store := newTestStore(t)
	_, err := New(&conf.Settings{}, store, nil)
	assert.Error(t, err)
}

func TestRunUploadsAndMarksRows(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	for _, addr := range []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02", "aa:bb:cc:dd:ee:03"} {
		det := detection.NewWiFi("net", addr, -60, now)
		_, err := store.Upsert(conf.DefaultSession, &det)
		require.NoError(t, err)
	}

	var mu sync.Mutex
	var batches []Batch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b Batch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
		mu.Lock()
		batches = append(batches, b)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	// Batch size 2 forces two batches for three rows.
	u, err := New(uplinkSettings(server.URL, 2), store, nil)
	require.NoError(t, err)
	require.NoError(t, u.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 2)
	assert.Equal(t, "node-1", batches[0].Node)
	assert.Equal(t, conf.DefaultSession, batches[0].Session)
	assert.Len(t, batches[0].Detections, 2)
	assert.Len(t, batches[1].Detections, 1)

	unsent, err := store.GetUnsentDetections(conf.DefaultSession, 0)
	require.NoError(t, err)
	assert.Empty(t, unsent, "acknowledged rows must be marked uploaded")
}

func TestRunKeepsRowsOnServerError(t *testing.T) {
	store := newTestStore(t)

	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:01", -60, time.Now())
	_, err := store.Upsert(conf.DefaultSession, &det)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	u, err := New(uplinkSettings(server.URL, 10), store, nil)
	require.NoError(t, err)
	require.Error(t, u.Run(context.Background()))

	unsent, err := store.GetUnsentDetections(conf.DefaultSession, 0)
	require.NoError(t, err)
	assert.Len(t, unsent, 1, "rows must stay unsent when the endpoint rejects the batch")
}

func TestRunNothingToUpload(t *testing.T) {
	store := newTestStore(t)

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := New(uplinkSettings(server.URL, 10), store, nil)
	require.NoError(t, err)
	require.NoError(t, u.Run(context.Background()))
	assert.False(t, called, "no request without unsent rows")
}
