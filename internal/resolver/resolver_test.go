package resolver

import (
	"context"
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

type capturingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturingPublisher) PublishDevice(_ context.Context, event string, _ *datastore.CanonicalDevice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func TestIngestStoresAndResolves(t *testing.T) {
	store := newTestStore(t)
	r := New(store)

	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, time.Now())
	require.NoError(t, r.Ingest(conf.DefaultSession, &det))

	rows, err := store.GetDetections(conf.DefaultSession, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	devices, err := store.GetCanonicalDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "MAC:AA:BB:CC:DD:EE:FF", devices[0].UniqueIdentifier)
	assert.Equal(t, int64(1), devices[0].TotalObservations)
}

func TestIngestStaleDoesNotResolveTwice(t *testing.T) {
	store := newTestStore(t)
	r := New(store)

	observed := time.Now()
	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, observed)
	require.NoError(t, r.Ingest(conf.DefaultSession, &det))

	dup := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, observed)
	require.NoError(t, r.Ingest(conf.DefaultSession, &dup))

	devices, err := store.GetCanonicalDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, int64(1), devices[0].TotalObservations,
		"a discarded duplicate must not inflate the statistics")
}

func TestInvalidCellIdentityStaysRawOnly(t *testing.T) {
	store := newTestStore(t)
	r := New(store)

	det := detection.NewCell("carrier", detection.CellMetadata{
		CellID:      detection.CellIDSentinel,
		MCC:         244,
		MNC:         91,
		TAC:         12345,
		NetworkType: "LTE",
	}, -95, time.Now())
	require.NoError(t, r.Ingest(conf.DefaultSession, &det))

	rows, err := store.GetDetections(conf.DefaultSession, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "invalid identities are still audited in the raw ledger")

	devices, err := store.GetCanonicalDevices()
	require.NoError(t, err)
	assert.Empty(t, devices, "invalid identities must never reach the canonical table")
}

func TestIngestPropagatesUnknownSession(t *testing.T) {
	store := newTestStore(t)
	r := New(store)

	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, time.Now())
	err := r.Ingest("gone", &det)
	assert.ErrorIs(t, err, datastore.ErrSessionNotFound)
}

func TestPublisherNotifiedOnCreateAndLocationChange(t *testing.T) {
	store := newTestStore(t)
	pub := &capturingPublisher{}
	r := New(store, WithPublisher(pub))

	base := time.Now()
	first := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, base)
	first.Location = &detection.Location{Latitude: 60.1699, Longitude: 24.9384}
	require.NoError(t, r.Ingest(conf.DefaultSession, &first))

	// Same place, newer timestamp: accepted by the ledger, no publish.
	second := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -62, base.Add(time.Second))
	second.Location = &detection.Location{Latitude: 60.1699, Longitude: 24.9384}
	require.NoError(t, r.Ingest(conf.DefaultSession, &second))

	// Moved beyond the epsilon: publish again.
	third := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -64, base.Add(2*time.Second))
	third.Location = &detection.Location{Latitude: 60.1750, Longitude: 24.9384}
	require.NoError(t, r.Ingest(conf.DefaultSession, &third))

	assert.Equal(t, []string{EventCreated, EventLocationChanged}, pub.Events())
}
