package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

type fakeScheduler struct {
	cfg     conf.ScannerSettings
	running bool
	session string
}

func (f *fakeScheduler) Settings() conf.ScannerSettings { return f.cfg }
func (f *fakeScheduler) IsRunning() bool                { return f.running }
func (f *fakeScheduler) Session() string                { return f.session }

func (f *fakeScheduler) UpdateSettings(cfg conf.ScannerSettings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	return nil
}

func newTestController(t *testing.T) (*Controller, datastore.Interface) {
	t.Helper()
	store := newTestStore(t)
	settings := &conf.Settings{}
	settings.WebServer.Listen = "127.0.0.1:0"

	schedulers := map[string]SchedulerControl{
		"wifi": &fakeScheduler{
			cfg:     conf.ScannerSettings{Enabled: true, Interval: 10, SignalFloorDbm: -90},
			running: true,
			session: conf.DefaultSession,
		},
	}
	return New(settings, store, schedulers), store
}

func doRequest(c *Controller, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestSessionEndpoints(t *testing.T) {
	c, _ := newTestController(t)

	rec := doRequest(c, http.MethodPost, "/api/v1/sessions", `{"name":"survey-1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/sessions", `{"name":"bad name!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []sessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, conf.DefaultSession)
	assert.Contains(t, names, "survey-1")

	rec = doRequest(c, http.MethodDelete, "/api/v1/sessions/survey-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodDelete, "/api/v1/sessions/survey-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(c, http.MethodDelete, "/api/v1/sessions/"+conf.DefaultSession, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "the default session is protected")
}

func TestDetectionEndpoints(t *testing.T) {
	c, store := newTestController(t)

	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, time.Now())
	_, err := store.Upsert(conf.DefaultSession, &det)
	require.NoError(t, err)

	rec := doRequest(c, http.MethodGet, "/api/v1/sessions/default/detections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dets []detection.RawDetection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dets))
	require.Len(t, dets, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", dets[0].Link.Address)

	rec = doRequest(c, http.MethodGet, "/api/v1/sessions/nope/detections", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(c, http.MethodPatch, "/api/v1/sessions/default/detections/triage",
		`{"kind":"wifi","naturalKey":"AA:BB:CC:DD:EE:FF","status":"flagged"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rows, err := store.GetDetections(conf.DefaultSession, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "flagged", rows[0].TriageStatus)

	rec = doRequest(c, http.MethodPatch, "/api/v1/sessions/default/detections/triage",
		`{"kind":"wifi","naturalKey":"00:00:00:00:00:00","status":"flagged"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(c, http.MethodPatch, "/api/v1/sessions/default/detections/triage",
		`{"kind":"laser","naturalKey":"x","status":"flagged"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeviceEndpoints(t *testing.T) {
	c, store := newTestController(t)

	det := detection.NewWiFi("net", "aa:bb:cc:dd:ee:ff", -60, time.Now())
	_, err := store.UpsertCanonical(&det, time.Now())
	require.NoError(t, err)

	rec := doRequest(c, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var devices []datastore.CanonicalDevice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "MAC:AA:BB:CC:DD:EE:FF", devices[0].UniqueIdentifier)

	rec = doRequest(c, http.MethodDelete, "/api/v1/devices", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	devices = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Empty(t, devices, "the clear must also drop the cached listing")
}

func TestScannerEndpoints(t *testing.T) {
	c, _ := newTestController(t)

	rec := doRequest(c, http.MethodGet, "/api/v1/scanners", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var scanners []scannerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanners))
	require.Len(t, scanners, 1)
	assert.Equal(t, "wifi", scanners[0].Kind)
	assert.True(t, scanners[0].Running)

	rec = doRequest(c, http.MethodPatch, "/api/v1/scanners/wifi",
		`{"enabled":true,"interval":-5,"signalFloorDbm":-90}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "invalid settings are rejected")

	rec = doRequest(c, http.MethodPatch, "/api/v1/scanners/wifi",
		`{"enabled":true,"interval":30,"signalFloorDbm":-80}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodPatch, "/api/v1/scanners/thermal",
		`{"enabled":true,"interval":30,"signalFloorDbm":-80}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
