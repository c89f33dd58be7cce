package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresBroker(t *testing.T) {
	settings := &conf.Settings{}
	_, err := NewClient(settings, nil)
	assert.Error(t, err)

	settings.MQTT.Broker = "tcp://localhost:1883"
	settings.MQTT.Topic = "radiowatch/devices"
	settings.Main.Name = "node-1"
	c, err := NewClient(settings, nil)
	require.NoError(t, err)
	assert.False(t, c.IsConnected())
}

func TestPublishRequiresConnection(t *testing.T) {
	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://localhost:1883"
	c, err := NewClient(settings, nil)
	require.NoError(t, err)

	err = c.Publish(context.Background(), "radiowatch/devices", "{}")
	assert.Error(t, err, "publishing while disconnected must fail")
}

func TestDeviceMessagePayload(t *testing.T) {
	dev := &datastore.CanonicalDevice{
		UniqueIdentifier:  "MAC:AA:BB:CC:DD:EE:FF",
		Kind:              "wifi",
		Name:              "home-net",
		SignalStrength:    -60,
		AvgSignalStrength: -62.5,
		TotalObservations: 4,
		FirstSeen:         1700000000000,
		LastSeen:          1700000360000,
		Latitude:          60.1699,
		Longitude:         24.9384,
		Vendor:            "Cisco",
	}

	msg := newDeviceMessage("node-1", "created", dev, time.Unix(1700000400, 0).UTC())
	payload, err := json.Marshal(&msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "node-1", decoded["node"])
	assert.Equal(t, "created", decoded["event"])
	assert.Equal(t, "MAC:AA:BB:CC:DD:EE:FF", decoded["uniqueIdentifier"])
	assert.InDelta(t, -62.5, decoded["avgSignal"], 1e-9)
	assert.InDelta(t, 4, decoded["observations"], 1e-9)
}

func TestMockClientRecordsDeviceEvents(t *testing.T) {
	mock := NewMockClient()
	require.NoError(t, mock.Connect(context.Background()))

	dev := &datastore.CanonicalDevice{UniqueIdentifier: "MAC:AA:BB:CC:DD:EE:FF", Kind: "wifi"}
	require.NoError(t, mock.PublishDevice(context.Background(), "created", dev))

	msgs := mock.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "radiowatch/devices/created", msgs[0].Topic)
	assert.Contains(t, msgs[0].Payload, "MAC:AA:BB:CC:DD:EE:FF")
}
