// Package mqtt publishes resolved devices to an MQTT broker.
package mqtt

import (
	"context"
	"time"

	"github.com/santiway/radiowatch/internal/datastore"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	Publish(ctx context.Context, topic, payload string) error

	// PublishDevice publishes a canonical device event as JSON under the
	// configured topic. It satisfies the resolver's DevicePublisher.
	PublishDevice(ctx context.Context, event string, dev *datastore.CanonicalDevice) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // base topic; events publish to <topic>/<event>
	Retain            bool
	ReconnectCooldown time.Duration
	ReconnectDelay    time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values.
func DefaultConfig() Config {
	return Config{
		ReconnectCooldown: 5 * time.Second,
		ReconnectDelay:    1 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// DeviceMessage is the JSON payload published for a canonical device event.
type DeviceMessage struct {
	Node             string  `json:"node"`
	Event            string  `json:"event"`
	Time             string  `json:"time"`
	UniqueIdentifier string  `json:"uniqueIdentifier"`
	Kind             string  `json:"kind"`
	Name             string  `json:"name,omitempty"`
	SignalStrength   int     `json:"signalStrength"`
	AvgSignal        float64 `json:"avgSignal"`
	Observations     int64   `json:"observations"`
	FirstSeen        int64   `json:"firstSeen"`
	LastSeen         int64   `json:"lastSeen"`
	Latitude         float64 `json:"latitude,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`
	Vendor           string  `json:"vendor,omitempty"`
	NetworkType      string  `json:"networkType,omitempty"`
}

// newDeviceMessage flattens a canonical device into the wire payload.
func newDeviceMessage(node, event string, dev *datastore.CanonicalDevice, now time.Time) DeviceMessage {
	return DeviceMessage{
		Node:             node,
		Event:            event,
		Time:             now.Format(time.RFC3339),
		UniqueIdentifier: dev.UniqueIdentifier,
		Kind:             dev.Kind,
		Name:             dev.Name,
		SignalStrength:   dev.SignalStrength,
		AvgSignal:        dev.AvgSignalStrength,
		Observations:     dev.TotalObservations,
		FirstSeen:        dev.FirstSeen,
		LastSeen:         dev.LastSeen,
		Latitude:         dev.Latitude,
		Longitude:        dev.Longitude,
		Vendor:           dev.Vendor,
		NetworkType:      dev.NetworkType,
	}
}
