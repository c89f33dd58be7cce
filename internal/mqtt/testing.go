// testing.go: mock Client implementation shared by tests.
package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/santiway/radiowatch/internal/datastore"
)

// MockMessage is one publish recorded by the MockClient.
type MockMessage struct {
	Topic   string
	Payload string
}

// MockClient is an in-memory Client for tests. It records every publish
// and can be scripted to fail.
type MockClient struct {
	mu         sync.Mutex
	connected  bool
	messages   []MockMessage
	ConnectErr error
	PublishErr error
}

// NewMockClient returns a disconnected mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Connect implements Client.
func (m *MockClient) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	return nil
}

// Publish implements Client.
func (m *MockClient) Publish(_ context.Context, topic, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.messages = append(m.messages, MockMessage{Topic: topic, Payload: payload})
	return nil
}

// PublishDevice implements Client.
func (m *MockClient) PublishDevice(ctx context.Context, event string, dev *datastore.CanonicalDevice) error {
	msg := newDeviceMessage("test-node", event, dev, time.Now())
	payload, err := json.Marshal(&msg)
	if err != nil {
		return err
	}
	return m.Publish(ctx, "radiowatch/devices/"+event, string(payload))
}

// IsConnected implements Client.
func (m *MockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Disconnect implements Client.
func (m *MockClient) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// Messages returns a copy of everything published so far.
func (m *MockClient) Messages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockMessage(nil), m.messages...)
}
