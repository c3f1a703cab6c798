package push

import (
	"context"
	"sync"
)

// Sent records one delivered notification for test assertions.
type Sent struct {
	Token        string
	Notification Notification
}

// MockNotifier implements Notifier in memory for testing.
type MockNotifier struct {
	mu   sync.Mutex
	sent []Sent

	// Err, when set, is returned from every Send.
	Err error
}

// NewMockNotifier creates an in-memory notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(_ context.Context, token string, n Notification) error {
	if m.Err != nil {
		return m.Err
	}
	if token == "" {
		return ErrNoToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{Token: token, Notification: n})

	return nil
}

// SentMessages returns a copy of everything delivered so far.
func (m *MockNotifier) SentMessages() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Sent, len(m.sent))
	copy(out, m.sent)

	return out
}

var _ Notifier = (*MockNotifier)(nil)
