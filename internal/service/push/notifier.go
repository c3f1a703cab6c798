// Package push delivers best-effort notifications to user devices.
// Delivery failures are reported to the caller for logging but must
// never fail the triggering request.
package push

import (
	"context"
	"errors"
)

// ErrNoToken indicates the recipient has no registered device token.
var ErrNoToken = errors.New("no device token")

// ErrUnregistered indicates the device token is no longer valid and
// should be cleared from the recipient's profile.
var ErrUnregistered = errors.New("device token unregistered")

// Notification is the payload delivered to a device.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier sends a notification to a single device token.
type Notifier interface {
	Send(ctx context.Context, token string, n Notification) error
}

// NoopNotifier discards all notifications. It stands in for FCM when no
// messaging client is available, e.g. when running against emulators.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string, Notification) error { return nil }

var _ Notifier = NoopNotifier{}
