package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMNotifier implements Notifier on Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCMNotifier creates an FCM-backed notifier.
func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{client: client}
}

func (f *FCMNotifier) Send(ctx context.Context, token string, n Notification) error {
	if token == "" {
		return ErrNoToken
	}

	if _, err := f.client.Send(ctx, buildMessage(token, n)); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("%w: %v", ErrUnregistered, err)
		}
		return fmt.Errorf("send push: %w", err)
	}

	return nil
}

func buildMessage(token string, n Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
}

var _ Notifier = (*FCMNotifier)(nil)
