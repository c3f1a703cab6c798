// Package firebase initializes the shared Firebase service clients.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
)

// Config holds Firebase initialization settings.
type Config struct {
	ProjectID string
}

// Clients bundles the Firebase services the server uses: Auth verifies ID
// tokens, Firestore stores profiles, Messaging delivers push notifications.
// Messaging is nil when running against the emulators.
type Clients struct {
	Auth      *fbauth.Client
	Firestore *firestore.Client
	Messaging *messaging.Client
}

// InitializeClients creates the Firebase app and its service clients.
// Emulator hosts are picked up from the standard environment variables
// (FIREBASE_AUTH_EMULATOR_HOST, FIRESTORE_EMULATOR_HOST). FCM has no
// emulator and needs real credentials, so the Messaging client is skipped
// in emulator mode.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("create auth client: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	clients := &Clients{
		Auth:      authClient,
		Firestore: firestoreClient,
	}

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		messagingClient, err := app.Messaging(ctx)
		if err != nil {
			_ = firestoreClient.Close()
			return nil, fmt.Errorf("create messaging client: %w", err)
		}
		clients.Messaging = messagingClient
	}

	return clients, nil
}

// Close releases the underlying connections. Only Firestore holds one.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
