// Package auth verifies Firebase ID tokens and exposes the authenticated
// user to handlers through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// Verification errors. Handlers and middleware match on these with
// errors.Is; the underlying SDK error is preserved in the wrap.
var (
	ErrNoToken          = errors.New("no bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUserDisabled     = errors.New("user disabled")
	ErrCertificateFetch = errors.New("certificate fetch failed")
)

// Verifier validates a raw ID token and returns the authenticated user.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*FirebaseUser, error)
}

// FirebaseUser is the authenticated identity attached to a request.
type FirebaseUser struct {
	UID   string
	Email string
}

// FirebaseVerifier verifies tokens against Firebase Auth, including the
// revocation and disabled-user checks.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier wraps a Firebase Auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify checks the token signature, expiry, revocation, and account state.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*FirebaseUser, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, categorizeVerifyError(err)
	}

	user := &FirebaseUser{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		user.Email = email
	}

	return user, nil
}

// categorizeVerifyError maps SDK errors onto the package sentinels so
// callers never depend on SDK error types directly.
func categorizeVerifyError(err error) error {
	switch {
	case fbauth.IsIDTokenExpired(err):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case fbauth.IsIDTokenRevoked(err):
		return fmt.Errorf("%w: %v", ErrTokenRevoked, err)
	case fbauth.IsUserDisabled(err):
		return fmt.Errorf("%w: %v", ErrUserDisabled, err)
	case fbauth.IsCertificateFetchFailed(err):
		return fmt.Errorf("%w: %v", ErrCertificateFetch, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// ExtractBearerToken pulls the token out of an Authorization header.
// The scheme match is case-insensitive per RFC 9110.
func ExtractBearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

var _ Verifier = (*FirebaseVerifier)(nil)
