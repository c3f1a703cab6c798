// Package profile stores dating profiles and runs the timezone and quota
// policy engines against them on every read.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

// Service errors
var (
	ErrNotFound       = errors.New("profile not found")
	ErrAlreadyExists  = errors.New("profile already exists")
	ErrQuotaExhausted = errors.New("daily message quota exhausted")
)

// Profile represents stored profile data, including the timezone change
// history and the daily message allowance the policy engines operate on.
// Zero timestamps mean "never".
type Profile struct {
	ID          string
	DisplayName string
	Bio         string
	Birthdate   string
	Gender      string
	LookingFor  string
	City        string
	FCMToken    string

	TimezoneOffset       int
	TimezoneChangeDate   time.Time
	TimezoneTotalChanges int
	TimezoneDailyChanges int

	DailyMessageRemaining int
	DailyMessageResetDate time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams for creating a profile. TimezoneOffset arrives normalized
// to integer minutes by the API layer.
type CreateParams struct {
	DisplayName    string
	Bio            string
	Birthdate      string
	Gender         string
	LookingFor     string
	City           string
	FCMToken       string
	TimezoneOffset int
}

// UpdateParams for updating basic profile fields. Nil means unchanged.
// Timezone changes never go through Update; they are screened by Sync.
type UpdateParams struct {
	DisplayName *string
	Bio         *string
	Gender      *string
	LookingFor  *string
	City        *string
	FCMToken    *string
}

// SyncParams carries the client claims evaluated on a profile read.
type SyncParams struct {
	// RequestedOffset is the client-claimed UTC offset in minutes, nil
	// when the request does not claim one.
	RequestedOffset *int
}

// SyncResult is the merged view after the policy engines ran: the profile
// as persisted plus the full decision diagnostics.
type SyncResult struct {
	Profile  *Profile
	Timezone timezone.Decision
	Quota    quota.ResetDecision
}

// SpendResult reports the outcome of spending one message.
type SpendResult struct {
	// Remaining is the allowance left after the spend attempt.
	Remaining int

	// Quota is the reset evaluation that preceded the spend.
	Quota quota.ResetDecision
}

// Service defines profile operations.
//
// Implementations must normalize input data:
//   - DisplayName, Gender, LookingFor, City: trim whitespace
//   - Bio: trim whitespace
//
// Sync and SpendMessage evaluate the reset engine before touching the
// allowance, and persist their updates atomically per profile so two
// racing requests cannot both observe pre-reset state and double-grant.
type Service interface {
	Create(ctx context.Context, userID string, params CreateParams) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error)
	Delete(ctx context.Context, userID string) error

	// List returns all profiles in a stable order for cursor pagination.
	List(ctx context.Context) ([]*Profile, error)

	// Sync screens a claimed timezone change, rolls the daily allowance
	// over if due, persists whatever changed, and returns the merged
	// view. This runs on every profile read.
	Sync(ctx context.Context, userID string, params SyncParams) (*SyncResult, error)

	// SpendMessage decrements the allowance by one after a fresh reset
	// evaluation. When the allowance is exhausted it returns the
	// evaluation result together with ErrQuotaExhausted so callers can
	// tell clients when to retry.
	SpendMessage(ctx context.Context, userID string) (*SpendResult, error)
}
