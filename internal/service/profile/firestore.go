package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amora-app/backend/internal/platform/clock"
	applog "github.com/amora-app/backend/internal/platform/logging"
	"github.com/amora-app/backend/internal/platform/timeutil"
	"github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

const profilesCollection = "profiles"

// profileDoc is the Firestore document layout. Nullable timestamps are
// pointers so "never" round-trips as a Firestore null.
type profileDoc struct {
	DisplayName string `firestore:"displayName"`
	Bio         string `firestore:"bio"`
	Birthdate   string `firestore:"birthdate"`
	Gender      string `firestore:"gender"`
	LookingFor  string `firestore:"lookingFor"`
	City        string `firestore:"city"`
	FCMToken    string `firestore:"fcmToken"`

	TimezoneOffset       int        `firestore:"timezoneOffset"`
	TimezoneChangeDate   *time.Time `firestore:"timezoneChangeDate"`
	TimezoneTotalChanges int        `firestore:"timezoneTotalChanges"`
	TimezoneDailyChanges int        `firestore:"timezoneDailyChanges"`

	DailyMessageRemaining int        `firestore:"dailyMessageRemaining"`
	DailyMessageResetDate *time.Time `firestore:"dailyMessageResetDate"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d *profileDoc) toProfile(id string) *Profile {
	p := &Profile{
		ID:                    id,
		DisplayName:           d.DisplayName,
		Bio:                   d.Bio,
		Birthdate:             d.Birthdate,
		Gender:                d.Gender,
		LookingFor:            d.LookingFor,
		City:                  d.City,
		FCMToken:              d.FCMToken,
		TimezoneOffset:        d.TimezoneOffset,
		TimezoneTotalChanges:  d.TimezoneTotalChanges,
		TimezoneDailyChanges:  d.TimezoneDailyChanges,
		DailyMessageRemaining: d.DailyMessageRemaining,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	if d.TimezoneChangeDate != nil {
		p.TimezoneChangeDate = d.TimezoneChangeDate.UTC()
	}
	if d.DailyMessageResetDate != nil {
		p.DailyMessageResetDate = d.DailyMessageResetDate.UTC()
	}
	return p
}

func fromProfile(p *Profile) profileDoc {
	d := profileDoc{
		DisplayName:           p.DisplayName,
		Bio:                   p.Bio,
		Birthdate:             p.Birthdate,
		Gender:                p.Gender,
		LookingFor:            p.LookingFor,
		City:                  p.City,
		FCMToken:              p.FCMToken,
		TimezoneOffset:        p.TimezoneOffset,
		TimezoneTotalChanges:  p.TimezoneTotalChanges,
		TimezoneDailyChanges:  p.TimezoneDailyChanges,
		DailyMessageRemaining: p.DailyMessageRemaining,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if !p.TimezoneChangeDate.IsZero() {
		t := p.TimezoneChangeDate
		d.TimezoneChangeDate = &t
	}
	if !p.DailyMessageResetDate.IsZero() {
		t := p.DailyMessageResetDate
		d.DailyMessageResetDate = &t
	}
	return d
}

// FirestoreStore implements Service backed by Firestore. Sync and
// SpendMessage run inside Firestore transactions, which retry on
// contention, so two racing requests cannot both observe the pre-reset
// state and double-grant the allowance.
type FirestoreStore struct {
	client *firestore.Client
	guard  timezone.Guard
	engine quota.Engine
	clock  clock.Clock
}

// NewFirestoreStore creates a Firestore-backed profile service.
func NewFirestoreStore(client *firestore.Client, guard timezone.Guard, engine quota.Engine, clk clock.Clock) *FirestoreStore {
	return &FirestoreStore{client: client, guard: guard, engine: engine, clock: clk}
}

func (s *FirestoreStore) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(profilesCollection).Doc(userID)
}

func (s *FirestoreStore) Create(ctx context.Context, userID string, params CreateParams) (*Profile, error) {
	now := s.clock.Now()
	p := &Profile{
		ID:                    userID,
		DisplayName:           strings.TrimSpace(params.DisplayName),
		Bio:                   strings.TrimSpace(params.Bio),
		Birthdate:             params.Birthdate,
		Gender:                strings.TrimSpace(params.Gender),
		LookingFor:            strings.TrimSpace(params.LookingFor),
		City:                  strings.TrimSpace(params.City),
		FCMToken:              strings.TrimSpace(params.FCMToken),
		TimezoneOffset:        params.TimezoneOffset,
		DailyMessageRemaining: s.engine.Limit(),
		DailyMessageResetDate: now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if _, err := s.doc(userID).Create(ctx, fromProfile(p)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return p, nil
}

func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Profile, error) {
	snap, err := s.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return d.toProfile(userID), nil
}

func (s *FirestoreStore) Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error) {
	ref := s.doc(userID)
	var result *Profile

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get profile: %w", err)
		}

		var d profileDoc
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		p := d.toProfile(userID)

		applyUpdate(p, params)
		p.UpdatedAt = s.clock.Now()

		result = p
		return tx.Set(ref, fromProfile(p))
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func applyUpdate(p *Profile, params UpdateParams) {
	if params.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*params.DisplayName)
	}
	if params.Bio != nil {
		p.Bio = strings.TrimSpace(*params.Bio)
	}
	if params.Gender != nil {
		p.Gender = strings.TrimSpace(*params.Gender)
	}
	if params.LookingFor != nil {
		p.LookingFor = strings.TrimSpace(*params.LookingFor)
	}
	if params.City != nil {
		p.City = strings.TrimSpace(*params.City)
	}
	if params.FCMToken != nil {
		p.FCMToken = strings.TrimSpace(*params.FCMToken)
	}
}

func (s *FirestoreStore) Delete(ctx context.Context, userID string) error {
	ref := s.doc(userID)

	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get profile: %w", err)
		}
		return tx.Delete(ref)
	})
}

func (s *FirestoreStore) List(ctx context.Context) ([]*Profile, error) {
	snaps, err := s.client.Collection(profilesCollection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]*Profile, 0, len(snaps))
	for _, snap := range snaps {
		var d profileDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", snap.Ref.ID, err)
		}
		profiles = append(profiles, d.toProfile(snap.Ref.ID))
	}

	return profiles, nil
}

func (s *FirestoreStore) Sync(ctx context.Context, userID string, params SyncParams) (*SyncResult, error) {
	ref := s.doc(userID)
	var result *SyncResult

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get profile: %w", err)
		}

		var d profileDoc
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		p := d.toProfile(userID)

		now := s.clock.Now()
		tzDecision, resetDecision, dirty := evaluateSync(s.guard, s.engine, p, params.RequestedOffset, now)

		if dirty {
			p.UpdatedAt = now
			if err := tx.Set(ref, fromProfile(p)); err != nil {
				return fmt.Errorf("persist profile: %w", err)
			}
		}

		result = &SyncResult{Profile: p, Timezone: tzDecision, Quota: resetDecision}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			applog.LogError(ctx, "profile sync transaction failed", err,
				slog.String("category", categorizeError(err)),
				slog.String("user_id", userID))
		}
		return nil, err
	}

	return result, nil
}

// evaluateSync runs both policy engines against a profile and mutates it
// in place with whatever they accepted. The reset evaluation always uses
// the offset that survived the timezone screen.
func evaluateSync(guard timezone.Guard, engine quota.Engine, p *Profile, requestedOffset *int, now time.Time) (timezone.Decision, quota.ResetDecision, bool) {
	tzDecision := guard.Evaluate(timezone.Request{
		CurrentOffset:   p.TimezoneOffset,
		RequestedOffset: requestedOffset,
		LastChangeAt:    p.TimezoneChangeDate,
		DailyChanges:    p.TimezoneDailyChanges,
		Now:             now,
	})

	dirty := false
	if tzDecision.Changed {
		// The daily counter survives within one local day of the
		// offset that was current when the previous change landed.
		if timeutil.SameLocalDay(p.TimezoneChangeDate, now, p.TimezoneOffset) {
			p.TimezoneDailyChanges++
		} else {
			p.TimezoneDailyChanges = 1
		}
		p.TimezoneOffset = tzDecision.AcceptedOffset
		p.TimezoneChangeDate = now
		p.TimezoneTotalChanges++
		dirty = true
	}

	resetDecision := engine.Evaluate(quota.Request{
		OffsetMinutes:    tzDecision.AcceptedOffset,
		LastResetAt:      p.DailyMessageResetDate,
		CurrentRemaining: p.DailyMessageRemaining,
		Now:              now,
	})

	if resetDecision.ShouldReset {
		p.DailyMessageRemaining = resetDecision.NewRemaining
		p.DailyMessageResetDate = now
		dirty = true
	} else if p.DailyMessageRemaining != resetDecision.NewRemaining {
		// Stored value drifted outside [0, limit], e.g. after a
		// config change; repair it.
		p.DailyMessageRemaining = resetDecision.NewRemaining
		dirty = true
	}

	return tzDecision, resetDecision, dirty
}

func (s *FirestoreStore) SpendMessage(ctx context.Context, userID string) (*SpendResult, error) {
	ref := s.doc(userID)
	var result *SpendResult

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get profile: %w", err)
		}

		var d profileDoc
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		p := d.toProfile(userID)

		now := s.clock.Now()

		// Reset evaluation strictly precedes the spend so a message is
		// never taken from a stale pre-reset count.
		reset := s.engine.Evaluate(quota.Request{
			OffsetMinutes:    p.TimezoneOffset,
			LastResetAt:      p.DailyMessageResetDate,
			CurrentRemaining: p.DailyMessageRemaining,
			Now:              now,
		})

		if reset.NewRemaining < 1 {
			result = &SpendResult{Remaining: reset.NewRemaining, Quota: reset}
			return ErrQuotaExhausted
		}

		p.DailyMessageRemaining = reset.NewRemaining - 1
		if reset.ShouldReset {
			p.DailyMessageResetDate = now
		}
		p.UpdatedAt = now

		if err := tx.Set(ref, fromProfile(p)); err != nil {
			return fmt.Errorf("persist profile: %w", err)
		}

		result = &SpendResult{Remaining: p.DailyMessageRemaining, Quota: reset}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			return result, err
		}
		if !errors.Is(err, ErrNotFound) {
			applog.LogError(ctx, "spend transaction failed", err,
				slog.String("category", categorizeError(err)),
				slog.String("user_id", userID))
		}
		return nil, err
	}

	return result, nil
}

// categorizeError returns a safe category string for logging.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

var _ Service = (*FirestoreStore)(nil)
