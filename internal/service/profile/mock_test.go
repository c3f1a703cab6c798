package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

// stepClock is a settable clock for multi-step scenarios.
type stepClock struct {
	at time.Time
}

func (c *stepClock) Now() time.Time { return c.at }

func testGuard() timezone.Guard {
	return timezone.NewGuard(timezone.Config{
		MinOffsetMinutes: -720,
		MaxOffsetMinutes: 840,
		SuspiciousJump:   12 * time.Hour,
		ChangeCooldown:   18 * time.Hour,
		MaxDailyChanges:  2,
	})
}

func testEngine() quota.Engine {
	return quota.NewEngine(quota.Config{
		DailyMessageLimit: 3,
		ResetCooldown:     18 * time.Hour,
	})
}

func newMockStore(at time.Time) (*MockStore, *stepClock) {
	clk := &stepClock{at: at}
	return NewMockStore(testGuard(), testEngine(), clk), clk
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestMockStore_CreateSeedsAllowance(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	store, _ := newMockStore(now)
	ctx := context.Background()

	p, err := store.Create(ctx, "user-1", CreateParams{
		DisplayName:    "  Maija  ",
		Bio:            " Hiking and coffee. ",
		Birthdate:      "1994-06-15",
		Gender:         "female",
		LookingFor:     "male",
		City:           " Helsinki ",
		TimezoneOffset: 180,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if p.DisplayName != "Maija" {
		t.Fatalf("expected trimmed display name, got %q", p.DisplayName)
	}
	if p.City != "Helsinki" {
		t.Fatalf("expected trimmed city, got %q", p.City)
	}
	if p.TimezoneOffset != 180 {
		t.Fatalf("expected offset 180, got %d", p.TimezoneOffset)
	}
	if p.DailyMessageRemaining != 3 {
		t.Fatalf("expected full allowance 3, got %d", p.DailyMessageRemaining)
	}
	if !p.DailyMessageResetDate.Equal(now) {
		t.Fatalf("expected reset date %v, got %v", now, p.DailyMessageResetDate)
	}
	if !p.TimezoneChangeDate.IsZero() {
		t.Fatal("expected no timezone change history on create")
	}
}

func TestMockStore_DuplicateCreate(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	params := CreateParams{DisplayName: "A", Birthdate: "1990-01-01", Gender: "male", LookingFor: "female"}
	if _, err := store.Create(ctx, "user-dup", params); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := store.Create(ctx, "user-dup", params)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMockStore_GetNotFound(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	_, err := store.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockStore_UpdatePartialFields(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := store.Create(ctx, "user-3", CreateParams{
		DisplayName: "Bob",
		Bio:         "Old bio",
		City:        "Tampere",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := store.Update(ctx, "user-3", UpdateParams{
		Bio: strPtr("  New bio  "),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Bio != "New bio" {
		t.Fatalf("expected trimmed new bio, got %q", updated.Bio)
	}
	if updated.DisplayName != "Bob" {
		t.Fatalf("expected display name unchanged, got %q", updated.DisplayName)
	}
	if updated.City != "Tampere" {
		t.Fatalf("expected city unchanged, got %q", updated.City)
	}
}

func TestMockStore_UpdateNotFound(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	_, err := store.Update(context.Background(), "nonexistent", UpdateParams{DisplayName: strPtr("Jane")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockStore_DeleteNotFound(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	err := store.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockStore_ListOrderedByID(t *testing.T) {
	store, _ := newMockStore(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, id := range []string{"charlie", "alice", "bob"} {
		if _, err := store.Create(ctx, id, CreateParams{DisplayName: id}); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}

	profiles, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
	want := []string{"alice", "bob", "charlie"}
	for i, p := range profiles {
		if p.ID != want[i] {
			t.Fatalf("expected profiles[%d] = %q, got %q", i, want[i], p.ID)
		}
	}
}

func TestMockStore_SyncNoChangeSameDay(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	clk.at = created.Add(4 * time.Hour)
	res, err := store.Sync(ctx, "u", SyncParams{})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if res.Timezone.Evaluated {
		t.Error("expected no timezone evaluation without a claim")
	}
	if res.Quota.ShouldReset {
		t.Error("expected no reset on the same local day")
	}
	if res.Profile.DailyMessageRemaining != 3 {
		t.Errorf("remaining = %d, want 3", res.Profile.DailyMessageRemaining)
	}
	wantNext := time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC)
	if !res.Quota.NextResetAt.Equal(wantNext) {
		t.Errorf("NextResetAt = %v, want %v", res.Quota.NextResetAt, wantNext)
	}
}

func TestMockStore_SyncAcceptsTimezoneChange(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	now := created.Add(20 * time.Hour)
	clk.at = now
	res, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(120)})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if !res.Timezone.Changed {
		t.Fatalf("expected change accepted, got %+v", res.Timezone)
	}
	if res.Profile.TimezoneOffset != 120 {
		t.Errorf("offset = %d, want 120", res.Profile.TimezoneOffset)
	}
	if !res.Profile.TimezoneChangeDate.Equal(now) {
		t.Errorf("change date = %v, want %v", res.Profile.TimezoneChangeDate, now)
	}
	if res.Profile.TimezoneTotalChanges != 1 {
		t.Errorf("total changes = %d, want 1", res.Profile.TimezoneTotalChanges)
	}
	if res.Profile.TimezoneDailyChanges != 1 {
		t.Errorf("daily changes = %d, want 1", res.Profile.TimezoneDailyChanges)
	}
}

func TestMockStore_SyncRejectsFrequentChange(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	clk.at = created.Add(20 * time.Hour)
	if _, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(120)}); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	// Second change two hours later: inside the cooldown.
	clk.at = clk.at.Add(2 * time.Hour)
	res, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(60)})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if res.Timezone.Changed {
		t.Fatal("expected change rejected")
	}
	if !res.Timezone.TooFrequent {
		t.Errorf("expected TooFrequent, got %+v", res.Timezone)
	}
	if got := res.Timezone.DenialReason(); got != timezone.ReasonTooFrequent {
		t.Errorf("DenialReason = %q, want %q", got, timezone.ReasonTooFrequent)
	}
	if res.Profile.TimezoneOffset != 120 {
		t.Errorf("offset = %d, want unchanged 120", res.Profile.TimezoneOffset)
	}
	if res.Profile.TimezoneTotalChanges != 1 {
		t.Errorf("total changes = %d, want unchanged 1", res.Profile.TimezoneTotalChanges)
	}
}

func TestMockStore_SyncRejectsSuspiciousJump(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	clk.at = created.Add(20 * time.Hour)
	res, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(780)})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if res.Timezone.Changed {
		t.Fatal("expected change rejected")
	}
	if !res.Timezone.SuspiciousJump {
		t.Errorf("expected SuspiciousJump, got %+v", res.Timezone)
	}
	if res.Profile.TimezoneOffset != 0 {
		t.Errorf("offset = %d, want unchanged 0", res.Profile.TimezoneOffset)
	}
}

func TestMockStore_SyncDailyCap(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	p, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Two changes already accepted early this local day, the last one
	// long enough ago that the cooldown does not mask the cap.
	p.TimezoneOffset = 120
	p.TimezoneChangeDate = time.Date(2024, 3, 20, 2, 0, 0, 0, time.UTC)
	p.TimezoneDailyChanges = 2

	clk.at = time.Date(2024, 3, 20, 21, 0, 0, 0, time.UTC)
	res, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(60)})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if res.Timezone.Changed {
		t.Fatal("expected change rejected")
	}
	if !res.Timezone.DailyCapExceeded {
		t.Errorf("expected DailyCapExceeded, got %+v", res.Timezone)
	}
}

func TestMockStore_SyncGrantsResetOnNewDay(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Spend everything today.
	for range 3 {
		if _, err := store.SpendMessage(ctx, "u"); err != nil {
			t.Fatalf("spend failed: %v", err)
		}
	}

	// Next day, past the cooldown.
	now := time.Date(2024, 3, 21, 8, 0, 0, 0, time.UTC)
	clk.at = now
	res, err := store.Sync(ctx, "u", SyncParams{})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if !res.Quota.ShouldReset {
		t.Fatalf("expected reset granted, got %+v", res.Quota)
	}
	if res.Profile.DailyMessageRemaining != 3 {
		t.Errorf("remaining = %d, want 3", res.Profile.DailyMessageRemaining)
	}
	if !res.Profile.DailyMessageResetDate.Equal(now) {
		t.Errorf("reset date = %v, want %v", res.Profile.DailyMessageResetDate, now)
	}

	// Running sync again the same day must not re-grant.
	again, err := store.Sync(ctx, "u", SyncParams{})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if again.Quota.ShouldReset {
		t.Error("expected no second grant the same local day")
	}
}

func TestMockStore_SyncWithholdsResetInsideCooldown(t *testing.T) {
	created := time.Date(2024, 3, 20, 23, 50, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.SpendMessage(ctx, "u"); err != nil {
		t.Fatalf("spend failed: %v", err)
	}

	// Twenty minutes later the local day has rolled over, but the
	// cooldown since the seeded grant has not elapsed.
	clk.at = time.Date(2024, 3, 21, 0, 10, 0, 0, time.UTC)
	res, err := store.Sync(ctx, "u", SyncParams{})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if res.Quota.ShouldReset {
		t.Fatal("expected grant withheld inside cooldown")
	}
	if !res.Quota.ResetNeeded || !res.Quota.ResetTooSoon {
		t.Errorf("expected needed+tooSoon, got %+v", res.Quota)
	}
	if res.Profile.DailyMessageRemaining != 2 {
		t.Errorf("remaining = %d, want unchanged 2", res.Profile.DailyMessageRemaining)
	}
}

func TestMockStore_SpendMessageUntilExhausted(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, _ := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for want := 2; want >= 0; want-- {
		res, err := store.SpendMessage(ctx, "u")
		if err != nil {
			t.Fatalf("spend failed: %v", err)
		}
		if res.Remaining != want {
			t.Fatalf("remaining = %d, want %d", res.Remaining, want)
		}
	}

	res, err := store.SpendMessage(ctx, "u")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if res == nil {
		t.Fatal("expected result alongside ErrQuotaExhausted")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
	if res.Quota.NextGrantAt.IsZero() {
		t.Error("expected NextGrantAt for retry information")
	}
}

func TestMockStore_SpendMessageResetsFirst(t *testing.T) {
	created := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for range 3 {
		if _, err := store.SpendMessage(ctx, "u"); err != nil {
			t.Fatalf("spend failed: %v", err)
		}
	}

	// Next day the spend itself applies the rollover before
	// decrementing: 3 fresh messages minus the one spent.
	now := time.Date(2024, 3, 21, 8, 0, 0, 0, time.UTC)
	clk.at = now
	res, err := store.SpendMessage(ctx, "u")
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}

	if !res.Quota.ShouldReset {
		t.Fatalf("expected rollover before spend, got %+v", res.Quota)
	}
	if res.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", res.Remaining)
	}

	p, err := store.Get(ctx, "u")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !p.DailyMessageResetDate.Equal(now) {
		t.Errorf("reset date = %v, want %v", p.DailyMessageResetDate, now)
	}
}

func TestMockStore_TimezoneFlipDoesNotFarmQuota(t *testing.T) {
	created := time.Date(2024, 3, 20, 0, 30, 0, 0, time.UTC)
	store, clk := newMockStore(created)
	ctx := context.Background()

	if _, err := store.Create(ctx, "u", CreateParams{DisplayName: "U", TimezoneOffset: 0}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for range 3 {
		if _, err := store.SpendMessage(ctx, "u"); err != nil {
			t.Fatalf("spend failed: %v", err)
		}
	}

	// Fourteen hours later the user claims UTC+10, where local midnight
	// has indeed passed. The change itself is legitimate, but the reset
	// cooldown still blocks the grant.
	clk.at = created.Add(14 * time.Hour)
	res, err := store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(600)})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !res.Timezone.Changed {
		t.Fatalf("expected change accepted, got %+v", res.Timezone)
	}
	if !res.Quota.ResetNeeded {
		t.Fatalf("expected day rollover in the claimed zone, got %+v", res.Quota)
	}
	if res.Quota.ShouldReset {
		t.Fatal("expected no grant inside cooldown")
	}
	if res.Profile.DailyMessageRemaining != 0 {
		t.Fatalf("remaining = %d, want 0 (no farmed grant)", res.Profile.DailyMessageRemaining)
	}

	// Flipping again right away is blocked by the change cooldown.
	clk.at = clk.at.Add(time.Hour)
	res, err = store.Sync(ctx, "u", SyncParams{RequestedOffset: intPtr(-300)})
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if res.Timezone.Changed {
		t.Fatal("expected second flip rejected")
	}
	if !res.Timezone.TooFrequent {
		t.Errorf("expected TooFrequent, got %+v", res.Timezone)
	}
}
