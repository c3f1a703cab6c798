package profile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/amora-app/backend/internal/platform/clock"
	"github.com/amora-app/backend/internal/service/quota"
	"github.com/amora-app/backend/internal/service/timezone"
)

// MockStore implements Service with in-memory storage for testing. It runs
// the same policy engines as the Firestore store so handler tests exercise
// real decisions.
type MockStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	guard    timezone.Guard
	engine   quota.Engine
	clock    clock.Clock
}

// NewMockStore creates a new in-memory profile store.
func NewMockStore(guard timezone.Guard, engine quota.Engine, clk clock.Clock) *MockStore {
	return &MockStore{
		profiles: make(map[string]*Profile),
		guard:    guard,
		engine:   engine,
		clock:    clk,
	}
}

func (m *MockStore) Create(_ context.Context, userID string, params CreateParams) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[userID]; exists {
		return nil, ErrAlreadyExists
	}

	now := m.clock.Now()
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
		DailyMessageRemaining: m.engine.Limit(),
		DailyMessageResetDate: now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	m.profiles[userID] = p

	return p, nil
}

func (m *MockStore) Get(_ context.Context, userID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return p, nil
}

func (m *MockStore) Update(_ context.Context, userID string, params UpdateParams) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	applyUpdate(p, params)
	p.UpdatedAt = m.clock.Now()

	return p, nil
}

func (m *MockStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[userID]; !ok {
		return ErrNotFound
	}

	delete(m.profiles, userID)

	return nil
}

func (m *MockStore) List(_ context.Context) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		profiles = append(profiles, m.profiles[id])
	}

	return profiles, nil
}

func (m *MockStore) Sync(_ context.Context, userID string, params SyncParams) (*SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	now := m.clock.Now()
	tzDecision, resetDecision, dirty := evaluateSync(m.guard, m.engine, p, params.RequestedOffset, now)
	if dirty {
		p.UpdatedAt = now
	}

	return &SyncResult{Profile: p, Timezone: tzDecision, Quota: resetDecision}, nil
}

func (m *MockStore) SpendMessage(_ context.Context, userID string) (*SpendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}

	now := m.clock.Now()
	reset := m.engine.Evaluate(quota.Request{
		OffsetMinutes:    p.TimezoneOffset,
		LastResetAt:      p.DailyMessageResetDate,
		CurrentRemaining: p.DailyMessageRemaining,
		Now:              now,
	})

	if reset.NewRemaining < 1 {
		return &SpendResult{Remaining: reset.NewRemaining, Quota: reset}, ErrQuotaExhausted
	}

	p.DailyMessageRemaining = reset.NewRemaining - 1
	if reset.ShouldReset {
		p.DailyMessageResetDate = now
	}
	p.UpdatedAt = now

	return &SpendResult{Remaining: p.DailyMessageRemaining, Quota: reset}, nil
}

var _ Service = (*MockStore)(nil)
