package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SettingsPersistence loads and saves a user's notification settings.
type SettingsPersistence interface {
	LoadSettings(ctx context.Context, userID uuid.UUID) (Settings, error)
	SaveSettings(ctx context.Context, userID uuid.UUID, s Settings) error
}

// SettingsStore holds the current settings value and tells subscribers
// when it changes, so updates apply immediately everywhere without a
// shared mutable global.
type SettingsStore struct {
	persistence SettingsPersistence
	userID      uuid.UUID

	mu      sync.Mutex
	current Settings
	subs    []func(Settings)
}

// NewSettingsStore loads the user's settings, falling back to defaults
// when nothing is persisted yet.
func NewSettingsStore(ctx context.Context, p SettingsPersistence, userID uuid.UUID) (*SettingsStore, error) {
	current := DefaultSettings()
	if p != nil {
		loaded, err := p.LoadSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
		current = loaded
	}
	return &SettingsStore{persistence: p, userID: userID, current: current}, nil
}

// Current returns the settings value by copy.
func (s *SettingsStore) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Update persists the new value first, then applies it and notifies
// subscribers. A failed save leaves the old value in effect.
func (s *SettingsStore) Update(ctx context.Context, next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if s.persistence != nil {
		if err := s.persistence.SaveSettings(ctx, s.userID, next); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.current = next.clone()
	subs := append([]func(Settings){}, s.subs...)
	value := s.current.clone()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
	return nil
}

// Replace applies a value that was validated and persisted elsewhere,
// notifying subscribers without writing it back.
func (s *SettingsStore) Replace(next Settings) {
	s.mu.Lock()
	s.current = next.clone()
	subs := append([]func(Settings){}, s.subs...)
	value := s.current.clone()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

// Subscribe registers a change callback, invoked after every Update.
func (s *SettingsStore) Subscribe(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// IsMuted reports whether a room is muted in the current settings.
func (s *SettingsStore) IsMuted(roomID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.MutedRooms[roomID]
}

func (v Settings) clone() Settings {
	out := v
	out.MutedRooms = make(map[uuid.UUID]bool, len(v.MutedRooms))
	for id, muted := range v.MutedRooms {
		out.MutedRooms[id] = muted
	}
	return out
}
