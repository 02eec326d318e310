package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakePersistence struct {
	stored   map[uuid.UUID]Settings
	saveFail error
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{stored: make(map[uuid.UUID]Settings)}
}

func (p *fakePersistence) LoadSettings(_ context.Context, userID uuid.UUID) (Settings, error) {
	if s, ok := p.stored[userID]; ok {
		return s, nil
	}
	return DefaultSettings(), nil
}

func (p *fakePersistence) SaveSettings(_ context.Context, userID uuid.UUID, s Settings) error {
	if p.saveFail != nil {
		return p.saveFail
	}
	p.stored[userID] = s
	return nil
}

func TestSettingsStoreLoadsPersisted(t *testing.T) {
	userID := uuid.New()
	p := newFakePersistence()
	saved := DefaultSettings()
	saved.Mode = ModeMentions
	p.stored[userID] = saved

	store, err := NewSettingsStore(context.Background(), p, userID)
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}
	if got := store.Current(); got.Mode != ModeMentions {
		t.Errorf("Current().Mode = %q, want mentions", got.Mode)
	}
}

func TestSettingsStoreUpdatePersistsFirst(t *testing.T) {
	userID := uuid.New()
	p := newFakePersistence()
	store, err := NewSettingsStore(context.Background(), p, userID)
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}

	var notified []Settings
	store.Subscribe(func(s Settings) { notified = append(notified, s) })

	next := DefaultSettings()
	next.Mode = ModeDND
	if err := store.Update(context.Background(), next); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if p.stored[userID].Mode != ModeDND {
		t.Error("update not persisted")
	}
	if store.Current().Mode != ModeDND {
		t.Error("update not applied")
	}
	if len(notified) != 1 || notified[0].Mode != ModeDND {
		t.Errorf("subscriber saw %+v", notified)
	}
}

func TestSettingsStoreFailedSaveKeepsOldValue(t *testing.T) {
	userID := uuid.New()
	p := newFakePersistence()
	store, err := NewSettingsStore(context.Background(), p, userID)
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}

	notified := 0
	store.Subscribe(func(Settings) { notified++ })

	p.saveFail = errors.New("db down")
	next := DefaultSettings()
	next.Mode = ModeDND
	if err := store.Update(context.Background(), next); err == nil {
		t.Fatal("expected save error")
	}

	if store.Current().Mode != ModeAll {
		t.Error("failed save changed the current value")
	}
	if notified != 0 {
		t.Error("failed save notified subscribers")
	}
}

func TestSettingsStoreMutedRoomsIsolated(t *testing.T) {
	store, err := NewSettingsStore(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}
	roomID := uuid.New()

	// Mutating the returned copy must not leak into the store.
	store.Current().MutedRooms[roomID] = true
	if store.IsMuted(roomID) {
		t.Error("copy mutation leaked into the store")
	}

	next := store.Current()
	next.MutedRooms[roomID] = true
	if err := store.Update(context.Background(), next); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !store.IsMuted(roomID) {
		t.Error("mute not applied")
	}
}

func TestSettingsStoreReplaceSkipsPersistence(t *testing.T) {
	userID := uuid.New()
	p := newFakePersistence()
	store, err := NewSettingsStore(context.Background(), p, userID)
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}

	var notified []Settings
	store.Subscribe(func(s Settings) { notified = append(notified, s) })

	// Replace takes values persisted elsewhere; rejecting saves catches
	// an accidental write-back loop.
	p.saveFail = errors.New("no writes expected")
	next := DefaultSettings()
	next.Mode = ModeDND
	store.Replace(next)

	if store.Current().Mode != ModeDND {
		t.Error("replace not applied")
	}
	if len(notified) != 1 || notified[0].Mode != ModeDND {
		t.Errorf("subscriber saw %+v", notified)
	}
}

func TestSettingsStoreSubscribeDuringNotify(t *testing.T) {
	store, err := NewSettingsStore(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("NewSettingsStore: %v", err)
	}

	late := 0
	store.Subscribe(func(Settings) {
		store.Subscribe(func(Settings) { late++ })
	})

	next := DefaultSettings()
	next.Mode = ModeMentions
	if err := store.Update(context.Background(), next); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if late != 0 {
		t.Error("subscriber added mid-notify was invoked for the same update")
	}

	store.Replace(DefaultSettings())
	if late != 1 {
		t.Errorf("late subscriber invoked %d times after second change, want 1", late)
	}
}
