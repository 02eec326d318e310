package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/models"
	"github.com/vantran/workchat/internal/websocket"
)

type fakeSessionStore struct {
	rooms    []models.Room
	settings chat.Settings
}

func newFakeSessionStore(roomIDs ...uuid.UUID) *fakeSessionStore {
	s := &fakeSessionStore{settings: chat.DefaultSettings()}
	for _, id := range roomIDs {
		s.rooms = append(s.rooms, models.Room{ID: id, Type: models.RoomTypeGroup})
	}
	return s
}

func (f *fakeSessionStore) GetUserRooms(uuid.UUID) ([]models.Room, error) { return f.rooms, nil }

func (f *fakeSessionStore) FetchPage(context.Context, uuid.UUID, *time.Time, int) ([]chat.Message, error) {
	return nil, nil
}

func (f *fakeSessionStore) FetchPinned(context.Context, uuid.UUID) ([]chat.Message, error) {
	return nil, nil
}

func (f *fakeSessionStore) FetchReactions(context.Context, uuid.UUID) ([]chat.Reaction, error) {
	return nil, nil
}

func (f *fakeSessionStore) MarkRead(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

func (f *fakeSessionStore) LoadSettings(context.Context, uuid.UUID) (chat.Settings, error) {
	return f.settings, nil
}

func (f *fakeSessionStore) SaveSettings(context.Context, uuid.UUID, chat.Settings) error {
	return nil
}

func newSessionClient(userID uuid.UUID, granted bool) *websocket.Client {
	return &websocket.Client{
		ID:      uuid.New(),
		UserID:  userID,
		Granted: granted,
		Send:    make(chan []byte, 16),
		Rooms:   make(map[uuid.UUID]bool),
	}
}

func publishInsert(t *testing.T, f feed.Feed, msg chat.Message) {
	t.Helper()
	ev, err := feed.Encode(feed.TableMessages, feed.OpInsert, msg.RoomID, msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func waitFrame(t *testing.T, c *websocket.Client, want websocket.EventType) websocket.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case raw := <-c.Send:
			var ev websocket.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s frame", want)
		}
	}
}

func expectNoFrame(t *testing.T, c *websocket.Client, avoid websocket.EventType) {
	t.Helper()
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case raw := <-c.Send:
			var ev websocket.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if ev.Type == avoid {
				t.Fatalf("unexpected %s frame", avoid)
			}
		case <-timeout:
			return
		}
	}
}

func TestSessionDeliversFeedMessages(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	mf := feed.NewMemoryFeed()
	m := NewSessionManager(newFakeSessionStore(roomID), mf, time.UTC)

	client := newSessionClient(userID, false)
	if err := m.Start(client); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop(client)

	msg := chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "hello", CreatedAt: time.Now(),
	}
	publishInsert(t, mf, msg)

	frame := waitFrame(t, client, websocket.TypeMessage)
	var got chat.Message
	if err := json.Unmarshal(frame.Data, &got); err != nil {
		t.Fatalf("decode message frame: %v", err)
	}
	if got.ID != msg.ID {
		t.Errorf("delivered message %v, want %v", got.ID, msg.ID)
	}

	// Default settings sound for foreign messages.
	waitFrame(t, client, websocket.TypeAlert)
}

func TestSessionAlertPushNeedsGrant(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	store := newFakeSessionStore(roomID)
	store.settings.BrowserPush = true
	mf := feed.NewMemoryFeed()
	m := NewSessionManager(store, mf, time.UTC)

	granted := newSessionClient(userID, true)
	denied := newSessionClient(userID, false)
	for _, c := range []*websocket.Client{granted, denied} {
		if err := m.Start(c); err != nil {
			t.Fatalf("start: %v", err)
		}
		defer m.Stop(c)
	}

	publishInsert(t, mf, chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "ping", CreatedAt: time.Now(),
	})

	waitFrame(t, granted, websocket.TypeAlert)
	waitFrame(t, denied, websocket.TypeMessage)
	expectNoFrame(t, denied, websocket.TypeAlert)
}

func TestSessionWatchAddsRoom(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	mf := feed.NewMemoryFeed()
	m := NewSessionManager(newFakeSessionStore(), mf, time.UTC)

	client := newSessionClient(userID, false)
	if err := m.Start(client); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop(client)

	if err := m.Watch(client, roomID); err != nil {
		t.Fatalf("watch: %v", err)
	}

	publishInsert(t, mf, chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "joined late", CreatedAt: time.Now(),
	})
	waitFrame(t, client, websocket.TypeMessage)
}

func TestSessionStopEndsDelivery(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	mf := feed.NewMemoryFeed()
	m := NewSessionManager(newFakeSessionStore(roomID), mf, time.UTC)

	client := newSessionClient(userID, false)
	if err := m.Start(client); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop(client)

	publishInsert(t, mf, chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "after stop", CreatedAt: time.Now(),
	})
	expectNoFrame(t, client, websocket.TypeMessage)
}

func TestSessionRefreshSettingsChangesDecisions(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	mf := feed.NewMemoryFeed()
	m := NewSessionManager(newFakeSessionStore(roomID), mf, time.UTC)

	client := newSessionClient(userID, false)
	if err := m.Start(client); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop(client)

	publishInsert(t, mf, chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "before", CreatedAt: time.Now(),
	})
	waitFrame(t, client, websocket.TypeAlert)

	dnd := chat.DefaultSettings()
	dnd.Mode = chat.ModeDND
	m.RefreshSettings(userID, dnd)

	publishInsert(t, mf, chat.Message{
		ID: uuid.New(), RoomID: roomID, SenderID: uuid.New(),
		Content: "after", CreatedAt: time.Now(),
	})
	waitFrame(t, client, websocket.TypeMessage)
	expectNoFrame(t, client, websocket.TypeAlert)
}
