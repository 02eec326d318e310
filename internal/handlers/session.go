package handlers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/handlers/dto"
	"github.com/vantran/workchat/internal/models"
	"github.com/vantran/workchat/internal/websocket"
)

// SessionStore is the slice of the database a per-connection sync
// controller reads through.
type SessionStore interface {
	GetUserRooms(userID uuid.UUID) ([]models.Room, error)
	chat.PageFetcher
	chat.PinnedFetcher
	chat.ReactionFetcher
	chat.ReadMarker
	chat.SettingsPersistence
}

// session pairs one websocket connection with the controller that
// feeds it.
type session struct {
	ctrl   *chat.Controller
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	rooms map[uuid.UUID]bool
}

// SessionManager runs one sync controller per websocket connection. The
// controller subscribes to the change feed for every room the user is a
// member of and its sink turns feed-driven state changes into frames on
// that connection, so the feed stays the single propagation path also
// when events originate on another node.
type SessionManager struct {
	store SessionStore
	feed  feed.Feed
	loc   *time.Location

	mu       sync.Mutex
	sessions map[uuid.UUID]*session // by connection id
	byUser   map[uuid.UUID]map[uuid.UUID]*session
}

func NewSessionManager(store SessionStore, f feed.Feed, loc *time.Location) *SessionManager {
	return &SessionManager{
		store:    store,
		feed:     f,
		loc:      loc,
		sessions: make(map[uuid.UUID]*session),
		byUser:   make(map[uuid.UUID]map[uuid.UUID]*session),
	}
}

// Start builds the connection's controller and subscribes it to the
// user's current room set.
func (m *SessionManager) Start(client *websocket.Client) error {
	rooms, err := m.store.GetUserRooms(client.UserID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	settings, err := chat.NewSettingsStore(ctx, m.store, client.UserID)
	if err != nil {
		cancel()
		return err
	}

	loc := m.loc
	ctrl := &chat.Controller{
		UserID:      client.UserID,
		Feed:        m.feed,
		Store:       chat.NewMessageStore(m.store, chat.PageSizeFull, loc),
		Reactions:   chat.NewReactionAggregator(nil),
		Reads:       chat.NewReadReceiptTracker(m.store, time.Now),
		Settings:    settings,
		Pinned:      m.store,
		ReactionSrc: m.store,
		Sink:        &sessionSink{client: client},
		Now:         func() time.Time { return time.Now().In(loc) },
	}

	roomSet := make(map[uuid.UUID]bool, len(rooms))
	ids := make([]uuid.UUID, 0, len(rooms))
	for i := range rooms {
		roomSet[rooms[i].ID] = true
		ids = append(ids, rooms[i].ID)
	}
	if err := ctrl.Watch(ctx, ids); err != nil {
		cancel()
		return err
	}

	s := &session{ctrl: ctrl, ctx: ctx, cancel: cancel, rooms: roomSet}

	m.mu.Lock()
	m.sessions[client.ID] = s
	if m.byUser[client.UserID] == nil {
		m.byUser[client.UserID] = make(map[uuid.UUID]*session)
	}
	m.byUser[client.UserID][client.ID] = s
	m.mu.Unlock()
	return nil
}

// Watch adds a room to the connection's subscription set, for rooms
// joined after the connection was opened.
func (m *SessionManager) Watch(client *websocket.Client, roomID uuid.UUID) error {
	m.mu.Lock()
	s := m.sessions[client.ID]
	m.mu.Unlock()
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if s.rooms[roomID] {
		s.mu.Unlock()
		return nil
	}
	s.rooms[roomID] = true
	ids := make([]uuid.UUID, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	return s.ctrl.Watch(s.ctx, ids)
}

// Stop tears down the connection's subscriptions.
func (m *SessionManager) Stop(client *websocket.Client) {
	m.mu.Lock()
	s := m.sessions[client.ID]
	delete(m.sessions, client.ID)
	if set := m.byUser[client.UserID]; set != nil {
		delete(set, client.ID)
		if len(set) == 0 {
			delete(m.byUser, client.UserID)
		}
	}
	m.mu.Unlock()

	if s != nil {
		s.ctrl.Close()
		s.cancel()
	}
}

// RefreshSettings pushes an already-persisted settings value into the
// user's live sessions so the next notification decision uses it.
func (m *SessionManager) RefreshSettings(userID uuid.UUID, next chat.Settings) {
	m.mu.Lock()
	live := make([]*session, 0, len(m.byUser[userID]))
	for _, s := range m.byUser[userID] {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.ctrl.Settings.Replace(next)
	}
}

// sessionSink turns controller output into frames on one connection.
type sessionSink struct {
	client *websocket.Client
}

func (s *sessionSink) MessageAppended(roomID uuid.UUID, msg chat.Message, _ bool) {
	s.send(websocket.TypeMessage, msg)
}

func (s *sessionSink) MessageUpdated(roomID uuid.UUID, msg chat.Message) {
	s.send(websocket.TypeMessageUpdate, msg)
}

func (s *sessionSink) PinnedRefreshed(roomID uuid.UUID, pinned []chat.Message) {
	s.send(websocket.TypePinnedRefresh, struct {
		RoomID uuid.UUID      `json:"room_id"`
		Pinned []chat.Message `json:"pinned"`
	}{roomID, pinned})
}

func (s *sessionSink) ReactionsChanged(messageID uuid.UUID, groups []chat.EmojiGroup) {
	s.send(websocket.TypeReaction, struct {
		MessageID uuid.UUID         `json:"message_id"`
		Reactions []chat.EmojiGroup `json:"reactions"`
	}{messageID, groups})
}

func (s *sessionSink) ReceiptAdvanced(roomID, userID uuid.UUID, at time.Time) {
	s.send(websocket.TypeReadReceipt, struct {
		RoomID     uuid.UUID `json:"room_id"`
		UserID     uuid.UUID `json:"user_id"`
		LastReadAt time.Time `json:"last_read_at"`
	}{roomID, userID, at})
}

// Alert drops push-carrying directives on connections whose browser
// never granted notification permission.
func (s *sessionSink) Alert(msg chat.Message, d chat.Decision) {
	if d.Push && !s.client.Granted {
		return
	}
	s.send(websocket.TypeAlert, dto.AlertPayload{Message: msg, Decision: d})
}

func (s *sessionSink) send(t websocket.EventType, payload interface{}) {
	if err := s.client.SendEvent(t, payload); err != nil {
		log.Printf("session: send %s: %v", t, err)
	}
}
