package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventType tags frames pushed to open views.
type EventType string

const (
	// Connection lifecycle
	TypeConnect    EventType = "connect"
	TypeDisconnect EventType = "disconnect"
	TypePing       EventType = "ping"
	TypePong       EventType = "pong"

	// Room state
	TypeRoomOpen  EventType = "room_open"
	TypeRoomClose EventType = "room_close"

	// Chat state changes
	TypeMessage       EventType = "message"
	TypeMessageUpdate EventType = "message_update"
	TypeReaction      EventType = "reaction"
	TypeReadReceipt   EventType = "read_receipt"
	TypePinnedRefresh EventType = "pinned_refresh"
	TypeMemberJoined  EventType = "member_joined"
	TypeMemberLeft    EventType = "member_left"

	// User-scoped directives
	TypeAlert           EventType = "alert"
	TypeSettingsChanged EventType = "settings_changed"

	// Client-originated actions
	TypeMarkRead   EventType = "mark_read"
	TypeVisibility EventType = "visibility"
)

// Event is a frame on the client connection.
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Granted mirrors the browser's notification permission; push
	// directives are only delivered to connections that reported it.
	Granted bool
	Conn    *websocket.Conn
	Send    chan []byte
	Rooms   map[uuid.UUID]bool
	Hub     *Hub
	mu      sync.RWMutex
}

// Hub routes frames to connections, keyed by room for membership
// announcements and by user for settings changes. One user may hold
// several connections (multiple tabs or devices).
type Hub struct {
	clients     map[uuid.UUID]*Client
	userClients map[uuid.UUID]map[uuid.UUID]*Client
	rooms       map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run processes registrations and the keepalive ticker.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("client registered: %s (user %s)", client.ID, client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for roomID := range client.Rooms {
		h.removeFromRoomUnsafe(client, roomID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("client unregistered: %s (user %s)", client.ID, client.UserID)
}

// JoinRoom attaches the connection to a room's delivery set.
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[roomID][client.ID] = client

	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()
}

// SendToUser delivers a frame to every connection of one user.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- message:
		default:
			log.Printf("client %s send queue full", client.ID)
		}
	}
}

// SendToRoom delivers a frame to every connection attached to a room.
func (h *Hub) SendToRoom(roomID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[roomID] {
		select {
		case client.Send <- message:
		default:
			log.Printf("client %s send queue full", client.ID)
		}
	}
}

// BroadcastEvent marshals and delivers an Event to a room.
func (h *Hub) BroadcastEvent(roomID uuid.UUID, ev Event) {
	ev.RoomID = &roomID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("hub: marshal event: %v", err)
		return
	}
	h.SendToRoom(roomID, data)
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Event{Type: TypePing, Timestamp: time.Now()}
	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GetRoomUsers returns the distinct users with a connection in the room.
func (h *Hub) GetRoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	for _, client := range h.rooms[roomID] {
		userMap[client.UserID] = true
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}

// IsUserOnline reports whether the user holds any connection.
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}
