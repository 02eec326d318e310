package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/middleware"
	ws "github.com/vantran/workchat/internal/websocket"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	router   *EventRouter
	sessions *SessionManager
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, router *EventRouter, sessions *SessionManager) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		router:   router,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin in prod
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection. The `granted` query parameter
// mirrors the browser's notification permission and gates push delivery.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	granted := c.Query("granted") == "true"

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(uuid.UUID), granted)

	h.hub.Register(client)

	// The session's controller subscribes to the change feed for the
	// user's rooms and streams state changes down this connection.
	if err := h.sessions.Start(client); err != nil {
		log.Printf("ws: start session for %s: %v", client.UserID, err)
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.router)
		h.sessions.Stop(client)
	}()
}

// EventRouter handles client-originated websocket frames.
type EventRouter struct {
	db       *database.Database
	feed     feed.Feed
	sessions *SessionManager
}

func NewEventRouter(db *database.Database, f feed.Feed, sessions *SessionManager) *EventRouter {
	return &EventRouter{db: db, feed: f, sessions: sessions}
}

// HandleEvent implements ws.ClientEventHandler.
func (r *EventRouter) HandleEvent(client *ws.Client, ev *ws.Event) error {
	switch ev.Type {
	case ws.TypeRoomOpen:
		// The hub already joined the room; opening a room view also
		// subscribes the session to it and clears its unread badge.
		if ev.RoomID == nil {
			return ws.ErrInvalidEvent
		}
		if r.sessions != nil {
			if err := r.sessions.Watch(client, *ev.RoomID); err != nil {
				log.Printf("ws: watch room %s: %v", *ev.RoomID, err)
			}
		}
		return r.markRead(client, *ev.RoomID)

	case ws.TypeMarkRead:
		if ev.RoomID == nil {
			return ws.ErrInvalidEvent
		}
		return r.markRead(client, *ev.RoomID)

	case ws.TypeVisibility:
		var payload struct {
			Granted bool `json:"granted"`
		}
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return ws.ErrInvalidEvent
		}
		client.Granted = payload.Granted
		return nil

	default:
		return ws.ErrInvalidEvent
	}
}

func (r *EventRouter) markRead(client *ws.Client, roomID uuid.UUID) error {
	if ok, _ := r.db.IsActiveMember(roomID, client.UserID); !ok {
		return ws.ErrUserNotInRoom
	}

	member, err := r.db.SetLastRead(roomID, client.UserID, time.Now())
	if err != nil {
		log.Printf("ws: set last read: %v", err)
		return err
	}

	// The feed echo fans the receipt out to every member's session.
	view := database.MemberView(member)
	if fev, err := feed.Encode(feed.TableMembers, feed.OpUpdate, roomID, view); err == nil {
		if err := r.feed.Publish(context.Background(), fev); err != nil {
			log.Printf("ws: publish read receipt: %v", err)
		}
	}
	return nil
}
