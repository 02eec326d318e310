package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB
)

// ClientEventHandler processes client-originated frames (mark-read,
// visibility transitions and the like).
type ClientEventHandler interface {
	HandleEvent(client *Client, ev *Event) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, granted bool) *Client {
	return &Client{
		ID:      uuid.New(),
		UserID:  userID,
		Granted: granted,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Rooms:   make(map[uuid.UUID]bool),
		Hub:     hub,
	}
}

// ReadPump consumes frames from the browser.
func (c *Client) ReadPump(handler ClientEventHandler) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		err := c.Conn.ReadJSON(&ev)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		ev.UserID = c.UserID

		switch ev.Type {
		case TypePong:
			continue

		case TypeRoomOpen:
			if ev.RoomID != nil {
				c.Hub.JoinRoom(c, *ev.RoomID)
			}

		case TypeRoomClose:
			if ev.RoomID != nil {
				c.Hub.LeaveRoom(c, *ev.RoomID)
			}
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &ev); err != nil {
				log.Printf("error handling client event: %v", err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump flushes queued frames and keepalive pings to the browser.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(evType EventType, data interface{}) error {
	ev := Event{
		Type:      evType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		ev.Data = jsonData
	}

	msgData, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case c.Send <- msgData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent("error", map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}

func (c *Client) GetRooms() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]uuid.UUID, 0, len(c.Rooms))
	for roomID := range c.Rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}
