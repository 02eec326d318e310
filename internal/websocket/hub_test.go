package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(userID uuid.UUID, granted bool) *Client {
	return &Client{
		ID:      uuid.New(),
		UserID:  userID,
		Granted: granted,
		Send:    make(chan []byte, 8),
		Rooms:   make(map[uuid.UUID]bool),
	}
}

func registerAndWait(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.Register(c)
	deadline := time.Now().Add(time.Second)
	for {
		h.mu.RLock()
		_, ok := h.clients[c.ID]
		h.mu.RUnlock()
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSendToUserIgnoresGrant(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.cancel()

	userID := uuid.New()
	denied := newTestClient(userID, false)
	registerAndWait(t, h, denied)

	h.SendToUser(userID, []byte("frame"))

	select {
	case <-denied.Send:
	case <-time.After(time.Second):
		t.Fatal("regular frame withheld from ungranted connection")
	}
}

func TestSendToRoomReachesOnlyMembers(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.cancel()

	roomID := uuid.New()
	inRoom := newTestClient(uuid.New(), false)
	outside := newTestClient(uuid.New(), false)
	registerAndWait(t, h, inRoom)
	registerAndWait(t, h, outside)

	h.JoinRoom(inRoom, roomID)
	h.SendToRoom(roomID, []byte("hello"))

	select {
	case <-inRoom.Send:
	case <-time.After(time.Second):
		t.Fatal("room member got no frame")
	}
	select {
	case <-outside.Send:
		t.Error("frame delivered outside the room")
	default:
	}
}

func TestGetRoomUsersDeduplicatesConnections(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.cancel()

	userID := uuid.New()
	roomID := uuid.New()
	tab1 := newTestClient(userID, false)
	tab2 := newTestClient(userID, false)
	registerAndWait(t, h, tab1)
	registerAndWait(t, h, tab2)

	h.JoinRoom(tab1, roomID)
	h.JoinRoom(tab2, roomID)

	users := h.GetRoomUsers(roomID)
	if len(users) != 1 || users[0] != userID {
		t.Errorf("GetRoomUsers = %v, want just %v", users, userID)
	}
}
