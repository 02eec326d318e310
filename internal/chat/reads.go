package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReadMarker persists a read mark externally (the member row's
// last_read_at column).
type ReadMarker interface {
	MarkRead(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error
}

// ReadReceiptTracker keeps per-room per-member last-read timestamps and
// derives unread counts and seen-by sets from them.
type ReadReceiptTracker struct {
	marker ReadMarker
	now    func() time.Time

	mu    sync.Mutex
	rooms map[uuid.UUID]map[uuid.UUID]time.Time
}

func NewReadReceiptTracker(marker ReadMarker, now func() time.Time) *ReadReceiptTracker {
	if now == nil {
		now = time.Now
	}
	return &ReadReceiptTracker{
		marker: marker,
		now:    now,
		rooms:  make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

// MarkRead advances the member's last-read timestamp to now and persists
// it. Called on room open, on new in-room messages while the surface is
// visible, and on tab-visibility transitions to visible.
func (t *ReadReceiptTracker) MarkRead(ctx context.Context, roomID, userID uuid.UUID) error {
	at := t.now()
	if t.marker != nil {
		if err := t.marker.MarkRead(ctx, roomID, userID, at); err != nil {
			return err
		}
	}
	t.SetLastRead(roomID, userID, at)
	return nil
}

// SetLastRead records a last-read timestamp learned from a member-update
// feed event without writing it back.
func (t *ReadReceiptTracker) SetLastRead(roomID, userID uuid.UUID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		room = make(map[uuid.UUID]time.Time)
		t.rooms[roomID] = room
	}
	if at.After(room[userID]) {
		room[userID] = at
	}
}

// LastRead returns the member's known last-read timestamp, if any.
func (t *ReadReceiptTracker) LastRead(roomID, userID uuid.UUID) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.rooms[roomID][userID]
	return at, ok
}

// ComputeUnread counts messages newer than the user's last-read mark that
// were written by somebody else. A room the user has never opened (no
// last-read mark) contributes zero: first open marks it read.
func (t *ReadReceiptTracker) ComputeUnread(roomID, userID uuid.UUID, messages []Message) int {
	lastRead, ok := t.LastRead(roomID, userID)
	if !ok {
		return 0
	}
	count := 0
	for _, msg := range messages {
		if msg.SenderID != userID && msg.CreatedAt.After(lastRead) {
			count++
		}
	}
	return count
}

// ComputeReadBy returns the other members whose last-read timestamp is at
// or past the message's creation time. Only meaningful for messages the
// current user authored.
func ComputeReadBy(msg Message, members []Member) []Member {
	var readBy []Member
	for _, m := range members {
		if m.UserID == msg.SenderID || m.LastReadAt == nil {
			continue
		}
		if !m.LastReadAt.Before(msg.CreatedAt) {
			readBy = append(readBy, m)
		}
	}
	return readBy
}

// FormatReadBy renders the receipt: binary seen/unseen for direct rooms,
// a short name list or a count for groups.
func FormatReadBy(roomType string, readBy []Member) string {
	if roomType == "direct" {
		if len(readBy) > 0 {
			return "Seen"
		}
		return ""
	}
	switch {
	case len(readBy) == 0:
		return ""
	case len(readBy) <= 2:
		names := make([]string, len(readBy))
		for i, m := range readBy {
			names[i] = m.DisplayName
		}
		return "Seen by " + strings.Join(names, ", ")
	default:
		return fmt.Sprintf("Seen by %d members", len(readBy))
	}
}
