// Package feed is the change-feed boundary: a push-based stream of
// insert/update/delete events from the backing store, filtered by room.
// Delivery is at-least-once, unordered across rooms, ordered-as-emitted
// within a single subscription.
package feed

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	TableMessages  = "messages"
	TableReactions = "reactions"
	TableMembers   = "members"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is one change record scoped to a room.
type Event struct {
	Table   string          `json:"table"`
	Op      string          `json:"op"`
	RoomID  uuid.UUID       `json:"room_id"`
	Payload json.RawMessage `json:"payload"`
}

// Feed publishes and subscribes to per-room change events.
type Feed interface {
	// Publish emits an event to every subscriber of its room.
	Publish(ctx context.Context, ev Event) error
	// Subscribe opens a per-room event stream. The returned cancel func
	// tears the subscription down and closes the channel.
	Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan Event, func(), error)
}

// Encode marshals a payload for an Event.
func Encode(table, op string, roomID uuid.UUID, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Table: table, Op: op, RoomID: roomID, Payload: data}, nil
}
