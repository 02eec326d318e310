package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryFeedDeliversInPublishOrder(t *testing.T) {
	f := NewMemoryFeed()
	roomID := uuid.New()
	ctx := context.Background()

	events, cancel, err := f.Subscribe(ctx, roomID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	for _, op := range []string{OpInsert, OpUpdate, OpDelete} {
		ev, err := Encode(TableMessages, op, roomID, map[string]string{"op": op})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if err := f.Publish(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for _, want := range []string{OpInsert, OpUpdate, OpDelete} {
		select {
		case ev := <-events:
			if ev.Op != want {
				t.Errorf("got op %q, want %q", ev.Op, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestMemoryFeedIsolatesRooms(t *testing.T) {
	f := NewMemoryFeed()
	ctx := context.Background()
	roomA, roomB := uuid.New(), uuid.New()

	eventsA, cancelA, _ := f.Subscribe(ctx, roomA)
	defer cancelA()
	eventsB, cancelB, _ := f.Subscribe(ctx, roomB)
	defer cancelB()

	ev, _ := Encode(TableMessages, OpInsert, roomA, "only A")
	if err := f.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-eventsA:
		if got.RoomID != roomA {
			t.Errorf("room A got event for %v", got.RoomID)
		}
	case <-time.After(time.Second):
		t.Fatal("room A never got its event")
	}

	select {
	case got := <-eventsB:
		t.Errorf("room B got foreign event %+v", got)
	default:
	}
}

func TestMemoryFeedCancelClosesChannel(t *testing.T) {
	f := NewMemoryFeed()
	roomID := uuid.New()

	events, cancel, _ := f.Subscribe(context.Background(), roomID)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after cancel must not block or panic.
	ev, _ := Encode(TableMessages, OpInsert, roomID, "late")
	if err := f.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}

	// Double cancel is a no-op.
	cancel()
}
