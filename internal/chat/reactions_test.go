package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type recordingWriter struct {
	inserts int
	deletes int
	fail    error
}

func (w *recordingWriter) InsertReaction(_ context.Context, _ Reaction) error {
	if w.fail != nil {
		return w.fail
	}
	w.inserts++
	return nil
}

func (w *recordingWriter) DeleteReaction(_ context.Context, _, _ uuid.UUID, _ string) error {
	if w.fail != nil {
		return w.fail
	}
	w.deletes++
	return nil
}

func TestToggleIsInvolutive(t *testing.T) {
	writer := &recordingWriter{}
	agg := NewReactionAggregator(writer)
	msgID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	present, err := agg.Toggle(ctx, msgID, userID, "an", "👍")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !present {
		t.Fatal("first toggle should add the reaction")
	}
	if len(agg.Reactions(msgID)) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(agg.Reactions(msgID)))
	}

	present, err = agg.Toggle(ctx, msgID, userID, "an", "👍")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if present {
		t.Fatal("second toggle should remove the reaction")
	}
	if len(agg.Reactions(msgID)) != 0 {
		t.Fatalf("expected 0 reactions, got %d", len(agg.Reactions(msgID)))
	}
	if writer.inserts != 1 || writer.deletes != 1 {
		t.Errorf("writer calls = %d inserts, %d deletes, want 1 and 1", writer.inserts, writer.deletes)
	}
}

func TestToggleDistinctEmojisCoexist(t *testing.T) {
	agg := NewReactionAggregator(&recordingWriter{})
	msgID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	agg.Toggle(ctx, msgID, userID, "an", "👍")
	agg.Toggle(ctx, msgID, userID, "an", "🎉")

	if got := len(agg.Reactions(msgID)); got != 2 {
		t.Fatalf("expected 2 reactions, got %d", got)
	}
}

func TestToggleWriteFailureKeepsState(t *testing.T) {
	writer := &recordingWriter{fail: errors.New("db down")}
	agg := NewReactionAggregator(writer)
	msgID, userID := uuid.New(), uuid.New()

	present, err := agg.Toggle(context.Background(), msgID, userID, "an", "👍")
	if err == nil {
		t.Fatal("expected write error")
	}
	if present {
		t.Error("failed insert must not report the reaction as present")
	}
	if len(agg.Reactions(msgID)) != 0 {
		t.Error("failed insert must not mutate local state")
	}
}

func TestGroupByEmoji(t *testing.T) {
	agg := NewReactionAggregator(nil)
	msgID := uuid.New()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	agg.SetReactions(msgID, []Reaction{
		{MessageID: msgID, UserID: u1, UserName: "an", Emoji: "👍"},
		{MessageID: msgID, UserID: u2, UserName: "binh", Emoji: "🎉"},
		{MessageID: msgID, UserID: u3, UserName: "chi", Emoji: "👍"},
	})

	groups := agg.GroupByEmoji(msgID)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Emoji != "👍" || len(groups[0].Users) != 2 {
		t.Errorf("first group = %+v, want 👍 with 2 users", groups[0])
	}
	if groups[0].Users[0] != "an" || groups[0].Users[1] != "chi" {
		t.Errorf("group users out of insertion order: %v", groups[0].Users)
	}
	if groups[1].Emoji != "🎉" || len(groups[1].Users) != 1 {
		t.Errorf("second group = %+v, want 🎉 with 1 user", groups[1])
	}
}
