package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeFetcher serves a fixed ascending history the way the repository
// would: descending pages of at most limit rows older than before.
type fakeFetcher struct {
	history []Message // ascending
	fail    error
}

func (f *fakeFetcher) FetchPage(_ context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]Message, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	var out []Message
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		msg := f.history[i]
		if msg.RoomID != roomID {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func makeHistory(roomID uuid.UUID, n int, start time.Time) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{
			ID:        uuid.New(),
			RoomID:    roomID,
			SenderID:  uuid.New(),
			Content:   "msg",
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func TestLoadPageOrdersAscending(t *testing.T) {
	roomID := uuid.New()
	history := makeHistory(roomID, 5, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	store := NewMessageStore(&fakeFetcher{history: history}, 3, time.UTC)

	page, err := store.LoadPage(context.Background(), roomID, nil)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if !page.HasMore {
		t.Error("full page should report HasMore")
	}
	if len(page.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(page.Messages))
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i].CreatedAt.Before(page.Messages[i-1].CreatedAt) {
			t.Fatal("page not in ascending order")
		}
	}
	// Newest page is the tail of history.
	if page.Messages[2].ID != history[4].ID {
		t.Error("newest message missing from first page")
	}
}

func TestLoadPagePrependsOlderHistory(t *testing.T) {
	roomID := uuid.New()
	history := makeHistory(roomID, 5, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	store := NewMessageStore(&fakeFetcher{history: history}, 3, time.UTC)
	ctx := context.Background()

	first, _ := store.LoadPage(ctx, roomID, nil)
	oldest := first.Messages[0].CreatedAt
	second, err := store.LoadPage(ctx, roomID, &oldest)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if second.HasMore {
		t.Error("short page should not report HasMore")
	}

	all := store.Messages(roomID)
	if len(all) != 5 {
		t.Fatalf("expected 5 cached messages, got %d", len(all))
	}
	for i := range all {
		if all[i].ID != history[i].ID {
			t.Fatalf("cache out of order at %d", i)
		}
	}
}

func TestLoadPageErrorLeavesStateUntouched(t *testing.T) {
	roomID := uuid.New()
	history := makeHistory(roomID, 2, time.Now())
	fetcher := &fakeFetcher{history: history}
	store := NewMessageStore(fetcher, 10, time.UTC)
	ctx := context.Background()

	store.LoadPage(ctx, roomID, nil)
	fetcher.fail = errors.New("db down")

	if _, err := store.LoadPage(ctx, roomID, nil); err == nil {
		t.Fatal("expected fetch error")
	}
	if store.Len(roomID) != 2 {
		t.Errorf("cache changed after failed fetch: %d messages", store.Len(roomID))
	}
}

func TestApplyLiveInsertDeduplicates(t *testing.T) {
	roomID := uuid.New()
	store := NewMessageStore(&fakeFetcher{}, 10, time.UTC)

	msg := Message{ID: uuid.New(), RoomID: roomID, Content: "hi", CreatedAt: time.Now()}
	if !store.ApplyLiveInsert(msg) {
		t.Fatal("first insert rejected")
	}
	// The change-feed echo of an optimistic send carries the same id.
	if store.ApplyLiveInsert(msg) {
		t.Fatal("duplicate insert accepted")
	}
	if store.Len(roomID) != 1 {
		t.Errorf("expected 1 message, got %d", store.Len(roomID))
	}
}

func TestApplyLiveInsertDedupsAgainstLoadedPage(t *testing.T) {
	roomID := uuid.New()
	history := makeHistory(roomID, 3, time.Now().Add(-time.Hour))
	store := NewMessageStore(&fakeFetcher{history: history}, 10, time.UTC)

	store.LoadPage(context.Background(), roomID, nil)
	if store.ApplyLiveInsert(history[1]) {
		t.Fatal("live echo of a paged message accepted")
	}
	if store.Len(roomID) != 3 {
		t.Errorf("expected 3 messages, got %d", store.Len(roomID))
	}
}

func TestApplyLiveUpdateKeepsPosition(t *testing.T) {
	roomID := uuid.New()
	history := makeHistory(roomID, 3, time.Now().Add(-time.Hour))
	store := NewMessageStore(&fakeFetcher{history: history}, 10, time.UTC)
	store.LoadPage(context.Background(), roomID, nil)

	edited := history[1]
	edited.Content = "edited"
	edited.IsEdited = true

	prev, ok := store.ApplyLiveUpdate(edited)
	if !ok {
		t.Fatal("update of cached message rejected")
	}
	if prev.Content != "msg" {
		t.Errorf("prev.Content = %q, want original", prev.Content)
	}

	all := store.Messages(roomID)
	if all[1].Content != "edited" || !all[1].IsEdited {
		t.Error("edit not applied in place")
	}
	if all[0].ID != history[0].ID || all[2].ID != history[2].ID {
		t.Error("update reordered the cache")
	}
}

func TestApplyLiveUpdateUnknownMessage(t *testing.T) {
	store := NewMessageStore(&fakeFetcher{}, 10, time.UTC)
	if _, ok := store.ApplyLiveUpdate(Message{ID: uuid.New(), RoomID: uuid.New()}); ok {
		t.Fatal("update of unknown message accepted")
	}
}

func TestGroupByDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	roomID := uuid.New()
	store := NewMessageStore(&fakeFetcher{}, 10, loc)

	// 23:30 and 00:30 local time straddle midnight.
	lateNight := time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)     // 23:30 +07
	afterMidnight := time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC) // 00:30 +07 next day

	store.ApplyLiveInsert(Message{ID: uuid.New(), RoomID: roomID, CreatedAt: lateNight})
	store.ApplyLiveInsert(Message{ID: uuid.New(), RoomID: roomID, CreatedAt: afterMidnight})

	groups := store.GroupByDate(roomID)
	if len(groups) != 2 {
		t.Fatalf("expected 2 date groups, got %d", len(groups))
	}
	if groups[0].Day.Day() != 10 || groups[1].Day.Day() != 11 {
		t.Errorf("group days = %d, %d; want 10, 11", groups[0].Day.Day(), groups[1].Day.Day())
	}
}
