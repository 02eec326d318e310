package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Page sizes: popup chat windows fetch fewer rows than the full view.
const (
	PageSizePopup = 30
	PageSizeFull  = 50
)

// PageFetcher loads up to limit messages strictly older than before
// (newest page when before is nil), ordered descending by created_at.
type PageFetcher interface {
	FetchPage(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]Message, error)
}

// Page is one history fetch, already reversed to ascending order. HasMore
// is a heuristic: true iff the fetch returned a full page.
type Page struct {
	Messages []Message
	HasMore  bool
}

// MessageStore is the per-room ordered message cache. It merges paginated
// history fetches with live insert/update events and deduplicates by id,
// which also absorbs the change-feed echo of an optimistic send.
type MessageStore struct {
	fetcher  PageFetcher
	pageSize int
	loc      *time.Location

	mu    sync.Mutex
	rooms map[uuid.UUID]*roomCache
}

type roomCache struct {
	messages []Message
	index    map[uuid.UUID]int
}

// NewMessageStore builds a store reading pages of pageSize through
// fetcher. loc is the fixed business timezone used for date grouping.
func NewMessageStore(fetcher PageFetcher, pageSize int, loc *time.Location) *MessageStore {
	if loc == nil {
		loc = time.Local
	}
	return &MessageStore{
		fetcher:  fetcher,
		pageSize: pageSize,
		loc:      loc,
		rooms:    make(map[uuid.UUID]*roomCache),
	}
}

// LoadPage fetches the next page of history for a room and prepends it to
// the cache. A fetch error leaves existing state untouched.
func (s *MessageStore) LoadPage(ctx context.Context, roomID uuid.UUID, before *time.Time) (Page, error) {
	fetched, err := s.fetcher.FetchPage(ctx, roomID, before, s.pageSize)
	if err != nil {
		return Page{}, err
	}

	hasMore := len(fetched) == s.pageSize

	// Fetch order is descending; display order is ascending.
	page := make([]Message, len(fetched))
	for i, msg := range fetched {
		page[len(fetched)-1-i] = msg
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.room(roomID)
	fresh := page[:0:0]
	for _, msg := range page {
		if _, ok := cache.index[msg.ID]; !ok {
			fresh = append(fresh, msg)
		}
	}
	cache.messages = append(fresh, cache.messages...)
	cache.reindex()

	return Page{Messages: page, HasMore: hasMore}, nil
}

// ApplyLiveInsert appends a message iff its id is not already present.
// Returns false on a duplicate delivery or optimistic-echo race.
func (s *MessageStore) ApplyLiveInsert(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.room(msg.RoomID)
	if _, ok := cache.index[msg.ID]; ok {
		return false
	}
	cache.index[msg.ID] = len(cache.messages)
	cache.messages = append(cache.messages, msg)
	return true
}

// ApplyLiveUpdate replaces the message with a matching id in place.
// Edits, pins and deletes never reorder. Returns the previous version.
func (s *MessageStore) ApplyLiveUpdate(msg Message) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.rooms[msg.RoomID]
	if !ok {
		return Message{}, false
	}
	i, ok := cache.index[msg.ID]
	if !ok {
		return Message{}, false
	}
	prev := cache.messages[i]
	cache.messages[i] = msg
	return prev, true
}

// Messages returns the cached ascending history for a room.
func (s *MessageStore) Messages(roomID uuid.UUID) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cache, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return append([]Message(nil), cache.messages...)
}

// Len reports how many messages are cached for a room.
func (s *MessageStore) Len(roomID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cache, ok := s.rooms[roomID]
	if !ok {
		return 0
	}
	return len(cache.messages)
}

// Contains reports whether a message id is cached for a room.
func (s *MessageStore) Contains(roomID, messageID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cache, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = cache.index[messageID]
	return ok
}

// DropRoom forgets a room's cache, e.g. when its view closes.
func (s *MessageStore) DropRoom(roomID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// DateGroup is one calendar day of messages in the business timezone.
type DateGroup struct {
	Day      time.Time
	Messages []Message
}

// GroupByDate is a derived projection recomputed on every read: a new
// group starts wherever the local calendar day changes between
// consecutive messages.
func (s *MessageStore) GroupByDate(roomID uuid.UUID) []DateGroup {
	msgs := s.Messages(roomID)
	if len(msgs) == 0 {
		return nil
	}

	var groups []DateGroup
	var day time.Time
	for _, msg := range msgs {
		y, m, d := msg.CreatedAt.In(s.loc).Date()
		msgDay := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
		if len(groups) == 0 || !msgDay.Equal(day) {
			day = msgDay
			groups = append(groups, DateGroup{Day: day})
		}
		last := len(groups) - 1
		groups[last].Messages = append(groups[last].Messages, msg)
	}
	return groups
}

func (s *MessageStore) room(roomID uuid.UUID) *roomCache {
	cache, ok := s.rooms[roomID]
	if !ok {
		cache = &roomCache{index: make(map[uuid.UUID]int)}
		s.rooms[roomID] = cache
	}
	return cache
}

func (c *roomCache) reindex() {
	c.index = make(map[uuid.UUID]int, len(c.messages))
	for i, msg := range c.messages {
		c.index[msg.ID] = i
	}
}
