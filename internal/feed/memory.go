package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryFeed is an in-process Feed for tests and single-node setups.
// Events are delivered in publish order per room.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[int]chan Event
	next int
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[uuid.UUID]map[int]chan Event)}
}

func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	targets := make([]chan Event, 0, len(f.subs[ev.RoomID]))
	for _, ch := range f.subs[ev.RoomID] {
		targets = append(targets, ch)
	}
	f.mu.Unlock()

	for _, ch := range targets {
		ch <- ev
	}
	return nil
}

func (f *MemoryFeed) Subscribe(_ context.Context, roomID uuid.UUID) (<-chan Event, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Event, 64)
	if f.subs[roomID] == nil {
		f.subs[roomID] = make(map[int]chan Event)
	}
	f.subs[roomID][id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[roomID][id]; ok {
			delete(f.subs[roomID], id)
			close(sub)
		}
	}
	return ch, cancel, nil
}
