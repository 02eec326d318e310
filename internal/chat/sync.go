package chat

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/feed"
)

// PinnedFetcher reloads a room's pinned-message index: at most the five
// most recent pinned messages, newest first.
type PinnedFetcher interface {
	FetchPinned(ctx context.Context, roomID uuid.UUID) ([]Message, error)
}

// ReactionFetcher reloads the reaction set of a single message, so a
// reaction event never re-fetches the whole room.
type ReactionFetcher interface {
	FetchReactions(ctx context.Context, messageID uuid.UUID) ([]Reaction, error)
}

// Sink receives the controller's output: state-change notifications for
// the rendering layer plus alert decisions. Implementations must not
// block; slow consumers should buffer.
type Sink interface {
	MessageAppended(roomID uuid.UUID, msg Message, scrollToBottom bool)
	MessageUpdated(roomID uuid.UUID, msg Message)
	PinnedRefreshed(roomID uuid.UUID, pinned []Message)
	ReactionsChanged(messageID uuid.UUID, groups []EmojiGroup)
	ReceiptAdvanced(roomID, userID uuid.UUID, at time.Time)
	Alert(msg Message, d Decision)
}

// Controller subscribes to the change-feed for a set of rooms and routes
// events to the store, the reaction aggregator and the receipt tracker,
// then runs the notification policy for foreign senders. Events are
// applied in feed order within a room; rooms interleave freely.
type Controller struct {
	UserID   uuid.UUID
	UserName string

	Feed        feed.Feed
	Store       *MessageStore
	Reactions   *ReactionAggregator
	Reads       *ReadReceiptTracker
	Windows     *WindowManager
	Settings    *SettingsStore
	Pinned      PinnedFetcher
	ReactionSrc ReactionFetcher
	Sink        Sink

	// NearBottom reports whether the room's viewport is close enough to
	// the bottom that a live insert should scroll it. Optional.
	NearBottom func(roomID uuid.UUID) bool

	// Now supplies the clock used for quiet-hours checks. It should
	// return time in the business timezone; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	cancels map[uuid.UUID]func()
}

// Watch opens one subscription per room of interest. Rooms already
// watched are kept; rooms missing from the set are torn down.
func (c *Controller) Watch(ctx context.Context, roomIDs []uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancels == nil {
		c.cancels = make(map[uuid.UUID]func())
	}

	want := make(map[uuid.UUID]bool, len(roomIDs))
	for _, id := range roomIDs {
		want[id] = true
	}
	for id, cancel := range c.cancels {
		if !want[id] {
			cancel()
			delete(c.cancels, id)
		}
	}

	for _, roomID := range roomIDs {
		if _, ok := c.cancels[roomID]; ok {
			continue
		}
		events, cancel, err := c.Feed.Subscribe(ctx, roomID)
		if err != nil {
			return err
		}
		c.cancels[roomID] = cancel
		// One goroutine per room keeps per-room ordering.
		go c.drain(ctx, roomID, events)
	}
	return nil
}

// Close tears down every subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.cancels {
		cancel()
		delete(c.cancels, id)
	}
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Controller) drain(ctx context.Context, roomID uuid.UUID, events <-chan Event) {
	for ev := range events {
		c.handle(ctx, roomID, ev)
	}
}

// Event aliases the feed event so test code in this package can build
// streams without importing feed everywhere.
type Event = feed.Event

func (c *Controller) handle(ctx context.Context, roomID uuid.UUID, ev Event) {
	switch ev.Table {
	case feed.TableMessages:
		c.handleMessage(ctx, roomID, ev)
	case feed.TableReactions:
		c.handleReaction(ctx, ev)
	case feed.TableMembers:
		c.handleMember(roomID, ev)
	default:
		log.Printf("sync: unknown feed table %q", ev.Table)
	}
}

func (c *Controller) handleMessage(ctx context.Context, roomID uuid.UUID, ev Event) {
	var msg Message
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		log.Printf("sync: bad message payload: %v", err)
		return
	}

	switch ev.Op {
	case feed.OpInsert:
		if !c.Store.ApplyLiveInsert(msg) {
			return // duplicate delivery or optimistic echo
		}
		own := msg.SenderID == c.UserID
		scroll := own || (c.NearBottom != nil && c.NearBottom(roomID))
		if c.Sink != nil {
			c.Sink.MessageAppended(roomID, msg, scroll)
		}
		if own {
			return
		}

		if c.Windows != nil {
			c.Windows.NotifyMessage(roomID)
			if c.Windows.IsVisible(roomID) && c.Reads != nil {
				if err := c.Reads.MarkRead(ctx, roomID, c.UserID); err != nil {
					log.Printf("sync: mark read: %v", err)
				}
			}
		}

		if c.Settings != nil && c.Sink != nil {
			settings := c.Settings.Current()
			d := Decide(msg, c.UserID, settings, settings.MutedRooms[roomID], c.now())
			if d.Sound || d.Push {
				c.Sink.Alert(msg, d)
			}
		}

	case feed.OpUpdate:
		prev, ok := c.Store.ApplyLiveUpdate(msg)
		if !ok {
			return
		}
		if c.Sink != nil {
			c.Sink.MessageUpdated(roomID, msg)
		}
		if prev.IsPinned != msg.IsPinned && c.Pinned != nil && c.Sink != nil {
			pinned, err := c.Pinned.FetchPinned(ctx, roomID)
			if err != nil {
				log.Printf("sync: refresh pinned: %v", err)
				return
			}
			c.Sink.PinnedRefreshed(roomID, pinned)
		}
	}
}

func (c *Controller) handleReaction(ctx context.Context, ev Event) {
	var r Reaction
	if err := json.Unmarshal(ev.Payload, &r); err != nil {
		log.Printf("sync: bad reaction payload: %v", err)
		return
	}
	if c.ReactionSrc == nil || c.Reactions == nil {
		return
	}
	// Patch only the affected message, never the whole room.
	reactions, err := c.ReactionSrc.FetchReactions(ctx, r.MessageID)
	if err != nil {
		log.Printf("sync: refetch reactions: %v", err)
		return
	}
	c.Reactions.SetReactions(r.MessageID, reactions)
	if c.Sink != nil {
		c.Sink.ReactionsChanged(r.MessageID, c.Reactions.GroupByEmoji(r.MessageID))
	}
}

func (c *Controller) handleMember(roomID uuid.UUID, ev Event) {
	if ev.Op != feed.OpUpdate {
		return
	}
	var m Member
	if err := json.Unmarshal(ev.Payload, &m); err != nil {
		log.Printf("sync: bad member payload: %v", err)
		return
	}
	if m.UserID == c.UserID || !m.IsActive || m.LastReadAt == nil {
		return
	}
	if c.Reads != nil {
		c.Reads.SetLastRead(roomID, m.UserID, *m.LastReadAt)
	}
	if c.Sink != nil {
		c.Sink.ReceiptAdvanced(roomID, m.UserID, *m.LastReadAt)
	}
}
