package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ReactionWriter persists toggles externally. The aggregator is the single
// mutating entry point for reaction state; nothing else may write it.
type ReactionWriter interface {
	InsertReaction(ctx context.Context, r Reaction) error
	DeleteReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
}

// ReactionAggregator keeps the flat per-message reaction sets and toggles
// membership. Toggles for the same (message, user) pair are serialized so
// a rapid double-click cannot produce two rows.
type ReactionAggregator struct {
	writer ReactionWriter

	mu        sync.Mutex
	byMessage map[uuid.UUID][]Reaction
	toggling  map[string]*sync.Mutex
}

func NewReactionAggregator(writer ReactionWriter) *ReactionAggregator {
	return &ReactionAggregator{
		writer:    writer,
		byMessage: make(map[uuid.UUID][]Reaction),
		toggling:  make(map[string]*sync.Mutex),
	}
}

// Toggle adds the reaction if the user has not reacted with this emoji
// yet, removes it otherwise. Returns whether the reaction is now present.
// Calling it twice in sequence restores the original state.
func (a *ReactionAggregator) Toggle(ctx context.Context, messageID, userID uuid.UUID, userName, emoji string) (bool, error) {
	lock := a.pairLock(messageID, userID)
	lock.Lock()
	defer lock.Unlock()

	if a.has(messageID, userID, emoji) {
		if a.writer != nil {
			if err := a.writer.DeleteReaction(ctx, messageID, userID, emoji); err != nil {
				return true, err
			}
		}
		a.remove(messageID, userID, emoji)
		return false, nil
	}

	r := Reaction{MessageID: messageID, UserID: userID, UserName: userName, Emoji: emoji}
	if a.writer != nil {
		if err := a.writer.InsertReaction(ctx, r); err != nil {
			return false, err
		}
	}
	a.add(r)
	return true, nil
}

// SetReactions replaces the known set for a message, used when the sync
// controller re-fetches after a feed event.
func (a *ReactionAggregator) SetReactions(messageID uuid.UUID, reactions []Reaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMessage[messageID] = append([]Reaction(nil), reactions...)
}

// Reactions returns the flat list for a message in insertion order.
func (a *ReactionAggregator) Reactions(messageID uuid.UUID) []Reaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Reaction(nil), a.byMessage[messageID]...)
}

// EmojiGroup is one badge: an emoji and who pressed it, in order.
type EmojiGroup struct {
	Emoji string      `json:"emoji"`
	Users []string    `json:"users"`
	IDs   []uuid.UUID `json:"user_ids"`
}

// GroupByEmoji recomputes the badge view from the flat list on every read;
// there is no cached grouped structure to go stale.
func (a *ReactionAggregator) GroupByEmoji(messageID uuid.UUID) []EmojiGroup {
	a.mu.Lock()
	flat := a.byMessage[messageID]
	a.mu.Unlock()

	var order []string
	byEmoji := map[string]*EmojiGroup{}
	for _, r := range flat {
		g, ok := byEmoji[r.Emoji]
		if !ok {
			g = &EmojiGroup{Emoji: r.Emoji}
			byEmoji[r.Emoji] = g
			order = append(order, r.Emoji)
		}
		g.Users = append(g.Users, r.UserName)
		g.IDs = append(g.IDs, r.UserID)
	}

	groups := make([]EmojiGroup, 0, len(order))
	for _, emoji := range order {
		groups = append(groups, *byEmoji[emoji])
	}
	return groups
}

func (a *ReactionAggregator) pairLock(messageID, userID uuid.UUID) *sync.Mutex {
	key := messageID.String() + "/" + userID.String()
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.toggling[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	a.toggling[key] = l
	return l
}

func (a *ReactionAggregator) has(messageID, userID uuid.UUID, emoji string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.byMessage[messageID] {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}

func (a *ReactionAggregator) add(r Reaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMessage[r.MessageID] = append(a.byMessage[r.MessageID], r)
}

func (a *ReactionAggregator) remove(messageID, userID uuid.UUID, emoji string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.byMessage[messageID]
	out := list[:0]
	for _, r := range list {
		if r.UserID == userID && r.Emoji == emoji {
			continue
		}
		out = append(out, r)
	}
	a.byMessage[messageID] = out
}
