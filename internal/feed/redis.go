package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const channelPrefix = "feed:room:"

// RedisFeed carries change events over redis pub/sub, one channel per
// room, so every process interested in a room sees the same stream.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelPrefix+ev.RoomID.String(), data).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan Event, func(), error) {
	sub := f.client.Subscribe(ctx, channelPrefix+roomID.String())
	// Force the subscription to be established before events flow.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("feed: drop malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
