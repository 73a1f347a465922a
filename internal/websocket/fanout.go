package websocket

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/jobchat/internal/log"
)

// Fanout delivers frames published for a room to every subscribed client,
// whichever server process holds the client.
type Fanout interface {
	Subscribe(ctx context.Context, roomID uint, client *Client) error
	Unsubscribe(ctx context.Context, roomID uint, client *Client) error
	Publish(ctx context.Context, roomID uint, frame []byte) error
}

const roomChannelPrefix = "chat:room:"

func roomChannel(roomID uint) string {
	return fmt.Sprintf("%s%d:events", roomChannelPrefix, roomID)
}

func parseRoomChannel(channel string) (uint, bool) {
	s := strings.TrimPrefix(channel, roomChannelPrefix)
	s = strings.TrimSuffix(s, ":events")
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// RedisFanout keeps local subscribers in a Hub and relays frames between
// processes over Redis Pub/Sub. A room channel is subscribed while at least
// one local client is in the room.
type RedisFanout struct {
	client *redis.Client
	hub    *Hub
	pubsub *redis.PubSub
	mu     sync.Mutex
}

func NewRedisFanout(ctx context.Context, client *redis.Client, hub *Hub) *RedisFanout {
	return &RedisFanout{
		client: client,
		hub:    hub,
		pubsub: client.Subscribe(ctx),
	}
}

func (f *RedisFanout) Subscribe(ctx context.Context, roomID uint, client *Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if first := f.hub.Join(roomID, client); !first {
		return nil
	}
	if err := f.pubsub.Subscribe(ctx, roomChannel(roomID)); err != nil {
		f.hub.Leave(roomID, client)
		return fmt.Errorf("subscribe room %d: %w", roomID, err)
	}
	return nil
}

func (f *RedisFanout) Unsubscribe(ctx context.Context, roomID uint, client *Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if last := f.hub.Leave(roomID, client); !last {
		return nil
	}
	if err := f.pubsub.Unsubscribe(ctx, roomChannel(roomID)); err != nil {
		return fmt.Errorf("unsubscribe room %d: %w", roomID, err)
	}
	return nil
}

func (f *RedisFanout) Publish(ctx context.Context, roomID uint, frame []byte) error {
	return f.client.Publish(ctx, roomChannel(roomID), frame).Err()
}

// Run relays Pub/Sub messages to local clients until ctx is done or the
// subscription is closed.
func (f *RedisFanout) Run(ctx context.Context) error {
	ch := f.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			roomID, ok := parseRoomChannel(msg.Channel)
			if !ok {
				log.L().Warn().Str("channel", msg.Channel).Msg("message on unexpected channel")
				continue
			}
			f.hub.Deliver(roomID, []byte(msg.Payload))
		}
	}
}

func (f *RedisFanout) Close() error {
	return f.pubsub.Close()
}
