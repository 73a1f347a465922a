package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis key patterns:
// chat:room:{room_id}:connected   SET<user_id>   - users with an open socket to the room

func connectedKey(roomID uint) string {
	return fmt.Sprintf("chat:room:%d:connected", roomID)
}

// RedisStore implements Store on a Redis set per room.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl bounds how long a set survives
// without any Add, so a crashed process cannot pin users as present forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Add(ctx context.Context, roomID, userID uint) error {
	key := connectedKey(roomID)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, strconv.FormatUint(uint64(userID), 10))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Remove(ctx context.Context, roomID, userID uint) error {
	return s.client.SRem(ctx, connectedKey(roomID), strconv.FormatUint(uint64(userID), 10)).Err()
}

func (s *RedisStore) ConnectedCount(ctx context.Context, roomID uint) (int64, error) {
	return s.client.SCard(ctx, connectedKey(roomID)).Result()
}

func (s *RedisStore) Connected(ctx context.Context, roomID uint) ([]uint, error) {
	raw, err := s.client.SMembers(ctx, connectedKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (s *RedisStore) AllConnected(ctx context.Context, roomID uint, members []uint) (bool, error) {
	if len(members) == 0 {
		return false, nil
	}

	connected, err := s.Connected(ctx, roomID)
	if err != nil {
		return false, err
	}

	set := make(map[uint]struct{}, len(connected))
	for _, id := range connected {
		set[id] = struct{}{}
	}
	for _, id := range members {
		if _, ok := set[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}
