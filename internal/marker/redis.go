package marker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ ProcessMarker = (*RedisMarker)(nil)

const redisMarkerPrefix = "hit-subscriber-processed:"

// RedisMarker shares marks between every subscriber using the same redis.
type RedisMarker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisMarker(client redis.UniversalClient, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl}
}

func (m *RedisMarker) Acquire(ctx context.Context, msgID string) (bool, error) {
	ok, err := m.client.SetNX(ctx, redisMarkerPrefix+msgID, "v", m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("client.SetNX: msgID=%s, %w", msgID, err)
	}
	return ok, nil
}

func (m *RedisMarker) Release(ctx context.Context, msgID string) error {
	if err := m.client.Del(ctx, redisMarkerPrefix+msgID).Err(); err != nil {
		return fmt.Errorf("client.Del: msgID=%s, %w", msgID, err)
	}
	return nil
}
