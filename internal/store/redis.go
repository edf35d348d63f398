package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	_ Store    = (*RedisStore)(nil)
	_ Resetter = (*RedisStore)(nil)
	_ Setter   = (*RedisStore)(nil)
)

const DefaultRedisKeyPrefix = "counter:"

const malformedReply = "MALFORMED counter value"

// incrScript refuses to increment a value that is not a non-negative integer.
var incrScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  local n = tonumber(v)
  if n == nil or n < 0 or n % 1 ~= 0 then
    return redis.error_reply('` + malformedReply + `')
  end
end
return redis.call('INCR', KEYS[1])
`)

// RedisStore maps a counter id to the key "<prefix><id>" and increments it
// with INCR inside a script, so a malformed value is never touched.
type RedisStore struct {
	prefix string
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{prefix: prefix, client: client}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (int64, error) {
	n, err := s.client.Get(ctx, s.key(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return 0, fmt.Errorf("key=%s, %v: %w", s.key(id), err, ErrMalformed)
	}
	if err != nil {
		return 0, fmt.Errorf("client.Get: key=%s, %w", s.key(id), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("key=%s, value=%d: %w", s.key(id), n, ErrMalformed)
	}
	return n, nil
}

func (s *RedisStore) Increment(ctx context.Context, id string) (int64, error) {
	n, err := incrScript.Run(ctx, s.client, []string{s.key(id)}).Int64()
	if err != nil {
		if strings.Contains(err.Error(), malformedReply) || strings.Contains(err.Error(), "not an integer") {
			return 0, fmt.Errorf("key=%s, %v: %w", s.key(id), err, ErrMalformed)
		}
		return 0, fmt.Errorf("incrScript.Run: key=%s, %w", s.key(id), err)
	}
	return n, nil
}

func (s *RedisStore) Reset(ctx context.Context, id string) error {
	return s.Set(ctx, id, 0)
}

func (s *RedisStore) Set(ctx context.Context, id string, v int64) error {
	if _, err := checkValue(v); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(id), v, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: key=%s, %w", s.key(id), err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
