package store

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"
)

var (
	_ Store    = (*MemoryStore)(nil)
	_ Resetter = (*MemoryStore)(nil)
	_ Setter   = (*MemoryStore)(nil)
	_ Volatile = (*MemoryStore)(nil)
)

// MemoryStore keeps counters in process memory. go-cache serializes every
// mutation under its own lock, so Add/IncrementInt64 never lose updates.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (int64, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return 0, nil
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("id=%s, %T: %w", id, v, ErrMalformed)
	}
	return checkValue(n)
}

func (s *MemoryStore) Increment(ctx context.Context, id string) (int64, error) {
	// Counters are never deleted, so once Add fails the key exists.
	if err := s.cache.Add(id, int64(1), cache.NoExpiration); err == nil {
		return 1, nil
	}
	n, err := s.cache.IncrementInt64(id, 1)
	if err != nil {
		return 0, fmt.Errorf("cache.IncrementInt64: id=%s, %v: %w", id, err, ErrMalformed)
	}
	return n, nil
}

func (s *MemoryStore) Reset(ctx context.Context, id string) error {
	return s.Set(ctx, id, 0)
}

func (s *MemoryStore) Set(ctx context.Context, id string, v int64) error {
	if _, err := checkValue(v); err != nil {
		return err
	}
	s.cache.Set(id, v, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Volatile() bool {
	return true
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
