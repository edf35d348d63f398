// Package marker decides which consumer processes a message when the same
// message may be delivered more than once.
package marker

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type ProcessMarker interface {
	// Acquire returns true when the caller obtained the right to process msgID.
	Acquire(ctx context.Context, msgID string) (bool, error)
	// Release gives up a mark so a redelivery of msgID can be processed.
	Release(ctx context.Context, msgID string) error
}

var _ ProcessMarker = (*LocalMarker)(nil)

// LocalMarker only deduplicates deliveries within one process.
type LocalMarker struct {
	cache *cache.Cache
}

func NewLocalMarker(ttl time.Duration) *LocalMarker {
	return &LocalMarker{cache: cache.New(ttl, ttl)}
}

func (m *LocalMarker) Acquire(ctx context.Context, msgID string) (bool, error) {
	err := m.cache.Add(msgID, struct{}{}, 0)
	return err == nil, nil
}

func (m *LocalMarker) Release(ctx context.Context, msgID string) error {
	m.cache.Delete(msgID)
	return nil
}
