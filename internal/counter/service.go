// Package counter applies read, increment, reset and badge rendering to a
// counter held by a store.
package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tckz/go-hit-counter/internal/store"
	"go.uber.org/zap"
)

const DefaultID = "default"

// VolatileNote is attached to every snapshot served by a store whose values
// are lost on restart.
const VolatileNote = "in-memory store: counts are lost when the server restarts"

var ErrResetUnsupported = errors.New("reset is not supported by the store")

type Snapshot struct {
	ID        string
	Count     int64
	Timestamp time.Time
	Note      string
}

func (s Snapshot) Formatted() string {
	return Format(s.Count)
}

type Badge struct {
	Snapshot
	SVG []byte
}

type Service struct {
	store   store.Store
	now     func() time.Time
	logger  *zap.SugaredLogger
	metrics *Metrics
	note    string
}

type Option func(s *Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		now:    time.Now,
		logger: zap.NewNop().Sugar(),
	}
	for _, e := range opts {
		e(s)
	}
	if store.IsVolatile(st) {
		s.note = VolatileNote
	}
	return s
}

// CanReset reports whether the store supports Reset.
func (s *Service) CanReset() bool {
	_, ok := s.store.(store.Resetter)
	return ok
}

func (s *Service) snapshot(id string, n int64) Snapshot {
	return Snapshot{
		ID:        id,
		Count:     n,
		Timestamp: s.now().UTC(),
		Note:      s.note,
	}
}

func (s *Service) done(op, id string, start time.Time, err error) {
	s.metrics.observe(op, start, err)
	if err != nil && !errors.Is(err, ErrResetUnsupported) {
		s.logger.Errorw("store failure", "op", op, "id", id, "error", err)
	}
}

func (s *Service) Read(ctx context.Context, id string) (snap Snapshot, retErr error) {
	id = normalizeID(id)
	defer func(start time.Time) { s.done(OpRead, id, start, retErr) }(time.Now())

	n, err := s.store.Get(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store.Get: %w", err)
	}
	return s.snapshot(id, n), nil
}

func (s *Service) Increment(ctx context.Context, id string) (snap Snapshot, retErr error) {
	id = normalizeID(id)
	defer func(start time.Time) { s.done(OpIncrement, id, start, retErr) }(time.Now())

	n, err := s.store.Increment(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("store.Increment: %w", err)
	}
	return s.snapshot(id, n), nil
}

func (s *Service) Reset(ctx context.Context, id string) (snap Snapshot, retErr error) {
	id = normalizeID(id)
	defer func(start time.Time) { s.done(OpReset, id, start, retErr) }(time.Now())

	r, ok := s.store.(store.Resetter)
	if !ok {
		return Snapshot{}, ErrResetUnsupported
	}
	if err := r.Reset(ctx, id); err != nil {
		return Snapshot{}, fmt.Errorf("store.Reset: %w", err)
	}
	return s.snapshot(id, 0), nil
}

// RenderImage reads the current value of id and renders its badge.
func (s *Service) RenderImage(ctx context.Context, id string) (Badge, error) {
	snap, err := s.Read(ctx, id)
	if err != nil {
		return Badge{}, err
	}
	return s.Badge(snap)
}

// Badge renders the badge of an already obtained snapshot.
func (s *Service) Badge(snap Snapshot) (badge Badge, retErr error) {
	defer func(start time.Time) { s.done(OpRenderImage, snap.ID, start, retErr) }(time.Now())

	svg, err := RenderBadge(snap.Count)
	if err != nil {
		return Badge{}, err
	}
	return Badge{Snapshot: snap, SVG: svg}, nil
}

func normalizeID(id string) string {
	if id == "" {
		return DefaultID
	}
	return id
}
