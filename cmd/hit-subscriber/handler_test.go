package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	qt "github.com/frankban/quicktest"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/marker"
	"github.com/tckz/go-hit-counter/internal/store"
	"go.uber.org/zap"
)

func init() {
	logger = zap.NewNop().Sugar()
}

func TestCounterID(t *testing.T) {
	c := qt.New(t)

	c.Assert(counterID(&pubsub.Message{Data: []byte(" blog\n")}), qt.Equals, "blog")
	c.Assert(counterID(&pubsub.Message{Data: []byte("blog"), Attributes: map[string]string{"id": "docs"}}), qt.Equals, "docs")
	c.Assert(counterID(&pubsub.Message{}), qt.Equals, "")
}

func TestProcess(t *testing.T) {
	c := qt.New(t)
	st := store.NewMemoryStore()
	h := &hitHandler{
		svc:    counter.NewService(st),
		marker: marker.NewLocalMarker(time.Minute),
	}
	ctx := context.Background()

	c.Assert(h.process(ctx, "m1", "blog"), qt.IsTrue)
	c.Assert(h.process(ctx, "m2", "blog"), qt.IsTrue)
	// redelivery of m1
	c.Assert(h.process(ctx, "m1", "blog"), qt.IsTrue)
	c.Assert(h.process(ctx, "m3", ""), qt.IsTrue)

	n, err := st.Get(ctx, "blog")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(2))

	n, err = st.Get(ctx, counter.DefaultID)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(1))
	c.Assert(h.Processed(), qt.Equals, int64(3))
}

type flakyStore struct {
	store.Store
	fail bool
}

func (s *flakyStore) Increment(ctx context.Context, id string) (int64, error) {
	if s.fail {
		return 0, errors.New("unavailable")
	}
	return s.Store.Increment(ctx, id)
}

func TestProcessFailureAllowsRedelivery(t *testing.T) {
	c := qt.New(t)
	st := &flakyStore{Store: store.NewMemoryStore(), fail: true}
	h := &hitHandler{
		svc:    counter.NewService(st),
		marker: marker.NewLocalMarker(time.Minute),
	}
	ctx := context.Background()

	c.Assert(h.process(ctx, "m1", "blog"), qt.IsFalse)

	st.fail = false
	c.Assert(h.process(ctx, "m1", "blog"), qt.IsTrue)

	n, err := st.Get(ctx, "blog")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(1))
}
