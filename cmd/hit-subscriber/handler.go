package main

import (
	"context"
	"strings"
	"sync/atomic"

	"cloud.google.com/go/pubsub"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/marker"
)

// AttrCounterID names the message attribute carrying the counter id. When it
// is absent the message data is used.
const AttrCounterID = "id"

type hitHandler struct {
	svc       *counter.Service
	marker    marker.ProcessMarker
	logStep   int64
	processed int64
}

func counterID(msg *pubsub.Message) string {
	if id := msg.Attributes[AttrCounterID]; id != "" {
		return id
	}
	return strings.TrimSpace(string(msg.Data))
}

// process increments the counter named by a message and reports whether the
// message should be acked.
func (h *hitHandler) process(ctx context.Context, msgID, id string) bool {
	if got, err := h.marker.Acquire(ctx, msgID); err != nil {
		logger.Errorf("Acquire: %v", err)
		return false
	} else if !got {
		logger.Infof("msgID=%s already marked to be processed by other", msgID)
		return true
	}

	snap, err := h.svc.Increment(ctx, id)
	if err != nil {
		logger.Errorf("Increment: msgID=%s, %v", msgID, err)
		if err := h.marker.Release(ctx, msgID); err != nil {
			logger.Errorf("Release: %v", err)
		}
		return false
	}

	if n := atomic.AddInt64(&h.processed, 1); h.logStep > 0 && n%h.logStep == 0 {
		logger.Infof("processed=%d, last id=%s count=%d", n, snap.ID, snap.Count)
	}
	return true
}

func (h *hitHandler) Processed() int64 {
	return atomic.LoadInt64(&h.processed)
}
