package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	qt "github.com/frankban/quicktest"
	"github.com/tckz/go-hit-counter/internal/config"
)

func TestOpen(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Backend: config.BackendMemory})
	c.Assert(err, qt.IsNil)
	_, ok := s.(*MemoryStore)
	c.Assert(ok, qt.IsTrue)

	path := filepath.Join(t.TempDir(), "c.json")
	s, err = Open(ctx, config.Store{Backend: config.BackendFile, File: config.File{Path: path}})
	c.Assert(err, qt.IsNil)
	c.Assert(s.(*FileStore).Path(), qt.Equals, path)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, config.Store{Backend: config.BackendRedis, Redis: config.Redis{Addrs: []string{mr.Addr()}, KeyPrefix: "hits:"}})
	c.Assert(err, qt.IsNil)
	defer s.Close()
	_, err = s.Increment(ctx, "x")
	c.Assert(err, qt.IsNil)
	c.Assert(mr.Exists("hits:x"), qt.IsTrue)

	_, err = Open(ctx, config.Store{Backend: "etcd"})
	c.Assert(err, qt.ErrorMatches, "unknown store backend: etcd")
}
