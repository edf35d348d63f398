package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"
)

func TestFileStore(t *testing.T) {
	c := qt.New(t)
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "counter.json"))
	c.Assert(err, qt.IsNil)
	defer s.Close()

	checkStore(c, s)
	c.Assert(IsVolatile(s), qt.IsFalse)
}

func TestFileStoreDocument(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "counter.json")
	s, err := NewFileStore(path)
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	_, err = s.Increment(ctx, "home")
	c.Assert(err, qt.IsNil)
	_, err = s.Increment(ctx, "home")
	c.Assert(err, qt.IsNil)

	b, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	var doc fileDocument
	c.Assert(json.Unmarshal(b, &doc), qt.IsNil)
	c.Assert(doc.Counters, qt.DeepEquals, map[string]int64{"home": 2})

	// no temp files left behind
	matches, err := filepath.Glob(path + ".*.tmp")
	c.Assert(err, qt.IsNil)
	c.Assert(matches, qt.HasLen, 0)
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "counter.json")

	s1, err := NewFileStore(path)
	c.Assert(err, qt.IsNil)
	s2, err := NewFileStore(path)
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	var eg errgroup.Group
	for _, s := range []*FileStore{s1, s2, s1, s2} {
		s := s
		eg.Go(func() error {
			for i := 0; i < 10; i++ {
				if _, err := s.Increment(ctx, "shared"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	c.Assert(eg.Wait(), qt.IsNil)

	n, err := s2.Get(ctx, "shared")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, int64(40))
}

func TestFileStoreMalformed(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "counter.json")
	c.Assert(os.WriteFile(path, []byte("{not json"), 0o644), qt.IsNil)

	s, err := NewFileStore(path)
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	_, err = s.Get(ctx, "x")
	c.Assert(err, qt.ErrorIs, ErrMalformed)
	_, err = s.Increment(ctx, "x")
	c.Assert(err, qt.ErrorIs, ErrMalformed)

	b, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Equals, "{not json")
}

func TestFileStoreNegativeValue(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "counter.json")
	c.Assert(os.WriteFile(path, []byte(`{"counters":{"x":-3}}`), 0o644), qt.IsNil)

	s, err := NewFileStore(path)
	c.Assert(err, qt.IsNil)

	_, err = s.Get(context.Background(), "x")
	c.Assert(err, qt.ErrorIs, ErrMalformed)
}

func TestNewFileStoreEmptyPath(t *testing.T) {
	c := qt.New(t)
	_, err := NewFileStore("")
	c.Assert(err, qt.ErrorMatches, "file store: empty path")
}
