package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	_ Store    = (*FileStore)(nil)
	_ Resetter = (*FileStore)(nil)
	_ Setter   = (*FileStore)(nil)
)

const fileLockRetry = 10 * time.Millisecond

type fileDocument struct {
	Counters map[string]int64 `json:"counters"`
}

// FileStore keeps every counter in a single JSON document. A read-modify-write
// runs under an in-process mutex and an advisory lock on "<path>.lock", so
// several processes may share the same document. The document is replaced by
// rename, which leaves the previous version in place if a write fails.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.withLock(ctx, false, func(doc *fileDocument) (bool, error) {
		n = doc.Counters[id]
		return false, nil
	})
	return n, err
}

func (s *FileStore) Increment(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.withLock(ctx, true, func(doc *fileDocument) (bool, error) {
		n = doc.Counters[id] + 1
		doc.Counters[id] = n
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *FileStore) Reset(ctx context.Context, id string) error {
	return s.Set(ctx, id, 0)
}

func (s *FileStore) Set(ctx context.Context, id string, v int64) error {
	if _, err := checkValue(v); err != nil {
		return err
	}
	return s.withLock(ctx, true, func(doc *fileDocument) (bool, error) {
		doc.Counters[id] = v
		return true, nil
	})
}

func (s *FileStore) Close() error {
	return nil
}

// withLock loads the document, hands it to fn and writes it back when fn
// reports a change.
func (s *FileStore) withLock(ctx context.Context, exclusive bool, fn func(doc *fileDocument) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var locked bool
	var err error
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, fileLockRetry)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, fileLockRetry)
	}
	if err != nil {
		return fmt.Errorf("flock: path=%s, %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("flock: path=%s, not acquired", s.lock.Path())
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		doc.Counters = map[string]int64{}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: path=%s, %v: %w", s.path, err, ErrMalformed)
	}
	if doc.Counters == nil {
		doc.Counters = map[string]int64{}
	}
	for id, n := range doc.Counters {
		if n < 0 {
			return nil, fmt.Errorf("path=%s, id=%s, value=%d: %w", s.path, id, n, ErrMalformed)
		}
	}
	return doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("f.Write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}
