package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
)

var (
	_ Store    = (*DatastoreStore)(nil)
	_ Resetter = (*DatastoreStore)(nil)
	_ Setter   = (*DatastoreStore)(nil)
)

const DefaultDatastoreKind = "Counter"

type counterEntity struct {
	Count     int64
	UpdatedAt time.Time
}

// DatastoreStore keeps one entity per counter, named by the counter id.
// Increments run in a transaction; a transaction that loses a conflict is
// retried by the client, so concurrent increments are all applied.
type DatastoreStore struct {
	client    *datastore.Client
	kind      string
	namespace string
}

func NewDatastoreStore(client *datastore.Client, kind, namespace string) *DatastoreStore {
	if kind == "" {
		kind = DefaultDatastoreKind
	}
	return &DatastoreStore{client: client, kind: kind, namespace: namespace}
}

func (s *DatastoreStore) key(id string) *datastore.Key {
	key := datastore.NameKey(s.kind, id, nil)
	key.Namespace = s.namespace
	return key
}

func (s *DatastoreStore) Get(ctx context.Context, id string) (int64, error) {
	var rec counterEntity
	err := s.client.Get(ctx, s.key(id), &rec)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapDatastoreErr("client.Get", id, err)
	}
	if rec.Count < 0 {
		return 0, fmt.Errorf("id=%s, value=%d: %w", id, rec.Count, ErrMalformed)
	}
	return rec.Count, nil
}

func (s *DatastoreStore) Increment(ctx context.Context, id string) (int64, error) {
	key := s.key(id)
	var n int64
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		// May run more than once when the transaction conflicts.
		var rec counterEntity
		err := tx.Get(key, &rec)
		if err != nil && !errors.Is(err, datastore.ErrNoSuchEntity) {
			return wrapDatastoreErr("tx.Get", id, err)
		}
		if rec.Count < 0 {
			return fmt.Errorf("id=%s, value=%d: %w", id, rec.Count, ErrMalformed)
		}

		rec.Count++
		rec.UpdatedAt = time.Now().UTC()
		if _, err := tx.Put(key, &rec); err != nil {
			return fmt.Errorf("tx.Put: id=%s, %w", id, err)
		}
		n = rec.Count
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("client.RunInTransaction: %w", err)
	}
	return n, nil
}

func (s *DatastoreStore) Reset(ctx context.Context, id string) error {
	return s.Set(ctx, id, 0)
}

func (s *DatastoreStore) Set(ctx context.Context, id string, v int64) error {
	if _, err := checkValue(v); err != nil {
		return err
	}
	rec := counterEntity{Count: v, UpdatedAt: time.Now().UTC()}
	if _, err := s.client.Put(ctx, s.key(id), &rec); err != nil {
		return fmt.Errorf("client.Put: id=%s, %w", id, err)
	}
	return nil
}

func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

func wrapDatastoreErr(op, id string, err error) error {
	var mismatch *datastore.ErrFieldMismatch
	if errors.As(err, &mismatch) {
		return fmt.Errorf("%s: id=%s, %v: %w", op, id, err, ErrMalformed)
	}
	return fmt.Errorf("%s: id=%s, %w", op, id, err)
}
