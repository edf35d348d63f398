package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/redis/go-redis/v9"
	"github.com/tckz/go-hit-counter/internal/config"
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		s, err := NewFileStore(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		return NewRedisStore(NewRedisClient(cfg.Redis), cfg.Redis.KeyPrefix), nil
	case config.BackendDatastore:
		cl, err := datastore.NewClient(ctx, cfg.Datastore.Project)
		if err != nil {
			return nil, fmt.Errorf("datastore.NewClient: %w", err)
		}
		return NewDatastoreStore(cl, cfg.Datastore.Kind, cfg.Datastore.Namespace), nil
	case config.BackendPostgres, config.BackendSQLite:
		dialect := DialectPostgres
		if cfg.Backend == config.BackendSQLite {
			dialect = DialectSQLite
		}
		s, err := OpenSQLStore(ctx, dialect, cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// NewRedisClient returns a client tuned the way the subscriber tools use it.
func NewRedisClient(cfg config.Redis) redis.UniversalClient {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 200
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		DialTimeout:  time.Second * 2,
		ReadTimeout:  time.Second * 2,
		WriteTimeout: time.Second * 2,
		PoolSize:     poolSize,
		PoolTimeout:  time.Second * 5,
	})
}
