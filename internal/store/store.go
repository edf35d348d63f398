// Package store holds the counter backends. Every backend owns its counter
// state; callers receive an instance and never share package level state.
package store

import (
	"context"
	"errors"
)

// ErrMalformed is returned when a stored value is not a non-negative integer.
var ErrMalformed = errors.New("malformed counter value")

// Store is the capability every backend provides.
type Store interface {
	// Get returns the current value of id, 0 when it has never been written.
	Get(ctx context.Context, id string) (int64, error)
	// Increment adds 1 to id atomically and returns the new value.
	Increment(ctx context.Context, id string) (int64, error)
	Close() error
}

// Resetter is implemented by backends that can set a counter back to 0.
type Resetter interface {
	Reset(ctx context.Context, id string) error
}

// Setter is implemented by backends that can overwrite a counter.
type Setter interface {
	Set(ctx context.Context, id string, v int64) error
}

// Volatile is implemented by backends whose values do not survive a
// process restart.
type Volatile interface {
	Volatile() bool
}

// IsVolatile reports whether s loses its state on restart.
func IsVolatile(s Store) bool {
	v, ok := s.(Volatile)
	return ok && v.Volatile()
}

func checkValue(n int64) (int64, error) {
	if n < 0 {
		return 0, ErrMalformed
	}
	return n, nil
}
