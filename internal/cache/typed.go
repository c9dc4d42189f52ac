package cache

import (
	"context"
	"time"
)

// Fetch is the typed counterpart of Store.Fetch.
func Fetch[T any](ctx context.Context, s *Store, key Key, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := s.Fetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}

// Read is the typed counterpart of Store.Read. ok is false when the
// key is absent or holds a value of a different type.
func Read[T any](s *Store, key Key) (value T, age time.Duration, ok bool) {
	raw, age, ok := s.Read(key)
	if !ok {
		var zero T
		return zero, 0, false
	}
	typed, ok := raw.(T)
	return typed, age, ok
}

// Patch is the typed counterpart of Store.Patch. When the entry is
// absent or of another type, fn receives the zero value and ok=false.
func Patch[T any](s *Store, key Key, fn func(old T, ok bool) T) {
	s.Patch(key, func(old any, ok bool) any {
		typed, cast := old.(T)
		return fn(typed, ok && cast)
	})
}
