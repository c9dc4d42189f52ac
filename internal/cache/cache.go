// Package cache is the client-side read cache for server-owned
// entities. Every entry is owned by the store: readers get copies of
// the stored value and all writes go through Patch or Invalidate so
// that poll results, push-channel patches, optimistic updates and
// rollbacks compose without clobbering each other.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// entry is one (key -> value) slot. A nil inflight means no fetch is
// currently running for the key.
type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	inflight  *inflight
}

// inflight carries the result of a running fetch to every caller that
// asked for the same key while it was on the wire.
type inflight struct {
	done  chan struct{}
	value any
	err   error
}

// Store holds all cache partitions behind one mutex. It is safe for
// concurrent use by the poller, the push synchronizer and the UI
// goroutine.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[Key]*entry),
		logger:  logger,
		now:     time.Now,
	}
}

// Read returns the cached value for key and its age. ok is false when
// the key holds no value (never fetched, or evicted).
func (s *Store) Read(key Key) (value any, age time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil || !e.hasValue {
		return nil, 0, false
	}
	return e.value, s.now().Sub(e.fetchedAt), true
}

// FetchFunc retrieves the authoritative value for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Fetch returns the cached value when it is younger than ttl and not
// invalidated; otherwise it retrieves a fresh one. Concurrent calls
// for the same key collapse into a single retrieval: later callers
// block on the first caller's in-flight result instead of racing
// independent network calls. Fetch errors are returned but never
// cached, so the next call retries.
func (s *Store) Fetch(ctx context.Context, key Key, ttl time.Duration, fn FetchFunc) (any, error) {
	s.mu.Lock()

	e := s.entries[key]
	if e == nil {
		e = &entry{}
		s.entries[key] = e
	}

	if e.hasValue && !e.stale && s.now().Sub(e.fetchedAt) < ttl {
		value := e.value
		s.mu.Unlock()
		return value, nil
	}

	if e.inflight != nil {
		fl := e.inflight
		s.mu.Unlock()
		select {
		case <-fl.done:
			return fl.value, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &inflight{done: make(chan struct{})}
	e.inflight = fl
	s.mu.Unlock()

	value, err := fn(ctx)

	s.mu.Lock()
	fl.value, fl.err = value, err
	close(fl.done)
	// The entry may have been evicted while the fetch was running
	// (e.g. the owning topic was deleted); do not resurrect it.
	if cur, present := s.entries[key]; present && cur == e {
		e.inflight = nil
		if err == nil {
			e.value = value
			e.hasValue = true
			e.fetchedAt = s.now()
			e.stale = false
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("cache fetch failed", "key", key.String(), "error", err)
		return nil, err
	}
	return value, nil
}

// PatchFunc transforms a cached value. ok reports whether a value was
// present; the returned value replaces it either way.
type PatchFunc func(old any, ok bool) any

// Patch applies a pure transformation to the cached value without any
// network I/O and marks the entry fresh. It is the only way to write
// a value into the store outside of Fetch.
func (s *Store) Patch(key Key, fn PatchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key]
	if e == nil {
		e = &entry{}
		s.entries[key] = e
	}
	e.value = fn(e.value, e.hasValue)
	e.hasValue = true
	e.fetchedAt = s.now()
	e.stale = false
}

// Invalidate marks the entry stale so the next Fetch refetches. The
// stored value remains readable in the meantime.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.entries[key]; e != nil {
		e.stale = true
	}
}

// Evict drops a single entry.
func (s *Store) Evict(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// EvictTopic drops every entry owned by a topic: the topic itself and
// all topic-scoped partitions (sources list, events list, individual
// sources). Used after a topic delete, whose server-side cascade
// removes the underlying entities.
func (s *Store) EvictTopic(topicID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		if key.ParentID == topicID && key.Kind != KindTopics {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
