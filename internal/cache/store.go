// Package cache provides the per-key client-side caches and the
// optimistic update protocol shared by every mutating flow.
package cache

import "sync"

// Store is a concurrency-safe map of cache entries keyed by task path
// (or any string key). Values are stored by value; value types carrying
// reference state (slices, maps, pointers) implement Clone so that
// reads and snapshots are genuine copies, not aliases.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// cloner is implemented by value types whose copy requires more than
// assignment. Plain value types copy implicitly and skip this.
type cloner[T any] interface {
	Clone() T
}

// snapshot returns a detached copy of v.
func (s *Store[T]) snapshot(v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// NewStore creates an empty Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Get returns a detached copy of the cached value for key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return s.snapshot(v), ok
}

// Set stores a value for key.
func (s *Store[T]) Set(key string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = v
}

// Delete removes the entry for key.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Keys returns the currently cached keys.
func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of cached entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Update applies fn to the current value under the write lock.
// The zero value is passed when the key is absent.
func (s *Store[T]) Update(key string, fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = fn(s.items[key])
}
