// Package kv provides a generic thread-safe key-value store.
package kv

import (
	"maps"
	"sort"
	"sync"
)

// Store is a thread-safe generic key-value store.
type Store[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates a new key-value store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		data: make(map[K]V),
	}
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// Has reports whether key is present.
func (s *Store[K, V]) Has(key K) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// SetIfAbsent stores value only when key is not yet present and reports
// whether it did.
func (s *Store[K, V]) SetIfAbsent(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false
	}
	s.data[key] = value
	return true
}

// Delete removes a key from the store.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Replace swaps the whole contents for a copy of items.
func (s *Store[K, V]) Replace(items map[K]V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[K]V, len(items))
	maps.Copy(s.data, items)
}

// Retain drops every entry for which keep returns false and returns the
// number of entries removed.
func (s *Store[K, V]) Retain(keep func(K, V) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, v := range s.data {
		if !keep(k, v) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Snapshot returns a copy of the store contents.
func (s *Store[K, V]) Snapshot() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// Len returns the number of items in the store.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// SortedKeys returns all keys ordered by less.
func (s *Store[K, V]) SortedKeys(less func(a, b K) bool) []K {
	s.mu.RLock()
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
