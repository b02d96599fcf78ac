// Package cache provides the TTL and size-bounded stores backing card
// resolution and search. Entries may be negative ("provider confirmed this
// key does not resolve"), so repeated lookups of misspelled names don't
// re-query the API within the TTL window.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Outcome describes the result of a cache lookup.
type Outcome int

const (
	// Miss means the key is absent or its entry expired.
	Miss Outcome = iota
	// Hit means a positive entry was found.
	Hit
	// NegativeHit means the key was confirmed absent within the TTL window.
	NegativeHit
)

// entry wraps a stored value with its insertion time and negative flag.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	negative   bool
}

// Store is a bounded, time-expiring map from normalized keys to values.
// Safe for concurrent use.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	maxSize int
	ttl     time.Duration

	now func() time.Time // test hook
}

// New creates a Store with the given capacity and TTL.
func New[V any](maxSize int, ttl time.Duration) (*Store[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %v", ttl)
	}
	return &Store[V]{
		entries: make(map[string]*entry[V], maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Get looks up a key. Expired entries are removed on access and reported as
// a Miss.
func (s *Store[V]) Get(key string) (V, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, Miss
	}
	if s.now().Sub(e.insertedAt) >= s.ttl {
		delete(s.entries, key)
		return zero, Miss
	}
	if e.negative {
		return zero, NegativeHit
	}
	return e.value, Hit
}

// PutPositive stores a resolved value under key, refreshing any prior entry.
func (s *Store[V]) PutPositive(key string, value V) {
	s.put(key, &entry[V]{value: value})
}

// PutNegative records that the provider confirmed key does not resolve.
// The tombstone expires like any other entry so a later correction is retried.
func (s *Store[V]) PutNegative(key string) {
	s.put(key, &entry[V]{negative: true})
}

func (s *Store[V]) put(key string, e *entry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.insertedAt = s.now()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.entries[key] = e
}

// evictOldestLocked removes the oldest entries until occupancy is at most
// 75% of capacity. Bulk eviction amortizes the scan under sustained pressure.
func (s *Store[V]) evictOldestLocked() {
	target := s.maxSize * 3 / 4
	if target < 1 {
		target = s.maxSize - 1
	}
	excess := len(s.entries) - target
	if excess <= 0 {
		return
	}

	type aged struct {
		key        string
		insertedAt time.Time
	}
	all := make([]aged, 0, len(s.entries))
	for k, e := range s.entries {
		all = append(all, aged{key: k, insertedAt: e.insertedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].insertedAt.Before(all[j].insertedAt)
	})

	for i := 0; i < excess; i++ {
		delete(s.entries, all[i].key)
	}
}

// EvictExpired removes every entry older than the TTL.
func (s *Store[V]) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-s.ttl)
	for k, e := range s.entries {
		if !e.insertedAt.After(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the current number of entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V], s.maxSize)
}

// NameKey normalizes a card name into its cache key.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
