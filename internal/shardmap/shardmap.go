// Package shardmap provides a string-keyed concurrent map split into
// independently locked buckets, so operations on unrelated keys never
// contend on a single global lock.
package shardmap

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 32

type shard[V any] struct {
	mu      sync.Mutex
	entries map[string]V
}

// Map is a sharded map from string keys to values of type V. Operations on
// the same key are serialized by the owning bucket's lock.
type Map[V any] struct {
	shards []*shard[V]
}

// New returns a Map with the default shard count.
func New[V any]() *Map[V] {
	shards := make([]*shard[V], defaultShards)
	for i := range shards {
		shards[i] = &shard[V]{entries: make(map[string]V)}
	}
	return &Map[V]{shards: shards}
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Get returns the value stored for key, if any.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Map[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Update runs fn with the current value for key while holding the bucket
// lock. fn returns the value to store and whether to keep the entry; a false
// keep deletes it. The whole read-modify-write is atomic with respect to
// other operations on the same key.
func (m *Map[V]) Update(key string, fn func(current V, exists bool) (V, bool)) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[key]
	next, keep := fn(cur, ok)
	if keep {
		s.entries[key] = next
	} else {
		delete(s.entries, key)
	}
}

// Len returns the total number of entries across all shards.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
