// Package cache holds the shared response cache used to serve repeated page
// requests without touching the database.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is a key/value cache with per-entry expiry.
type Store interface {
	// Get returns the value and whether a live entry was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// DefaultMaxEntries bounds a MemoryStore when no size is configured.
const DefaultMaxEntries = 300

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store holding at most maxEntries entries.
// The least recently used entry is evicted when it is full, and entries
// older than maxTTL are swept in the background whether or not they are
// read again. Shorter per-entry ttls are checked on Get.
type MemoryStore struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

func NewMemoryStore(maxEntries int, maxTTL time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, memoryEntry](maxEntries, nil, maxTTL),
		now: time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.lru.Add(key, memoryEntry{value: stored, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.lru.Purge()
	return nil
}

// Len is the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
