package query

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached payload plus its staleness metadata.
type Entry struct {
	Data      []byte    `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// Store keeps query payloads. Invalidate must affect every scope and
// parameter set of the resource.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, key Key, e Entry) error
	Invalidate(ctx context.Context, resource string) error
}

// MemoryStore is an in-process Store. Invalidation marks entries stale
// rather than dropping them.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]Entry // resource -> key -> entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key.Resource][key.String()]
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.entries[key.Resource]
	if m == nil {
		m = make(map[string]Entry)
		s.entries[key.Resource] = m
	}
	m[key.String()] = e
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, resource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries[resource] {
		e.Stale = true
		s.entries[resource][k] = e
	}
	return nil
}

// Len reports how many entries are held for resource, stale or not.
func (s *MemoryStore) Len(resource string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[resource])
}
