package cache

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[Key]Entry{}}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return &entry, nil
}

// Set ignores ttl; staleness is judged from FetchedAt on read.
func (s *MemoryStore) Set(_ context.Context, key Key, entry Entry, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
