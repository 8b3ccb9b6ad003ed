package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/lamnt-dev/drivebox/internal/adapter"
)

// MemoryStore implements Store using an in-memory map, for tests and dev
// mode without a Redis instance.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[Key][]adapter.Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[Key][]adapter.Entry)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) ([]adapter.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.listings[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate the cached slice.
	out := make([]adapter.Entry, len(entries))
	copy(out, entries)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key Key, entries []adapter.Entry) error {
	stored := make([]adapter.Entry, len(entries))
	copy(stored, entries)

	s.mu.Lock()
	s.listings[key] = stored
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	delete(s.listings, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	for k := range s.listings {
		if strings.HasPrefix(string(k), prefix) {
			delete(s.listings, k)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Flush(ctx context.Context) error {
	return s.DeleteByPrefix(ctx, ListingPrefix)
}
