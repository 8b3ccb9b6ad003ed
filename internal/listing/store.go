// Package listing materializes folder listings: it fronts the remote
// gateway with the invalidation cache, coalesces concurrent loads, keeps
// the navigation stack, and guards against stale responses arriving after
// the user has navigated away.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/cache"
	"github.com/lamnt-dev/drivebox/internal/session"
)

// Store holds the current flat listing for one folder scope plus the
// navigation stack. Reads go through the invalidation cache; it never
// writes anything the MutationCoordinator wouldn't invalidate.
type Store struct {
	storage adapter.Storage
	cache   cache.Store
	locker  session.Locker
	group   singleflight.Group

	mu       sync.Mutex
	nav      Navigation
	gen      uint64
	visible  []adapter.Entry
	retained map[string][]adapter.Entry // last good listing per scope
}

// NewStore creates a Store over the given gateway, cache and scope locker.
// The locker serializes fetches against mutations on the same scope; a nil
// locker disables that guard (tests of unrelated behavior).
func NewStore(storage adapter.Storage, cacheStore cache.Store, locker session.Locker) *Store {
	return &Store{
		storage:  storage,
		cache:    cacheStore,
		locker:   locker,
		retained: make(map[string][]adapter.Entry),
	}
}

// Load returns the listing for a folder scope. Cache hit: no network call.
// Cache miss: one gateway call even under concurrent loads for the same
// scope (coalesced). On gateway failure the previous listing for the scope
// is returned alongside the error; state is never cleared on failure.
func (s *Store) Load(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	key := cache.FolderKey(folderID)

	if entries, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		s.retain(folderID, entries)
		return entries, nil
	}

	return s.fetch(ctx, folderID)
}

// Refresh bypasses the cache and refetches the scope from the gateway.
func (s *Store) Refresh(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	if err := s.cache.Delete(ctx, cache.FolderKey(folderID)); err != nil {
		fmt.Printf("cache delete error: %v\n", err)
	}
	return s.fetch(ctx, folderID)
}

func (s *Store) fetch(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	key := cache.FolderKey(folderID)

	v, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		// Register the in-flight fetch in the scope lock so a mutation on
		// the same scope is rejected Busy until the listing lands. If a
		// mutation already holds the scope, the fetch still serves the
		// gateway listing but must not cache it: the write could land
		// after the mutation's invalidation and pin a stale listing.
		release, err := s.lockScope(ctx, key.String())
		if err != nil && !errors.Is(err, session.ErrBusy) {
			return nil, err
		}
		cacheable := err == nil
		if cacheable {
			defer release()
		}

		entries, err := s.storage.List(ctx, folderID)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.cache.Set(ctx, key, entries); err != nil {
				fmt.Printf("cache set error: %v\n", err)
			}
		}
		return entries, nil
	})
	if err != nil {
		// Stale-but-present beats empty: keep showing the last good
		// listing and let the caller surface the failure.
		return s.lastGood(folderID), fmt.Errorf("load %q: %w", folderID, err)
	}

	entries := v.([]adapter.Entry)
	s.retain(folderID, entries)
	return entries, nil
}

// lockScope acquires the scope lock for an in-flight fetch and returns
// the release function.
func (s *Store) lockScope(ctx context.Context, scope string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	owner := uuid.NewString()
	if _, err := s.locker.Acquire(ctx, scope, owner); err != nil {
		return nil, err
	}
	return func() {
		if err := s.locker.Release(ctx, scope, owner); err != nil {
			fmt.Printf("lock release error: %v\n", err)
		}
	}, nil
}

func (s *Store) retain(folderID string, entries []adapter.Entry) {
	s.mu.Lock()
	s.retained[folderID] = entries
	s.mu.Unlock()
}

func (s *Store) lastGood(folderID string) []adapter.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retained[folderID]
}

// Sync loads the listing for the current navigation scope and installs it
// as the visible listing. If the user navigates away while the fetch is
// outstanding, the late result is discarded and the visible listing is
// left untouched.
func (s *Store) Sync(ctx context.Context) ([]adapter.Entry, error) {
	s.mu.Lock()
	scope := s.nav.Current()
	gen := s.gen
	s.mu.Unlock()

	entries, err := s.Load(ctx, scope)
	if err != nil {
		return entries, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Stale-response guard: the requested scope is no longer current.
		return s.visible, nil
	}
	s.visible = entries
	return entries, nil
}

// Visible returns the listing last installed for the current scope.
func (s *Store) Visible() []adapter.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Enter descends into a folder, appending it to the breadcrumb path.
func (s *Store) Enter(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Enter(id, name)
	s.gen++
}

// JumpTo truncates the breadcrumb path at index i and navigates there.
func (s *Store) JumpTo(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.JumpTo(i)
	s.gen++
}

// Back pops the deepest breadcrumb, or returns to root.
func (s *Store) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Back()
	s.gen++
}

// Current returns the current folder scope ("" = root).
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

// Path returns a copy of the breadcrumb path.
func (s *Store) Path() []Crumb {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.PathCopy()
}
