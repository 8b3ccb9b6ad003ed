package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lamnt-dev/drivebox/internal/model"
)

// MemoryLocker implements Locker using an in-memory map, for tests and the
// local server where all operations share one process.
type MemoryLocker struct {
	locks       map[string]*model.ScopeLock
	mu          sync.Mutex
	ttlDuration time.Duration
}

// NewMemoryLocker creates a new MemoryLocker with the default TTL.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks:       make(map[string]*model.ScopeLock),
		ttlDuration: DefaultTTL,
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, scope, owner string) (*model.ScopeLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	if existing, ok := m.locks[scope]; ok {
		// Allow if expired or same owner
		if existing.ExpiresAt > now && existing.Owner != owner {
			return nil, ErrBusy
		}
	}

	lock := &model.ScopeLock{
		Scope:     scope,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttlDuration.Seconds()),
	}
	m.locks[scope] = lock
	return lock, nil
}

func (m *MemoryLocker) Heartbeat(ctx context.Context, scope, owner string) (*model.ScopeLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[scope]
	if !ok || existing.Owner != owner {
		return nil, fmt.Errorf("lock not found or not owned by %q", owner)
	}

	existing.ExpiresAt = time.Now().Unix() + int64(m.ttlDuration.Seconds())
	return existing, nil
}

func (m *MemoryLocker) Release(ctx context.Context, scope, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[scope]
	if !ok || existing.Owner != owner {
		return fmt.Errorf("lock not found or not owned by %q", owner)
	}

	delete(m.locks, scope)
	return nil
}

func (m *MemoryLocker) Status(ctx context.Context, scope string) (*model.ScopeLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[scope]
	if !ok {
		return nil, nil
	}
	if existing.ExpiresAt < time.Now().Unix() {
		return nil, nil // Expired
	}
	return existing, nil
}
