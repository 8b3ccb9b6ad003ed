package session

import (
	"context"
	"errors"

	"github.com/lamnt-dev/drivebox/internal/model"
)

// ErrBusy is returned when a scope already has an in-flight operation.
// Callers should surface it and retry later; nothing is queued.
var ErrBusy = errors.New("scope busy")

// Locker serializes operations per listing scope. A mutation or load on a
// scope must not start while another operation on the same scope holds the
// lock; operations on different scopes may overlap freely.
type Locker interface {
	// Acquire attempts to take the lock on a scope for the given owner.
	// Returns ErrBusy if another owner holds an unexpired lock.
	Acquire(ctx context.Context, scope, owner string) (*model.ScopeLock, error)

	// Heartbeat extends the lock TTL if the owner holds it.
	Heartbeat(ctx context.Context, scope, owner string) (*model.ScopeLock, error)

	// Release removes the lock if the owner holds it.
	Release(ctx context.Context, scope, owner string) error

	// Status retrieves the current lock, or nil if the scope is free.
	Status(ctx context.Context, scope string) (*model.ScopeLock, error)
}
