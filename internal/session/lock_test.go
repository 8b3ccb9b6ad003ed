package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLocker_AcquireAndRelease(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	l, err := m.Acquire(ctx, "drive_files:f1_", "op-1")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if l.Scope != "drive_files:f1_" || l.Owner != "op-1" {
		t.Errorf("lock mismatch: got %+v", l)
	}

	if err := m.Release(ctx, "drive_files:f1_", "op-1"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	status, _ := m.Status(ctx, "drive_files:f1_")
	if status != nil {
		t.Error("expected nil status after release")
	}
}

func TestMemoryLocker_Busy(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	if _, err := m.Acquire(ctx, "scope", "op-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	_, err := m.Acquire(ctx, "scope", "op-2")
	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy for held scope, got %v", err)
	}

	// A different scope is free.
	if _, err := m.Acquire(ctx, "other-scope", "op-2"); err != nil {
		t.Errorf("different scope should acquire: %v", err)
	}
}

func TestMemoryLocker_Reacquire_SameOwner(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	if _, err := m.Acquire(ctx, "scope", "op-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if _, err := m.Acquire(ctx, "scope", "op-1"); err != nil {
		t.Errorf("same owner should re-acquire: %v", err)
	}
}

func TestMemoryLocker_ExpiredLock(t *testing.T) {
	m := NewMemoryLocker()
	m.ttlDuration = -1 * time.Second // already expired
	ctx := context.Background()

	if _, err := m.Acquire(ctx, "scope", "op-1"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	m.ttlDuration = DefaultTTL
	if _, err := m.Acquire(ctx, "scope", "op-2"); err != nil {
		t.Errorf("should acquire expired lock: %v", err)
	}
}

func TestMemoryLocker_Heartbeat(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	l, _ := m.Acquire(ctx, "scope", "op-1")
	originalExpiry := l.ExpiresAt

	time.Sleep(1100 * time.Millisecond)

	updated, err := m.Heartbeat(ctx, "scope", "op-1")
	if err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	if updated.ExpiresAt <= originalExpiry {
		t.Errorf("expected heartbeat to extend expiry: original=%d, updated=%d", originalExpiry, updated.ExpiresAt)
	}
}

func TestMemoryLocker_Release_WrongOwner(t *testing.T) {
	m := NewMemoryLocker()
	ctx := context.Background()

	m.Acquire(ctx, "scope", "op-1")

	if err := m.Release(ctx, "scope", "op-2"); err == nil {
		t.Error("expected error when releasing lock owned by another operation")
	}
}

func TestMemoryLocker_Status_Nonexistent(t *testing.T) {
	m := NewMemoryLocker()

	status, err := m.Status(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Status unexpected error: %v", err)
	}
	if status != nil {
		t.Error("expected nil for nonexistent lock")
	}
}
