package adapter

import (
	"errors"
)

var (
	// ErrNotFound is returned when the remote entry has vanished.
	ErrNotFound = errors.New("entry not found")

	// ErrPermissionDenied is returned when the provider rejects the caller.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRateLimited is returned when the provider throttles the caller.
	ErrRateLimited = errors.New("rate limited")

	// ErrFetchFailed wraps transport-level failures talking to the provider.
	ErrFetchFailed = errors.New("fetch failed")
)
