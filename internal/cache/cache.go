// Package cache provides the invalidation cache sitting in front of
// listing calls to the remote storage gateway. Values are cached listings
// keyed by folder scope; mutations delete keys, they never update values.
package cache

import (
	"context"

	"github.com/lamnt-dev/drivebox/internal/adapter"
)

// ListingPrefix is the key namespace for cached folder listings.
const ListingPrefix = "drive_files:"

// Key is a typed scope key. Using a dedicated type keeps invalidation
// scoping in one place instead of string conventions scattered across
// components.
type Key string

// FolderKey returns the scope key for a folder listing. An empty folderID
// addresses the root scope.
func FolderKey(folderID string) Key {
	if folderID == "" {
		return Key(ListingPrefix + "root_")
	}
	return Key(ListingPrefix + folderID + "_")
}

func (k Key) String() string { return string(k) }

// Store is the invalidation cache interface. Implementations must treat a
// missing key as a normal miss, not an error.
type Store interface {
	// Get returns the cached listing for the scope, if present.
	Get(ctx context.Context, key Key) ([]adapter.Entry, bool, error)

	// Set stores (or overwrites) the listing for the scope.
	Set(ctx context.Context, key Key, entries []adapter.Entry) error

	// Delete removes a single scope.
	Delete(ctx context.Context, key Key) error

	// DeleteByPrefix removes every key under the prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Flush removes all listing scopes.
	Flush(ctx context.Context) error
}
