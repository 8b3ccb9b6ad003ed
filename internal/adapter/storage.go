package adapter

import (
	"context"
	"io"
	"time"

	"github.com/lamnt-dev/drivebox/internal/model"
)

// Entry represents a single remote file or folder record.
// IsFolder is resolved once by the gateway implementation; callers must not
// compare MIME types themselves.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsFolder    bool      `json:"isFolder"`
	MIMEType    string    `json:"mimeType"`
	Size        int64     `json:"size,omitempty"`
	CreatedTime time.Time `json:"createdTime"`
}

// Storage defines the interface for interacting with the remote storage
// provider. This abstraction allows switching between providers (Google
// Drive, an in-memory store for tests) without changing the listing, view
// or mutation logic.
type Storage interface {
	// List lists the entries directly inside a folder. An empty folderID
	// means the configured base folder (or the provider root).
	List(ctx context.Context, folderID string) ([]Entry, error)

	// CreateFolder creates a new folder under parentID.
	CreateFolder(ctx context.Context, name string, parentID string) (*Entry, error)

	// Upload streams a new file into parentID. size may be -1 if unknown.
	Upload(ctx context.Context, name, parentID, mimeType string, size int64, r io.Reader) (*Entry, error)

	// Delete permanently deletes a file or folder by its ID. Not recoverable.
	Delete(ctx context.Context, id string) error

	// Download returns the content stream and metadata of a file.
	// The caller owns the returned ReadCloser.
	Download(ctx context.Context, id string) (io.ReadCloser, *Entry, error)

	// Search finds files whose name matches the term, recursively.
	Search(ctx context.Context, term string) ([]Entry, error)

	// About reports storage quota usage.
	About(ctx context.Context) (*model.DriveInfo, error)
}

// Provider defines how to get a Storage for a specific principal.
type Provider interface {
	// GetStorage returns a Storage for the given user ID.
	GetStorage(ctx context.Context, userID string) (Storage, error)
}
