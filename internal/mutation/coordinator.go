// Package mutation coordinates writes against the remote storage gateway:
// folder creation, uploads, deletes and folder downloads. Every operation
// serializes on its folder scope and invalidates the affected cache keys
// so the next listing load refetches.
package mutation

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/cache"
	"github.com/lamnt-dev/drivebox/internal/session"
)

// Lister loads folder listings. In production this is the listing.Store,
// so archive walks benefit from the cache.
type Lister interface {
	Load(ctx context.Context, folderID string) ([]adapter.Entry, error)
}

// Coordinator runs mutations with per-scope locking and cache invalidation.
type Coordinator struct {
	storage adapter.Storage
	cache   cache.Store
	locker  session.Locker
	lister  Lister
}

// NewCoordinator wires a Coordinator over the gateway, cache and locker.
// A nil lister falls back to uncached gateway listings.
func NewCoordinator(storage adapter.Storage, cacheStore cache.Store, locker session.Locker, lister Lister) *Coordinator {
	return &Coordinator{storage: storage, cache: cacheStore, locker: locker, lister: lister}
}

func (c *Coordinator) list(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	if c.lister != nil {
		return c.lister.Load(ctx, folderID)
	}
	return c.storage.List(ctx, folderID)
}

// lockScope acquires the scope lock for a folder and returns the release
// function. A held scope surfaces as session.ErrBusy.
func (c *Coordinator) lockScope(ctx context.Context, folderID string) (func(), error) {
	scope := cache.FolderKey(folderID).String()
	owner := uuid.NewString()
	if _, err := c.locker.Acquire(ctx, scope, owner); err != nil {
		return nil, err
	}
	return func() {
		if err := c.locker.Release(ctx, scope, owner); err != nil {
			fmt.Printf("lock release error: %v\n", err)
		}
	}, nil
}

func (c *Coordinator) invalidate(ctx context.Context, folderID string) {
	if err := c.cache.Delete(ctx, cache.FolderKey(folderID)); err != nil {
		fmt.Printf("cache invalidate error: %v\n", err)
	}
}

// CreateFolder creates a folder under parentID and invalidates the parent
// scope. An empty trimmed name is rejected before any gateway call.
func (c *Coordinator) CreateFolder(ctx context.Context, name, parentID string) (*adapter.Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is empty", ErrValidation)
	}

	release, err := c.lockScope(ctx, parentID)
	if err != nil {
		return nil, err
	}
	defer release()

	entry, err := c.storage.CreateFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, parentID)
	return entry, nil
}

// UploadRequest describes one file upload.
type UploadRequest struct {
	Name       string
	ParentID   string
	MIMEType   string
	Size       int64 // -1 when unknown
	Content    io.Reader
	OnProgress func(percent int)
}

// UploadFile streams one file to the gateway, reporting monotonic 0-100
// progress, and invalidates the parent scope on success.
func (c *Coordinator) UploadFile(ctx context.Context, req UploadRequest) (*adapter.Entry, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: file name is empty", ErrValidation)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: no content", ErrValidation)
	}

	release, err := c.lockScope(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}
	defer release()

	return c.uploadLocked(ctx, req)
}

// uploadLocked performs the upload and invalidation; the caller holds the
// scope lock.
func (c *Coordinator) uploadLocked(ctx context.Context, req UploadRequest) (*adapter.Entry, error) {
	r := newProgressReader(req.Content, req.Size, req.OnProgress)
	entry, err := c.storage.Upload(ctx, req.Name, req.ParentID, req.MIMEType, req.Size, r)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, req.ParentID)
	return entry, nil
}

// BatchResult is the outcome of one item in a batch upload.
type BatchResult struct {
	Name  string
	Entry *adapter.Entry
	Err   error
}

// UploadBatch uploads several files into the same parent. Items are
// isolated: one failure does not stop or undo the others.
func (c *Coordinator) UploadBatch(ctx context.Context, parentID string, reqs []UploadRequest) ([]BatchResult, error) {
	release, err := c.lockScope(ctx, parentID)
	if err != nil {
		return nil, err
	}
	defer release()

	results := make([]BatchResult, 0, len(reqs))
	for _, req := range reqs {
		req.ParentID = parentID
		if strings.TrimSpace(req.Name) == "" || req.Content == nil {
			results = append(results, BatchResult{Name: req.Name, Err: ErrValidation})
			continue
		}
		entry, err := c.uploadLocked(ctx, req)
		if err != nil {
			fmt.Printf("batch upload error: %s: %v\n", req.Name, err)
		}
		results = append(results, BatchResult{Name: req.Name, Entry: entry, Err: err})
	}
	return results, nil
}

// FolderFile is one file in a folder upload, addressed by its relative
// path inside the dropped folder (forward slashes).
type FolderFile struct {
	RelPath  string
	MIMEType string
	Size     int64
	Content  io.Reader
}

// UploadFolder recreates a local folder tree under parentID. Each remote
// directory is created exactly once, parents before children, and files
// are uploaded into their resolved directory. Items are isolated the same
// way UploadBatch isolates them.
func (c *Coordinator) UploadFolder(ctx context.Context, parentID string, files []FolderFile) ([]BatchResult, error) {
	release, err := c.lockScope(ctx, parentID)
	if err != nil {
		return nil, err
	}
	defer release()

	dirIDs := map[string]string{"": parentID}

	// Resolving in sorted order guarantees a parent path is always seen
	// before any of its children.
	dirs := make([]string, 0, len(files))
	seen := map[string]bool{}
	for _, f := range files {
		d := path.Dir(f.RelPath)
		if d == "." {
			d = ""
		}
		if d != "" && !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if _, err := c.ensureDir(ctx, dirIDs, dir); err != nil {
			return nil, err
		}
	}

	results := make([]BatchResult, 0, len(files))
	for _, f := range files {
		d := path.Dir(f.RelPath)
		if d == "." {
			d = ""
		}
		entry, err := c.uploadLocked(ctx, UploadRequest{
			Name:     path.Base(f.RelPath),
			ParentID: dirIDs[d],
			MIMEType: f.MIMEType,
			Size:     f.Size,
			Content:  f.Content,
		})
		if err != nil {
			fmt.Printf("folder upload error: %s: %v\n", f.RelPath, err)
		}
		results = append(results, BatchResult{Name: f.RelPath, Entry: entry, Err: err})
	}
	return results, nil
}

// ensureDir resolves a relative directory path to a remote folder ID,
// creating missing segments and memoizing every resolved prefix.
func (c *Coordinator) ensureDir(ctx context.Context, dirIDs map[string]string, dir string) (string, error) {
	if id, ok := dirIDs[dir]; ok {
		return id, nil
	}

	parent := path.Dir(dir)
	if parent == "." {
		parent = ""
	}
	parentRemote, err := c.ensureDir(ctx, dirIDs, parent)
	if err != nil {
		return "", err
	}

	entry, err := c.storage.CreateFolder(ctx, path.Base(dir), parentRemote)
	if err != nil {
		return "", fmt.Errorf("create directory %q: %w", dir, err)
	}
	c.invalidate(ctx, parentRemote)
	dirIDs[dir] = entry.ID
	return entry.ID, nil
}

// Delete permanently removes an entry and flushes every listing scope.
// The deleted entry may be a folder whose descendants were cached under
// their own scopes, so the whole listing namespace goes cold.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: missing id", ErrValidation)
	}

	release, err := c.lockScope(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if err := c.storage.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.cache.DeleteByPrefix(ctx, cache.ListingPrefix); err != nil {
		fmt.Printf("cache flush error: %v\n", err)
	}
	return nil
}
