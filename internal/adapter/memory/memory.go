// Package memory provides an in-memory adapter.Storage used by tests and
// the local dev server. It mirrors the Drive semantics the rest of the
// code depends on: flat ids, parent links, permanent deletes.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/model"
)

const defaultQuota = 15 * 1024 * 1024 * 1024 // matches a free Drive tier

type item struct {
	entry   adapter.Entry
	parent  string
	content []byte
	seq     int // creation order, keeps List deterministic
}

// MemoryStorage implements adapter.Storage backed by a map.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]*item
	next  int

	BaseFolderID string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage(baseFolderID string) *MemoryStorage {
	return &MemoryStorage{
		items:        make(map[string]*item),
		BaseFolderID: baseFolderID,
	}
}

func (m *MemoryStorage) targetFolder(folderID string) string {
	if folderID != "" {
		return folderID
	}
	if m.BaseFolderID != "" {
		return m.BaseFolderID
	}
	return "root"
}

// List lists the entries directly inside a folder, in creation order.
func (m *MemoryStorage) List(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	target := m.targetFolder(folderID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var children []*item
	for _, it := range m.items {
		if it.parent == target {
			children = append(children, it)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].seq < children[j].seq })

	entries := []adapter.Entry{}
	for _, it := range children {
		entries = append(entries, it.entry)
	}
	return entries, nil
}

// CreateFolder creates a new folder under parentID.
func (m *MemoryStorage) CreateFolder(ctx context.Context, name string, parentID string) (*adapter.Entry, error) {
	entry := adapter.Entry{
		ID:          uuid.NewString(),
		Name:        name,
		IsFolder:    true,
		MIMEType:    "application/vnd.google-apps.folder",
		CreatedTime: time.Now(),
	}

	m.mu.Lock()
	m.items[entry.ID] = &item{entry: entry, parent: m.targetFolder(parentID), seq: m.next}
	m.next++
	m.mu.Unlock()

	return &entry, nil
}

// Upload stores a new file under parentID.
func (m *MemoryStorage) Upload(ctx context.Context, name, parentID, mimeType string, size int64, r io.Reader) (*adapter.Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	entry := adapter.Entry{
		ID:          uuid.NewString(),
		Name:        name,
		MIMEType:    mimeType,
		Size:        int64(len(content)),
		CreatedTime: time.Now(),
	}

	m.mu.Lock()
	m.items[entry.ID] = &item{entry: entry, parent: m.targetFolder(parentID), content: content, seq: m.next}
	m.next++
	m.mu.Unlock()

	return &entry, nil
}

// Delete permanently removes an entry and, for folders, all descendants.
func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return adapter.ErrNotFound
	}

	doomed := []string{id}
	for len(doomed) > 0 {
		cur := doomed[len(doomed)-1]
		doomed = doomed[:len(doomed)-1]
		for childID, it := range m.items {
			if it.parent == cur {
				doomed = append(doomed, childID)
			}
		}
		delete(m.items, cur)
	}
	return nil
}

// Download returns the content stream and metadata of a file.
func (m *MemoryStorage) Download(ctx context.Context, id string) (io.ReadCloser, *adapter.Entry, error) {
	m.mu.RLock()
	it, ok := m.items[id]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, adapter.ErrNotFound
	}
	entry := it.entry
	if entry.IsFolder {
		return nil, &entry, adapter.ErrFetchFailed
	}
	return io.NopCloser(bytes.NewReader(it.content)), &entry, nil
}

// Search finds entries whose name contains the term, case-insensitively.
func (m *MemoryStorage) Search(ctx context.Context, term string) ([]adapter.Entry, error) {
	needle := strings.ToLower(term)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []*item
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.entry.Name), needle) {
			found = append(found, it)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	entries := []adapter.Entry{}
	for _, it := range found {
		entries = append(entries, it.entry)
	}
	return entries, nil
}

// About reports storage quota usage against a fixed total.
func (m *MemoryStorage) About(ctx context.Context) (*model.DriveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var used int64
	for _, it := range m.items {
		used += int64(len(it.content))
	}
	return &model.DriveInfo{
		Total:     defaultQuota,
		Used:      used,
		Remaining: defaultQuota - used,
	}, nil
}

// Provider implements adapter.Provider with one shared MemoryStorage per
// user ID.
type Provider struct {
	mu       sync.Mutex
	storages map[string]*MemoryStorage
}

// NewProvider creates a new in-memory provider.
func NewProvider() *Provider {
	return &Provider{storages: make(map[string]*MemoryStorage)}
}

// GetStorage returns the MemoryStorage for the given user ID, creating it
// on first use.
func (p *Provider) GetStorage(ctx context.Context, userID string) (adapter.Storage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.storages[userID]; ok {
		return s, nil
	}
	s := NewMemoryStorage("")
	p.storages[userID] = s
	return s, nil
}
