package notebook

import (
	"context"
	"sort"
	"sync"

	"github.com/lamnt-dev/drivebox/internal/model"
)

// Repository persists notes.
type Repository interface {
	Save(ctx context.Context, note *model.Note) error
	Get(ctx context.Context, id string) (*model.Note, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Note, error)
}

// MemoryRepository is an in-memory Repository used by tests and the local
// dev server.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[string]model.Note
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[string]model.Note)}
}

func (r *MemoryRepository) Save(ctx context.Context, note *model.Note) error {
	r.mu.Lock()
	r.notes[note.ID] = *note
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*model.Note, error) {
	r.mu.RLock()
	note, ok := r.notes[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &note, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

// List returns all notes, newest first.
func (r *MemoryRepository) List(ctx context.Context) ([]model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]model.Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Timestamp > notes[j].Timestamp })
	return notes, nil
}
