// Package notebook implements the shared notes board: plain-text notes
// with markdown rendering, destructive deletes gated behind a typed
// confirmation phrase, search and fixed-size pagination.
package notebook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lamnt-dev/drivebox/internal/model"
)

const (
	// PageSize is the number of notes per page.
	PageSize = 6

	// DeleteConfirmation must be typed to delete a note.
	DeleteConfirmation = "XOA"

	// collapseThreshold is the line count above which a note starts
	// collapsed in the list view.
	collapseThreshold = 5
)

// Store is the notebook service over a Repository.
type Store struct {
	repo Repository
}

// NewStore creates a Store.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Add saves a new note. Empty trimmed content is rejected.
func (s *Store) Add(ctx context.Context, content string) (*model.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content is empty", ErrValidation)
	}

	note := &model.Note{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.repo.Save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Get returns one note by id.
func (s *Store) Get(ctx context.Context, id string) (*model.Note, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes a note permanently. The confirmation phrase must match
// DeleteConfirmation, case-insensitively; anything else is rejected before
// the repository is touched.
func (s *Store) Delete(ctx context.Context, id, confirmation string) error {
	if !strings.EqualFold(strings.TrimSpace(confirmation), DeleteConfirmation) {
		return ErrConfirmationMismatch
	}
	return s.repo.Delete(ctx, id)
}

// List returns all notes, newest first.
func (s *Store) List(ctx context.Context) ([]model.Note, error) {
	return s.repo.List(ctx)
}

// Search returns notes whose content contains the term, case-insensitively.
// An empty term returns everything.
func (s *Store) Search(ctx context.Context, term string) ([]model.Note, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return notes, nil
	}

	needle := strings.ToLower(term)
	matched := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Content), needle) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// TotalPages returns the page count for n notes; an empty list has one
// empty page.
func TotalPages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Paginate returns the 1-based page of notes. Out-of-range pages clamp to
// the nearest valid page.
func Paginate(notes []model.Note, page int) []model.Note {
	total := TotalPages(len(notes))
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * PageSize
	if start >= len(notes) {
		return []model.Note{}
	}
	end := start + PageSize
	if end > len(notes) {
		end = len(notes)
	}
	return notes[start:end]
}

// CountLines counts the lines in note content.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

// Collapsed reports whether a note starts collapsed in the list view.
func Collapsed(content string) bool {
	return CountLines(content) > collapseThreshold
}
