package notebook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lamnt-dev/drivebox/internal/model"
)

func TestStore_Add(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	ctx := context.Background()

	note, err := s.Add(ctx, "hello world")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if note.ID == "" || note.Timestamp == 0 {
		t.Errorf("note missing id or timestamp: %+v", note)
	}

	got, err := s.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "hello world" {
		t.Errorf("unexpected content %q", got.Content)
	}
}

func TestStore_Add_EmptyContent(t *testing.T) {
	s := NewStore(NewMemoryRepository())

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := s.Add(context.Background(), content); !errors.Is(err, ErrValidation) {
			t.Errorf("content %q: expected ErrValidation, got %v", content, err)
		}
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	// Explicit timestamps; Add would assign near-identical ones.
	for i := 0; i < 3; i++ {
		repo.Save(ctx, &model.Note{ID: fmt.Sprintf("n%d", i), Content: "x", Timestamp: int64(i)})
	}

	notes, err := NewStore(repo).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if notes[0].ID != "n2" || notes[2].ID != "n0" {
		t.Errorf("expected newest first, got %+v", notes)
	}
}

func TestStore_Delete_Confirmation(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	ctx := context.Background()

	cases := []struct {
		confirmation string
		ok           bool
	}{
		{"XOA", true},
		{"xoa", true},
		{"Xoa", true},
		{" XOA ", true},
		{"delete", false},
		{"XO", false},
		{"", false},
	}
	for _, c := range cases {
		note, _ := s.Add(ctx, "doomed")
		err := s.Delete(ctx, note.ID, c.confirmation)
		if c.ok && err != nil {
			t.Errorf("confirmation %q should delete: %v", c.confirmation, err)
		}
		if !c.ok && !errors.Is(err, ErrConfirmationMismatch) {
			t.Errorf("confirmation %q: expected ErrConfirmationMismatch, got %v", c.confirmation, err)
		}
	}
}

func TestStore_Delete_NotFound(t *testing.T) {
	s := NewStore(NewMemoryRepository())

	if err := s.Delete(context.Background(), "missing", "XOA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Search(t *testing.T) {
	s := NewStore(NewMemoryRepository())
	ctx := context.Background()

	s.Add(ctx, "Meeting notes for Monday")
	s.Add(ctx, "shopping list")
	s.Add(ctx, "monday retro")

	found, err := s.Search(ctx, "monday")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 matches, got %d", len(found))
	}

	all, _ := s.Search(ctx, "  ")
	if len(all) != 3 {
		t.Errorf("empty term must return everything, got %d", len(all))
	}
}

func TestPaginate(t *testing.T) {
	notes := make([]model.Note, 13)
	for i := range notes {
		notes[i] = model.Note{ID: fmt.Sprintf("n%d", i)}
	}

	if got := TotalPages(len(notes)); got != 3 {
		t.Errorf("TotalPages(13) = %d, want 3", got)
	}
	if got := TotalPages(0); got != 1 {
		t.Errorf("TotalPages(0) = %d, want 1", got)
	}

	if page := Paginate(notes, 1); len(page) != 6 || page[0].ID != "n0" {
		t.Errorf("page 1: got %d notes starting %s", len(page), page[0].ID)
	}
	if page := Paginate(notes, 3); len(page) != 1 || page[0].ID != "n12" {
		t.Errorf("page 3: got %d notes", len(page))
	}

	// Out-of-range pages clamp.
	if page := Paginate(notes, 0); page[0].ID != "n0" {
		t.Errorf("page 0 must clamp to first page, got %s", page[0].ID)
	}
	if page := Paginate(notes, 99); page[0].ID != "n12" {
		t.Errorf("page 99 must clamp to last page, got %s", page[0].ID)
	}

	if page := Paginate(nil, 1); len(page) != 0 {
		t.Errorf("empty list must paginate to empty page, got %d", len(page))
	}
}

func TestCollapsed(t *testing.T) {
	short := strings.Repeat("line\n", 4) + "line"
	long := strings.Repeat("line\n", 5) + "line"

	if Collapsed(short) {
		t.Error("5 lines must not collapse")
	}
	if !Collapsed(long) {
		t.Error("6 lines must collapse")
	}
	if CountLines("") != 0 {
		t.Error("empty content has 0 lines")
	}
}

func TestRenderer(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("# Title\n\nsome `code`"))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<code>") {
		t.Errorf("unexpected html: %s", html)
	}

	// Raw HTML must not pass through.
	out, _ = r.Render([]byte("<script>alert(1)</script>"))
	if strings.Contains(string(out), "<script>") {
		t.Errorf("raw html must be escaped: %s", out)
	}
}
