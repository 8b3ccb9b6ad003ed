package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/lamnt-dev/drivebox/internal/handler"
	"github.com/lamnt-dev/drivebox/internal/model"
	"github.com/lamnt-dev/drivebox/internal/notebook"
)

func newNoteHandler() *handler.NoteHandler {
	store := notebook.NewStore(notebook.NewMemoryRepository())
	return handler.NewNoteHandler(store, notebook.NewRenderer())
}

func TestNoteHandler_CreateAndList(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	req := makeRequest("POST", "/notes")
	req.Body = `{"content":"first note"}`
	resp, err := h.CreateNote(ctx, req)
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 Created, got %d: %s", resp.StatusCode, resp.Body)
	}

	var created model.Note
	if err := json.Unmarshal([]byte(resp.Body), &created); err != nil {
		t.Fatalf("Failed to unmarshal note: %v", err)
	}
	if created.ID == "" || created.Timestamp == 0 {
		t.Errorf("note missing id or timestamp: %+v", created)
	}

	listResp, _ := h.ListNotes(ctx, makeRequest("GET", "/notes"))
	var body struct {
		Notes      []model.Note `json:"notes"`
		TotalPages int          `json:"totalPages"`
	}
	json.Unmarshal([]byte(listResp.Body), &body)
	if len(body.Notes) != 1 || body.Notes[0].Content != "first note" {
		t.Errorf("unexpected listing: %+v", body.Notes)
	}
	if body.TotalPages != 1 {
		t.Errorf("expected 1 page, got %d", body.TotalPages)
	}
}

func TestNoteHandler_CreateNote_EmptyContent(t *testing.T) {
	h := newNoteHandler()

	req := makeRequest("POST", "/notes")
	req.Body = `{"content":"  "}`
	resp, _ := h.CreateNote(context.Background(), req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestNoteHandler_Pagination(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		req := makeRequest("POST", "/notes")
		req.Body = fmt.Sprintf(`{"content":"note %d"}`, i)
		h.CreateNote(ctx, req)
	}

	req := makeRequest("GET", "/notes")
	req.QueryStringParameters["page"] = "3"
	resp, _ := h.ListNotes(ctx, req)

	var body struct {
		Notes      []model.Note `json:"notes"`
		Page       int          `json:"page"`
		TotalPages int          `json:"totalPages"`
		Total      int          `json:"total"`
	}
	json.Unmarshal([]byte(resp.Body), &body)
	if body.TotalPages != 3 || body.Total != 13 {
		t.Errorf("unexpected paging meta: %+v", body)
	}
	if len(body.Notes) != 1 {
		t.Errorf("last page must have 1 note, got %d", len(body.Notes))
	}

	// Out-of-range page clamps.
	req.QueryStringParameters["page"] = "99"
	resp, _ = h.ListNotes(ctx, req)
	json.Unmarshal([]byte(resp.Body), &body)
	if body.Page != 3 || len(body.Notes) != 1 {
		t.Errorf("page 99 must clamp to last page: %+v", body)
	}
}

func TestNoteHandler_Search(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	for _, content := range []string{"meeting agenda", "groceries", "Meeting minutes"} {
		req := makeRequest("POST", "/notes")
		req.Body = fmt.Sprintf(`{"content":%q}`, content)
		h.CreateNote(ctx, req)
	}

	req := makeRequest("GET", "/notes")
	req.QueryStringParameters["q"] = "meeting"
	resp, _ := h.ListNotes(ctx, req)

	var body struct {
		Total int `json:"total"`
	}
	json.Unmarshal([]byte(resp.Body), &body)
	if body.Total != 2 {
		t.Errorf("expected 2 matches, got %d", body.Total)
	}
}

func TestNoteHandler_Delete_Confirmation(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	createReq := makeRequest("POST", "/notes")
	createReq.Body = `{"content":"doomed"}`
	createResp, _ := h.CreateNote(ctx, createReq)
	var note model.Note
	json.Unmarshal([]byte(createResp.Body), &note)

	// Wrong confirmation phrase is rejected.
	req := makeRequest("DELETE", "/notes/"+note.ID)
	req.PathParameters["id"] = note.ID
	req.Headers["X-Confirm-Delete"] = "DELETE"
	resp, _ := h.DeleteNote(ctx, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong confirmation must be 400, got %d", resp.StatusCode)
	}

	// Lower-case phrase via query parameter works.
	req.Headers = map[string]string{}
	req.QueryStringParameters["confirm"] = "xoa"
	resp, _ = h.DeleteNote(ctx, req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", resp.StatusCode, resp.Body)
	}

	// Already gone.
	req.Headers["X-Confirm-Delete"] = "XOA"
	resp, _ = h.DeleteNote(ctx, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for deleted note, got %d", resp.StatusCode)
	}
}

func TestNoteHandler_RenderNote(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	createReq := makeRequest("POST", "/notes")
	createReq.Body = `{"content":"# Heading\n\ntext"}`
	createResp, _ := h.CreateNote(ctx, createReq)
	var note model.Note
	json.Unmarshal([]byte(createResp.Body), &note)

	req := makeRequest("GET", "/notes/"+note.ID+"/render")
	req.PathParameters["id"] = note.ID
	resp, err := h.RenderNote(ctx, req)
	if err != nil {
		t.Fatalf("RenderNote returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, "<h1") {
		t.Errorf("expected rendered heading, got %s", resp.Body)
	}
}

func TestNoteHandler_CollapsedFlag(t *testing.T) {
	h := newNoteHandler()
	ctx := context.Background()

	long := strings.Repeat("line\\n", 6) + "line"
	req := makeRequest("POST", "/notes")
	req.Body = fmt.Sprintf(`{"content":"%s"}`, long)
	h.CreateNote(ctx, req)

	resp, _ := h.ListNotes(ctx, makeRequest("GET", "/notes"))
	var body struct {
		Notes []struct {
			Lines     int  `json:"lines"`
			Collapsed bool `json:"collapsed"`
		} `json:"notes"`
	}
	json.Unmarshal([]byte(resp.Body), &body)
	if len(body.Notes) != 1 || !body.Notes[0].Collapsed || body.Notes[0].Lines != 7 {
		t.Errorf("unexpected view flags: %+v", body.Notes)
	}
}
