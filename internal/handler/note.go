package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/lamnt-dev/drivebox/internal/model"
	"github.com/lamnt-dev/drivebox/internal/notebook"
)

// NoteHandler serves the shared notes board.
type NoteHandler struct {
	store    *notebook.Store
	renderer *notebook.Renderer
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(store *notebook.Store, renderer *notebook.Renderer) *NoteHandler {
	return &NoteHandler{store: store, renderer: renderer}
}

// noteView is a note plus its list-view presentation flags.
type noteView struct {
	model.Note
	Lines     int  `json:"lines"`
	Collapsed bool `json:"collapsed"`
}

func toViews(notes []model.Note) []noteView {
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, noteView{
			Note:      n,
			Lines:     notebook.CountLines(n.Content),
			Collapsed: notebook.Collapsed(n.Content),
		})
	}
	return views
}

// ListNotes returns one page of notes, optionally filtered by ?q=.
func (h *NoteHandler) ListNotes(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	notes, err := h.store.Search(ctx, req.QueryStringParameters["q"])
	if err != nil {
		return errorResponse("ListNotes", err), nil
	}

	page := 1
	if p := req.QueryStringParameters["page"]; p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			page = parsed
		}
	}

	resp := struct {
		Notes      []noteView `json:"notes"`
		Page       int        `json:"page"`
		TotalPages int        `json:"totalPages"`
		Total      int        `json:"total"`
	}{
		Notes:      toViews(notebook.Paginate(notes, page)),
		Page:       clampPage(page, len(notes)),
		TotalPages: notebook.TotalPages(len(notes)),
		Total:      len(notes),
	}
	return jsonResponse(http.StatusOK, resp), nil
}

func clampPage(page, total int) int {
	last := notebook.TotalPages(total)
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// CreateNote adds a note from a JSON body {content}.
func (h *NoteHandler) CreateNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	note, err := h.store.Add(ctx, payload.Content)
	if err != nil {
		return errorResponse("CreateNote", err), nil
	}
	return jsonResponse(http.StatusCreated, note), nil
}

// DeleteNote removes a note. The confirmation phrase comes from the
// X-Confirm-Delete header or the confirm query parameter.
func (h *NoteHandler) DeleteNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing note ID"}, nil
	}

	confirmation := GetHeader(req, "X-Confirm-Delete")
	if confirmation == "" {
		confirmation = req.QueryStringParameters["confirm"]
	}

	if err := h.store.Delete(ctx, id, confirmation); err != nil {
		return errorResponse("DeleteNote", err), nil
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
}

// RenderNote returns a note's content rendered to HTML.
func (h *NoteHandler) RenderNote(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing note ID"}, nil
	}

	note, err := h.store.Get(ctx, id)
	if err != nil {
		return errorResponse("RenderNote", err), nil
	}

	html, err := h.renderer.Render([]byte(note.Content))
	if err != nil {
		return errorResponse("RenderNote", err), nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(html),
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}, nil
}
