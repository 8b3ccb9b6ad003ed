package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/auth"
	"github.com/lamnt-dev/drivebox/internal/cache"
	"github.com/lamnt-dev/drivebox/internal/listing"
	"github.com/lamnt-dev/drivebox/internal/mutation"
	"github.com/lamnt-dev/drivebox/internal/view"
)

// DriveHandler serves the file-management endpoints.
type DriveHandler struct {
	storage     adapter.Storage
	listings    *listing.Store
	coordinator *mutation.Coordinator
	cacheStore  cache.Store
	admin       *auth.Admin
}

// NewDriveHandler creates a DriveHandler.
func NewDriveHandler(storage adapter.Storage, listings *listing.Store, coordinator *mutation.Coordinator, cacheStore cache.Store, admin *auth.Admin) *DriveHandler {
	return &DriveHandler{
		storage:     storage,
		listings:    listings,
		coordinator: coordinator,
		cacheStore:  cacheStore,
		admin:       admin,
	}
}

// ListFiles returns the listing for a folder scope. View params are taken
// from the query string so the response is already filtered and sorted.
func (h *DriveHandler) ListFiles(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	folderID := req.QueryStringParameters["folderId"]

	// Peek at the cache first so the response can say where it came from.
	_, hit, _ := h.cacheStore.Get(ctx, cache.FolderKey(folderID))

	entries, err := h.listings.Load(ctx, folderID)
	if err != nil {
		return errorResponse("ListFiles", err), nil
	}

	params := viewParams(req)
	resp := struct {
		Files      []adapter.Entry `json:"files"`
		Extensions []string        `json:"extensions"`
	}{
		Files:      view.Project(entries, params),
		Extensions: view.UniqueExtensions(entries),
	}

	out := jsonResponse(http.StatusOK, resp)
	if hit {
		out.Headers["X-Cache"] = "HIT"
	} else {
		out.Headers["X-Cache"] = "MISS"
	}
	return out, nil
}

// viewParams reads the view controls off the query string.
func viewParams(req events.APIGatewayProxyRequest) view.Params {
	params := view.DefaultParams()
	q := req.QueryStringParameters

	if s := q["sort"]; s != "" {
		params.Sort = view.SortCriteria(s)
	}
	params.Extension = q["extension"]
	params.Search = q["search"]
	if q["showFolders"] == "false" {
		params.ShowFolders = false
	}
	return params
}

// Info returns the drive storage quota.
func (h *DriveHandler) Info(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	info, err := h.storage.About(ctx)
	if err != nil {
		return errorResponse("Info", err), nil
	}

	resp := struct {
		Total          int64  `json:"total"`
		Used           int64  `json:"used"`
		Remaining      int64  `json:"remaining"`
		TotalHuman     string `json:"totalHuman"`
		UsedHuman      string `json:"usedHuman"`
		RemainingHuman string `json:"remainingHuman"`
	}{
		Total:          info.Total,
		Used:           info.Used,
		Remaining:      info.Remaining,
		TotalHuman:     view.FormatSize(info.Total),
		UsedHuman:      view.FormatSize(info.Used),
		RemainingHuman: view.FormatSize(info.Remaining),
	}
	return jsonResponse(http.StatusOK, resp), nil
}

// Download streams a single file, base64-encoded for API Gateway.
func (h *DriveHandler) Download(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	fileID := req.QueryStringParameters["fileId"]
	if fileID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing fileId"}, nil
	}

	rc, entry, err := h.storage.Download(ctx, fileID)
	if err != nil {
		return errorResponse("Download", err), nil
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return errorResponse("Download", err), nil
	}

	mimeType := entry.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(buf.Bytes()),
		IsBase64Encoded: true,
		Headers: map[string]string{
			"Content-Type":        mimeType,
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", entry.Name),
		},
	}, nil
}

// FolderDownload archives a folder tree into a zip and streams it back.
func (h *DriveHandler) FolderDownload(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	folderID := req.QueryStringParameters["folderId"]
	if folderID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing folderId"}, nil
	}
	name := req.QueryStringParameters["name"]
	if name == "" {
		name = "folder"
	}

	var buf bytes.Buffer
	result, err := h.coordinator.DownloadFolder(ctx, folderID, name, &buf, nil)
	if err != nil {
		return errorResponse("FolderDownload", err), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(buf.Bytes()),
		IsBase64Encoded: true,
		Headers: map[string]string{
			"Content-Type":        "application/zip",
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name+".zip"),
			"X-Archive-Entries":   strconv.Itoa(result.Entries),
			"X-Archive-Skipped":   strconv.Itoa(result.Skipped),
		},
	}, nil
}

// Search finds files across the whole drive by name.
func (h *DriveHandler) Search(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	term := req.QueryStringParameters["q"]
	if term == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing search term"}, nil
	}

	entries, err := h.storage.Search(ctx, term)
	if err != nil {
		return errorResponse("Search", err), nil
	}
	return jsonResponse(http.StatusOK, entries), nil
}

// Upload accepts a multipart upload of one or more files into a parent
// folder. Each part succeeds or fails on its own.
func (h *DriveHandler) Upload(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	parts, fields, err := parseMultipart(req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: err.Error()}, nil
	}
	if len(parts) == 0 {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "No file part"}, nil
	}
	parentID := fields["parentId"]

	reqs := make([]mutation.UploadRequest, 0, len(parts))
	for _, p := range parts {
		reqs = append(reqs, mutation.UploadRequest{
			Name:     p.FileName,
			MIMEType: p.MIMEType,
			Size:     int64(len(p.Content)),
			Content:  bytes.NewReader(p.Content),
		})
	}

	results, err := h.coordinator.UploadBatch(ctx, parentID, reqs)
	if err != nil {
		return errorResponse("Upload", err), nil
	}

	type itemResult struct {
		Name  string         `json:"name"`
		Entry *adapter.Entry `json:"entry,omitempty"`
		Error string         `json:"error,omitempty"`
	}
	out := make([]itemResult, 0, len(results))
	failed := 0
	for _, r := range results {
		item := itemResult{Name: r.Name, Entry: r.Entry}
		if r.Err != nil {
			item.Error = r.Err.Error()
			failed++
		}
		out = append(out, item)
	}

	status := http.StatusOK
	if failed == len(results) {
		status = http.StatusInternalServerError
	}
	return jsonResponse(status, out), nil
}

// CreateFolder creates a folder from a JSON body {name, parentId}.
func (h *DriveHandler) CreateFolder(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	folder, err := h.coordinator.CreateFolder(ctx, payload.Name, payload.ParentID)
	if err != nil {
		return errorResponse("CreateFolder", err), nil
	}
	return jsonResponse(http.StatusCreated, folder), nil
}

// Delete permanently removes an entry. Requires an admin token.
func (h *DriveHandler) Delete(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.admin.VerifyRequest(req); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: "Admin access required"}, nil
	}

	fileID := req.QueryStringParameters["fileId"]
	if fileID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing fileId"}, nil
	}

	if err := h.coordinator.Delete(ctx, fileID); err != nil {
		return errorResponse("Delete", err), nil
	}
	return jsonResponse(http.StatusOK, map[string]string{"message": "Deleted", "id": fileID}), nil
}

// CacheReload flushes every cached listing scope.
func (h *DriveHandler) CacheReload(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.cacheStore.Flush(ctx); err != nil {
		return errorResponse("CacheReload", err), nil
	}
	return jsonResponse(http.StatusOK, map[string]string{"message": "Cache flushed"}), nil
}
