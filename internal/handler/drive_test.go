package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/adapter/memory"
	"github.com/lamnt-dev/drivebox/internal/auth"
	"github.com/lamnt-dev/drivebox/internal/cache"
	"github.com/lamnt-dev/drivebox/internal/handler"
	"github.com/lamnt-dev/drivebox/internal/listing"
	"github.com/lamnt-dev/drivebox/internal/mutation"
	"github.com/lamnt-dev/drivebox/internal/session"
)

func newDriveHandler() (*handler.DriveHandler, *memory.MemoryStorage, *auth.Admin) {
	storage := memory.NewMemoryStorage("")
	cacheStore := cache.NewMemoryStore()
	locker := session.NewMemoryLocker()
	listings := listing.NewStore(storage, cacheStore, locker)
	coordinator := mutation.NewCoordinator(storage, cacheStore, locker, listings)
	admin := auth.NewAdmin("test-password", "test-secret")
	return handler.NewDriveHandler(storage, listings, coordinator, cacheStore, admin), storage, admin
}

func makeRequest(method, path string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:            method,
		Path:                  path,
		Headers:               map[string]string{},
		QueryStringParameters: map[string]string{},
		PathParameters:        map[string]string{},
	}
}

func TestDriveHandler_ListFiles_CacheHeader(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	storage.CreateFolder(ctx, "docs", "")

	resp, err := h.ListFiles(ctx, makeRequest("GET", "/drive/files"))
	if err != nil {
		t.Fatalf("ListFiles returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["X-Cache"] != "MISS" {
		t.Errorf("first load should be a MISS, got %q", resp.Headers["X-Cache"])
	}

	resp, _ = h.ListFiles(ctx, makeRequest("GET", "/drive/files"))
	if resp.Headers["X-Cache"] != "HIT" {
		t.Errorf("second load should be a HIT, got %q", resp.Headers["X-Cache"])
	}

	var body struct {
		Files []adapter.Entry `json:"files"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("Failed to unmarshal listing: %v", err)
	}
	if len(body.Files) != 1 || body.Files[0].Name != "docs" {
		t.Errorf("unexpected listing: %+v", body.Files)
	}
}

func TestDriveHandler_CreateFolder_ThenListingReflectsIt(t *testing.T) {
	h, _, _ := newDriveHandler()
	ctx := context.Background()

	// Warm the cache with the empty root.
	h.ListFiles(ctx, makeRequest("GET", "/drive/files"))

	req := makeRequest("POST", "/drive/folders")
	req.Body = `{"name":"new-folder"}`
	resp, err := h.CreateFolder(ctx, req)
	if err != nil {
		t.Fatalf("CreateFolder returned error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201 Created, got %d: %s", resp.StatusCode, resp.Body)
	}

	// The create invalidated the root scope, so the next load refetches.
	listResp, _ := h.ListFiles(ctx, makeRequest("GET", "/drive/files"))
	var body struct {
		Files []adapter.Entry `json:"files"`
	}
	json.Unmarshal([]byte(listResp.Body), &body)
	if len(body.Files) != 1 || body.Files[0].Name != "new-folder" {
		t.Errorf("listing must reflect the new folder, got %+v", body.Files)
	}
}

func TestDriveHandler_CreateFolder_EmptyName(t *testing.T) {
	h, _, _ := newDriveHandler()

	req := makeRequest("POST", "/drive/folders")
	req.Body = `{"name":"  "}`
	resp, _ := h.CreateFolder(context.Background(), req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func multipartBody(t *testing.T, parentID string, files map[string]string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if parentID != "" {
		w.WriteField("parentId", parentID)
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write([]byte(content))
	}
	w.Close()
	return buf.String(), w.FormDataContentType()
}

func TestDriveHandler_Upload(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	body, contentType := multipartBody(t, "", map[string]string{"hello.txt": "hello"})
	req := makeRequest("POST", "/drive/upload")
	req.Body = body
	req.Headers["Content-Type"] = contentType

	resp, err := h.Upload(ctx, req)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, resp.Body)
	}

	entries, _ := storage.List(ctx, "")
	if len(entries) != 1 || entries[0].Name != "hello.txt" {
		t.Errorf("uploaded file missing from storage: %+v", entries)
	}
}

func TestDriveHandler_Upload_Base64Body(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	body, contentType := multipartBody(t, "", map[string]string{"bin.dat": "\x00\x01\x02"})
	req := makeRequest("POST", "/drive/upload")
	req.Body = base64.StdEncoding.EncodeToString([]byte(body))
	req.IsBase64Encoded = true
	req.Headers["Content-Type"] = contentType

	resp, _ := h.Upload(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, resp.Body)
	}

	entries, _ := storage.List(ctx, "")
	if len(entries) != 1 || entries[0].Size != 3 {
		t.Errorf("base64 upload mismatch: %+v", entries)
	}
}

func TestDriveHandler_Upload_Malformed(t *testing.T) {
	h, _, _ := newDriveHandler()

	req := makeRequest("POST", "/drive/upload")
	req.Body = "not-multipart"
	req.Headers["Content-Type"] = "text/plain"

	resp, _ := h.Upload(context.Background(), req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestDriveHandler_Download(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	entry, _ := storage.Upload(ctx, "doc.txt", "", "text/plain", -1, bytes.NewReader([]byte("content")))

	req := makeRequest("GET", "/drive/download")
	req.QueryStringParameters["fileId"] = entry.ID
	resp, err := h.Download(ctx, req)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Fatalf("unexpected response: %d base64=%v", resp.StatusCode, resp.IsBase64Encoded)
	}

	decoded, _ := base64.StdEncoding.DecodeString(resp.Body)
	if string(decoded) != "content" {
		t.Errorf("unexpected content %q", decoded)
	}
}

func TestDriveHandler_Download_NotFound(t *testing.T) {
	h, _, _ := newDriveHandler()

	req := makeRequest("GET", "/drive/download")
	req.QueryStringParameters["fileId"] = "missing"
	resp, _ := h.Download(context.Background(), req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestDriveHandler_Delete_RequiresAdmin(t *testing.T) {
	h, storage, admin := newDriveHandler()
	ctx := context.Background()

	entry, _ := storage.CreateFolder(ctx, "doomed", "")

	req := makeRequest("DELETE", "/drive/delete")
	req.QueryStringParameters["fileId"] = entry.ID
	resp, _ := h.Delete(ctx, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("delete without token must be 401, got %d", resp.StatusCode)
	}

	token, err := admin.Login("test-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	req.Headers["Authorization"] = "Bearer " + token
	resp, _ = h.Delete(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete must succeed, got %d: %s", resp.StatusCode, resp.Body)
	}

	if entries, _ := storage.List(ctx, ""); len(entries) != 0 {
		t.Errorf("entry survived delete: %+v", entries)
	}
}

func TestDriveHandler_Delete_MissingFileID(t *testing.T) {
	h, _, admin := newDriveHandler()

	token, _ := admin.Login("test-password")
	req := makeRequest("DELETE", "/drive/delete")
	req.Headers["Authorization"] = "Bearer " + token
	resp, _ := h.Delete(context.Background(), req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestDriveHandler_Info(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	storage.Upload(ctx, "a.bin", "", "application/octet-stream", -1, bytes.NewReader(make([]byte, 2048)))

	resp, err := h.Info(ctx, makeRequest("GET", "/drive/info"))
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}

	var body struct {
		Used      int64  `json:"used"`
		UsedHuman string `json:"usedHuman"`
	}
	json.Unmarshal([]byte(resp.Body), &body)
	if body.Used != 2048 || body.UsedHuman != "2 KB" {
		t.Errorf("unexpected info: %+v", body)
	}
}

func TestDriveHandler_Search(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	storage.Upload(ctx, "report.pdf", "", "application/pdf", -1, bytes.NewReader(nil))
	storage.Upload(ctx, "other.txt", "", "text/plain", -1, bytes.NewReader(nil))

	req := makeRequest("GET", "/search")
	req.QueryStringParameters["q"] = "report"
	resp, _ := h.Search(ctx, req)

	var entries []adapter.Entry
	json.Unmarshal([]byte(resp.Body), &entries)
	if len(entries) != 1 || entries[0].Name != "report.pdf" {
		t.Errorf("unexpected search result: %+v", entries)
	}
}

func TestDriveHandler_FolderDownload(t *testing.T) {
	h, storage, _ := newDriveHandler()
	ctx := context.Background()

	folder, _ := storage.CreateFolder(ctx, "pack", "")
	storage.Upload(ctx, "inside.txt", folder.ID, "text/plain", -1, bytes.NewReader([]byte("x")))

	req := makeRequest("GET", "/drive/folder-download")
	req.QueryStringParameters["folderId"] = folder.ID
	req.QueryStringParameters["name"] = "pack"
	resp, err := h.FolderDownload(ctx, req)
	if err != nil {
		t.Fatalf("FolderDownload returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !resp.IsBase64Encoded {
		t.Fatalf("unexpected response: %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/zip" {
		t.Errorf("unexpected content type %q", resp.Headers["Content-Type"])
	}
	if resp.Headers["X-Archive-Entries"] != "1" {
		t.Errorf("expected 1 archived entry, got %s", resp.Headers["X-Archive-Entries"])
	}
}
