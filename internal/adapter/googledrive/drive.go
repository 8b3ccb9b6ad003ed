package googledrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMIMEType = "application/vnd.google-apps.folder"

const entryFields = "id, name, mimeType, createdTime, size"

// DriveStorage implements adapter.Storage for Google Drive.
type DriveStorage struct {
	service      *drive.Service
	BaseFolderID string
}

// NewDriveStorage creates a new DriveStorage.
// client should be an authenticated http.Client with drive scope.
func NewDriveStorage(ctx context.Context, client *http.Client, baseFolderID string) (*DriveStorage, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %v", err)
	}
	return &DriveStorage{service: srv, BaseFolderID: baseFolderID}, nil
}

func (d *DriveStorage) targetFolder(folderID string) string {
	if folderID != "" {
		return folderID
	}
	if d.BaseFolderID != "" {
		return d.BaseFolderID
	}
	return "root"
}

func toEntry(f *drive.File) adapter.Entry {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return adapter.Entry{
		ID:          f.Id,
		Name:        f.Name,
		IsFolder:    f.MimeType == folderMIMEType,
		MIMEType:    f.MimeType,
		Size:        f.Size,
		CreatedTime: created,
	}
}

// normalizeErr converts googleapi status codes into the adapter taxonomy.
func normalizeErr(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return adapter.ErrNotFound
		case http.StatusForbidden:
			return adapter.ErrPermissionDenied
		case http.StatusTooManyRequests:
			return adapter.ErrRateLimited
		}
	}
	return fmt.Errorf("%s: %w: %v", op, adapter.ErrFetchFailed, err)
}

// List lists the entries directly inside a folder.
func (d *DriveStorage) List(ctx context.Context, folderID string) ([]adapter.Entry, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", d.targetFolder(folderID))
	fields := "nextPageToken, files(" + entryFields + ")"

	entries := []adapter.Entry{}
	pageToken := ""
	for {
		call := d.service.Files.List().
			Q(q).
			Fields(googleapi.Field(fields)).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Do()
		if err != nil {
			return nil, normalizeErr("list files", err)
		}
		for _, f := range r.Files {
			entries = append(entries, toEntry(f))
		}
		if r.NextPageToken == "" {
			break
		}
		pageToken = r.NextPageToken
	}
	return entries, nil
}

// CreateFolder creates a new folder under parentID.
func (d *DriveStorage) CreateFolder(ctx context.Context, name string, parentID string) (*adapter.Entry, error) {
	f := &drive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{d.targetFolder(parentID)},
	}

	res, err := d.service.Files.Create(f).
		SupportsAllDrives(true).
		Fields(entryFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, normalizeErr("create folder", err)
	}

	entry := toEntry(res)
	return &entry, nil
}

// Upload streams a new file into parentID.
func (d *DriveStorage) Upload(ctx context.Context, name, parentID, mimeType string, size int64, r io.Reader) (*adapter.Entry, error) {
	f := &drive.File{
		Name:    name,
		Parents: []string{d.targetFolder(parentID)},
	}

	var mediaOpts []googleapi.MediaOption
	if mimeType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(mimeType))
	}

	res, err := d.service.Files.Create(f).
		Media(r, mediaOpts...).
		SupportsAllDrives(true).
		Fields(entryFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, normalizeErr("upload file", err)
	}

	entry := toEntry(res)
	return &entry, nil
}

// Delete permanently deletes a file or folder by its ID.
func (d *DriveStorage) Delete(ctx context.Context, id string) error {
	if err := d.service.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return normalizeErr("delete file", err)
	}
	return nil
}

// Download returns the content stream and metadata of a file.
func (d *DriveStorage) Download(ctx context.Context, id string) (io.ReadCloser, *adapter.Entry, error) {
	f, err := d.service.Files.Get(id).
		SupportsAllDrives(true).
		Fields(entryFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, normalizeErr("get file metadata", err)
	}

	entry := toEntry(f)
	if entry.IsFolder {
		return nil, &entry, fmt.Errorf("download folder %q: %w", entry.Name, adapter.ErrFetchFailed)
	}

	resp, err := d.service.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, nil, normalizeErr("download file", err)
	}
	return resp.Body, &entry, nil
}

// Search finds files whose name matches the term, recursively from the base
// folder. Drive has no recursive 'in parents' query, so the name match runs
// globally and trashed entries are excluded.
func (d *DriveStorage) Search(ctx context.Context, term string) ([]adapter.Entry, error) {
	escaped := strings.ReplaceAll(term, "'", "\\'")
	q := fmt.Sprintf("name contains '%s' and trashed = false", escaped)
	fields := "nextPageToken, files(" + entryFields + ")"

	r, err := d.service.Files.List().
		Q(q).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, normalizeErr("search files", err)
	}

	entries := []adapter.Entry{}
	for _, f := range r.Files {
		entries = append(entries, toEntry(f))
	}
	return entries, nil
}

// About reports storage quota usage.
func (d *DriveStorage) About(ctx context.Context) (*model.DriveInfo, error) {
	about, err := d.service.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return nil, normalizeErr("get drive info", err)
	}

	quota := about.StorageQuota
	return &model.DriveInfo{
		Total:     quota.Limit,
		Used:      quota.Usage,
		Remaining: quota.Limit - quota.Usage,
	}, nil
}
