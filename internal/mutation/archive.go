package mutation

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lamnt-dev/drivebox/internal/adapter"
)

// ArchiveResult summarizes a folder download.
type ArchiveResult struct {
	Entries int // entries written to the archive
	Skipped int // entries that failed and were left out
}

type archiveItem struct {
	id       string
	zipPath  string
	isFolder bool
}

// DownloadFolder walks a folder depth-first and writes its tree to w as a
// zip archive. Progress is reported as processed entries over the total
// discovered up front. Entries that fail to download are skipped and
// counted rather than aborting the archive.
func (c *Coordinator) DownloadFolder(ctx context.Context, folderID, name string, w io.Writer, onProgress func(percent int)) (*ArchiveResult, error) {
	release, err := c.lockScope(ctx, folderID)
	if err != nil {
		return nil, err
	}
	defer release()

	root := strings.TrimSpace(name)
	if root == "" {
		root = "folder"
	}

	// Listing the root itself failing means there is nothing to archive.
	// Below the root, a failed listing only drops that subtree.
	entries, err := c.list(ctx, folderID)
	if err != nil {
		return nil, err
	}
	items, skipped := c.walk(ctx, entries, root)

	zw := zip.NewWriter(w)
	result := &ArchiveResult{Skipped: skipped}

	for i, it := range items {
		if it.isFolder {
			if _, err := zw.Create(it.zipPath + "/"); err != nil {
				return nil, fmt.Errorf("archive directory %q: %w", it.zipPath, err)
			}
			result.Entries++
		} else if err := c.archiveFile(ctx, zw, it); err != nil {
			fmt.Printf("folder download error: %s: %v\n", it.zipPath, err)
			result.Skipped++
		} else {
			result.Entries++
		}

		if onProgress != nil && len(items) > 0 {
			onProgress((i + 1) * 100 / len(items))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// walk expands entries depth-first into archive items, assigning each its
// path inside the archive. A subtree whose listing fails is skipped and
// counted; its siblings still make it into the archive.
func (c *Coordinator) walk(ctx context.Context, entries []adapter.Entry, prefix string) ([]archiveItem, int) {
	var items []archiveItem
	var skipped int
	for _, e := range entries {
		p := prefix + "/" + e.Name
		items = append(items, archiveItem{id: e.ID, zipPath: p, isFolder: e.IsFolder})
		if !e.IsFolder {
			continue
		}
		children, err := c.list(ctx, e.ID)
		if err != nil {
			fmt.Printf("folder download error: %s: %v\n", p, err)
			skipped++
			continue
		}
		sub, subSkipped := c.walk(ctx, children, p)
		items = append(items, sub...)
		skipped += subSkipped
	}
	return items, skipped
}

func (c *Coordinator) archiveFile(ctx context.Context, zw *zip.Writer, it archiveItem) error {
	rc, _, err := c.storage.Download(ctx, it.id)
	if err != nil {
		return err
	}
	defer rc.Close()

	fw, err := zw.Create(it.zipPath)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, rc)
	return err
}
