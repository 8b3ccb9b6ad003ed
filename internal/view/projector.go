// Package view projects a raw folder listing into what the page shows.
// Everything in here is pure: same listing and params in, same order out.
package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lamnt-dev/drivebox/internal/adapter"
)

// SortCriteria selects the ordering applied after filtering.
type SortCriteria string

const (
	SortDefault SortCriteria = "default"
	SortName    SortCriteria = "name"
	SortSize    SortCriteria = "size"
	SortDate    SortCriteria = "date"
)

// Params are the active view controls. The zero value shows everything in
// provider order with folders visible.
type Params struct {
	Sort        SortCriteria `json:"sort"`
	Extension   string       `json:"extension"`
	ShowFolders bool         `json:"showFolders"`
	Search      string       `json:"search"`
	GridView    bool         `json:"gridView"`
}

// DefaultParams returns the controls a fresh page starts with.
func DefaultParams() Params {
	return Params{Sort: SortDefault, ShowFolders: true}
}

var nameCollator = collate.New(language.Und, collate.IgnoreCase)

// Project applies the filter and sort pipeline to a listing. The input
// slice is never modified; ties keep their relative input order.
func Project(entries []adapter.Entry, params Params) []adapter.Entry {
	out := make([]adapter.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsFolder && !params.ShowFolders {
			continue
		}
		if params.Extension != "" && !e.IsFolder && extension(e.Name) != strings.ToLower(params.Extension) {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(params.Search)) {
			continue
		}
		out = append(out, e)
	}

	switch params.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return nameCollator.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortSize:
		sort.SliceStable(out, func(i, j int) bool {
			return sizeOf(out[i]) < sizeOf(out[j])
		})
	case SortDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedTime.After(out[j].CreatedTime)
		})
	default:
		// Folders first, otherwise provider order.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].IsFolder && !out[j].IsFolder
		})
	}
	return out
}

// sizeOf treats folders as zero so they group ahead of files on size sort.
func sizeOf(e adapter.Entry) int64 {
	if e.IsFolder {
		return 0
	}
	return e.Size
}

// extension returns the lower-cased suffix after the last dot, or "" when
// the name has none.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// UniqueExtensions lists the distinct file extensions in a listing, sorted.
// Folders and extension-less files contribute nothing. Computed over the
// unfiltered listing so the filter dropdown stays stable while filtering.
func UniqueExtensions(entries []adapter.Entry) []string {
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsFolder {
			continue
		}
		if ext := extension(e.Name); ext != "" {
			seen[ext] = true
		}
	}

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatSize renders a byte count the way the page footer shows it.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := strconv.FormatFloat(float64(size)/float64(div), 'f', 2, 64)
	value = strings.TrimRight(strings.TrimRight(value, "0"), ".")
	return value + " " + []string{"KB", "MB", "GB", "TB"}[exp]
}
