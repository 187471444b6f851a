// Package models contains the JSON shapes returned by the explorer API.
package models

import (
	"strings"
	"time"
)

// EntryKind tells folders from files.
type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

// Entry is a single listable item. Folders never carry size, timestamps,
// tag or visibility.
type Entry struct {
	Key           string     `json:"key"`
	Name          string     `json:"name"`
	Kind          EntryKind  `json:"type"`
	LastModified  *time.Time `json:"lastModified,omitempty"`
	Size          *int64     `json:"size,omitempty"`
	FormattedSize string     `json:"formattedSize,omitempty"`
	ContentTag    string     `json:"etag,omitempty"`
	Extension     string     `json:"extension,omitempty"`
	ContentType   string     `json:"contentType,omitempty"`
	IsPreviewable bool       `json:"isPreviewable,omitempty"`
	IsPublic      *bool      `json:"isPublic,omitempty"`
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Page is one listing or search response.
type Page struct {
	Entries     []Entry      `json:"entries"`
	Cursor      string       `json:"cursor,omitempty"`
	TotalCount  *int         `json:"totalCount,omitempty"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`
}

// Bucket is a bucket row with optional usage.
type Bucket struct {
	Name          string    `json:"name"`
	CreationDate  time.Time `json:"creationDate"`
	Size          *uint64   `json:"size,omitempty"`
	FormattedSize string    `json:"formattedSize,omitempty"`
}

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BuildBreadcrumbs splits a prefix into one crumb per folder level.
func BuildBreadcrumbs(prefix, delimiter string) []Breadcrumb {
	if prefix == "" || delimiter == "" {
		return nil
	}
	var crumbs []Breadcrumb
	path := ""
	for _, part := range strings.Split(strings.TrimSuffix(prefix, delimiter), delimiter) {
		if part == "" {
			continue
		}
		path += part + delimiter
		crumbs = append(crumbs, Breadcrumb{Name: part, Path: path})
	}
	return crumbs
}

// OutcomeKind classifies the result of a mutating operation.
type OutcomeKind string

const (
	OutcomeSuccess    OutcomeKind = "success"
	OutcomeValidation OutcomeKind = "validation"
	OutcomeConflict   OutcomeKind = "conflict"
	OutcomeNotFound   OutcomeKind = "not_found"
	OutcomePartial    OutcomeKind = "partial"
	OutcomeBackend    OutcomeKind = "backend"
)

// Outcome is returned by every write operation so callers can render
// failures inline.
type Outcome struct {
	Success  bool        `json:"success"`
	Kind     OutcomeKind `json:"kind"`
	Error    string      `json:"error,omitempty"`
	Key      string      `json:"key,omitempty"`
	Failures []Failure   `json:"failures,omitempty"`
}

// Failure is one item of a batch that did not succeed.
type Failure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}
