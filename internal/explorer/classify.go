package explorer

import (
	"path/filepath"
	"strings"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
	"github.com/damacus/iron-explorer/internal/utils"
)

// ClassifyFolder turns a common prefix into a folder entry.
func ClassifyFolder(group, delimiter string) models.Entry {
	return models.Entry{
		Key:  group,
		Name: lastSegment(strings.TrimSuffix(group, delimiter), delimiter),
		Kind: models.KindFolder,
	}
}

// ClassifyFile turns a listed object into a file entry without visibility,
// which needs a separate ACL call.
func ClassifyFile(item store.Item, delimiter string) models.Entry {
	name := lastSegment(item.Key, delimiter)
	return models.Entry{
		Key:           item.Key,
		Name:          name,
		Kind:          models.KindFile,
		LastModified:  item.LastModified,
		Size:          item.Size,
		FormattedSize: utils.FormatSize(item.Size),
		ContentTag:    item.ETag,
		Extension:     extension(name),
		ContentType:   contentTypeFromExt(name),
	}
}

// fileEntry classifies and marks entries small enough to preview inline.
func (e *Engine) fileEntry(item store.Item) models.Entry {
	entry := ClassifyFile(item, e.opts.Delimiter)
	if item.Size != nil && *item.Size <= e.opts.PreviewMaxBytes {
		entry.IsPreviewable = isPreviewableType(entry.ContentType)
	}
	return entry
}

func lastSegment(s, delimiter string) string {
	if delimiter == "" {
		return s
	}
	if i := strings.LastIndex(s, delimiter); i >= 0 {
		return s[i+len(delimiter):]
	}
	return s
}

// extension is the text after the last dot, or "" when there is none.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".log":  "text/plain",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
}

func contentTypeFromExt(filename string) string {
	if t, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return "application/octet-stream"
}

func isTextType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" ||
		contentType == "application/xml" ||
		contentType == "application/yaml" ||
		contentType == "application/javascript"
}

func isPreviewableType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") ||
		strings.HasPrefix(contentType, "video/") ||
		contentType == "application/pdf" ||
		isTextType(contentType)
}
