package explorer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
	"github.com/damacus/iron-explorer/internal/utils"
)

// reservedFolderChars may not appear in a folder name.
const reservedFolderChars = "\\^`><{}[]#%~|/"

// ListBuckets returns the buckets visible to the store's credentials, by name.
func (e *Engine) ListBuckets(ctx context.Context, s store.Store) ([]models.Bucket, error) {
	buckets, err := s.ListBuckets(ctx)
	if err != nil {
		return nil, listingFailed(err)
	}
	out := make([]models.Bucket, 0, len(buckets))
	for _, b := range buckets {
		row := models.Bucket{Name: b.Name, CreationDate: b.CreationDate, Size: b.Size}
		if b.Size != nil {
			row.FormattedSize = utils.FormatBytes(*b.Size)
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b models.Bucket) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ValidateFolderName trims name and rejects empty names and names holding
// any of \ ^ ` > < { } [ ] # % ~ | /.
func ValidateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "Folder name cannot be empty")
	}
	var found []string
	for _, r := range reservedFolderChars {
		if strings.ContainsRune(name, r) {
			found = append(found, string(r))
		}
	}
	if len(found) > 0 {
		return "", invalid("name", "Folder name contains invalid characters: %s (not allowed: \\ ^ ` > < { } [ ] # %% ~ | /)",
			strings.Join(found, " "))
	}
	return name, nil
}

// CreateFolder stores an empty placeholder at prefix+name+delimiter after
// checking nothing already lives under that key. It returns the new key.
func (e *Engine) CreateFolder(ctx context.Context, s store.Store, bucket, prefix, name string) (string, error) {
	if bucket == "" {
		return "", invalid("bucket", "bucket is required")
	}
	name, err := ValidateFolderName(name)
	if err != nil {
		return "", err
	}
	key := prefix + name + e.opts.Delimiter

	res, err := s.ListGroup(ctx, bucket, store.ListGroupOptions{
		Prefix:    key,
		Delimiter: e.opts.Delimiter,
		MaxKeys:   1,
	})
	if err != nil {
		return "", err
	}
	if len(res.Items) > 0 || len(res.Groups) > 0 {
		return "", ErrAlreadyExists
	}

	if err := s.PutObject(ctx, bucket, key, bytes.NewReader(nil), 0, ""); err != nil {
		return "", err
	}
	e.logger.Info("folder created", zap.String("bucket", bucket), zap.String("key", key))
	return key, nil
}

// RenameObject copies oldKey to newKey and then deletes oldKey. The pair is
// not atomic: when the delete fails the returned RenameError is Partial and
// both keys exist. No compensating delete is attempted.
func (e *Engine) RenameObject(ctx context.Context, s store.Store, bucket, oldKey, newKey string) error {
	switch {
	case bucket == "":
		return invalid("bucket", "bucket is required")
	case oldKey == "" || newKey == "":
		return invalid("key", "both the current and the new key are required")
	case oldKey == newKey:
		return invalid("newKey", "the new key must differ from the current key")
	}

	if err := s.CopyObject(ctx, bucket, bucket, oldKey, newKey); err != nil {
		return &RenameError{OldKey: oldKey, NewKey: newKey, Err: err}
	}
	if err := s.DeleteObject(ctx, bucket, oldKey); err != nil {
		e.logger.Error("rename left both keys in place",
			zap.String("bucket", bucket),
			zap.String("old_key", oldKey),
			zap.String("new_key", newKey),
			zap.Error(err))
		return &RenameError{OldKey: oldKey, NewKey: newKey, Partial: true, Err: err}
	}
	return nil
}

// Upload is one file of a multi-file upload.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadFile stores body under key.
func (e *Engine) UploadFile(ctx context.Context, s store.Store, bucket, key string, body io.Reader, size int64, contentType string) error {
	if bucket == "" {
		return invalid("bucket", "bucket is required")
	}
	if key == "" || strings.HasSuffix(key, e.opts.Delimiter) {
		return invalid("key", "a file name is required")
	}
	if contentType == "" {
		contentType = contentTypeFromExt(key)
	}
	return s.PutObject(ctx, bucket, key, body, size, contentType)
}

// UploadFiles stores each file at prefix+name. Every file is attempted; the
// ones that fail are reported in a BatchError. It returns the stored keys.
func (e *Engine) UploadFiles(ctx context.Context, s store.Store, bucket, prefix string, files []Upload) ([]string, error) {
	if bucket == "" {
		return nil, invalid("bucket", "bucket is required")
	}
	if len(files) == 0 {
		return nil, invalid("file", "No file provided")
	}

	var (
		stored   []string
		failures []models.Failure
	)
	for _, f := range files {
		key := prefix + f.Name
		if err := e.uploadOne(ctx, s, bucket, key, f); err != nil {
			failures = append(failures, models.Failure{Key: key, Error: err.Error()})
			continue
		}
		stored = append(stored, key)
	}
	if len(failures) > 0 {
		e.logger.Warn("upload finished with failures",
			zap.String("bucket", bucket),
			zap.Int("failed", len(failures)),
			zap.Int("total", len(files)))
		return stored, &BatchError{Op: "upload", Total: len(files), Failures: failures}
	}
	return stored, nil
}

func (e *Engine) uploadOne(ctx context.Context, s store.Store, bucket, key string, f Upload) error {
	if f.Open == nil {
		return invalid("file", "file %q has no content", f.Name)
	}
	body, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()
	return e.UploadFile(ctx, s, bucket, key, body, f.Size, f.ContentType)
}

// DeleteObject removes key. Deleting a missing key succeeds.
func (e *Engine) DeleteObject(ctx context.Context, s store.Store, bucket, key string) error {
	if bucket == "" || key == "" {
		return invalid("key", "bucket and key are required")
	}
	err := s.DeleteObject(ctx, bucket, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteObjects removes keys in batches of store.MaxDeleteBatch. A batch the
// backend rejects outright marks all its keys failed; later batches still
// run.
func (e *Engine) DeleteObjects(ctx context.Context, s store.Store, bucket string, keys []string) error {
	if bucket == "" {
		return invalid("bucket", "bucket is required")
	}
	if len(keys) == 0 {
		return nil
	}

	var failures []models.Failure
	for batch := range slices.Chunk(keys, store.MaxDeleteBatch) {
		refused, err := s.DeleteObjects(ctx, bucket, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			for _, k := range batch {
				failures = append(failures, models.Failure{Key: k, Error: err.Error()})
			}
			continue
		}
		for _, f := range refused {
			failures = append(failures, models.Failure{Key: f.Key, Error: f.Message})
		}
	}
	if len(failures) > 0 {
		return &BatchError{Op: "delete", Total: len(keys), Failures: failures}
	}
	return nil
}

// MakePublic grants anonymous read access to key.
func (e *Engine) MakePublic(ctx context.Context, s store.Store, bucket, key string) error {
	if bucket == "" || key == "" {
		return invalid("key", "bucket and key are required")
	}
	return s.MakePublic(ctx, bucket, key)
}

// DownloadURL presigns a GET for key. A zero ttl uses the configured
// lifetime; longer than seven days is capped.
func (e *Engine) DownloadURL(ctx context.Context, s store.Store, bucket, key string, ttl time.Duration) (string, error) {
	if bucket == "" || key == "" {
		return "", invalid("key", "bucket and key are required")
	}
	if ttl <= 0 {
		ttl = e.opts.PresignTTL
	}
	ttl = min(ttl, config.MaxPresignTTL)
	return s.PresignDownload(ctx, bucket, key, ttl)
}

// FileContent is the head of an object read for preview.
type FileContent struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
	Truncated   bool   `json:"truncated"`
}

// FileContent reads at most PreviewMaxBytes of key.
func (e *Engine) FileContent(ctx context.Context, s store.Store, bucket, key string) (*FileContent, error) {
	if bucket == "" || key == "" {
		return nil, invalid("key", "bucket and key are required")
	}
	body, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	limit := e.opts.PreviewMaxBytes
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	}
	return &FileContent{
		Key:         key,
		ContentType: contentTypeFromExt(key),
		Content:     string(data),
		Truncated:   truncated,
	}, nil
}
