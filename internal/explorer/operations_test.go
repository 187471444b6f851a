package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/iron-explorer/internal/store"
)

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr string
	}{
		{in: "reports", want: "reports"},
		{in: "  spaced out ", want: "spaced out"},
		{in: "   ", wantErr: "cannot be empty"},
		{in: "a/b", wantErr: "invalid characters: /"},
		{in: "x#y%z", wantErr: "invalid characters: # %"},
		{in: "back\\slash", wantErr: "invalid characters: \\"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateFolderName(tt.in)
			if tt.wantErr != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Message, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects slash without backend calls", func(t *testing.T) {
		ms := newMemStore().put("bucket", "docs/", time.Time{})
		e := NewEngine(DefaultOptions(), nil)

		_, err := e.CreateFolder(ctx, ms, "bucket", "docs/", "a/b")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "/")
		assert.Zero(t, ms.listCalls)
		assert.Zero(t, ms.putCalls)
	})

	t.Run("creates placeholder", func(t *testing.T) {
		ms := newMemStore().put("bucket", "docs/", time.Time{})
		e := NewEngine(DefaultOptions(), nil)

		key, err := e.CreateFolder(ctx, ms, "bucket", "docs/", " new ")
		require.NoError(t, err)
		assert.Equal(t, "docs/new/", key)
		assert.True(t, ms.has("bucket", "docs/new/"))

		page, err := e.ListPage(ctx, ms, ListRequest{Bucket: "bucket", Prefix: "docs/new/"})
		require.NoError(t, err)
		assert.Empty(t, page.Entries, "placeholder is not listed inside its own folder")
	})

	t.Run("existing folder", func(t *testing.T) {
		ms := newMemStore().put("bucket", "docs/old/file.txt", t1)
		e := NewEngine(DefaultOptions(), nil)

		_, err := e.CreateFolder(ctx, ms, "bucket", "docs/", "old")
		assert.ErrorIs(t, err, ErrAlreadyExists)
		assert.Zero(t, ms.putCalls)
	})
}

func TestRenameObject(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the object", func(t *testing.T) {
		ms := newMemStore().put("bucket", "a.txt", t1)
		e := NewEngine(DefaultOptions(), nil)

		require.NoError(t, e.RenameObject(ctx, ms, "bucket", "a.txt", "b.txt"))
		assert.False(t, ms.has("bucket", "a.txt"))
		assert.True(t, ms.has("bucket", "b.txt"))
	})

	t.Run("copy failure leaves source", func(t *testing.T) {
		ms := newMemStore().put("bucket", "a.txt", t1)
		ms.copyErr = errors.New("copy refused")
		e := NewEngine(DefaultOptions(), nil)

		err := e.RenameObject(ctx, ms, "bucket", "a.txt", "b.txt")
		var re *RenameError
		require.ErrorAs(t, err, &re)
		assert.False(t, re.Partial)
		assert.True(t, ms.has("bucket", "a.txt"))
		assert.False(t, ms.has("bucket", "b.txt"))
	})

	t.Run("delete failure is partial", func(t *testing.T) {
		ms := newMemStore().put("bucket", "a.txt", t1)
		ms.deleteErr["a.txt"] = errors.New("delete refused")
		e := NewEngine(DefaultOptions(), nil)

		err := e.RenameObject(ctx, ms, "bucket", "a.txt", "b.txt")
		var re *RenameError
		require.ErrorAs(t, err, &re)
		assert.True(t, re.Partial)
		assert.True(t, ms.has("bucket", "a.txt"))
		assert.True(t, ms.has("bucket", "b.txt"))
	})

	t.Run("same key", func(t *testing.T) {
		e := NewEngine(DefaultOptions(), nil)
		var ve *ValidationError
		assert.ErrorAs(t, e.RenameObject(ctx, newMemStore(), "bucket", "a", "a"), &ve)
	})
}

func TestDeleteObject_Idempotent(t *testing.T) {
	ms := newMemStore().put("bucket", "gone.txt", t1)
	e := NewEngine(DefaultOptions(), nil)

	require.NoError(t, e.DeleteObject(context.Background(), ms, "bucket", "gone.txt"))
	require.NoError(t, e.DeleteObject(context.Background(), ms, "bucket", "gone.txt"))
	assert.False(t, ms.has("bucket", "gone.txt"))
}

func TestDeleteObject_NotFoundIsSuccess(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil)
	ms := newMemStore()
	ms.deleteErr["k"] = &store.Error{Op: "DeleteObject", Err: store.ErrNotFound}

	assert.NoError(t, e.DeleteObject(context.Background(), ms, "bucket", "k"))
}

// countingDeleter records the batch sizes it receives.
type countingDeleter struct {
	*memStore
	batches []int
	failAt  int
}

func (c *countingDeleter) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]store.DeleteFailure, error) {
	c.batches = append(c.batches, len(keys))
	if len(c.batches) == c.failAt {
		return nil, errors.New("batch rejected")
	}
	return c.memStore.DeleteObjects(ctx, bucket, keys)
}

func TestDeleteObjects_Batches(t *testing.T) {
	ms := newMemStore()
	var all []string
	for i := 0; i < 2500; i++ {
		k := fmt.Sprintf("k-%04d", i)
		ms.put("bucket", k, t1)
		all = append(all, k)
	}
	ms.deleteErr["k-0007"] = errors.New("locked")
	cd := &countingDeleter{memStore: ms, failAt: 2}
	e := NewEngine(DefaultOptions(), nil)

	err := e.DeleteObjects(context.Background(), cd, "bucket", all)

	assert.Equal(t, []int{1000, 1000, 500}, cd.batches)
	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 2500, be.Total)
	assert.Len(t, be.Failures, 1001, "one refused key plus the rejected batch")
	assert.Equal(t, "k-0007", be.Failures[0].Key)
	assert.Equal(t, "locked", be.Failures[0].Error)
	assert.True(t, ms.has("bucket", "k-1500"), "rejected batch stays")
	assert.False(t, ms.has("bucket", "k-2400"), "later batches still run")
}

func TestDeleteObjects_Empty(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil)
	assert.NoError(t, e.DeleteObjects(context.Background(), newMemStore(), "bucket", nil))
}

func upload(name, body string) Upload {
	return Upload{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestUploadFiles(t *testing.T) {
	ms := newMemStore()
	ms.putErr["in/bad.bin"] = errors.New("quota exceeded")
	e := NewEngine(DefaultOptions(), nil)

	stored, err := e.UploadFiles(context.Background(), ms, "bucket", "in/", []Upload{
		upload("a.txt", "alpha"),
		upload("bad.bin", "xx"),
		upload("c.json", "{}"),
	})

	assert.Equal(t, []string{"in/a.txt", "in/c.json"}, stored)
	var be *BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Failures, 1)
	assert.Equal(t, "in/bad.bin", be.Failures[0].Key)
	assert.Contains(t, be.Failures[0].Error, "quota exceeded")
	assert.Equal(t, 3, ms.putCalls)
}

func TestUploadFiles_NoFiles(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil)
	_, err := e.UploadFiles(context.Background(), newMemStore(), "bucket", "", nil)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDownloadURL_TTL(t *testing.T) {
	e := NewEngine(DefaultOptions(), nil)
	ms := newMemStore()

	url, err := e.DownloadURL(context.Background(), ms, "bucket", "a.txt", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires=1h0m0s")

	url, err = e.DownloadURL(context.Background(), ms, "bucket", "a.txt", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires=168h0m0s")
}

func TestMakePublic(t *testing.T) {
	ms := newMemStore().put("bucket", "a.txt", t1)
	e := NewEngine(DefaultOptions(), nil)

	require.NoError(t, e.MakePublic(context.Background(), ms, "bucket", "a.txt"))
	public, err := ms.CheckPublicRead(context.Background(), "bucket", "a.txt")
	require.NoError(t, err)
	assert.True(t, public)

	err = e.MakePublic(context.Background(), ms, "bucket", "missing.txt")
	assert.True(t, store.IsNotFound(err))
}

func TestFileContent(t *testing.T) {
	opts := DefaultOptions()
	opts.PreviewMaxBytes = 8
	e := NewEngine(opts, nil)
	ms := newMemStore()
	require.NoError(t, ms.PutObject(context.Background(), "bucket", "notes.md", strings.NewReader("0123456789"), 10, ""))
	require.NoError(t, ms.PutObject(context.Background(), "bucket", "short.txt", strings.NewReader("hi"), 2, ""))

	fc, err := e.FileContent(context.Background(), ms, "bucket", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "01234567", fc.Content)
	assert.True(t, fc.Truncated)
	assert.Equal(t, "text/markdown", fc.ContentType)

	fc, err = e.FileContent(context.Background(), ms, "bucket", "short.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", fc.Content)
	assert.False(t, fc.Truncated)

	_, err = e.FileContent(context.Background(), ms, "bucket", "absent")
	assert.True(t, store.IsNotFound(err))
}

func TestListBuckets_Sorted(t *testing.T) {
	ms := newMemStore().put("zeta", "k", t1).put("alpha", "k", t1).put("mid", "k", t1)
	e := NewEngine(DefaultOptions(), nil)

	buckets, err := e.ListBuckets(context.Background(), ms)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "alpha", buckets[0].Name)
	assert.Equal(t, "zeta", buckets[2].Name)
}
