package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
)

// DriverMinio identifies the minio-go driver.
const DriverMinio = "minio"

// MinioAdminClient is the madmin subset used to report bucket sizes.
type MinioAdminClient interface {
	DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error)
}

// MinioStore implements Store with minio-go.
type MinioStore struct {
	core  *minio.Core
	admin MinioAdminClient
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore wraps an existing minio-go client. The admin client is
// optional; without it bucket sizes are omitted.
func NewMinioStore(client *minio.Client, admin MinioAdminClient) *MinioStore {
	return &MinioStore{core: &minio.Core{Client: client}, admin: admin}
}

func (s *MinioStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	buckets, err := s.core.ListBuckets(ctx)
	if err != nil {
		return nil, s.wrapError("ListBuckets", "", "", err)
	}

	var sizes map[string]uint64
	if s.admin != nil {
		// Data usage needs admin rights; plain users get names only.
		if usage, err := s.admin.DataUsageInfo(ctx); err == nil {
			sizes = usage.BucketSizes
		}
	}

	out := make([]BucketInfo, 0, len(buckets))
	for _, b := range buckets {
		info := BucketInfo{Name: b.Name, CreationDate: b.CreationDate}
		if size, ok := sizes[b.Name]; ok {
			info.Size = &size
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *MinioStore) ListGroup(ctx context.Context, bucket string, opts ListGroupOptions) (*ListGroupResult, error) {
	// Core.ListObjectsV2 takes no context.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.core.ListObjectsV2(bucket, opts.Prefix, "", opts.ContinuationToken, opts.Delimiter, clampMaxKeys(opts.MaxKeys))
	if err != nil {
		return nil, s.wrapError("ListGroup", bucket, opts.Prefix, err)
	}

	out := &ListGroupResult{
		Groups: make([]string, 0, len(res.CommonPrefixes)),
		Items:  make([]Item, 0, len(res.Contents)),
	}
	for _, p := range res.CommonPrefixes {
		out.Groups = append(out.Groups, p.Prefix)
	}
	for _, obj := range res.Contents {
		item := Item{Key: obj.Key, ETag: cleanETag(obj.ETag)}
		if !obj.LastModified.IsZero() {
			lm := obj.LastModified
			item.LastModified = &lm
		}
		size := obj.Size
		item.Size = &size
		out.Items = append(out.Items, item)
	}
	if res.IsTruncated {
		out.NextToken = res.NextContinuationToken
	}
	return out, nil
}

func (s *MinioStore) CheckPublicRead(ctx context.Context, bucket, key string) (bool, error) {
	info, err := s.core.GetObjectACL(ctx, bucket, key)
	if err != nil {
		return false, s.wrapError("CheckPublicRead", bucket, key, err)
	}
	for _, g := range info.Grant {
		if g.Grantee.URI == AllUsersURI && (g.Permission == "READ" || g.Permission == "FULL_CONTROL") {
			return true, nil
		}
	}
	return false, nil
}

// MakePublic rewrites the object onto itself with the public-read canned ACL,
// since minio-go has no PutObjectAcl call. A REPLACE copy sends only the
// headers given, so the object's own metadata is carried over from a stat.
func (s *MinioStore) MakePublic(ctx context.Context, bucket, key string) error {
	info, err := s.core.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return s.wrapError("MakePublic", bucket, key, err)
	}

	headers := preservedHeaders(info)
	headers["x-amz-acl"] = "public-read"
	headers["x-amz-metadata-directive"] = "REPLACE"

	_, err = s.core.CopyObject(ctx, bucket, key, bucket, key, headers, minio.CopySrcOptions{}, minio.PutObjectOptions{})
	if err != nil {
		return s.wrapError("MakePublic", bucket, key, err)
	}
	return nil
}

// preservedHeaders returns the content headers and user metadata of an
// object in request-header form.
func preservedHeaders(info minio.ObjectInfo) map[string]string {
	headers := make(map[string]string)
	for _, name := range []string{"Cache-Control", "Content-Disposition", "Content-Encoding", "Content-Language"} {
		if v := info.Metadata.Get(name); v != "" {
			headers[name] = v
		}
	}
	if info.ContentType != "" {
		headers["Content-Type"] = info.ContentType
	}
	for k, v := range info.UserMetadata {
		headers["X-Amz-Meta-"+k] = v
	}
	return headers
}

func (s *MinioStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.core.Client.PutObject(ctx, bucket, key, body, size, opts); err != nil {
		return s.wrapError("PutObject", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.core.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapError("GetObject", bucket, key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.wrapError("GetObject", bucket, key, err)
	}
	return obj, nil
}

func (s *MinioStore) DeleteObject(ctx context.Context, bucket, key string) error {
	err := s.core.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		wrapped := s.wrapError("DeleteObject", bucket, key, err)
		if errors.Is(wrapped, ErrNotFound) {
			return nil
		}
		return wrapped
	}
	return nil
}

func (s *MinioStore) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]DeleteFailure, error) {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	var failures []DeleteFailure
	for rerr := range s.core.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err == nil {
			continue
		}
		if minio.ToErrorResponse(rerr.Err).Code == "NoSuchKey" {
			continue
		}
		failures = append(failures, DeleteFailure{Key: rerr.ObjectName, Message: rerr.Err.Error()})
	}
	if err := ctx.Err(); err != nil {
		return failures, err
	}
	return failures, nil
}

func (s *MinioStore) CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error {
	dst := minio.CopyDestOptions{Bucket: bucket, Object: destKey}
	src := minio.CopySrcOptions{Bucket: sourceBucket, Object: sourceKey}
	if _, err := s.core.Client.CopyObject(ctx, dst, src); err != nil {
		return s.wrapError("CopyObject", bucket, destKey, err)
	}
	return nil
}

func (s *MinioStore) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.core.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", s.wrapError("PresignDownload", bucket, key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) wrapError(op, bucket, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := &Error{Op: op, Driver: DriverMinio, Bucket: bucket, Key: key, Err: err}

	resp := minio.ToErrorResponse(err)
	if resp.Code != "" {
		wrapped.Message = resp.Message
		if sentinel := sentinelForCode(resp.Code); sentinel != nil {
			wrapped.Err = sentinel
		}
		return wrapped
	}

	wrapped.Message = err.Error()
	if sentinel := sentinelForMessage(err.Error()); sentinel != nil {
		wrapped.Err = sentinel
	}
	return wrapped
}
