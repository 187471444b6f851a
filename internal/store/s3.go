package store

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DriverS3 identifies the AWS SDK v2 driver.
const DriverS3 = "s3"

// DefaultAWSRegion is the fallback region for AWS S3 when none is configured.
const DefaultAWSRegion = "us-east-1"

// S3Config configures the AWS SDK driver.
//
// Credentials fall back to the SDK default chain (environment, shared
// config, instance role) when AccessKeyID is empty. Set Endpoint and
// ForcePathStyle for S3-compatible stores.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

// S3Store implements Store with the AWS SDK v2.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds an S3 client from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &Error{Op: "New", Driver: DriverS3, Err: err}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Store{client: client, presign: s3.NewPresignClient(client)}, nil
}

func loadAWSConfig(ctx context.Context, cfg S3Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)
	return awsCfg, nil
}

// resolveRegion defaults the region only for AWS itself. S3-compatible
// endpoints usually ignore it.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}

func (s *S3Store) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, wrapS3Error("ListBuckets", "", "", err)
	}
	buckets := make([]BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, BucketInfo{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

func (s *S3Store) ListGroup(ctx context.Context, bucket string, opts ListGroupOptions) (*ListGroupResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(clampMaxKeys(opts.MaxKeys))),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapS3Error("ListGroup", bucket, opts.Prefix, err)
	}

	res := &ListGroupResult{
		Groups: make([]string, 0, len(output.CommonPrefixes)),
		Items:  make([]Item, 0, len(output.Contents)),
	}
	for _, p := range output.CommonPrefixes {
		if p.Prefix != nil {
			res.Groups = append(res.Groups, *p.Prefix)
		}
	}
	for _, obj := range output.Contents {
		res.Items = append(res.Items, Item{
			Key:          aws.ToString(obj.Key),
			LastModified: obj.LastModified,
			Size:         obj.Size,
			ETag:         cleanETag(aws.ToString(obj.ETag)),
		})
	}
	if aws.ToBool(output.IsTruncated) {
		res.NextToken = aws.ToString(output.NextContinuationToken)
	}
	return res, nil
}

func (s *S3Store) CheckPublicRead(ctx context.Context, bucket, key string) (bool, error) {
	out, err := s.client.GetObjectAcl(ctx, &s3.GetObjectAclInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, wrapS3Error("CheckPublicRead", bucket, key, err)
	}
	return grantsPublicRead(out.Grants), nil
}

func grantsPublicRead(grants []types.Grant) bool {
	for _, g := range grants {
		if g.Grantee == nil || aws.ToString(g.Grantee.URI) != AllUsersURI {
			continue
		}
		if g.Permission == types.PermissionRead || g.Permission == types.PermissionFullControl {
			return true
		}
	}
	return false
}

func (s *S3Store) MakePublic(ctx context.Context, bucket, key string) error {
	_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return wrapS3Error("MakePublic", bucket, key, err)
	}
	return nil
}

func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return wrapS3Error("PutObject", bucket, key, err)
	}
	return nil
}

func (s *S3Store) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error("GetObject", bucket, key, err)
	}
	return out.Body, nil
}

func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		wrapped := wrapS3Error("DeleteObject", bucket, key, err)
		if errors.Is(wrapped, ErrNotFound) {
			return nil
		}
		return wrapped
	}
	return nil
}

func (s *S3Store) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]DeleteFailure, error) {
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return nil, wrapS3Error("DeleteObjects", bucket, "", err)
	}

	var failures []DeleteFailure
	for _, e := range out.Errors {
		if aws.ToString(e.Code) == "NoSuchKey" {
			continue
		}
		failures = append(failures, DeleteFailure{Key: aws.ToString(e.Key), Message: aws.ToString(e.Message)})
	}
	return failures, nil
}

func (s *S3Store) CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(copySource(sourceBucket, sourceKey)),
	})
	if err != nil {
		return wrapS3Error("CopyObject", bucket, destKey, err)
	}
	return nil
}

// copySource builds the URL-encoded "bucket/key" value CopyObject expects.
// Slashes stay literal so the service can split bucket from key.
func copySource(bucket, key string) string {
	return bucket + "/" + strings.ReplaceAll(url.PathEscape(key), "%2F", "/")
}

func (s *S3Store) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapS3Error("PresignDownload", bucket, key, err)
	}
	return req.URL, nil
}

// wrapS3Error converts SDK errors to store errors with sentinel causes.
func wrapS3Error(op, bucket, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := &Error{Op: op, Driver: DriverS3, Bucket: bucket, Key: key, Err: err, Message: err.Error()}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		wrapped.Err = ErrNotFound
		return wrapped
	case errors.As(err, &noSuchBucket):
		wrapped.Err = ErrBucketNotFound
		return wrapped
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		wrapped.Message = apiErr.ErrorMessage()
		if sentinel := sentinelForCode(apiErr.ErrorCode()); sentinel != nil {
			wrapped.Err = sentinel
		}
		return wrapped
	}

	if sentinel := sentinelForMessage(err.Error()); sentinel != nil {
		wrapped.Err = sentinel
	}
	return wrapped
}

// cleanETag removes the quotes S3 puts around ETag values.
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}
