// Package store defines the object-storage capability surface consumed by the
// explorer and the drivers that implement it.
//
// A Store is built per request from the caller's credentials and holds no
// state between requests. Drivers map backend-native errors onto the
// sentinel errors in this package.
package store

import (
	"context"
	"io"
	"time"
)

// Store is the set of primitive bucket operations the explorer needs.
type Store interface {
	// ListBuckets returns every bucket visible to the credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListGroup returns one backend page of a prefix-delimited listing.
	// Use NextToken from the result to fetch the following page.
	ListGroup(ctx context.Context, bucket string, opts ListGroupOptions) (*ListGroupResult, error)

	// CheckPublicRead reports whether the object's grant list gives READ
	// access to the anonymous (AllUsers) principal.
	CheckPublicRead(ctx context.Context, bucket, key string) (bool, error)

	// MakePublic applies the public-read canned ACL to an object.
	MakePublic(ctx context.Context, bucket, key string) error

	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// DeleteObject removes one key. Deleting a missing key succeeds.
	DeleteObject(ctx context.Context, bucket, key string) error

	// DeleteObjects removes up to MaxDeleteBatch keys in one call and returns
	// the keys the backend refused. The error is reserved for whole-call
	// failures.
	DeleteObjects(ctx context.Context, bucket string, keys []string) ([]DeleteFailure, error)

	// CopyObject copies sourceBucket/sourceKey to bucket/destKey server side.
	CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error

	// PresignDownload returns a time-limited GET URL for the object.
	PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// MaxDeleteBatch is the per-call key limit of the S3 multi-object delete API.
const MaxDeleteBatch = 1000

// MaxListKeys is the largest page the S3 list API returns.
const MaxListKeys = 1000

// AllUsersURI identifies the anonymous grantee group in S3 ACLs.
const AllUsersURI = "http://acs.amazonaws.com/groups/global/AllUsers"

// BucketInfo describes a bucket.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
	// Size is the bucket's data usage when the driver can report it.
	Size *uint64
}

// ListGroupOptions configures a delimiter listing call.
type ListGroupOptions struct {
	// Prefix restricts the listing to keys starting with this value.
	Prefix string

	// Delimiter groups keys into common prefixes (e.g. "/").
	Delimiter string

	// ContinuationToken resumes a listing from a previous result's NextToken.
	ContinuationToken string

	// MaxKeys limits keys plus groups per page. Zero uses MaxListKeys.
	MaxKeys int
}

// ListGroupResult is one page of a delimiter listing.
type ListGroupResult struct {
	// Groups are the common prefixes, each ending in the delimiter.
	Groups []string

	// Items are objects directly under the prefix.
	Items []Item

	// NextToken continues the listing. Empty means the listing is complete.
	NextToken string
}

// Item is an object record returned by a listing.
type Item struct {
	Key          string
	LastModified *time.Time
	Size         *int64
	ETag         string
}

// DeleteFailure records a key a bulk delete could not remove.
type DeleteFailure struct {
	Key     string
	Message string
}

// clampMaxKeys applies the default and the S3 ceiling to a requested page size.
func clampMaxKeys(requested int) int {
	if requested <= 0 || requested > MaxListKeys {
		return MaxListKeys
	}
	return requested
}
