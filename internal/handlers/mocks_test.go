package handlers

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/damacus/iron-explorer/internal/services"
	"github.com/damacus/iron-explorer/internal/store"
)

// MockStore implements store.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListBuckets(ctx context.Context) ([]store.BucketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.BucketInfo), args.Error(1)
}

func (m *MockStore) ListGroup(ctx context.Context, bucket string, opts store.ListGroupOptions) (*store.ListGroupResult, error) {
	args := m.Called(ctx, bucket, opts)
	res, _ := args.Get(0).(*store.ListGroupResult)
	return res, args.Error(1)
}

func (m *MockStore) CheckPublicRead(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) MakePublic(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

func (m *MockStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
	}
	return m.Called(ctx, bucket, key, size, contentType).Error(0)
}

func (m *MockStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockStore) DeleteObject(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

func (m *MockStore) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]store.DeleteFailure, error) {
	args := m.Called(ctx, bucket, keys)
	failures, _ := args.Get(0).([]store.DeleteFailure)
	return failures, args.Error(1)
}

func (m *MockStore) CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error {
	return m.Called(ctx, bucket, sourceBucket, sourceKey, destKey).Error(0)
}

func (m *MockStore) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, ttl)
	return args.String(0), args.Error(1)
}

// MockFactory implements store.Factory for testing
type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) NewStore(ctx context.Context, creds services.Credentials) (store.Store, error) {
	args := m.Called(creds)
	s, _ := args.Get(0).(store.Store)
	return s, args.Error(1)
}
