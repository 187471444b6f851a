package store

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// Observer receives one callback per backend call.
type Observer interface {
	Observe(driver, op string, err error, dur time.Duration)
}

// Instrumented decorates a Store with a request rate limit and an observer.
// Either may be nil.
type Instrumented struct {
	next     Store
	driver   string
	limiter  *rate.Limiter
	observer Observer
}

var _ Store = (*Instrumented)(nil)

// NewInstrumented wraps next. A nil limiter means unlimited.
func NewInstrumented(next Store, driver string, limiter *rate.Limiter, observer Observer) *Instrumented {
	return &Instrumented{next: next, driver: driver, limiter: limiter, observer: observer}
}

// Unwrap returns the decorated store.
func (s *Instrumented) Unwrap() Store {
	return s.next
}

func (s *Instrumented) do(ctx context.Context, op string, fn func() error) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	start := time.Now()
	err := fn()
	if s.observer != nil {
		s.observer.Observe(s.driver, op, err, time.Since(start))
	}
	return err
}

func (s *Instrumented) ListBuckets(ctx context.Context) (out []BucketInfo, err error) {
	err = s.do(ctx, "ListBuckets", func() error {
		out, err = s.next.ListBuckets(ctx)
		return err
	})
	return out, err
}

func (s *Instrumented) ListGroup(ctx context.Context, bucket string, opts ListGroupOptions) (out *ListGroupResult, err error) {
	err = s.do(ctx, "ListGroup", func() error {
		out, err = s.next.ListGroup(ctx, bucket, opts)
		return err
	})
	return out, err
}

func (s *Instrumented) CheckPublicRead(ctx context.Context, bucket, key string) (public bool, err error) {
	err = s.do(ctx, "CheckPublicRead", func() error {
		public, err = s.next.CheckPublicRead(ctx, bucket, key)
		return err
	})
	return public, err
}

func (s *Instrumented) MakePublic(ctx context.Context, bucket, key string) error {
	return s.do(ctx, "MakePublic", func() error {
		return s.next.MakePublic(ctx, bucket, key)
	})
}

func (s *Instrumented) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	return s.do(ctx, "PutObject", func() error {
		return s.next.PutObject(ctx, bucket, key, body, size, contentType)
	})
}

func (s *Instrumented) GetObject(ctx context.Context, bucket, key string) (rc io.ReadCloser, err error) {
	err = s.do(ctx, "GetObject", func() error {
		rc, err = s.next.GetObject(ctx, bucket, key)
		return err
	})
	return rc, err
}

func (s *Instrumented) DeleteObject(ctx context.Context, bucket, key string) error {
	return s.do(ctx, "DeleteObject", func() error {
		return s.next.DeleteObject(ctx, bucket, key)
	})
}

func (s *Instrumented) DeleteObjects(ctx context.Context, bucket string, keys []string) (failures []DeleteFailure, err error) {
	err = s.do(ctx, "DeleteObjects", func() error {
		failures, err = s.next.DeleteObjects(ctx, bucket, keys)
		return err
	})
	return failures, err
}

func (s *Instrumented) CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error {
	return s.do(ctx, "CopyObject", func() error {
		return s.next.CopyObject(ctx, bucket, sourceBucket, sourceKey, destKey)
	})
}

func (s *Instrumented) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (url string, err error) {
	err = s.do(ctx, "PresignDownload", func() error {
		url, err = s.next.PresignDownload(ctx, bucket, key, ttl)
		return err
	})
	return url, err
}
