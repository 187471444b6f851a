package explorer

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-explorer/internal/store"
)

type memObject struct {
	data     []byte
	modified *time.Time
	public   bool
}

// memStore is an in-memory store.Store with S3 delimiter semantics: groups
// and keys interleave in lexicographic order, each group is reported once
// and continuation tokens are opaque.
type memStore struct {
	mu      sync.Mutex
	objects map[string]map[string]*memObject

	// pageLimit caps entries per ListGroup page below MaxKeys when set.
	pageLimit int

	listErr    error
	aclErr     map[string]error
	deleteErr  map[string]error
	copyErr    error
	putErr     map[string]error
	aclDelay   time.Duration
	listCalls  int
	aclCalls   int
	putCalls   int
	aclActive  int
	aclMaxSeen int
}

func newMemStore() *memStore {
	return &memStore{
		objects:   map[string]map[string]*memObject{},
		aclErr:    map[string]error{},
		deleteErr: map[string]error{},
		putErr:    map[string]error{},
	}
}

func (m *memStore) put(bucket, key string, modified time.Time) *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects[bucket] == nil {
		m.objects[bucket] = map[string]*memObject{}
	}
	obj := &memObject{data: []byte(key)}
	if !modified.IsZero() {
		obj.modified = &modified
	}
	m.objects[bucket][key] = obj
	return m
}

func (m *memStore) has(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket][key]
	return ok
}

func (m *memStore) ListBuckets(ctx context.Context) ([]store.BucketInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []store.BucketInfo
	for name := range m.objects {
		out = append(out, store.BucketInfo{Name: name})
	}
	return out, nil
}

type memEntry struct {
	name  string
	group bool
}

func (m *memStore) ListGroup(ctx context.Context, bucket string, opts store.ListGroupOptions) (*store.ListGroupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	objs, ok := m.objects[bucket]
	if !ok {
		return nil, &store.Error{Op: "ListGroup", Driver: "mem", Bucket: bucket, Err: store.ErrBucketNotFound}
	}

	keys := make([]string, 0, len(objs))
	for k := range objs {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var entries []memEntry
	for _, k := range keys {
		rest := k[len(opts.Prefix):]
		if opts.Delimiter != "" {
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				g := opts.Prefix + rest[:i+len(opts.Delimiter)]
				if n := len(entries); n > 0 && entries[n-1].group && entries[n-1].name == g {
					continue
				}
				entries = append(entries, memEntry{name: g, group: true})
				continue
			}
		}
		entries = append(entries, memEntry{name: k})
	}

	start := 0
	if opts.ContinuationToken != "" {
		raw, err := base64.StdEncoding.DecodeString(opts.ContinuationToken)
		if err != nil {
			return nil, &store.Error{Op: "ListGroup", Driver: "mem", Bucket: bucket, Message: "invalid token", Err: store.ErrInvalidArgument}
		}
		after := string(raw)
		start = sort.Search(len(entries), func(i int) bool { return entries[i].name > after })
	}

	limit := opts.MaxKeys
	if limit <= 0 || limit > store.MaxListKeys {
		limit = store.MaxListKeys
	}
	if m.pageLimit > 0 && m.pageLimit < limit {
		limit = m.pageLimit
	}
	end := min(start+limit, len(entries))

	res := &store.ListGroupResult{}
	for _, ent := range entries[start:end] {
		if ent.group {
			res.Groups = append(res.Groups, ent.name)
			continue
		}
		obj := objs[ent.name]
		size := int64(len(obj.data))
		res.Items = append(res.Items, store.Item{Key: ent.name, LastModified: obj.modified, Size: &size, ETag: "etag-" + ent.name})
	}
	if end < len(entries) {
		res.NextToken = base64.StdEncoding.EncodeToString([]byte(entries[end-1].name))
	}
	return res, nil
}

func (m *memStore) CheckPublicRead(ctx context.Context, bucket, key string) (bool, error) {
	m.mu.Lock()
	m.aclCalls++
	m.aclActive++
	m.aclMaxSeen = max(m.aclMaxSeen, m.aclActive)
	err := m.aclErr[key]
	obj := m.objects[bucket][key]
	delay := m.aclDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	m.aclActive--
	m.mu.Unlock()

	if err != nil {
		return false, err
	}
	return obj != nil && obj.public, nil
}

func (m *memStore) MakePublic(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket][key]
	if !ok {
		return &store.Error{Op: "MakePublic", Driver: "mem", Bucket: bucket, Key: key, Err: store.ErrNotFound}
	}
	obj.public = true
	return nil
}

func (m *memStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if err := m.putErr[key]; err != nil {
		return err
	}
	if m.objects[bucket] == nil {
		m.objects[bucket] = map[string]*memObject{}
	}
	now := time.Now()
	m.objects[bucket][key] = &memObject{data: data, modified: &now}
	return nil
}

func (m *memStore) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket][key]
	if !ok {
		return nil, &store.Error{Op: "GetObject", Driver: "mem", Bucket: bucket, Key: key, Err: store.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (m *memStore) DeleteObject(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	delete(m.objects[bucket], key)
	return nil
}

func (m *memStore) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]store.DeleteFailure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failures []store.DeleteFailure
	for _, k := range keys {
		if err := m.deleteErr[k]; err != nil {
			failures = append(failures, store.DeleteFailure{Key: k, Message: err.Error()})
			continue
		}
		delete(m.objects[bucket], k)
	}
	return failures, nil
}

func (m *memStore) CopyObject(ctx context.Context, bucket, sourceBucket, sourceKey, destKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.copyErr != nil {
		return m.copyErr
	}
	src, ok := m.objects[sourceBucket][sourceKey]
	if !ok {
		return &store.Error{Op: "CopyObject", Driver: "mem", Bucket: sourceBucket, Key: sourceKey, Err: store.ErrNotFound}
	}
	cp := *src
	m.objects[bucket][destKey] = &cp
	return nil
}

func (m *memStore) PresignDownload(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://mem.local/" + bucket + "/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

var _ store.Store = (*memStore)(nil)
