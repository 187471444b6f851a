package explorer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	ms := newMemStore().
		put("bucket", "docs/", time.Time{}).
		put("bucket", "docs/a.txt", t1).
		put("bucket", "docs/b.txt", t1).
		put("bucket", "docs/img/1.png", t1).
		put("bucket", "docs/img/2.png", t1)
	e := NewEngine(DefaultOptions(), nil)

	assert.Equal(t, 3, e.Count(context.Background(), ms, "bucket", "docs/"))
	assert.Equal(t, 1, e.Count(context.Background(), ms, "bucket", ""))
	assert.Equal(t, 0, e.Count(context.Background(), ms, "bucket", "nothing/"))
}

func TestCount_WalksEveryPage(t *testing.T) {
	ms := newMemStore()
	for i := 0; i < 45; i++ {
		ms.put("bucket", fmt.Sprintf("k%02d", i), t1)
	}
	ms.pageLimit = 10
	e := NewEngine(DefaultOptions(), nil)

	assert.Equal(t, 45, e.Count(context.Background(), ms, "bucket", ""))
	assert.Equal(t, 5, ms.listCalls)
}

func TestCount_FailureIsZero(t *testing.T) {
	ms := scenarioStore()
	ms.listErr = errors.New("connection reset")
	e := NewEngine(DefaultOptions(), nil)

	assert.Equal(t, 0, e.Count(context.Background(), ms, "bucket", ""))
}
