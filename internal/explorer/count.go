package explorer

import (
	"context"

	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/store"
)

// Count returns the number of distinct folders and files directly under
// prefix, excluding the prefix's own placeholder. The count is advisory: a
// backend failure is logged and yields 0.
func (e *Engine) Count(ctx context.Context, s store.Store, bucket, prefix string) int {
	groups := make(map[string]struct{})
	files := 0

	_, err := e.walk(ctx, s, bucket, prefix, "", func(res *store.ListGroupResult) bool {
		for _, g := range res.Groups {
			if g != prefix {
				groups[g] = struct{}{}
			}
		}
		for _, it := range res.Items {
			if it.Key != prefix {
				files++
			}
		}
		return true
	})
	if err != nil {
		e.logger.Warn("count failed",
			zap.String("bucket", bucket),
			zap.String("prefix", prefix),
			zap.Error(err))
		return 0
	}
	return len(groups) + files
}
