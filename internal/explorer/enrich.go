package explorer

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
)

// enrich sets IsPublic on every file entry with at most EnrichBatchSize ACL
// checks in flight. Each check writes only its own slot. A failed check
// leaves the file private and never fails the page.
func (e *Engine) enrich(ctx context.Context, s store.Store, bucket string, entries []models.Entry) {
	var g errgroup.Group
	g.SetLimit(e.opts.EnrichBatchSize)

	for i := range entries {
		if entries[i].Kind != models.KindFile {
			continue
		}
		g.Go(func() error {
			public, err := s.CheckPublicRead(ctx, bucket, entries[i].Key)
			if err != nil {
				e.logger.Debug("acl check failed",
					zap.String("bucket", bucket),
					zap.String("key", entries[i].Key),
					zap.Error(err))
				public = false
			}
			entries[i].IsPublic = &public
			return nil
		})
	}
	_ = g.Wait()
}
