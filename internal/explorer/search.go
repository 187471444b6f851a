package explorer

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
)

// Search matches query against the last path segment of every folder and
// file directly under prefix, case-insensitively. A blank query returns the
// first listing page instead.
//
// The result is complete for the walk: no cursor is returned. Matching
// folders sort by name; matching files keep discovery order and are capped
// at SearchResultCap before ACL enrichment.
func (e *Engine) Search(ctx context.Context, s store.Store, bucket, prefix, query string) (*models.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return e.ListPage(ctx, s, ListRequest{
			Bucket:   bucket,
			Prefix:   prefix,
			PageSize: e.opts.PageSize,
			Sort:     e.opts.DefaultSort,
		})
	}
	if bucket == "" {
		return nil, invalid("bucket", "bucket is required")
	}

	fold := cases.Fold()
	needle := fold.String(query)
	matches := func(name string) bool {
		return strings.Contains(fold.String(name), needle)
	}

	var (
		folders []models.Entry
		files   []store.Item
		scanned int
	)
	seen := make(map[string]struct{})

	_, err := e.walk(ctx, s, bucket, prefix, "", func(res *store.ListGroupResult) bool {
		for _, g := range res.Groups {
			if g == prefix {
				continue
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			scanned++
			if f := ClassifyFolder(g, e.opts.Delimiter); matches(f.Name) {
				folders = append(folders, f)
			}
		}
		for _, it := range res.Items {
			if it.Key == prefix {
				continue
			}
			scanned++
			if matches(lastSegment(it.Key, e.opts.Delimiter)) {
				files = append(files, it)
			}
		}
		return e.opts.SearchScanLimit == 0 || scanned < e.opts.SearchScanLimit
	})
	if err != nil {
		return nil, listingFailed(err)
	}

	e.newSorter().sortFolders(folders)

	if len(files) > e.opts.SearchResultCap {
		files = files[:e.opts.SearchResultCap]
	}
	fileEntries := make([]models.Entry, 0, len(files))
	for _, it := range files {
		fileEntries = append(fileEntries, e.fileEntry(it))
	}
	e.enrich(ctx, s, bucket, fileEntries)

	entries := make([]models.Entry, 0, len(folders)+len(fileEntries))
	entries = append(entries, folders...)
	entries = append(entries, fileEntries...)
	total := len(entries)

	e.logger.Debug("search finished",
		zap.String("bucket", bucket),
		zap.String("prefix", prefix),
		zap.Int("scanned", scanned),
		zap.Int("matches", total))

	return &models.Page{
		Entries:     entries,
		TotalCount:  &total,
		Breadcrumbs: models.BuildBreadcrumbs(prefix, e.opts.Delimiter),
	}, nil
}
