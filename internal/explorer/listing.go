package explorer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
)

// ListRequest selects one page of a prefix.
type ListRequest struct {
	Bucket   string
	Prefix   string
	PageSize int
	Cursor   string
	Sort     SortOrder
}

// ListPage returns up to PageSize entries, folders first, and a cursor for
// the next page when one exists.
//
// Folders are rediscovered on every folders-phase request and always sort
// ascending by name. Files are read in windows of up to EnumerationCap
// files; each window is sorted as a whole and paged by offset, and a page
// never spans two windows. TotalCount is only set on fresh requests.
func (e *Engine) ListPage(ctx context.Context, s store.Store, req ListRequest) (*models.Page, error) {
	if req.Bucket == "" {
		return nil, invalid("bucket", "bucket is required")
	}
	order := req.Sort
	if order == "" {
		order = e.opts.DefaultSort
	}
	if !order.Valid() {
		return nil, invalid("sort", "unknown sort order %q", order)
	}
	pageSize := e.clampPageSize(req.PageSize)
	cur, fresh := e.resume(req.Cursor, order)
	srt := e.newSorter()

	page := &models.Page{
		Entries:     make([]models.Entry, 0, pageSize),
		Breadcrumbs: models.BuildBreadcrumbs(req.Prefix, e.opts.Delimiter),
	}

	// Files from a complete folder walk double as the first window.
	var firstWindow *fileWindow

	if cur.Phase == PhaseFolders {
		scan, err := e.discoverFolders(ctx, s, req.Bucket, req.Prefix)
		if err != nil {
			return nil, listingFailed(err)
		}

		folders := make([]models.Entry, 0, len(scan.groups))
		for _, g := range scan.groups {
			folders = append(folders, ClassifyFolder(g, e.opts.Delimiter))
		}
		srt.sortFolders(folders)

		if !scan.complete && cur.FolderOffset == 0 {
			e.logger.Warn("folder discovery stopped at enumeration cap; later folders are not listed",
				zap.String("bucket", req.Bucket),
				zap.String("prefix", req.Prefix),
				zap.Int("folders", len(folders)),
				zap.Int("cap", e.opts.EnumerationCap))
		}

		if fresh {
			total := len(folders) + len(scan.files)
			page.TotalCount = &total
		}

		start := min(cur.FolderOffset, len(folders))
		end := min(start+pageSize, len(folders))
		page.Entries = append(page.Entries, folders[start:end]...)

		if end < len(folders) {
			page.Cursor = EncodeCursor(Cursor{Phase: PhaseFolders, FolderOffset: end, Sort: order})
			return page, nil
		}
		if len(scan.files) == 0 && scan.complete {
			return page, nil
		}

		cur = Cursor{Phase: PhaseFiles, FolderOffset: len(folders), Sort: order}
		if scan.complete && len(scan.files) < e.opts.EnumerationCap {
			firstWindow = &fileWindow{files: scan.files}
		}
		if len(page.Entries) == pageSize {
			page.Cursor = EncodeCursor(cur)
			return page, nil
		}
	}

	window := firstWindow
	if window == nil || cur.BackendToken != "" {
		var err error
		window, err = e.loadWindow(ctx, s, req.Bucket, req.Prefix, cur.BackendToken)
		if err != nil {
			// A stale or forged backend token starts the listing over.
			if cur.BackendToken != "" && errors.Is(err, store.ErrInvalidArgument) {
				e.logger.Debug("cursor token rejected, restarting listing",
					zap.String("bucket", req.Bucket),
					zap.String("prefix", req.Prefix),
					zap.Error(err))
				req.Cursor = ""
				return e.ListPage(ctx, s, req)
			}
			return nil, listingFailed(err)
		}
	}

	files := make([]models.Entry, 0, len(window.files))
	for _, it := range window.files {
		files = append(files, e.fileEntry(it))
	}
	srt.sortFiles(files, order)

	remaining := pageSize - len(page.Entries)
	start := min(cur.FileOffset, len(files))
	end := min(start+remaining, len(files))
	picked := files[start:end]
	e.enrich(ctx, s, req.Bucket, picked)
	page.Entries = append(page.Entries, picked...)

	switch {
	case end < len(files):
		cur.FileOffset = end
		page.Cursor = EncodeCursor(cur)
	case window.next != "":
		cur.BackendToken = window.next
		cur.FileOffset = 0
		page.Cursor = EncodeCursor(cur)
	}

	e.logger.Debug("listed page",
		zap.String("bucket", req.Bucket),
		zap.String("prefix", req.Prefix),
		zap.Int("entries", len(page.Entries)),
		zap.Bool("more", page.Cursor != ""))
	return page, nil
}
