package explorer

import (
	"context"

	"github.com/damacus/iron-explorer/internal/store"
)

// walk pages through a delimiter listing from token, handing each page to
// visit until the backend is exhausted or visit returns false. It returns
// the token that continues after the last page read, "" when exhausted.
//
// Every call asks for full pages so that walks from the same token always
// see the same page boundaries.
func (e *Engine) walk(ctx context.Context, s store.Store, bucket, prefix, token string, visit func(*store.ListGroupResult) bool) (string, error) {
	for {
		res, err := s.ListGroup(ctx, bucket, store.ListGroupOptions{
			Prefix:            prefix,
			Delimiter:         e.opts.Delimiter,
			ContinuationToken: token,
			MaxKeys:           store.MaxListKeys,
		})
		if err != nil {
			return "", err
		}
		token = res.NextToken
		if !visit(res) || token == "" {
			return token, nil
		}
	}
}

// folderScan is the outcome of folder discovery.
type folderScan struct {
	groups []string
	files  []store.Item

	// complete is false when the walk stopped at the enumeration cap.
	complete bool
}

// discoverFolders collects every distinct group under prefix, plus the
// files met on the way, stopping after EnumerationCap scanned entries.
func (e *Engine) discoverFolders(ctx context.Context, s store.Store, bucket, prefix string) (*folderScan, error) {
	scan := &folderScan{}
	seen := make(map[string]struct{})

	next, err := e.walk(ctx, s, bucket, prefix, "", func(res *store.ListGroupResult) bool {
		for _, g := range res.Groups {
			if g == prefix {
				continue
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			scan.groups = append(scan.groups, g)
		}
		for _, it := range res.Items {
			if it.Key != prefix {
				scan.files = append(scan.files, it)
			}
		}
		return len(scan.groups)+len(scan.files) < e.opts.EnumerationCap
	})
	if err != nil {
		return nil, err
	}
	scan.complete = next == ""
	return scan, nil
}

// fileWindow is the run of files read from one start token.
type fileWindow struct {
	files []store.Item

	// next starts the following window; "" means this is the last.
	next string
}

// loadWindow reads files from token until EnumerationCap files were seen or
// the backend is exhausted. Given the same token and unchanged contents it
// always yields the same window.
func (e *Engine) loadWindow(ctx context.Context, s store.Store, bucket, prefix, token string) (*fileWindow, error) {
	w := &fileWindow{}
	next, err := e.walk(ctx, s, bucket, prefix, token, func(res *store.ListGroupResult) bool {
		for _, it := range res.Items {
			if it.Key != prefix {
				w.files = append(w.files, it)
			}
		}
		return len(w.files) < e.opts.EnumerationCap
	})
	if err != nil {
		return nil, err
	}
	w.next = next
	return w, nil
}
