package explorer

import (
	"slices"
	"time"

	"golang.org/x/text/collate"

	"github.com/damacus/iron-explorer/internal/models"
)

// SortOrder is a file ordering. Folders always list by ascending name.
type SortOrder string

const (
	SortNameAsc  SortOrder = "name-asc"
	SortNameDesc SortOrder = "name-desc"
	SortDateAsc  SortOrder = "date-asc"
	SortDateDesc SortOrder = "date-desc"
)

// Valid reports whether s is a known order.
func (s SortOrder) Valid() bool {
	switch s {
	case SortNameAsc, SortNameDesc, SortDateAsc, SortDateDesc:
		return true
	}
	return false
}

// ParseSortOrder parses a query value; "" yields def.
func ParseSortOrder(s string, def SortOrder) (SortOrder, error) {
	if s == "" {
		return def, nil
	}
	order := SortOrder(s)
	if !order.Valid() {
		return "", invalid("sort", "unknown sort order %q (want name-asc, name-desc, date-asc or date-desc)", s)
	}
	return order, nil
}

// sorter orders entries with locale-aware name collation. A collator keeps
// internal buffers, so each request builds its own.
type sorter struct {
	coll *collate.Collator
}

func (e *Engine) newSorter() *sorter {
	return &sorter{coll: collate.New(e.lang)}
}

func (s *sorter) compareNames(a, b models.Entry) int {
	return s.coll.CompareString(a.Name, b.Name)
}

// sortFolders orders folders by ascending name.
func (s *sorter) sortFolders(folders []models.Entry) {
	slices.SortStableFunc(folders, s.compareNames)
}

// sortFiles orders files in place. The sort is stable, so ties keep the
// backend's key order.
func (s *sorter) sortFiles(files []models.Entry, order SortOrder) {
	var cmp func(a, b models.Entry) int
	switch order {
	case SortNameAsc:
		cmp = s.compareNames
	case SortNameDesc:
		cmp = func(a, b models.Entry) int { return s.compareNames(b, a) }
	case SortDateAsc:
		cmp = func(a, b models.Entry) int { return compareModified(a.LastModified, b.LastModified) }
	default:
		cmp = func(a, b models.Entry) int { return compareModified(b.LastModified, a.LastModified) }
	}
	slices.SortStableFunc(files, cmp)
}

// compareModified orders timestamps with a missing one as earliest.
func compareModified(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
