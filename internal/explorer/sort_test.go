package explorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/damacus/iron-explorer/internal/models"
)

func names(entries []models.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func fileAt(name string, ts *time.Time) models.Entry {
	return models.Entry{Key: name, Name: name, Kind: models.KindFile, LastModified: ts}
}

func TestParseSortOrder(t *testing.T) {
	got, err := ParseSortOrder("", SortDateDesc)
	assert.NoError(t, err)
	assert.Equal(t, SortDateDesc, got)

	got, err = ParseSortOrder("name-asc", SortDateDesc)
	assert.NoError(t, err)
	assert.Equal(t, SortNameAsc, got)

	_, err = ParseSortOrder("size", SortDateDesc)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSortFolders_LocaleAware(t *testing.T) {
	s := NewEngine(DefaultOptions(), nil).newSorter()
	folders := []models.Entry{
		{Name: "beta"}, {Name: "Alpha"}, {Name: "älter"}, {Name: "alpha"}, {Name: "Zeta"},
	}
	s.sortFolders(folders)

	// Byte order would put "Alpha" and "Zeta" first and "älter" last.
	assert.Equal(t, []string{"alpha", "Alpha", "älter", "beta", "Zeta"}, names(folders))
}

func TestSortFiles(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	input := func() []models.Entry {
		return []models.Entry{
			fileAt("b.txt", &t2),
			fileAt("a.txt", &t3),
			fileAt("nodate.txt", nil),
			fileAt("C.txt", &t1),
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNameAsc, []string{"a.txt", "b.txt", "C.txt", "nodate.txt"}},
		{SortNameDesc, []string{"nodate.txt", "C.txt", "b.txt", "a.txt"}},
		{SortDateAsc, []string{"nodate.txt", "C.txt", "b.txt", "a.txt"}},
		{SortDateDesc, []string{"a.txt", "b.txt", "C.txt", "nodate.txt"}},
	}
	s := NewEngine(DefaultOptions(), nil).newSorter()
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			files := input()
			s.sortFiles(files, tt.order)
			assert.Equal(t, tt.want, names(files))
		})
	}
}

func TestSortFiles_StableTies(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []models.Entry{fileAt("a", &ts), fileAt("b", &ts), fileAt("c", &ts)}

	NewEngine(DefaultOptions(), nil).newSorter().sortFiles(files, SortDateDesc)
	assert.Equal(t, []string{"a", "b", "c"}, names(files))
}
