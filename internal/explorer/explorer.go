// Package explorer turns a flat, forward-only object listing into the
// folder-first, sortable, cursor-paginated view the browser API serves.
//
// The Engine holds no per-request state. Every operation takes the Store to
// talk to as an explicit argument, so one Engine serves all sessions and
// tests inject an in-memory store.
package explorer

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/damacus/iron-explorer/internal/config"
)

// Options tunes the engine. Zero fields take the DefaultOptions value.
type Options struct {
	PageSize    int
	MaxPageSize int
	DefaultSort SortOrder

	// EnumerationCap bounds folder discovery and file windows.
	EnumerationCap int

	Delimiter string

	// Locale is a BCP 47 tag used for name collation.
	Locale string

	SearchResultCap int

	// SearchScanLimit bounds entries scanned by a search. Zero scans all.
	SearchScanLimit int

	// EnrichBatchSize is the number of concurrent ACL checks.
	EnrichBatchSize int

	PresignTTL      time.Duration
	PreviewMaxBytes int64
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:        100,
		MaxPageSize:     1000,
		DefaultSort:     SortDateDesc,
		EnumerationCap:  2000,
		Delimiter:       "/",
		Locale:          "en",
		SearchResultCap: 100,
		EnrichBatchSize: 10,
		PresignTTL:      time.Hour,
		PreviewMaxBytes: 5 << 20,
	}
}

// OptionsFromConfig maps loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:        cfg.Listing.PageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
		DefaultSort:     SortOrder(cfg.Listing.DefaultSort),
		EnumerationCap:  cfg.Listing.EnumerationCap,
		Delimiter:       cfg.Listing.Delimiter,
		Locale:          cfg.Listing.Locale,
		SearchResultCap: cfg.Search.ResultCap,
		SearchScanLimit: cfg.Search.ScanLimit,
		EnrichBatchSize: cfg.Enrich.BatchSize,
		PresignTTL:      cfg.Objects.PresignTTL,
		PreviewMaxBytes: cfg.Objects.PreviewMaxBytes,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.MaxPageSize < o.PageSize {
		o.MaxPageSize = max(d.MaxPageSize, o.PageSize)
	}
	if !o.DefaultSort.Valid() {
		o.DefaultSort = d.DefaultSort
	}
	if o.EnumerationCap <= 0 {
		o.EnumerationCap = d.EnumerationCap
	}
	if o.Delimiter == "" {
		o.Delimiter = d.Delimiter
	}
	if o.Locale == "" {
		o.Locale = d.Locale
	}
	if o.SearchResultCap <= 0 {
		o.SearchResultCap = d.SearchResultCap
	}
	if o.SearchScanLimit < 0 {
		o.SearchScanLimit = 0
	}
	if o.EnrichBatchSize <= 0 {
		o.EnrichBatchSize = d.EnrichBatchSize
	}
	if o.PresignTTL <= 0 {
		o.PresignTTL = d.PresignTTL
	}
	if o.PresignTTL > config.MaxPresignTTL {
		o.PresignTTL = config.MaxPresignTTL
	}
	if o.PreviewMaxBytes <= 0 {
		o.PreviewMaxBytes = d.PreviewMaxBytes
	}
	return o
}

// Engine implements listing, search, count and the object operations.
type Engine struct {
	opts   Options
	lang   language.Tag
	logger *zap.Logger
}

// NewEngine builds an engine. A nil logger discards output.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	lang, err := language.Parse(opts.Locale)
	if err != nil {
		logger.Warn("unknown collation locale, using English", zap.String("locale", opts.Locale), zap.Error(err))
		lang = language.English
	}
	return &Engine{opts: opts, lang: lang, logger: logger}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// clampPageSize applies the default and the configured ceiling.
func (e *Engine) clampPageSize(n int) int {
	if n <= 0 {
		return e.opts.PageSize
	}
	return min(n, e.opts.MaxPageSize)
}
