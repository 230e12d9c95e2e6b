// Package loader drives the fetch, parse, extract, split pipeline across a
// fixed list of feed sources and accumulates the resulting records.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/lysyi3m/rss-loader/app/feed"
	"github.com/lysyi3m/rss-loader/app/fetcher"
)

// Source is one configured feed location plus its per-feed processing
// settings.
type Source struct {
	Name           string
	URL            string
	MaxItems       int           // 0 means unlimited
	Timeout        time.Duration // per-source budget covering fetch and processing, 0 means none
	ExtractContent bool          // fetch the linked page when an item yields no body
	FeedMetadata   bool          // attach channel title to each record's metadata

	// Extractor overrides the loader's default extractor for this source,
	// carrying a per-feed schema or namespace table.
	Extractor *feed.Extractor
}

type Option func(*Loader)

// WithSplitter replaces the default text/metadata split policy.
func WithSplitter(s feed.Splitter) Option {
	return func(l *Loader) {
		l.splitter = s
	}
}

// WithContinueOnError makes Load skip a source whose fetch or parse fails,
// logging the skipped location, instead of aborting the whole batch.
func WithContinueOnError() Option {
	return func(l *Loader) {
		l.continueOnError = true
	}
}

// Loader materializes records from every configured source, strictly in
// listed order. Each load pass is independent; the loader keeps no state
// between calls.
type Loader struct {
	sources   []Source
	fetcher   fetcher.Fetcher
	extractor *feed.Extractor
	splitter  feed.Splitter

	metadataParser   *feed.MetadataParser
	contentExtractor *feed.ContentExtractor
	continueOnError  bool
}

func New(sources []Source, f fetcher.Fetcher, extractor *feed.Extractor, opts ...Option) (*Loader, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	if extractor == nil {
		for _, src := range sources {
			if src.Extractor == nil {
				return nil, fmt.Errorf("source %q has no extractor and no default extractor is configured", src.URL)
			}
		}
	}

	l := &Loader{
		sources:          sources,
		fetcher:          f,
		extractor:        extractor,
		splitter:         feed.NewDefaultSplitter(),
		metadataParser:   feed.NewMetadataParser(),
		contentExtractor: feed.NewContentExtractor(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}

	return l, nil
}

// SourcesFromURLs wraps plain feed URLs into sources with default settings.
func SourcesFromURLs(urls []string) []Source {
	sources := make([]Source, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, Source{Name: u, URL: u})
	}
	return sources
}

// SourceResult groups the records produced by one source.
type SourceResult struct {
	Source  Source
	Records []feed.Record
}

// Load processes every source in order and returns the accumulated records.
// By default the first fetch or parse failure aborts the batch; a failing
// source never contributes partial records either way.
func (l *Loader) Load(ctx context.Context) ([]feed.Record, error) {
	results, err := l.LoadGrouped(ctx)
	if err != nil {
		return nil, err
	}

	var records []feed.Record
	for _, result := range results {
		records = append(records, result.Records...)
	}

	return records, nil
}

// LoadGrouped is Load with the per-source grouping preserved, for callers
// that need to attribute records back to their feed.
func (l *Loader) LoadGrouped(ctx context.Context) ([]SourceResult, error) {
	var results []SourceResult

	for _, src := range l.sources {
		feedRecords, err := l.loadSource(ctx, src)
		if err != nil {
			if l.continueOnError {
				slog.Warn("Skipping feed", "feed", src.Name, "url", src.URL, "error", err)
				continue
			}
			return nil, err
		}
		results = append(results, SourceResult{Source: src, Records: feedRecords})
	}

	return results, nil
}

func (l *Loader) loadSource(ctx context.Context, src Source) ([]feed.Record, error) {
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}

	data, err := l.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, &FetchError{Location: src.URL, Err: err}
	}

	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Location: src.URL, Err: err}
	}

	extractor := src.Extractor
	if extractor == nil {
		extractor = l.extractor
	}

	items, err := extractor.Run(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract items from %s: %w", src.URL, err)
	}

	var metadata *feed.Metadata
	if src.FeedMetadata {
		metadata, err = l.metadataParser.Run(data)
		if err != nil {
			slog.Warn("Failed to parse feed metadata", "feed", src.Name, "error", err)
			metadata = nil
		}
	}

	var records []feed.Record
	for raw := range items {
		if src.MaxItems > 0 && len(records) >= src.MaxItems {
			break
		}

		text := l.splitter.Text(raw)
		meta := l.splitter.Metadata(raw)

		if metadata != nil && metadata.Title != "" {
			meta["feed_title"] = metadata.Title
		}

		if text == "" && src.ExtractContent {
			text = l.extractLinkedContent(ctx, src, meta)
		}

		records = append(records, feed.Record{Text: text, Metadata: meta})
	}

	slog.Info("Feed loaded", "feed", src.Name, "url", src.URL, "records", len(records))

	return records, nil
}

// extractLinkedContent fetches an item's source page and extracts readable
// article text. Failures degrade to an empty body, they never abort a load.
func (l *Loader) extractLinkedContent(ctx context.Context, src Source, meta map[string]any) string {
	link, ok := meta["source"].(string)
	if !ok || link == "" {
		return ""
	}

	page, err := l.fetcher.Fetch(ctx, link)
	if err != nil {
		slog.Warn("Failed to fetch linked page", "feed", src.Name, "url", link, "error", err)
		return ""
	}

	text, err := l.contentExtractor.Run(page, link)
	if err != nil {
		slog.Warn("Failed to extract linked content", "feed", src.Name, "url", link, "error", err)
		return ""
	}

	return text
}
