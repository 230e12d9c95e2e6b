package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lysyi3m/rss-loader/app/feed"
	"github.com/lysyi3m/rss-loader/app/htmltext"
)

type stubFetcher struct {
	responses map[string]string
	failures  map[string]error
}

func (f *stubFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err, ok := f.failures[location]; ok {
		return nil, err
	}
	if data, ok := f.responses[location]; ok {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("no stub response for %s", location)
}

func newTestExtractor(t *testing.T) *feed.Extractor {
	t.Helper()
	extractor, err := feed.NewExtractor(nil, nil, htmltext.New())
	if err != nil {
		t.Fatalf("Failed to create extractor: %v", err)
	}
	return extractor
}

func TestLoad_EndToEnd(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>A</title>
      <description>&lt;p&gt;d1&lt;/p&gt;</description>
    </item>
    <item>
      <title>B</title>
      <content:encoded>&lt;p&gt;c2&lt;/p&gt;</content:encoded>
    </item>
  </channel>
</rss>`

	fetcher := &stubFetcher{responses: map[string]string{"https://example.com/rss": rssData}}
	sources := SourcesFromURLs([]string{"https://example.com/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got: %d", len(records))
	}

	if records[0].Text != "d1" {
		t.Errorf("Expected first record text 'd1', got: %q", records[0].Text)
	}
	if records[0].Metadata["title"] != "A" {
		t.Errorf("Expected first record title 'A', got: %v", records[0].Metadata["title"])
	}

	if records[1].Text != "c2" {
		t.Errorf("Expected second record text 'c2', got: %q", records[1].Text)
	}
	if records[1].Metadata["title"] != "B" {
		t.Errorf("Expected second record title 'B', got: %v", records[1].Metadata["title"])
	}

	for i, record := range records {
		if _, present := record.Metadata["content"]; present {
			t.Errorf("Record %d: metadata must not contain 'content'", i)
		}
		if _, present := record.Metadata["description"]; present {
			t.Errorf("Record %d: metadata must not contain 'description'", i)
		}
	}
}

func TestLoad_FeedOrderPreserved(t *testing.T) {
	feedTemplate := `<rss version="2.0"><channel><item><title>%s</title><description>%s</description></item></channel></rss>`

	fetcher := &stubFetcher{responses: map[string]string{
		"https://a.example/rss": fmt.Sprintf(feedTemplate, "from-a", "a"),
		"https://b.example/rss": fmt.Sprintf(feedTemplate, "from-b", "b"),
	}}
	sources := SourcesFromURLs([]string{"https://b.example/rss", "https://a.example/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got: %d", len(records))
	}
	if records[0].Text != "b" || records[1].Text != "a" {
		t.Errorf("Expected records in listed feed order, got: %q, %q", records[0].Text, records[1].Text)
	}
}

func TestLoad_FetchErrorAbortsBatch(t *testing.T) {
	okFeed := `<rss version="2.0"><channel><item><title>ok</title></item></channel></rss>`

	fetcher := &stubFetcher{
		responses: map[string]string{"https://good.example/rss": okFeed},
		failures:  map[string]error{"https://bad.example/rss": errors.New("connection refused")},
	}
	sources := SourcesFromURLs([]string{"https://good.example/rss", "https://bad.example/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err == nil {
		t.Fatal("Expected fetch error to abort the batch")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
	if fetchErr.Location != "https://bad.example/rss" {
		t.Errorf("Expected failing location in error, got: %s", fetchErr.Location)
	}

	if records != nil {
		t.Errorf("Expected no records on abort, got: %d", len(records))
	}
}

func TestLoad_ParseError(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]string{
		"https://example.com/rss": `<rss><channel><item></rss>`,
	}}
	sources := SourcesFromURLs([]string{"https://example.com/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = l.Load(context.Background())
	if err == nil {
		t.Fatal("Expected parse error for malformed XML")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got: %v", err)
	}
}

func TestLoad_ContinueOnError(t *testing.T) {
	okFeed := `<rss version="2.0"><channel><item><title>ok</title><description>body</description></item></channel></rss>`

	fetcher := &stubFetcher{
		responses: map[string]string{"https://good.example/rss": okFeed},
		failures:  map[string]error{"https://bad.example/rss": errors.New("connection refused")},
	}
	sources := SourcesFromURLs([]string{"https://bad.example/rss", "https://good.example/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t), WithContinueOnError())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error with continue-on-error, got: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record from the surviving feed, got: %d", len(records))
	}
	if records[0].Text != "body" {
		t.Errorf("Expected text 'body', got: %q", records[0].Text)
	}
}

func TestLoad_ZeroItems(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]string{
		"https://example.com/rss": `<rss version="2.0"><channel><title>Empty</title></channel></rss>`,
	}}
	sources := SourcesFromURLs([]string{"https://example.com/rss"})

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected zero records, got: %d", len(records))
	}
}

func TestLoad_MaxItems(t *testing.T) {
	rssData := `<rss version="2.0"><channel>
	  <item><title>1</title></item>
	  <item><title>2</title></item>
	  <item><title>3</title></item>
	</channel></rss>`

	fetcher := &stubFetcher{responses: map[string]string{"https://example.com/rss": rssData}}
	sources := []Source{{Name: "capped", URL: "https://example.com/rss", MaxItems: 2}}

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got: %d", len(records))
	}
	if records[0].Metadata["title"] != "1" || records[1].Metadata["title"] != "2" {
		t.Errorf("Expected the first two items, got: %v, %v", records[0].Metadata["title"], records[1].Metadata["title"])
	}
}

func TestLoad_FeedMetadataEnrichment(t *testing.T) {
	rssData := `<rss version="2.0"><channel>
	  <title>Channel Title</title>
	  <link>https://example.com</link>
	  <description>channel</description>
	  <item><title>Item</title></item>
	</channel></rss>`

	fetcher := &stubFetcher{responses: map[string]string{"https://example.com/rss": rssData}}
	sources := []Source{{Name: "enriched", URL: "https://example.com/rss", FeedMetadata: true}}

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got: %d", len(records))
	}
	if records[0].Metadata["feed_title"] != "Channel Title" {
		t.Errorf("Expected feed_title 'Channel Title', got: %v", records[0].Metadata["feed_title"])
	}
}

func TestLoad_ContentExtractionDegradesOnFetchFailure(t *testing.T) {
	rssData := `<rss version="2.0"><channel>
	  <item><title>linked</title><link>https://example.com/article</link></item>
	</channel></rss>`

	fetcher := &stubFetcher{
		responses: map[string]string{"https://example.com/rss": rssData},
		failures:  map[string]error{"https://example.com/article": errors.New("connection refused")},
	}
	sources := []Source{{Name: "extracting", URL: "https://example.com/rss", ExtractContent: true}}

	l, err := New(sources, fetcher, newTestExtractor(t))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected content extraction failure not to abort the load, got: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got: %d", len(records))
	}
	if records[0].Text != "" {
		t.Errorf("Expected empty body after degraded extraction, got: %q", records[0].Text)
	}
}

type descriptionFirstSplitter struct {
	fallback feed.Splitter
}

func (s *descriptionFirstSplitter) Text(raw feed.RawItemFields) string {
	if value, ok := raw["description"].(string); ok {
		return value
	}
	if value, ok := raw["content"].(string); ok {
		return value
	}
	return ""
}

func (s *descriptionFirstSplitter) Metadata(raw feed.RawItemFields) map[string]any {
	return s.fallback.Metadata(raw)
}

func TestLoad_CustomSplitter(t *testing.T) {
	rssData := `<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/"><channel>
	  <item>
	    <title>both</title>
	    <description>short</description>
	    <content:encoded>long</content:encoded>
	  </item>
	</channel></rss>`

	fetcher := &stubFetcher{responses: map[string]string{"https://example.com/rss": rssData}}
	sources := SourcesFromURLs([]string{"https://example.com/rss"})

	splitter := &descriptionFirstSplitter{fallback: feed.NewDefaultSplitter()}

	l, err := New(sources, fetcher, newTestExtractor(t), WithSplitter(splitter))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if records[0].Text != "short" {
		t.Errorf("Expected description-first body 'short', got: %q", records[0].Text)
	}
}

func TestNew_RequiresFetcher(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("Expected error for missing fetcher")
	}
}

func TestNew_RequiresExtractor(t *testing.T) {
	sources := SourcesFromURLs([]string{"https://example.com/rss"})

	if _, err := New(sources, &stubFetcher{}, nil); err == nil {
		t.Error("Expected error when no extractor is available for a source")
	}
}
