package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// MetadataParser extracts channel-level metadata from a raw feed document.
// Item-level fields are the schema extractor's job; this only covers the
// feed's own header, used for logging and record enrichment.
type MetadataParser struct {
	gofeedParser *gofeed.Parser
}

func NewMetadataParser() *MetadataParser {
	return &MetadataParser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *MetadataParser) Run(data []byte) (*Metadata, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.Image != nil {
		metadata.ImageURL = parsed.Image.URL
	}

	if parsed.PublishedParsed != nil {
		metadata.FeedPublishedAt = parsed.PublishedParsed
	}

	if parsed.UpdatedParsed != nil {
		metadata.FeedUpdatedAt = parsed.UpdatedParsed
	}

	return metadata, nil
}
