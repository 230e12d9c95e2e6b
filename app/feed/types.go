package feed

import (
	"time"
)

// Extraction result types

// RawItemFields maps an output field key to its extracted value: a string for
// single-valued fields, an ordered []string for multi-valued ones. A key with
// zero matches in the source item is absent, not present-but-empty.
type RawItemFields map[string]any

// Record is the final output unit for one feed item: body text plus whatever
// metadata the splitter left behind.
type Record struct {
	Text     string
	Metadata map[string]any
}

// Channel-level feed metadata

type Metadata struct {
	Title           string
	Link            string
	Description     string
	ImageURL        string
	Language        string
	FeedPublishedAt *time.Time
	FeedUpdatedAt   *time.Time
}
