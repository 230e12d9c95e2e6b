package feed

// Splitter separates one item's raw fields into body text and residual
// metadata. Both sides operate on the same RawItemFields independently, so
// alternate body-selection policies can replace either half.
type Splitter interface {
	// Text selects the record body. Absent fields yield an empty string,
	// never an error.
	Text(raw RawItemFields) string
	// Metadata returns a copy of raw with the body-carrying fields removed.
	Metadata(raw RawItemFields) map[string]any
}

// DefaultSplitter prefers the content field over the description for the
// body, and strips both from the metadata.
type DefaultSplitter struct{}

func NewDefaultSplitter() *DefaultSplitter {
	return &DefaultSplitter{}
}

func (s *DefaultSplitter) Text(raw RawItemFields) string {
	if value, ok := raw["content"].(string); ok {
		return value
	}
	if value, ok := raw["description"].(string); ok {
		return value
	}
	return ""
}

func (s *DefaultSplitter) Metadata(raw RawItemFields) map[string]any {
	metadata := make(map[string]any, len(raw))
	for key, value := range raw {
		metadata[key] = value
	}

	delete(metadata, "content")
	delete(metadata, "description")

	return metadata
}
