package feed

import (
	"fmt"
)

// FieldSpec describes where one output field lives inside an item element and
// how its value is shaped.
type FieldSpec struct {
	Path      string // node selector, relative to the item element; may use namespace prefixes
	OutputKey string
	Multi     bool // accumulate every match in document order
	RichText  bool // value is HTML, strip it to plain text
}

// Schema is an ordered list of field specs, applied to every item in schema
// order.
type Schema []FieldSpec

// DefaultSchema returns the field table covering the common RSS 2.0 item
// layout plus the Dublin Core and content module extensions.
func DefaultSchema() Schema {
	return Schema{
		{Path: "link", OutputKey: "source"},
		{Path: "title", OutputKey: "title"},
		{Path: "category", OutputKey: "category", Multi: true},
		{Path: "pubDate", OutputKey: "publication_date"},
		{Path: "dc:creator", OutputKey: "author"},
		{Path: "description", OutputKey: "description", RichText: true},
		{Path: "content:encoded", OutputKey: "content", RichText: true},
	}
}

// DefaultNamespaces returns the prefix table the default schema relies on.
// Additional prefixes may be merged in by configuration.
func DefaultNamespaces() map[string]string {
	return map[string]string{
		"content": "http://purl.org/rss/1.0/modules/content/",
		"dc":      "http://purl.org/dc/elements/1.1/",
	}
}

// Validate checks the schema invariants: every spec has a path and output
// keys are unique.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, spec := range s {
		if spec.Path == "" {
			return fmt.Errorf("field spec at index %d has empty path", i)
		}
		if spec.OutputKey == "" {
			return fmt.Errorf("field spec at index %d has empty output key", i)
		}
		if seen[spec.OutputKey] {
			return fmt.Errorf("duplicate output key: %s", spec.OutputKey)
		}
		seen[spec.OutputKey] = true
	}
	return nil
}
