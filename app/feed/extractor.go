package feed

import (
	"fmt"
	"iter"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// itemsPath locates item elements relative to the feed's root element.
const itemsPath = "channel/item"

// TextExtractor strips markup from rich-text field values. Implementations
// must be best-effort: malformed markup degrades to whatever plain text can
// be recovered, it never fails.
type TextExtractor interface {
	Run(markup string) string
}

// Extractor walks a parsed feed document and applies a field schema to every
// item element, producing one RawItemFields per item. Schema and namespace
// table are fixed for the lifetime of the extractor.
type Extractor struct {
	schema     Schema
	namespaces map[string]string
	text       TextExtractor

	itemsExpr  *xpath.Expr
	fieldExprs []*xpath.Expr
}

// NewExtractor creates an extractor for the given schema and namespace table.
// A nil schema means DefaultSchema, a nil namespace table means
// DefaultNamespaces. Schemas containing rich text fields require a text
// extractor.
func NewExtractor(schema Schema, namespaces map[string]string, text TextExtractor) (*Extractor, error) {
	if schema == nil {
		schema = DefaultSchema()
	}
	if namespaces == nil {
		namespaces = DefaultNamespaces()
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	if text == nil {
		for _, spec := range schema {
			if spec.RichText {
				return nil, fmt.Errorf("schema field %q is rich text but no text extractor is configured", spec.OutputKey)
			}
		}
	}

	return &Extractor{
		schema:     schema,
		namespaces: namespaces,
		text:       text,
	}, nil
}

// Run returns a lazy, forward-only sequence of RawItemFields, one per item
// element in document order. The returned sequence is valid for a single
// iteration over the given document. Field paths are compiled against the
// namespace table on first use; an unresolvable prefix surfaces here as a
// MissingNamespaceError.
func (e *Extractor) Run(doc *xmlquery.Node) (iter.Seq[RawItemFields], error) {
	if err := e.compile(); err != nil {
		return nil, err
	}

	root := rootElement(doc)

	return func(yield func(RawItemFields) bool) {
		if root == nil {
			return
		}
		for _, item := range xmlquery.QuerySelectorAll(root, e.itemsExpr) {
			if !yield(e.extractItem(item)) {
				return
			}
		}
	}, nil
}

func (e *Extractor) compile() error {
	if e.itemsExpr != nil {
		return nil
	}

	itemsExpr, err := xpath.Compile(itemsPath)
	if err != nil {
		return fmt.Errorf("failed to compile items selector: %w", err)
	}

	fieldExprs := make([]*xpath.Expr, len(e.schema))
	for i, spec := range e.schema {
		if err := e.checkPrefixes(spec.Path); err != nil {
			return err
		}

		expr, err := xpath.CompileWithNS(spec.Path, e.namespaces)
		if err != nil {
			return fmt.Errorf("failed to compile path %q for field %q: %w", spec.Path, spec.OutputKey, err)
		}
		fieldExprs[i] = expr
	}

	e.itemsExpr = itemsExpr
	e.fieldExprs = fieldExprs
	return nil
}

// checkPrefixes verifies that every prefixed step of a field path resolves
// through the namespace table.
func (e *Extractor) checkPrefixes(path string) error {
	for _, step := range strings.Split(path, "/") {
		prefix, _, found := strings.Cut(step, ":")
		if !found || prefix == "" {
			continue
		}
		if _, defined := e.namespaces[prefix]; !defined {
			return &MissingNamespaceError{Prefix: prefix, Path: path}
		}
	}
	return nil
}

func (e *Extractor) extractItem(item *xmlquery.Node) RawItemFields {
	fields := make(RawItemFields)

	for i, spec := range e.schema {
		for _, node := range xmlquery.QuerySelectorAll(item, e.fieldExprs[i]) {
			text := node.InnerText()
			if spec.RichText && e.text != nil {
				text = e.text.Run(text)
			}

			if spec.Multi {
				values, _ := fields[spec.OutputKey].([]string)
				fields[spec.OutputKey] = append(values, text)
			} else {
				// Last matching node wins when a tag unexpectedly repeats.
				fields[spec.OutputKey] = text
			}
		}
	}

	return fields
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == xmlquery.ElementNode {
		return doc
	}
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}
