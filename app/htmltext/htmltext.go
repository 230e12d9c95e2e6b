// Package htmltext strips HTML markup down to whitespace-normalized plain
// text. Extraction is best-effort: malformed markup yields whatever text the
// tolerant parser recovers, never an error.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Run returns the plain text of the given markup: tags removed, entities
// decoded, text NFC-normalized, runs of whitespace collapsed to single
// spaces.
func (e *Extractor) Run(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil || doc == nil {
		return normalize(markup)
	}

	var b strings.Builder
	collectText(&b, doc)

	return normalize(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe":
			return
		case "br", "hr", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			// block boundary, keep adjacent text runs apart
			b.WriteString(" ")
		}
	}

	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
