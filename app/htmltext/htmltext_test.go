package htmltext

import (
	"testing"
)

func TestRun_StripsTags(t *testing.T) {
	extractor := New()

	if got := extractor.Run("<p>Hello <b>World</b></p>"); got != "Hello World" {
		t.Errorf("Expected 'Hello World', got: %q", got)
	}
}

func TestRun_PlainTextPassthrough(t *testing.T) {
	extractor := New()

	if got := extractor.Run("just text"); got != "just text" {
		t.Errorf("Expected 'just text', got: %q", got)
	}
}

func TestRun_DecodesEntities(t *testing.T) {
	extractor := New()

	if got := extractor.Run("fish &amp; chips"); got != "fish & chips" {
		t.Errorf("Expected 'fish & chips', got: %q", got)
	}
}

func TestRun_CollapsesWhitespace(t *testing.T) {
	extractor := New()

	input := "<div>  one\n\n two </div><p>three</p>"
	if got := extractor.Run(input); got != "one two three" {
		t.Errorf("Expected 'one two three', got: %q", got)
	}
}

func TestRun_SkipsScriptAndStyle(t *testing.T) {
	extractor := New()

	input := `<style>p { color: red; }</style><script>alert(1)</script><p>visible</p>`
	if got := extractor.Run(input); got != "visible" {
		t.Errorf("Expected 'visible', got: %q", got)
	}
}

func TestRun_MalformedMarkup(t *testing.T) {
	extractor := New()

	// the tolerant parser recovers whatever text it can
	if got := extractor.Run("<p>Hello <b>unclosed"); got != "Hello unclosed" {
		t.Errorf("Expected 'Hello unclosed', got: %q", got)
	}
}

func TestRun_Empty(t *testing.T) {
	extractor := New()

	if got := extractor.Run(""); got != "" {
		t.Errorf("Expected empty string, got: %q", got)
	}
}
