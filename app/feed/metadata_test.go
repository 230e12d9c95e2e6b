package feed

import (
	"testing"
)

func TestMetadataParser(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <image>
      <url>https://example.com/icon.png</url>
      <title>Test Feed</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>Item</title>
    </item>
  </channel>
</rss>`

	parser := NewMetadataParser()
	metadata, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", metadata.Link)
	}
	if metadata.Description != "Test Description" {
		t.Errorf("Expected description 'Test Description', got: %s", metadata.Description)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got: %s", metadata.Language)
	}
	if metadata.ImageURL != "https://example.com/icon.png" {
		t.Errorf("Expected image URL 'https://example.com/icon.png', got: %s", metadata.ImageURL)
	}
}

func TestMetadataParser_InvalidFeed(t *testing.T) {
	parser := NewMetadataParser()

	if _, err := parser.Run([]byte("not a feed")); err == nil {
		t.Error("Expected error for unparseable feed")
	}
}
