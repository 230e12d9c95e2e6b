package config

// FeedConfig represents a complete feed configuration
type FeedConfig struct {
	Name       string            // Derived from filename (without extension)
	URL        string            `yaml:"url"`
	Settings   FeedSettings      `yaml:"settings"`
	Fields     []FieldConfig     `yaml:"fields"`
	Namespaces map[string]string `yaml:"namespaces"`
}

// FeedSettings contains feed processing settings
type FeedSettings struct {
	Enabled        bool `yaml:"enabled"`
	Timeout        int  `yaml:"timeout"` // seconds
	MaxItems       int  `yaml:"max_items"`
	ExtractContent bool `yaml:"extract_content"` // fetch linked pages for empty bodies
	FeedMetadata   bool `yaml:"feed_metadata"`   // attach channel title to records
}

// FieldConfig overrides the default extraction schema for one feed
type FieldConfig struct {
	Path     string `yaml:"path"`
	Key      string `yaml:"key"`
	Multi    bool   `yaml:"multi"`
	RichText bool   `yaml:"rich_text"`
}
