package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of feed configurations
type Loader struct {
	feedsDir string
}

// NewLoader creates a new configuration loader
func NewLoader(feedsDir string) *Loader {
	return &Loader{feedsDir: feedsDir}
}

// LoadAll loads all YAML configuration files from the feeds directory,
// ordered by filename so the load order of feeds is stable.
func (l *Loader) LoadAll() ([]*FeedConfig, error) {
	// Check if feeds directory exists
	if _, err := os.Stat(l.feedsDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.feedsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	// Also check for .yml extension
	ymlFiles, err := filepath.Glob(filepath.Join(l.feedsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	configs := make([]*FeedConfig, 0, len(files))
	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs = append(configs, config)
		slog.Debug("Loaded configuration", "file", file, "feed", config.Name)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config FeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	config.Name = strings.TrimSuffix(base, filepath.Ext(base))

	// Set defaults
	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *FeedConfig) {
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30 // seconds
	}
}

// validate validates the configuration
func (l *Loader) validate(config *FeedConfig) error {
	if config.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	if config.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	for i, field := range config.Fields {
		if field.Path == "" {
			return fmt.Errorf("field at index %d must have a path", i)
		}
		if field.Key == "" {
			return fmt.Errorf("field at index %d must have a key", i)
		}
	}

	return nil
}
