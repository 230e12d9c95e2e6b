package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/rss-loader/app/config"
	"github.com/lysyi3m/rss-loader/app/database"
	"github.com/lysyi3m/rss-loader/app/feed"
	"github.com/lysyi3m/rss-loader/app/fetcher"
	"github.com/lysyi3m/rss-loader/app/htmltext"
	"github.com/lysyi3m/rss-loader/app/loader"
)

func main() {
	appConfig := loadConfig()
	if appConfig == nil {
		// Help was shown or parsing failed, exit gracefully
		return
	}

	setupLogger(appConfig.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	textExtractor := htmltext.New()

	defaultExtractor, err := feed.NewExtractor(nil, nil, textExtractor)
	if err != nil {
		slog.Error("Failed to create extractor", "error", err)
		os.Exit(1)
	}

	sources, err := buildSources(appConfig, textExtractor)
	if err != nil {
		slog.Error("Failed to build feed sources", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		slog.Error("No feeds configured", "feeds_dir", appConfig.FeedsDir)
		os.Exit(1)
	}
	slog.Info("Feed sources configured", "count", len(sources))

	httpFetcher := fetcher.NewHTTPFetcher(nil, appConfig.UserAgent, appConfig.GetTimeout())

	var opts []loader.Option
	if appConfig.ContinueOnError {
		opts = append(opts, loader.WithContinueOnError())
	}

	feedLoader, err := loader.New(sources, httpFetcher, defaultExtractor, opts...)
	if err != nil {
		slog.Error("Failed to create loader", "error", err)
		os.Exit(1)
	}

	results, err := feedLoader.LoadGrouped(ctx)
	if err != nil {
		slog.Error("Load failed", "error", err)
		os.Exit(1)
	}

	total := 0
	for _, result := range results {
		total += len(result.Records)
	}
	slog.Info("Load complete", "feeds", len(results), "records", total)

	if appConfig.DBPath != "" {
		if err := storeRecords(appConfig.DBPath, results); err != nil {
			slog.Error("Failed to store records", "error", err)
			os.Exit(1)
		}
	}

	if err := writeRecords(appConfig.Output, results); err != nil {
		slog.Error("Failed to write records", "error", err)
		os.Exit(1)
	}
}

// AppConfig holds process configuration from environment variables and
// command-line flags
type AppConfig struct {
	FeedsDir        string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	DBPath          string `long:"db-path" env:"DB_PATH" description:"Path to sqlite database for record storage (optional)"`
	Output          string `long:"output" env:"OUTPUT" default:"-" description:"JSONL output path, '-' for stdout"`
	UserAgent       string `long:"user-agent" env:"USER_AGENT" default:"RSS Loader/1.0" description:"User agent string for HTTP requests"`
	Timeout         int    `long:"timeout" env:"TIMEOUT" default:"30" description:"HTTP timeout in seconds"`
	LogLevel        string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`
	ContinueOnError bool   `long:"continue-on-error" env:"CONTINUE_ON_ERROR" description:"Skip feeds that fail to fetch or parse instead of aborting"`

	Args struct {
		URLs []string `positional-arg-name:"url" description:"Additional feed URLs loaded with default settings"`
	} `positional-args:"yes"`
}

// GetTimeout returns the HTTP timeout as time.Duration
func (c *AppConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return fetcher.DefaultTimeout
	}
	return time.Duration(c.Timeout) * time.Second
}

// loadConfig loads configuration from environment variables and command-line flags
func loadConfig() *AppConfig {
	var appConfig AppConfig

	parser := flags.NewParser(&appConfig, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				// Help was requested, exit gracefully
				return nil
			}
		}
		fmt.Fprintf(os.Stderr, "Failed to parse configuration: %v\n", err)
		os.Exit(1)
	}

	return &appConfig
}

// buildSources turns feed configuration files plus any positional URLs into
// loader sources, in stable order.
func buildSources(appConfig *AppConfig, textExtractor feed.TextExtractor) ([]loader.Source, error) {
	configLoader := config.NewLoader(appConfig.FeedsDir)
	feedConfigs, err := configLoader.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed configurations: %w", err)
	}

	var sources []loader.Source
	for _, cfg := range feedConfigs {
		if !cfg.Settings.Enabled {
			slog.Debug("Feed disabled, skipping", "feed", cfg.Name)
			continue
		}

		src := loader.Source{
			Name:           cfg.Name,
			URL:            cfg.URL,
			MaxItems:       cfg.Settings.MaxItems,
			Timeout:        cfg.Settings.GetTimeout(),
			ExtractContent: cfg.Settings.ExtractContent,
			FeedMetadata:   cfg.Settings.FeedMetadata,
		}

		if len(cfg.Fields) > 0 || len(cfg.Namespaces) > 0 {
			extractor, err := buildExtractor(cfg, textExtractor)
			if err != nil {
				return nil, fmt.Errorf("feed %s: %w", cfg.Name, err)
			}
			src.Extractor = extractor
		}

		sources = append(sources, src)
	}

	for _, url := range appConfig.Args.URLs {
		sources = append(sources, loader.Source{Name: url, URL: url})
	}

	return sources, nil
}

// buildExtractor creates a per-feed extractor carrying the feed's schema
// override and extra namespace prefixes.
func buildExtractor(cfg *config.FeedConfig, textExtractor feed.TextExtractor) (*feed.Extractor, error) {
	schema := feed.DefaultSchema()
	if len(cfg.Fields) > 0 {
		schema = make(feed.Schema, 0, len(cfg.Fields))
		for _, field := range cfg.Fields {
			schema = append(schema, feed.FieldSpec{
				Path:      field.Path,
				OutputKey: field.Key,
				Multi:     field.Multi,
				RichText:  field.RichText,
			})
		}
	}

	namespaces := feed.DefaultNamespaces()
	for prefix, uri := range cfg.Namespaces {
		namespaces[prefix] = uri
	}

	return feed.NewExtractor(schema, namespaces, textExtractor)
}

func storeRecords(dbPath string, results []loader.SourceResult) error {
	db, err := database.NewConnection(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Debug("Database migrations applied", "version", version, "dirty", dirty)

	repo := database.NewRecordRepository(db)
	stored := 0
	for _, result := range results {
		for _, record := range result.Records {
			if err := repo.StoreRecord(result.Source.Name, record); err != nil {
				return err
			}
			stored++
		}
	}

	slog.Info("Records stored", "db", dbPath, "count", stored)
	return nil
}

func writeRecords(output string, results []loader.SourceResult) error {
	var w io.Writer = os.Stdout
	if output != "-" && output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	encoder := json.NewEncoder(w)
	for _, result := range results {
		for _, record := range result.Records {
			line := map[string]any{
				"text":     record.Text,
				"metadata": record.Metadata,
			}
			if err := encoder.Encode(line); err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
		}
	}

	return nil
}

func setupLogger(level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
