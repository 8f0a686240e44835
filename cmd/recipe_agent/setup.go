package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/config"
	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/fetch"
	"github.com/jonathan/recipe-scraper/internal/observability"
)

// Flags shared by every command
var (
	configPath  string
	databaseURL string
	baseURL     string
	rendererArg string
	verbose     bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&databaseURL, "db", "", "postgres:// URL or SQLite path (optional, defaults to DATABASE_URL env var or a local SQLite file)")
	flags.StringVar(&baseURL, "base-url", "", "Recipe site root URL")
	flags.StringVar(&rendererArg, "renderer", "", `Page renderer: "browser" (headless Chrome) or "http"`)
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print detailed progress information")
}

// loadConfig resolves the effective configuration: config file, then flags
// that were explicitly set, then the environment, then defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("renderer") {
		cfg.Renderer = rendererArg
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	cfg.ApplyEnv()
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return observability.NewLogger(os.Stderr, cfg.SlogLevel())
}

// newRenderer builds the configured renderer behind a request cache. The
// returned close function releases the browser, if any.
func newRenderer(ctx context.Context, cfg config.Config, logger *slog.Logger) (fetch.Renderer, func(), error) {
	var (
		next    fetch.Renderer
		closeFn = func() {}
	)

	switch cfg.Renderer {
	case config.RendererHTTP:
		opts := fetch.DefaultOptions()
		if d := cfg.RenderTimeoutDuration(); d > 0 {
			opts.Timeout = d
		}
		next = fetch.NewHTTPRenderer(cfg.BaseURL, opts)
	default:
		// the browser outlives a cancelled run so finished pages are kept
		browser, err := fetch.NewBrowser(context.WithoutCancel(ctx), fetch.BrowserOptions{
			BaseURL:         cfg.BaseURL,
			Headless:        cfg.IsHeadless(),
			Timeout:         cfg.RenderTimeoutDuration(),
			PopupDelay:      cfg.PopupDelayDuration(),
			LoadMoreTimeout: cfg.LoadMoreTimeoutDuration(),
			Logger:          logger,
		})
		if err != nil {
			return nil, nil, err
		}
		next = browser
		closeFn = browser.Close
	}

	cached, err := fetch.NewCachedRenderer(next, &fetch.CachedRendererConfig{Size: cfg.CacheSize})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return cached, closeFn, nil
}

func openStore(ctx context.Context, cfg config.Config) (*db.DB, error) {
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store db.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}
