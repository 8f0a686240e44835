// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// DatabaseURLEnv is consulted when no database URL is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Renderer kinds
const (
	RendererBrowser = "browser"
	RendererHTTP    = "http"
)

// Config represents the CLI configuration that can be loaded from a JSON or
// JSON5 file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	BaseURL     string `json:"base_url,omitempty"`     // Recipe site root
	DatabaseURL string `json:"database_url,omitempty"` // postgres:// URL or SQLite path; empty uses the local SQLite file

	Renderer  string `json:"renderer,omitempty"`   // "browser" or "http"
	Workers   int    `json:"workers,omitempty"`    // Pages rendered concurrently
	Headless  *bool  `json:"headless,omitempty"`   // Run the browser without a window
	CacheSize int    `json:"cache_size,omitempty"` // Rendered pages kept in memory

	// Durations use time.ParseDuration syntax, e.g. "45s".
	RenderTimeout   string `json:"render_timeout,omitempty"`
	PopupDelay      string `json:"popup_delay,omitempty"`
	LoadMoreTimeout string `json:"load_more_timeout,omitempty"` // Pagination budget per cuisine listing

	LogLevel string `json:"log_level,omitempty"` // debug, info, warn or error
	Verbose  bool   `json:"verbose,omitempty"`   // Print per-page progress
	Source   string `json:"source,omitempty"`    // Source recorded on scraped recipes
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	headless := true
	return Config{
		BaseURL:       "https://www.hellofresh.com",
		Renderer:      RendererBrowser,
		Workers:       10,
		Headless:      &headless,
		CacheSize:     256,
		RenderTimeout:   "60s",
		PopupDelay:      "2s",
		LoadMoreTimeout: "10m",
		LogLevel:        "info",
		Source:          "Hello Fresh",
	}
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// LoadConfig loads configuration from a JSON5 file. A sibling
// <name>.local.<ext> file, when present, overrides the values it sets.
// Returns an error if neither file exists or either cannot be parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	var cfg Config
	found := false

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err == nil {
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		found = true
	}

	prefix, ext := splitExt(filepath.Base(path))
	localPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.local.%s", prefix, ext))
	local, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", localPath, err)
	}
	if err == nil {
		var override Config
		if err := json5.Unmarshal(local, &override); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge local config: %w", err)
		}
		slog.Debug("merging config with local overrides", "local", localPath)
		found = true
	}

	if !found {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, os.ErrNotExist)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config error: 'cache_size' must be non-negative")
	}

	switch c.Renderer {
	case "", RendererBrowser, RendererHTTP:
	default:
		return fmt.Errorf("config error: 'renderer' must be %q or %q", RendererBrowser, RendererHTTP)
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'base_url' must be an absolute URL: %q", c.BaseURL)
		}
	}

	for name, value := range map[string]string{
		"render_timeout":    c.RenderTimeout,
		"popup_delay":       c.PopupDelay,
		"load_more_timeout": c.LoadMoreTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	if c.LogLevel != "" {
		if _, err := parseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c
	// Verbose cannot distinguish unset from false, so CLI flags always win.
	verbose := result.Verbose
	// mergo descends into non-nil pointers and would overwrite an explicit
	// false through the shared *bool.
	headless := result.Headless
	result.Headless = nil
	if err := mergo.Merge(&result, defaults); err != nil {
		return *c
	}
	result.Verbose = verbose
	if headless != nil {
		v := *headless
		result.Headless = &v
	}
	return result
}

// ApplyEnv fills DatabaseURL from the DATABASE_URL environment variable when
// it is not already set.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(DatabaseURLEnv)
	}
}

// IsHeadless reports whether the browser runs headless. Unset means true.
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// RenderTimeoutDuration returns the per-page render timeout, or zero when
// unset or invalid.
func (c *Config) RenderTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RenderTimeout)
	return d
}

// PopupDelayDuration returns the wait before dismissing the promo popup, or
// zero when unset or invalid.
func (c *Config) PopupDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.PopupDelay)
	return d
}

// LoadMoreTimeoutDuration returns the pagination budget for one listing, or
// zero when unset or invalid.
func (c *Config) LoadMoreTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.LoadMoreTimeout)
	return d
}

// SlogLevel returns the configured log level, or info when unset or invalid.
// Verbose forces debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
