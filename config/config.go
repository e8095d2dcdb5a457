package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pevans/announcements/scraper"
)

// Defaults for the university announcement listing
const (
	DefaultBaseURL     = "https://www.medipol.edu.tr/en/announcements"
	DefaultStartPage   = 0
	DefaultEndPage     = 5
	DefaultTimeout     = "10s"
	DefaultLogLevel    = "info"
	DefaultSnapshotDSN = "announcements.db"
	DefaultAPIAddr     = "localhost:8080"
)

// Config is the effective configuration of a command.
type Config struct {
	Site      SiteConfig     `json:"site" yaml:"site"`
	HTTP      HTTPConfig     `json:"http" yaml:"http"`
	Selectors scraper.Config `json:"selectors" yaml:"selectors"`
	Log       LogConfig      `json:"log" yaml:"log"`
	Snapshot  SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	API       APIConfig      `json:"api" yaml:"api"`
}

// SiteConfig describes the listing to crawl.
type SiteConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	StartPage *int   `json:"start_page,omitempty" yaml:"start_page"`
	EndPage   *int   `json:"end_page,omitempty" yaml:"end_page"`
	// ResolveLinks resolves relative announcement links against the listing
	// page. Off by default, links are kept as found.
	ResolveLinks bool `json:"resolve_links" yaml:"resolve_links"`
	// MaxPages caps the size of one crawl range. Zero uses the crawler
	// default.
	MaxPages int `json:"max_pages,omitempty" yaml:"max_pages"`
	// AllowedHosts lists hosts the API may crawl besides the base URL host.
	AllowedHosts []string `json:"allowed_hosts,omitempty" yaml:"allowed_hosts"`
}

// HTTPConfig configures the page fetcher.
type HTTPConfig struct {
	Timeout      string `json:"timeout" yaml:"timeout"` // Go duration string
	UserAgent    string `json:"user_agent,omitempty" yaml:"user_agent"`
	MaxBodyBytes int64  `json:"max_body_bytes,omitempty" yaml:"max_body_bytes"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// SnapshotConfig locates the SQLite export database.
type SnapshotConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	start, end := DefaultStartPage, DefaultEndPage
	return &Config{
		Site: SiteConfig{
			BaseURL:   DefaultBaseURL,
			StartPage: &start,
			EndPage:   &end,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultTimeout,
		},
		Selectors: scraper.DefaultConfig(),
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Snapshot: SnapshotConfig{
			DSN: DefaultSnapshotDSN,
		},
		API: APIConfig{
			Addr: DefaultAPIAddr,
		},
	}
}

// Pages returns the configured page range.
func (c *Config) Pages() (int, int) {
	start, end := DefaultStartPage, DefaultEndPage
	if c.Site.StartPage != nil {
		start = *c.Site.StartPage
	}
	if c.Site.EndPage != nil {
		end = *c.Site.EndPage
	}
	return start, end
}

// FetchTimeout returns the parsed HTTP timeout, falling back to the default
// when the value is empty.
func (c *Config) FetchTimeout() (time.Duration, error) {
	value := c.HTTP.Timeout
	if value == "" {
		value = DefaultTimeout
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid http timeout %q: %w", value, err)
	}
	return d, nil
}

// Merge overlays every non-zero value of file onto c. A nil file leaves c
// unchanged.
func (c *Config) Merge(file *FileConfig) {
	if file == nil {
		return
	}

	if file.Site.BaseURL != "" {
		c.Site.BaseURL = file.Site.BaseURL
	}
	if file.Site.StartPage != nil {
		start := *file.Site.StartPage
		c.Site.StartPage = &start
	}
	if file.Site.EndPage != nil {
		end := *file.Site.EndPage
		c.Site.EndPage = &end
	}
	if file.Site.ResolveLinks {
		c.Site.ResolveLinks = true
	}
	if file.Site.MaxPages > 0 {
		c.Site.MaxPages = file.Site.MaxPages
	}
	if len(file.Site.AllowedHosts) > 0 {
		c.Site.AllowedHosts = append([]string(nil), file.Site.AllowedHosts...)
	}

	if file.HTTP.Timeout != "" {
		c.HTTP.Timeout = file.HTTP.Timeout
	}
	if file.HTTP.UserAgent != "" {
		c.HTTP.UserAgent = file.HTTP.UserAgent
	}
	if file.HTTP.MaxBodyBytes > 0 {
		c.HTTP.MaxBodyBytes = file.HTTP.MaxBodyBytes
	}

	mergeListing(&c.Selectors.Listing, file.Selectors.Listing)
	mergeDetail(&c.Selectors.Detail, file.Selectors.Detail)

	if file.Log.Level != "" {
		c.Log.Level = file.Log.Level
	}
	if file.Log.Development {
		c.Log.Development = true
	}
	if file.Snapshot.DSN != "" {
		c.Snapshot.DSN = file.Snapshot.DSN
	}
	if file.API.Addr != "" {
		c.API.Addr = file.API.Addr
	}
}

func mergeListing(dst *scraper.ListingConfig, src scraper.ListingConfig) {
	if src.WrapperSelector != "" {
		dst.WrapperSelector = src.WrapperSelector
	}
	if src.CardSelector != "" {
		dst.CardSelector = src.CardSelector
	}
	if src.TitleSelector != "" {
		dst.TitleSelector = src.TitleSelector
	}
	if src.DateSelector != "" {
		dst.DateSelector = src.DateSelector
	}
	if src.LinkSelector != "" {
		dst.LinkSelector = src.LinkSelector
	}
}

func mergeDetail(dst *scraper.DetailConfig, src scraper.DetailConfig) {
	if src.ParagraphSelector != "" {
		dst.ParagraphSelector = src.ParagraphSelector
	}
	if src.LinkSelector != "" {
		dst.LinkSelector = src.LinkSelector
	}
	if src.LinkPrefix != "" {
		dst.LinkPrefix = src.LinkPrefix
	}
}

// Validate checks that the configuration can drive a crawl.
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return errors.New("site.base_url is required")
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL: %q", c.Site.BaseURL)
	}

	if c.Site.MaxPages < 0 {
		return fmt.Errorf("site.max_pages must not be negative: %d", c.Site.MaxPages)
	}

	timeout, err := c.FetchTimeout()
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("http timeout must be positive: %s", timeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}

	return nil
}
