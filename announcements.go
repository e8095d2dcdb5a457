// Package announcements exposes the crawl and detail operations consumed by
// the presentation layer (CLI and HTTP API).
package announcements

import (
	"errors"
	"fmt"

	"github.com/pevans/announcements/config"
	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/detail"
	"github.com/pevans/announcements/fetcher"
	"go.uber.org/zap"
)

// ErrNoContent signals that a detail page could not be retrieved. It wraps
// the underlying *fetcher.FetchError.
var ErrNoContent = errors.New("there is no content")

// Fetcher is a page fetcher owning a session that must be released.
type Fetcher interface {
	crawl.PageFetcher
	Close()
}

// Service wires fetchers, the crawler and the detail parser together. It
// keeps no state between calls; every call opens and releases its own
// fetcher session.
type Service struct {
	cfg        *config.Config
	logger     *zap.Logger
	newFetcher func() Fetcher
}

// NewService creates a service from cfg. A nil logger discards logs.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}

	opts := fetcher.Options{
		Timeout:      timeout,
		UserAgent:    cfg.HTTP.UserAgent,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Logger:       logger.Named("fetcher"),
	}

	return &Service{
		cfg:    cfg,
		logger: logger,
		newFetcher: func() Fetcher {
			return fetcher.New(opts)
		},
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// CollectAnnouncements crawls pages startPage through endPage of baseURL.
// Page failures are reported in the result, not returned.
func (s *Service) CollectAnnouncements(baseURL string, startPage, endPage int) (*crawl.Result, error) {
	f := s.newFetcher()
	defer f.Close()

	c := crawl.New(f, crawl.Options{
		Listing:      s.cfg.Selectors.Listing,
		ResolveLinks: s.cfg.Site.ResolveLinks,
		MaxPages:     s.cfg.Site.MaxPages,
		Logger:       s.logger.Named("crawl"),
	})

	result, err := c.Crawl(baseURL, startPage, endPage)
	if err != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", baseURL, err)
	}
	return result, nil
}

// RetrieveAndParseDetail fetches link and parses it as a detail page. A
// transport failure is returned as ErrNoContent.
func (s *Service) RetrieveAndParseDetail(link string) (*detail.Content, error) {
	f := s.newFetcher()
	defer f.Close()

	markup, err := f.Fetch(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
	}

	content, err := detail.Parse(markup, s.cfg.Selectors.Detail)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
	}

	s.logger.Debug("detail parsed",
		zap.String("url", link),
		zap.Int("body_bytes", len(content.Body)),
		zap.Int("links", len(content.Links)),
	)

	return content, nil
}
