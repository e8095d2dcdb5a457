// Package crawl drives a page range through fetching and listing
// extraction.
package crawl

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/announcements/listing"
	"github.com/pevans/announcements/scraper"
	"go.uber.org/zap"
)

// PageQueryParam is the query parameter carrying the page number.
const PageQueryParam = "page"

// DefaultMaxPages bounds the number of pages one crawl may request.
const DefaultMaxPages = 1000

// Errors returned by Crawl before any page is fetched
var (
	ErrInvalidPageRange = errors.New("invalid page range")
	ErrInvalidBaseURL   = errors.New("invalid base URL")
)

// PageFetcher retrieves the markup of one URL.
type PageFetcher interface {
	Fetch(url string) (string, error)
}

// State is the position of one page in the crawl loop.
type State int

const (
	StatePending State = iota
	StateFetched
	StateFailedFetch
	StateExtracted
	StateFailedExtract
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetched:
		return "fetched"
	case StateFailedFetch:
		return "failed_fetch"
	case StateExtracted:
		return "extracted"
	case StateFailedExtract:
		return "failed_extract"
	default:
		return "unknown"
	}
}

// Failed reports whether the page ended without records because of an error.
func (s State) Failed() bool {
	return s == StateFailedFetch || s == StateFailedExtract
}

// PageReport records the outcome of one page.
type PageReport struct {
	Page    int
	URL     string
	State   State
	Count   int
	Skipped int
	Err     error
}

// Result holds the announcements of a crawl in page-then-card order, along
// with one report per page.
type Result struct {
	RunID         uuid.UUID
	BaseURL       string
	StartPage     int
	EndPage       int
	StartedAt     time.Time
	FinishedAt    time.Time
	Announcements []listing.Announcement
	Pages         []PageReport
}

// Failed returns the reports of pages that ended in a failure state.
func (r *Result) Failed() []PageReport {
	var failed []PageReport
	for _, p := range r.Pages {
		if p.State.Failed() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Empty reports whether the crawl produced no announcements. An empty result
// with no failed pages means the site simply had nothing to list.
func (r *Result) Empty() bool {
	return len(r.Announcements) == 0
}

// Options configures a Crawler.
type Options struct {
	Listing scraper.ListingConfig
	// ResolveLinks resolves relative announcement links against the listing
	// page URL. Links are kept as found when false.
	ResolveLinks bool
	// MaxPages is the largest range Crawl accepts. Zero selects
	// DefaultMaxPages.
	MaxPages int
	Logger   *zap.Logger
}

// Crawler runs crawls with one fetcher. It holds no per-crawl state, so a
// Crawler may be reused for several ranges.
type Crawler struct {
	fetcher PageFetcher
	opts    Options
	logger  *zap.Logger
}

// New creates a crawler around the given fetcher.
func New(fetcher PageFetcher, opts Options) *Crawler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Listing = opts.Listing.WithDefaults()
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}

	return &Crawler{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
	}
}

// PageURL returns baseURL with the page query parameter set to page. Other
// query parameters are kept verbatim and in order.
func PageURL(baseURL string, page int) (string, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return "", err
	}

	params := []string{}
	if u.RawQuery != "" {
		for _, param := range strings.Split(u.RawQuery, "&") {
			key, _, _ := strings.Cut(param, "=")
			if key != PageQueryParam {
				params = append(params, param)
			}
		}
	}
	params = append(params, PageQueryParam+"="+strconv.Itoa(page))
	u.RawQuery = strings.Join(params, "&")

	return u.String(), nil
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be absolute", ErrInvalidBaseURL, baseURL)
	}
	return u, nil
}

// pageCount returns the number of pages in [startPage, endPage]. A reversed
// range has no pages. The difference is taken in uint64 so that ranges near
// the int limits neither overflow nor wrap.
func (c *Crawler) pageCount(startPage, endPage int) (int, error) {
	if startPage > endPage {
		return 0, nil
	}
	span := uint64(endPage) - uint64(startPage)
	if span >= uint64(c.opts.MaxPages) {
		return 0, fmt.Errorf("%w: %d..%d exceeds %d pages", ErrInvalidPageRange, startPage, endPage, c.opts.MaxPages)
	}
	return int(span) + 1, nil
}

// Crawl fetches every page in [startPage, endPage] in ascending order and
// accumulates the extracted announcements. A reversed range yields an empty
// result. A page that fails is logged and reported but never stops the
// crawl; the only errors returned are argument errors detected before the
// first fetch.
func (c *Crawler) Crawl(baseURL string, startPage, endPage int) (*Result, error) {
	if _, err := parseBaseURL(baseURL); err != nil {
		return nil, err
	}
	count, err := c.pageCount(startPage, endPage)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, count)
	for i := 0; i < count; i++ {
		pageURL, err := PageURL(baseURL, startPage+i)
		if err != nil {
			return nil, err
		}
		urls = append(urls, pageURL)
	}

	result := &Result{
		RunID:         uuid.New(),
		BaseURL:       baseURL,
		StartPage:     startPage,
		EndPage:       endPage,
		StartedAt:     time.Now(),
		Announcements: []listing.Announcement{},
		Pages:         make([]PageReport, 0, len(urls)),
	}
	logger := c.logger.With(zap.String("run_id", result.RunID.String()))

	for i, pageURL := range urls {
		report := c.crawlPage(logger, startPage+i, pageURL, result)
		result.Pages = append(result.Pages, report)
	}

	result.FinishedAt = time.Now()
	logger.Info("crawl finished",
		zap.String("base_url", baseURL),
		zap.Int("pages", len(result.Pages)),
		zap.Int("pages_failed", len(result.Failed())),
		zap.Int("announcements", len(result.Announcements)),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)

	return result, nil
}

// crawlPage moves one page from pending to a terminal state, appending its
// announcements to result.
func (c *Crawler) crawlPage(logger *zap.Logger, page int, pageURL string, result *Result) PageReport {
	report := PageReport{Page: page, URL: pageURL, State: StatePending}
	logger = logger.With(zap.Int("page", page), zap.String("url", pageURL))

	markup, err := c.fetcher.Fetch(pageURL)
	if err != nil {
		report.State = StateFailedFetch
		report.Err = err
		logger.Warn("page fetch failed", zap.Error(err))
		return report
	}
	report.State = StateFetched

	extraction, err := listing.Extract(markup, c.opts.Listing)
	if err != nil {
		report.State = StateFailedExtract
		report.Err = err
		logger.Warn("page extraction failed", zap.Error(err))
		return report
	}

	announcements := extraction.Announcements
	if c.opts.ResolveLinks {
		announcements = resolveLinks(pageURL, announcements)
	}

	result.Announcements = append(result.Announcements, announcements...)
	report.State = StateExtracted
	report.Count = len(announcements)
	report.Skipped = extraction.Skipped

	if extraction.Skipped > 0 {
		logger.Debug("card skipped", zap.Int("skipped", extraction.Skipped))
	}
	logger.Info("page fetched",
		zap.Int("count", report.Count),
		zap.Int("skipped", report.Skipped),
	)

	return report
}

// resolveLinks returns a copy of announcements whose links are resolved
// against pageURL. Links that cannot be parsed are kept as found.
func resolveLinks(pageURL string, announcements []listing.Announcement) []listing.Announcement {
	base, err := url.Parse(pageURL)
	if err != nil {
		return announcements
	}

	resolved := make([]listing.Announcement, len(announcements))
	for i, a := range announcements {
		resolved[i] = a
		ref, err := url.Parse(a.Link)
		if err != nil {
			continue
		}
		resolved[i].Link = base.ResolveReference(ref).String()
	}
	return resolved
}
