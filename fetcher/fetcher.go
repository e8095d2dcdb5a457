// Package fetcher retrieves raw page markup over HTTP.
package fetcher

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds every request, including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler to the site.
	DefaultUserAgent = "announcements/1.0 (university announcement crawler)"

	// DefaultMaxBodyBytes is the largest response body accepted.
	DefaultMaxBodyBytes int64 = 10 * 1024 * 1024
)

// Errors wrapped by FetchError
var (
	// ErrUnexpectedStatus indicates a response outside the 2xx range.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrBodyTooLarge indicates a body longer than the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// FetchError is the single transport failure kind. It carries the requested
// URL and a human-readable cause.
type FetchError struct {
	URL   string
	Cause string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// Fetcher owns one connection-reusing HTTP session. Close releases it.
type Fetcher struct {
	client       *http.Client
	transport    *http.Transport
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// New creates a fetcher with its own transport so that closing it never
// affects other sessions.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		transport:    transport,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
}

// Fetch issues one GET request and returns the response body decoded to
// UTF-8. Every failure is returned as a *FetchError.
func (f *Fetcher) Fetch(url string) (string, error) {
	body, err := f.fetch(url)
	if err != nil {
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return "", err
	}
	return body, nil
}

func (f *Fetcher) fetch(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", &FetchError{URL: url, Cause: "failed to create request: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Cause: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return "", &FetchError{
			URL:   url,
			Cause: fmt.Sprintf("HTTP error: %s", resp.Status),
			Err:   fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: url, Cause: "failed to decode body: " + err.Error(), Err: err}
	}

	// One byte past the limit tells an oversized body from one at the limit
	limit := f.maxBodyBytes
	if limit < math.MaxInt64 {
		limit++
	}
	data, err := io.ReadAll(io.LimitReader(reader, limit))
	if err != nil {
		return "", &FetchError{URL: url, Cause: "failed to read body: " + err.Error(), Err: err}
	}
	if int64(len(data)) > f.maxBodyBytes {
		return "", &FetchError{
			URL:   url,
			Cause: fmt.Sprintf("response body exceeds %d bytes", f.maxBodyBytes),
			Err:   ErrBodyTooLarge,
		}
	}

	return string(data), nil
}

// Close releases the session's idle connections. It is safe to call more
// than once.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}
