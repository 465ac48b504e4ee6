package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pfrederiksen/sports-calendar/internal/logger"
)

const (
	ScheduleURL = "https://www.espn.com/mma/schedule/_/league/ufc"
	UserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36 sports-calendar/1.0"
	Timeout     = 30 * time.Second

	// maxBodyBytes bounds how much of a schedule page is read.
	maxBodyBytes = 8 << 20
)

// TransportError reports a failed fetch: the request could not be made, the
// connection failed or timed out, or the server answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) {
		return ne.Timeout()
	}
	return false
}

// Scraper fetches a schedule page
type Scraper struct {
	client    *http.Client
	url       string
	userAgent string
}

// Option customises a Scraper
type Option func(*Scraper)

// WithURL points the scraper at a different page.
func WithURL(url string) Option {
	return func(s *Scraper) { s.url = url }
}

// WithTimeout bounds the whole request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client = newHTTPClient(d)
		}
	}
}

// WithUserAgent overrides the client identity header.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:    newHTTPClient(Timeout),
		url:       ScheduleURL,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper fetches.
func (s *Scraper) URL() string {
	return s.url
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     30 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Fetch performs a single GET of the schedule page and returns its body.
// There are no retries; every failure is a *TransportError.
func (s *Scraper) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", &TransportError{URL: s.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	started := time.Now()
	logger.Debug("Fetching schedule page", logger.Fields{"url": s.url})

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{URL: s.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &TransportError{URL: s.url, Err: fmt.Errorf("reading body: %w", err)}
	}

	logger.Info("Fetched schedule page", logger.Fields{
		"url":         s.url,
		"status":      resp.StatusCode,
		"bytes":       len(body),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	return string(body), nil
}
