// Package scraper fetches the pages a scan reads: the target page itself,
// robots.txt, sitemaps, and a shallow crawl of internal links.
package scraper

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/FranksOps/seoscope/internal/bypass"
	"github.com/FranksOps/seoscope/pkg/httpclient"
	"github.com/FranksOps/seoscope/pkg/ratelimit"
	"github.com/FranksOps/seoscope/pkg/useragent"
)

// Page is a fetched document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	FetchedAt  time.Time
	// Challenge is set when a bot-protection page was served instead of
	// the real content.
	Challenge bypass.Detection
}

// IsHTML reports whether the page declared an HTML content type.
func (p *Page) IsHTML() bool {
	mt, _, err := mime.ParseMediaType(p.Headers.Get("Content-Type"))
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}

// OK reports a 2xx status.
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// FetchConfig configures the fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	Fingerprint  httpclient.Profile
	// UserAgents, when set, replaces UserAgent with a rotating browser
	// User-Agent per request.
	UserAgents *useragent.Pool
	// Limiter spaces requests to the same site. Nil means no delay.
	Limiter *ratelimit.Limiter
	// Transport overrides the fingerprinted transport in tests.
	Transport http.RoundTripper
}

// Fetcher performs single URL fetches with a browser-like TLS fingerprint.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = httpclient.ProfileChrome
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
		Fingerprint:  cfg.Fingerprint,
		Transport:    cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// Fetch executes a GET request to the target URL. Any HTTP response,
// whatever its status, is returned as a Page; only transport failures are
// errors.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if ua := f.config.UserAgents.Next(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	start := time.Now()
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	page := &Page{
		URL:        targetURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
		FetchedAt:  start.UTC(),
	}
	page.Challenge = bypass.Analyze(bypass.Response{
		StatusCode: page.StatusCode,
		Headers:    page.Headers,
		Body:       page.Body,
	}, bypass.DefaultDetectors())

	return page, nil
}
