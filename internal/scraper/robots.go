package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/FranksOps/seoscope/internal/cache"
	"github.com/temoto/robotstxt"
)

// AICrawlers are the user agents of AI answer engines and model trainers
// whose access a site grants or refuses in robots.txt.
var AICrawlers = []string{"GPTBot", "ChatGPT-User", "ClaudeBot", "PerplexityBot", "Google-Extended", "CCBot"}

// RobotsTxtAuditor manages robots.txt fetching and enforcement.
type RobotsTxtAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger
	mu      sync.Mutex
	cache   *cache.Cache[*robotstxt.RobotsData]
}

// NewRobotsTxtAuditor creates a new instance.
func NewRobotsTxtAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   cache.New[*robotstxt.RobotsData](0),
	}
}

// WithCache replaces the per-origin robots.txt cache and returns r.
func (r *RobotsTxtAuditor) WithCache(c *cache.Cache[*robotstxt.RobotsData]) *RobotsTxtAuditor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = c
	return r
}

// IsAllowed determines if the given URL is allowed by the host's robots.txt
// for the provided User-Agent. A missing or unreadable robots.txt allows.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL string, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	data := r.get(ctx, origin(u))
	if data == nil {
		return true, nil
	}
	return data.TestAgent(pathOf(u), userAgent), nil
}

// AIAccess reports, per AI crawler, whether it may fetch targetURL.
func (r *RobotsTxtAuditor) AIAccess(ctx context.Context, targetURL string) (map[string]bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	data := r.get(ctx, origin(u))
	out := make(map[string]bool, len(AICrawlers))
	for _, agent := range AICrawlers {
		out[agent] = data == nil || data.TestAgent(pathOf(u), agent)
	}
	return out, nil
}

// Sitemaps returns the sitemap URLs declared in robots.txt for host.
func (r *RobotsTxtAuditor) Sitemaps(ctx context.Context, host string) []string {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil
	}
	data := r.get(ctx, origin(u))
	if data == nil {
		return nil
	}
	return data.Sitemaps
}

// get returns the parsed robots.txt for an origin, fetching it at most once
// per cache TTL. Failed fetches are cached as nil.
func (r *RobotsTxtAuditor) get(ctx context.Context, host string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache.Get(host); ok {
		return data
	}

	data, err := r.fetch(ctx, host)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, defaulting to allow", "host", host, "err", err)
	}
	r.cache.Put(host, data)
	return data
}

func (r *RobotsTxtAuditor) fetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	page, err := r.fetcher.Fetch(ctx, host+"/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	if page.StatusCode >= 400 {
		return nil, nil
	}
	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return data, nil
}

func origin(u *url.URL) string {
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

func pathOf(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
