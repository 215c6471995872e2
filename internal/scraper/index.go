package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/FranksOps/seoscope/internal/cache"
)

// IndexConfig configures a site Index.
type IndexConfig struct {
	// MaxURLs caps the URLs kept per site.
	MaxURLs int
	// Crawl, when non-nil, is used for sites whose sitemaps yield nothing.
	// Domains is filled in per site.
	Crawl *CrawlConfig
	// Cache holds collected URLs per origin. Nil uses a cache with
	// cache.DefaultTTL.
	Cache *cache.Cache[[]string]
}

// Index lists the known URLs of a site: its sitemap entries, or the pages
// reached by a shallow crawl when there is no sitemap. Results are cached per
// origin until the cache TTL expires.
type Index struct {
	cfg      IndexConfig
	fetcher  *Fetcher
	robots   *RobotsTxtAuditor
	sitemaps *SitemapFetcher
	logger   *slog.Logger
	cache    *cache.Cache[[]string]
}

// NewIndex creates an Index.
func NewIndex(cfg IndexConfig, fetcher *Fetcher, robots *RobotsTxtAuditor, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	if robots == nil {
		robots = NewRobotsTxtAuditor(fetcher, logger)
	}
	c := cfg.Cache
	if c == nil {
		c = cache.New[[]string](0)
	}
	return &Index{
		cfg:      cfg,
		fetcher:  fetcher,
		robots:   robots,
		sitemaps: NewSitemapFetcher(fetcher, logger, cfg.MaxURLs),
		logger:   logger,
		cache:    c,
	}
}

// Paths returns the known URLs of site, an origin such as
// https://example.com.
func (i *Index) Paths(ctx context.Context, site string) ([]string, error) {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid site %q", site)
	}
	origin := origin(u)

	if cached, ok := i.cache.Get(origin); ok {
		return cached, nil
	}

	urls, err := i.collect(ctx, origin, u.Hostname())
	if err != nil {
		return nil, err
	}

	i.cache.Purge()
	i.cache.Put(origin, urls)
	return urls, nil
}

func (i *Index) collect(ctx context.Context, origin, host string) ([]string, error) {
	sitemaps := i.robots.Sitemaps(ctx, origin)
	if len(sitemaps) == 0 {
		sitemaps = []string{origin + "/sitemap.xml"}
	}

	var (
		urls []string
		errs []error
	)
	for _, sm := range sitemaps {
		found, err := i.sitemaps.FetchSitemap(ctx, sm)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		urls = append(urls, found...)
	}
	if len(urls) > 0 {
		return dedupe(urls), nil
	}

	if i.cfg.Crawl == nil {
		return nil, fmt.Errorf("no sitemap entries: %w", errors.Join(errs...))
	}

	i.logger.Debug("no sitemap, crawling", "site", origin)
	crawlCfg := *i.cfg.Crawl
	crawlCfg.Domains = []string{strings.TrimPrefix(host, "www.")}
	if i.cfg.MaxURLs > 0 && (crawlCfg.MaxPages == 0 || crawlCfg.MaxPages > i.cfg.MaxURLs) {
		crawlCfg.MaxPages = i.cfg.MaxURLs
	}
	found, err := NewCrawler(crawlCfg, i.fetcher, i.robots, i.logger).Run(ctx, []string{origin + "/"})
	if err != nil && len(found) == 0 {
		return nil, fmt.Errorf("crawl %s: %w", origin, err)
	}
	return found, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
