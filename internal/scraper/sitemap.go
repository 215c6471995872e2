package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"
)

const (
	defaultMaxSitemapURLs = 5000
	maxSitemapDepth       = 3
)

var errEnoughURLs = errors.New("sitemap url limit reached")

// SitemapFetcher fetches and parses sitemaps and sitemap indexes.
type SitemapFetcher struct {
	fetcher *Fetcher
	logger  *slog.Logger
	maxURLs int
}

// NewSitemapFetcher initializes a new SitemapFetcher. maxURLs <= 0 uses a
// default cap.
func NewSitemapFetcher(fetcher *Fetcher, logger *slog.Logger, maxURLs int) *SitemapFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if maxURLs <= 0 {
		maxURLs = defaultMaxSitemapURLs
	}
	return &SitemapFetcher{
		fetcher: fetcher,
		logger:  logger,
		maxURLs: maxURLs,
	}
}

// FetchSitemap fetches a sitemap XML or sitemap index and recursively extracts
// page URLs, up to the configured cap.
func (s *SitemapFetcher) FetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	var urls []string
	err := s.fetch(ctx, sitemapURL, 0, &urls)
	return urls, err
}

func (s *SitemapFetcher) fetch(ctx context.Context, sitemapURL string, depth int, urls *[]string) error {
	s.logger.Debug("fetching sitemap", "url", sitemapURL, "depth", depth)

	page, err := s.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	if page.StatusCode >= 400 {
		return fmt.Errorf("bad status code: %d", page.StatusCode)
	}

	before := len(*urls)
	err = sitemap.Parse(bytes.NewReader(page.Body), func(e sitemap.Entry) error {
		if len(*urls) >= s.maxURLs {
			return errEnoughURLs
		}
		*urls = append(*urls, e.GetLocation())
		return nil
	})
	if errors.Is(err, errEnoughURLs) {
		return nil
	}
	if err == nil && len(*urls) > before {
		return nil
	}

	var nested []string
	indexErr := sitemap.ParseIndex(bytes.NewReader(page.Body), func(e sitemap.IndexEntry) error {
		nested = append(nested, e.GetLocation())
		return nil
	})
	if indexErr != nil || len(nested) == 0 {
		cause := errors.Join(err, indexErr)
		if cause == nil {
			cause = errors.New("no entries")
		}
		return fmt.Errorf("failed to parse as sitemap or index: %w", cause)
	}

	if depth >= maxSitemapDepth {
		s.logger.Warn("sitemap index nesting too deep", "url", sitemapURL)
		return nil
	}
	for _, nestedURL := range nested {
		if len(*urls) >= s.maxURLs {
			break
		}
		if err := s.fetch(ctx, nestedURL, depth+1, urls); err != nil {
			s.logger.Warn("failed to fetch nested sitemap", "url", nestedURL, "err", err)
		}
	}
	return nil
}
