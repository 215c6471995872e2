package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/FranksOps/seoscope/pkg/ratelimit"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// CrawlConfig provides parameters for the BFS crawler.
type CrawlConfig struct {
	MaxDepth    int
	Concurrency int
	// MaxPages caps how many URLs are fetched (0 = default 200).
	MaxPages int
	// In-scope domains, ensures we don't crawl the whole internet
	Domains []string
	// RespectRobots specifies whether to check robots.txt before fetching
	RespectRobots bool
	// UserAgent is the User-Agent string to use when checking robots.txt
	UserAgent string
	// RequestsPerSecond limits the fetch rate (0 = unlimited)
	RequestsPerSecond float64
	// Jitter applies randomness to the rate limiter (0.0 to 1.0)
	Jitter float64
	// QueueSize limits the depth of the internal BFS queue (0 = default 10000)
	QueueSize int
}

// Crawler walks internal links breadth-first from seed URLs and reports the
// HTML pages it reached. It is the fallback source of known URLs for sites
// without a sitemap.
type Crawler struct {
	cfg     CrawlConfig
	fetcher *Fetcher
	logger  *slog.Logger
	auditor *RobotsTxtAuditor
	limiter *ratelimit.Limiter

	// Track visited URLs to prevent loops
	visitedMu sync.Mutex
	visited   map[string]struct{}

	foundMu sync.Mutex
	found   []string
}

type job struct {
	URL   string
	Depth int
}

// NewCrawler creates a new BFS crawler. A Crawler runs once.
func NewCrawler(cfg CrawlConfig, fetcher *Fetcher, auditor *RobotsTxtAuditor, logger *slog.Logger) *Crawler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "*" // default generic user-agent for robots.txt
	}
	if cfg.RespectRobots && auditor == nil {
		auditor = NewRobotsTxtAuditor(fetcher, logger)
	}

	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		auditor: auditor,
		limiter: ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Jitter),
		visited: make(map[string]struct{}),
	}
}

// Run crawls from the seed URLs and returns the sorted URLs of the HTML
// pages fetched successfully.
func (c *Crawler) Run(ctx context.Context, seeds []string) ([]string, error) {
	queueSize := c.cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 10000
	}
	queue := make(chan job, queueSize)

	for _, seed := range seeds {
		if c.claim(seed) {
			queue <- job{URL: seed, Depth: 0}
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	// jobsWg counts queued and in-flight jobs. Discovered links are added
	// before they are sent so the count never drops to zero early.
	var jobsWg sync.WaitGroup
	jobsWg.Add(len(queue))

	// Workers exit when stop closes.
	stop := make(chan struct{})
	for i := 0; i < c.cfg.Concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-stop:
					return nil
				case <-gCtx.Done():
					return gCtx.Err()
				case j := <-queue:
					c.processJob(gCtx, j, queue, &jobsWg)
					jobsWg.Done()
				}
			}
		})
	}

	done := make(chan struct{})
	go func() {
		jobsWg.Wait()
		close(done)
	}()

	var runErr error
	select {
	case <-gCtx.Done():
		runErr = gCtx.Err()
	case <-done:
	}
	close(stop)
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}

	c.foundMu.Lock()
	defer c.foundMu.Unlock()
	out := append([]string(nil), c.found...)
	sort.Strings(out)
	return out, runErr
}

func (c *Crawler) processJob(ctx context.Context, j job, queue chan<- job, wg *sync.WaitGroup) {
	if c.auditor != nil {
		allowed, err := c.auditor.IsAllowed(ctx, j.URL, c.cfg.UserAgent)
		if err != nil {
			c.logger.Warn("error checking robots.txt", "url", j.URL, "err", err)
		} else if !allowed {
			c.logger.Debug("url blocked by robots.txt", "url", j.URL)
			return
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}

	c.logger.Debug("fetching", "url", j.URL, "depth", j.Depth)
	page, err := c.fetcher.Fetch(ctx, j.URL)
	if err != nil {
		c.logger.Warn("fetch error", "url", j.URL, "err", err)
		return
	}
	if !page.OK() || !page.IsHTML() || page.Challenge.Detected() {
		return
	}

	c.foundMu.Lock()
	c.found = append(c.found, j.URL)
	c.foundMu.Unlock()

	if j.Depth >= c.cfg.MaxDepth {
		return
	}

	for _, link := range extractLinks(j.URL, page.Body) {
		if !c.claim(link) {
			continue
		}
		wg.Add(1)
		select {
		case queue <- job{URL: link, Depth: j.Depth + 1}:
		case <-ctx.Done():
			wg.Done()
			return
		default:
			// Queue full; drop the link rather than block a worker.
			wg.Done()
		}
	}
}

// claim marks rawURL visited if it is in scope, unseen, and within the page
// budget.
func (c *Crawler) claim(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !c.inScope(u.Hostname()) {
		return false
	}

	u.Fragment = ""
	normalized := u.String()

	c.visitedMu.Lock()
	defer c.visitedMu.Unlock()
	if _, seen := c.visited[normalized]; seen {
		return false
	}
	if len(c.visited) >= c.cfg.MaxPages {
		return false
	}
	c.visited[normalized] = struct{}{}
	return true
}

func (c *Crawler) inScope(host string) bool {
	if len(c.cfg.Domains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, domain := range c.cfg.Domains {
		d := strings.ToLower(domain)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func extractLinks(baseURL string, body []byte) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(u).String())
	})
	return links
}
