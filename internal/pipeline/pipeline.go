// Package pipeline runs a complete scan: fetch the page, gather provider,
// keyword, performance and sentiment signals concurrently, score, compare
// against competitors and persist the record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/seoscope/internal/aggregator"
	"github.com/FranksOps/seoscope/internal/analyzer"
	"github.com/FranksOps/seoscope/internal/compare"
	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/llm"
	"github.com/FranksOps/seoscope/internal/metrics"
	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/internal/pagespeed"
	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/internal/scoring"
	"github.com/FranksOps/seoscope/internal/scraper"
	"github.com/FranksOps/seoscope/internal/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config.
const (
	DefaultCallTimeout           = 30 * time.Second
	DefaultSoftDeadline          = 60 * time.Second
	DefaultCompetitorConcurrency = 3
	MaxCompetitors               = 10
)

// ErrInvalidURL is returned for targets that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid url")

// PageFetcher downloads the target page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Aggregator resolves provider metrics for a domain. It never fails.
type Aggregator interface {
	Aggregate(ctx context.Context, target string) provider.UnifiedMetrics
	ProviderNames() []string
}

// Discoverer finds and ranks keywords. It never fails.
type Discoverer interface {
	Discover(ctx context.Context, target, domain string, facts page.Facts) discovery.Result
}

// PerformanceSource measures Core Web Vitals.
type PerformanceSource interface {
	IsConfigured() bool
	Measure(ctx context.Context, url string) (*pagespeed.Facts, error)
}

// SentimentSource rates how the brand is perceived.
type SentimentSource interface {
	IsConfigured() bool
	BrandSentiment(ctx context.Context, brand, domain string) (*llm.Sentiment, error)
}

// RobotsAuditor reports which AI crawlers robots.txt admits.
type RobotsAuditor interface {
	AIAccess(ctx context.Context, url string) (map[string]bool, error)
}

// Config wires the pipeline. Only Fetcher is required; a nil collaborator
// leaves its signal unmeasured.
type Config struct {
	Fetcher     PageFetcher
	Aggregator  Aggregator
	Discovery   Discoverer
	Performance PerformanceSource
	Sentiment   SentimentSource
	Robots      RobotsAuditor
	Store       storage.Backend

	// CallTimeout bounds each collaborator call.
	CallTimeout time.Duration
	// SoftDeadline bounds the concurrent signal-gathering stage. Signals
	// still outstanding at the deadline are dropped with a warning.
	SoftDeadline          time.Duration
	CompetitorConcurrency int

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Pipeline runs scans.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.SoftDeadline <= 0 {
		cfg.SoftDeadline = DefaultSoftDeadline
	}
	if cfg.CompetitorConcurrency <= 0 {
		cfg.CompetitorConcurrency = DefaultCompetitorConcurrency
	}
	if cfg.Store == nil {
		cfg.Store = storage.Nop{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Request asks for a scan of URL, optionally compared against competitors.
type Request struct {
	URL         string   `json:"url"`
	Competitors []string `json:"competitors,omitempty"`
}

// Analysis is everything measured and scored for one URL.
type Analysis struct {
	URL         string
	Domain      string
	Page        page.Facts
	Metrics     provider.UnifiedMetrics
	Keywords    discovery.Result
	Mentions    []analyzer.Mention
	Performance *pagespeed.Facts
	Sentiment   *llm.Sentiment
	AIAccess    map[string]bool
	Scores      scoring.DetailedScores
	Warnings    []string
}

// Scan analyzes req.URL and its competitors, compares them and persists the
// record. The only error is failure to read the target page; competitor
// failures become warnings. A failure to persist is returned together with
// the record.
func (p *Pipeline) Scan(ctx context.Context, req Request) (*storage.ScanRecord, error) {
	start := p.cfg.Clock.Now()

	target, err := p.Analyze(ctx, req.URL)
	if err != nil {
		metrics.RecordScan("failed", p.cfg.Clock.Since(start), nil)
		return nil, err
	}

	record := &storage.ScanRecord{
		ID:              uuid.NewString(),
		URL:             target.URL,
		Domain:          target.Domain,
		Scores:          target.Scores,
		Recommendations: scoring.Recommendations(target.Scores),
		Keywords:        target.Keywords.Keywords,
		KeywordSummary:  target.Keywords.Summary,
		KeywordMentions: target.Mentions,
		AIAccess:        target.AIAccess,
		Warnings:        target.Warnings,
	}

	if len(req.Competitors) > 0 {
		competitors, scores, warnings := p.competitors(ctx, req.Competitors)
		record.Competitors = competitors
		record.Warnings = append(record.Warnings, warnings...)
		cmp := compare.Compare(target.Scores, scores)
		record.Comparison = &cmp
	}

	record.CreatedAt = p.cfg.Clock.Now().UTC()
	record.Duration = p.cfg.Clock.Since(start)
	metrics.RecordScan("ok", record.Duration, target.Scores.PillarScores())

	if err := p.cfg.Store.Save(ctx, record); err != nil {
		p.logger.Error("failed to save scan", "id", record.ID, "err", err)
		return record, fmt.Errorf("save scan: %w", err)
	}
	return record, nil
}

// competitors analyzes each competitor URL with bounded concurrency. Results
// keep request order.
func (p *Pipeline) competitors(ctx context.Context, urls []string) ([]storage.Competitor, []scoring.DetailedScores, []string) {
	if len(urls) > MaxCompetitors {
		urls = urls[:MaxCompetitors]
	}

	out := make([]storage.Competitor, len(urls))
	results := make([]*Analysis, len(urls))

	var g errgroup.Group
	g.SetLimit(p.cfg.CompetitorConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			out[i].URL = u
			a, err := p.Analyze(ctx, u)
			if err != nil {
				p.logger.Warn("competitor scan failed", "url", u, "err", err)
				out[i].Error = err.Error()
				return nil
			}
			results[i] = a
			out[i].Domain = a.Domain
			out[i].Total = a.Scores.Total
			return nil
		})
	}
	_ = g.Wait()

	var (
		scores   []scoring.DetailedScores
		warnings []string
	)
	for i, a := range results {
		if a == nil {
			warnings = append(warnings, fmt.Sprintf("competitor %s: %s", urls[i], out[i].Error))
			continue
		}
		scores = append(scores, a.Scores)
	}
	return out, scores, warnings
}

// Analyze fetches and scores one URL.
func (p *Pipeline) Analyze(ctx context.Context, rawURL string) (*Analysis, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	pg, err := p.cfg.Fetcher.Fetch(fetchCtx, target)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	a := &Analysis{URL: target, Warnings: []string{}}
	if pg.Challenge.Detected() {
		a.Warnings = append(a.Warnings, fmt.Sprintf("page served a %s challenge (%s); scores reflect the challenge page", pg.Challenge.Vendor, pg.Challenge.Reason))
	} else if !pg.OK() {
		return nil, fmt.Errorf("fetch %s: status %d", target, pg.StatusCode)
	}

	finalURL := pg.FinalURL
	if finalURL == "" {
		finalURL = target
	}
	a.Page, err = page.Parse(finalURL, pg.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", finalURL, err)
	}
	a.Domain = a.Page.Domain

	p.gather(ctx, a)

	var kw []string
	for _, k := range a.Keywords.Keywords {
		kw = append(kw, k.Keyword)
	}
	a.Mentions = analyzer.FindMentions(a.Page.MainText, kw)

	a.Scores = scoring.Score(scoring.Input{
		Page:        a.Page,
		Performance: a.Performance,
		Metrics:     &a.Metrics,
		Keywords:    &a.Keywords,
		Sentiment:   a.Sentiment,
		DataSource:  p.dataSource(a),
	})
	return a, nil
}

// signals collects gather results. Writes after the soft deadline are
// dropped.
type signals struct {
	mu       sync.Mutex
	closed   bool
	metrics  *provider.UnifiedMetrics
	keywords *discovery.Result
	perf     *pagespeed.Facts
	sent     *llm.Sentiment
	access   map[string]bool
	warnings []string
}

func (s *signals) set(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		fn()
	}
}

func (s *signals) warn(format string, args ...any) {
	s.set(func() { s.warnings = append(s.warnings, fmt.Sprintf(format, args...)) })
}

// gather runs every signal source concurrently. Sources still running at the
// soft deadline are abandoned and their results omitted.
func (p *Pipeline) gather(ctx context.Context, a *Analysis) {
	deadlineCtx, cancel := context.WithTimeout(ctx, p.cfg.SoftDeadline)
	defer cancel()

	s := &signals{}
	var g errgroup.Group

	if p.cfg.Aggregator != nil {
		g.Go(func() error {
			m := p.cfg.Aggregator.Aggregate(deadlineCtx, a.Domain)
			s.set(func() { s.metrics = &m })
			return nil
		})
	}

	if p.cfg.Discovery != nil {
		g.Go(func() error {
			res := p.cfg.Discovery.Discover(deadlineCtx, a.URL, a.Domain, a.Page)
			s.set(func() { s.keywords = &res })
			return nil
		})
	}

	if p.cfg.Performance != nil && p.cfg.Performance.IsConfigured() {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(deadlineCtx, p.cfg.CallTimeout)
			defer cancel()
			f, err := p.cfg.Performance.Measure(callCtx, a.URL)
			if err != nil {
				s.warn("performance data unavailable: %v", err)
				return nil
			}
			s.set(func() { s.perf = f })
			return nil
		})
	}

	if p.cfg.Sentiment != nil && p.cfg.Sentiment.IsConfigured() {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(deadlineCtx, p.cfg.CallTimeout)
			defer cancel()
			sent, err := p.cfg.Sentiment.BrandSentiment(callCtx, discovery.Brand(a.Domain), a.Domain)
			if err != nil {
				s.warn("brand sentiment unavailable: %v", err)
				return nil
			}
			s.set(func() { s.sent = sent })
			return nil
		})
	}

	if p.cfg.Robots != nil {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(deadlineCtx, p.cfg.CallTimeout)
			defer cancel()
			access, err := p.cfg.Robots.AIAccess(callCtx, a.URL)
			if err != nil {
				s.warn("robots.txt check failed: %v", err)
				return nil
			}
			s.set(func() { s.access = access })
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	deadlineHit := false
	select {
	case <-done:
	case <-deadlineCtx.Done():
		// Give sources that observe the context a moment to return.
		select {
		case <-done:
		case <-time.After(50 * time.Millisecond):
		}
		deadlineHit = ctx.Err() == nil
	}

	s.mu.Lock()
	s.closed = true
	warnings := append([]string(nil), s.warnings...)
	switch {
	case s.metrics != nil:
		a.Metrics = *s.metrics
	case p.cfg.Aggregator != nil:
		a.Metrics = aggregator.Estimate(a.Domain)
		warnings = append(warnings, "provider metrics omitted: soft deadline reached; using estimates")
	default:
		a.Metrics = aggregator.Estimate(a.Domain)
	}
	if s.keywords != nil {
		a.Keywords = *s.keywords
		warnings = append(warnings, s.keywords.Warnings...)
	} else if p.cfg.Discovery != nil {
		warnings = append(warnings, "keyword discovery omitted: soft deadline reached")
	}
	a.Performance = s.perf
	a.Sentiment = s.sent
	a.AIAccess = s.access
	s.mu.Unlock()

	if deadlineHit {
		warnings = append(warnings, fmt.Sprintf("soft deadline of %s reached; late signals omitted", p.cfg.SoftDeadline))
	}
	warnings = append(warnings, a.Metrics.Errors...)
	if blocked := blockedCrawlers(a.AIAccess); len(blocked) > 0 {
		warnings = append(warnings, "robots.txt blocks AI crawlers: "+strings.Join(blocked, ", "))
	}

	sort.Strings(warnings)
	a.Warnings = append(a.Warnings, warnings...)
}

func blockedCrawlers(access map[string]bool) []string {
	var blocked []string
	for _, agent := range scraper.AICrawlers {
		if allowed, ok := access[agent]; ok && !allowed {
			blocked = append(blocked, agent)
		}
	}
	return blocked
}

func (p *Pipeline) dataSource(a *Analysis) map[string]bool {
	ds := map[string]bool{
		"scraper":   true,
		"pagespeed": a.Performance != nil,
		"llm":       a.Sentiment != nil,
		"serp":      a.Keywords.Summary.Answered > 0,
	}
	if p.cfg.Aggregator != nil {
		for name, ok := range a.Metrics.DataSource(p.cfg.Aggregator.ProviderNames()...) {
			ds[name] = ok
		}
	}
	return ds
}

// NormalizeURL turns user input into an absolute http(s) URL, defaulting the
// scheme to https.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}
