package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FranksOps/seoscope/internal/aggregator"
	"github.com/FranksOps/seoscope/internal/cache"
	"github.com/FranksOps/seoscope/internal/config"
	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/llm"
	"github.com/FranksOps/seoscope/internal/logging"
	"github.com/FranksOps/seoscope/internal/pagespeed"
	"github.com/FranksOps/seoscope/internal/pipeline"
	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/internal/provider/ahrefs"
	"github.com/FranksOps/seoscope/internal/provider/dataforseo"
	"github.com/FranksOps/seoscope/internal/provider/moz"
	"github.com/FranksOps/seoscope/internal/provider/openpagerank"
	"github.com/FranksOps/seoscope/internal/provider/semrush"
	"github.com/FranksOps/seoscope/internal/scraper"
	"github.com/FranksOps/seoscope/internal/serp"
	"github.com/FranksOps/seoscope/internal/storage"
	"github.com/FranksOps/seoscope/internal/storage/csvbackend"
	"github.com/FranksOps/seoscope/internal/storage/jsonbackend"
	"github.com/FranksOps/seoscope/internal/storage/postgres"
	"github.com/FranksOps/seoscope/internal/storage/sqlite"
	"github.com/FranksOps/seoscope/pkg/httpclient"
	"github.com/FranksOps/seoscope/pkg/ratelimit"
	"github.com/FranksOps/seoscope/pkg/useragent"
	"github.com/temoto/robotstxt"
)

// app holds everything a command needs after configuration is loaded.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Backend
	pipeline *pipeline.Pipeline
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newApp loads configuration and builds the logger and store. The scan
// pipeline is only built when withPipeline is set.
func newApp(ctx context.Context, g *globals, withPipeline bool) (*app, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store}
	if withPipeline {
		a.pipeline, err = buildPipeline(cfg, store, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		b, err = sqlite.New(cfg.DSN)
	case "postgres":
		b, err = postgres.New(ctx, cfg.DSN)
	case "json":
		b, err = jsonbackend.New(cfg.DSN)
	case "csv":
		b, err = csvbackend.New(cfg.DSN)
	case "none":
		return storage.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	return b, nil
}

func buildPipeline(cfg *config.Config, store storage.Backend, logger *slog.Logger) (*pipeline.Pipeline, error) {
	profile, err := httpclient.ParseProfile(cfg.HTTP.Fingerprint)
	if err != nil {
		return nil, err
	}

	// API calls use the plain Go TLS stack; only page fetches are fingerprinted.
	api, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Scan.ProviderTimeout,
		MaxRedirects: cfg.HTTP.MaxRedirects,
		UserAgent:    cfg.HTTP.UserAgent,
		Fingerprint:  httpclient.ProfileGo,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	fetchCfg := scraper.FetchConfig{
		Timeout:      cfg.HTTP.Timeout,
		MaxRedirects: cfg.HTTP.MaxRedirects,
		UserAgent:    cfg.HTTP.UserAgent,
		Fingerprint:  profile,
	}
	if cfg.HTTP.BrowserUserAgent {
		fetchCfg.UserAgents = useragent.ForProfile(string(profile))
	}
	fetcher, err := scraper.NewFetcher(fetchCfg)
	if err != nil {
		return nil, fmt.Errorf("create page fetcher: %w", err)
	}
	robots := scraper.NewRobotsTxtAuditor(fetcher, logger).
		WithCache(cache.New[*robotstxt.RobotsData](cfg.Scan.CacheTTL))

	p := cfg.Providers
	agg := aggregator.New(aggregator.Config{
		Keywords: []provider.Adapter[provider.KeywordMetrics]{
			dataforseo.New(dataforseo.Config{
				Login:        p.DataForSEO.Login,
				Password:     p.DataForSEO.Password,
				Endpoint:     p.DataForSEO.Endpoint,
				LocationCode: p.DataForSEO.LocationCode,
				LanguageCode: p.DataForSEO.LanguageCode,
			}, api),
			semrush.New(semrush.Config{APIKey: p.Semrush.APIKey, Endpoint: p.Semrush.Endpoint, Database: p.Semrush.Database}, api),
		},
		Backlinks: []provider.Adapter[provider.BacklinkMetrics]{
			ahrefs.New(ahrefs.Config{Token: p.Ahrefs.APIKey, Endpoint: p.Ahrefs.Endpoint}, api),
			moz.New(moz.Config{AccessID: p.Moz.AccessID, SecretKey: p.Moz.SecretKey, Endpoint: p.Moz.Endpoint}, api),
		},
		Authority: []provider.Adapter[provider.AuthorityMetrics]{
			openpagerank.New(openpagerank.Config{APIKey: p.OpenPageRank.APIKey, Endpoint: p.OpenPageRank.Endpoint}, api),
		},
		CallTimeout:  cfg.Scan.ProviderTimeout,
		SoftDeadline: cfg.Scan.SoftDeadline,
		Cache:        cache.New[provider.UnifiedMetrics](cfg.Scan.CacheTTL),
		Logger:       logger,
	})

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, api)

	var crawl *scraper.CrawlConfig
	if cfg.Scan.CrawlFallback {
		crawl = &scraper.CrawlConfig{
			MaxDepth:          2,
			Concurrency:       2,
			RespectRobots:     true,
			UserAgent:         cfg.HTTP.UserAgent,
			RequestsPerSecond: 2,
			Jitter:            0.2,
		}
	}

	indexCfg := scraper.IndexConfig{
		MaxURLs: cfg.Scan.SitemapURLs,
		Crawl:   crawl,
		Cache:   cache.New[[]string](cfg.Scan.CacheTTL),
	}
	dcfg := discovery.Config{
		Paths:      scraper.NewIndex(indexCfg, fetcher, robots, logger),
		MaxChecks:  cfg.SERP.MaxKeywords,
		MaxRelated: cfg.Scan.MaxRelated,
		Logger:     logger,
	}
	if llmClient.IsConfigured() {
		dcfg.Generator = llm.NewKeywordGenerator(llmClient, cfg.LLM.MaxKeywords)
	}
	tracker := serp.NewTracker(serp.NewGoogle(serp.GoogleConfig{
		APIKey:   cfg.SERP.APIKey,
		Endpoint: cfg.SERP.Endpoint,
		Country:  cfg.SERP.Country,
		Language: cfg.SERP.Language,
	}, api), cfg.SERP.Depth, logger)
	// A nil *Tracker in the interface would not compare equal to nil.
	if tracker.Available() {
		dcfg.Ranks = tracker
		dcfg.Limiter = ratelimit.NewLimiter(cfg.SERP.RequestsPerSecond, 0.1)
	}

	perf := pagespeed.New(pagespeed.Config{
		Enabled:  cfg.PageSpeed.Enabled,
		APIKey:   cfg.PageSpeed.APIKey,
		Endpoint: cfg.PageSpeed.Endpoint,
		Strategy: pagespeed.Strategy(cfg.PageSpeed.Strategy),
	}, api)

	return pipeline.New(pipeline.Config{
		Fetcher:               fetcher,
		Aggregator:            agg,
		Discovery:             discovery.New(dcfg),
		Performance:           perf,
		Sentiment:             llmClient,
		Robots:                robots,
		Store:                 store,
		CallTimeout:           cfg.Scan.ProviderTimeout,
		SoftDeadline:          cfg.Scan.SoftDeadline,
		CompetitorConcurrency: cfg.Scan.CompetitorConcurrency,
		Logger:                logger,
	}), nil
}

// scanTimeout bounds a whole scan including competitors.
func scanTimeout(cfg *config.Config) time.Duration {
	return cfg.HTTP.Timeout + 2*cfg.Scan.SoftDeadline
}
