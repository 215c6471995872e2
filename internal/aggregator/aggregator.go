// Package aggregator resolves each metric family from a fixed priority list of
// provider adapters, falling back to a deterministic estimate, and merges the
// families into one UnifiedMetrics per scan.
package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/seoscope/internal/cache"
	"github.com/FranksOps/seoscope/internal/metrics"
	"github.com/FranksOps/seoscope/internal/provider"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCallTimeout  = 15 * time.Second
	defaultSoftDeadline = 45 * time.Second
)

// Config declares the cascades. Slice order is priority order.
type Config struct {
	Keywords  []provider.Adapter[provider.KeywordMetrics]
	Backlinks []provider.Adapter[provider.BacklinkMetrics]
	// Authority adapters fill a missing authority figure after the backlink
	// family resolved from a provider. They never override accepted values.
	Authority []provider.Adapter[provider.AuthorityMetrics]

	// CallTimeout bounds each adapter call.
	CallTimeout time.Duration
	// SoftDeadline bounds the enrichment pass, measured from the start of
	// Aggregate. Enrichment still running at the deadline is dropped.
	SoftDeadline time.Duration

	Cache  *cache.Cache[provider.UnifiedMetrics]
	Logger *slog.Logger
}

// Manager runs aggregations. It holds no per-scan state and is safe for
// concurrent use.
type Manager struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Manager.
func New(cfg Config) *Manager {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.SoftDeadline <= 0 {
		cfg.SoftDeadline = defaultSoftDeadline
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// ProviderNames lists every adapter name in cascade order without duplicates.
func (m *Manager) ProviderNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, a := range m.cfg.Keywords {
		add(a.Name())
	}
	for _, a := range m.cfg.Backlinks {
		add(a.Name())
	}
	for _, a := range m.cfg.Authority {
		add(a.Name())
	}
	return names
}

// Aggregate builds a fresh UnifiedMetrics for target. It never fails: every
// provider problem is recorded in Errors and the affected family falls back to
// the estimate.
func (m *Manager) Aggregate(ctx context.Context, target string) provider.UnifiedMetrics {
	domain := provider.NormalizeDomain(target)
	start := time.Now()

	if m.cfg.Cache != nil {
		if cached, ok := m.cfg.Cache.Get(cache.Key(domain, "")); ok {
			m.logger.Debug("aggregate cache hit", "domain", domain)
			return clone(cached)
		}
	}

	var (
		kw outcome[provider.KeywordMetrics]
		bl outcome[provider.BacklinkMetrics]
	)

	// Families are independent; adapters within a family are not raced.
	var g errgroup.Group
	g.Go(func() error {
		kw = cascade(ctx, provider.FamilyKeywords, domain, m.cfg.Keywords, m.cfg.CallTimeout, m.logger)
		return nil
	})
	g.Go(func() error {
		bl = cascade(ctx, provider.FamilyBacklinks, domain, m.cfg.Backlinks, m.cfg.CallTimeout, m.logger)
		return nil
	})
	_ = g.Wait()

	out := provider.UnifiedMetrics{
		Domain: domain,
		Errors: []string{},
	}

	if kw.accepted {
		out.Keywords = kw.metrics
		out.Source.Keywords = kw.tag
		out.Providers.Keywords = kw.provider
	} else {
		out.Keywords = EstimateKeywords(domain)
		out.Source.Keywords = provider.SourceEstimate
		out.Providers.Keywords = string(provider.SourceEstimate)
	}
	metrics.RecordCascade(string(provider.FamilyKeywords), string(out.Source.Keywords))

	if bl.accepted {
		out.Backlinks = bl.metrics
		out.Source.Backlinks = bl.tag
		out.Providers.Backlinks = bl.provider
	} else {
		out.Backlinks = EstimateBacklinks(domain)
		out.Source.Backlinks = provider.SourceEstimate
		out.Providers.Backlinks = string(provider.SourceEstimate)
	}
	metrics.RecordCascade(string(provider.FamilyBacklinks), string(out.Source.Backlinks))

	out.Errors = append(out.Errors, formatErrors(provider.FamilyKeywords, kw.errs)...)
	out.Errors = append(out.Errors, formatErrors(provider.FamilyBacklinks, bl.errs)...)

	var enrichErrs []*provider.Error
	if bl.accepted && !out.Backlinks.HasAuthority() && len(m.cfg.Authority) > 0 {
		enrichErrs = m.enrichAuthority(ctx, start, domain, &out)
		out.Errors = append(out.Errors, formatErrors(provider.FamilyAuthority, enrichErrs)...)
	}

	if m.cfg.Cache != nil && cacheable(kw.errs, bl.errs, enrichErrs) {
		m.cfg.Cache.Put(cache.Key(domain, ""), clone(out))
	}

	return out
}

// enrichAuthority runs the authority cascade under the soft deadline and
// fills only DomainAuthority.
func (m *Manager) enrichAuthority(ctx context.Context, start time.Time, domain string, out *provider.UnifiedMetrics) []*provider.Error {
	ectx, cancel := context.WithDeadline(ctx, start.Add(m.cfg.SoftDeadline))
	defer cancel()

	res := cascade(ectx, provider.FamilyAuthority, domain, m.cfg.Authority, m.cfg.CallTimeout, m.logger)
	if !res.accepted {
		m.logger.Debug("authority enrichment produced nothing", "domain", domain)
		return res.errs
	}
	if out.Backlinks.DomainAuthority == 0 {
		out.Backlinks.DomainAuthority = res.metrics.DomainAuthority
		out.Providers.Authority = res.provider
	}
	return res.errs
}

// cacheable reports whether a run is worth reusing: transient failures may
// clear up, so runs that saw them are recomputed next time.
func cacheable(errSets ...[]*provider.Error) bool {
	for _, errs := range errSets {
		for _, e := range errs {
			switch e.Kind {
			case provider.KindTimeout, provider.KindRateLimited, provider.KindUpstream:
				return false
			}
		}
	}
	return true
}

func clone(u provider.UnifiedMetrics) provider.UnifiedMetrics {
	u.Errors = append([]string{}, u.Errors...)
	if u.Keywords.IntentBreakdown != nil {
		ib := make(map[string]int, len(u.Keywords.IntentBreakdown))
		for k, v := range u.Keywords.IntentBreakdown {
			ib[k] = v
		}
		u.Keywords.IntentBreakdown = ib
	}
	return u
}

// AuthorityFrom adapts a backlink adapter into an authority-only source so a
// link-graph provider can serve as an enrichment step.
func AuthorityFrom(a provider.Adapter[provider.BacklinkMetrics]) provider.Adapter[provider.AuthorityMetrics] {
	return authorityAdapter{inner: a}
}

type authorityAdapter struct {
	inner provider.Adapter[provider.BacklinkMetrics]
}

func (a authorityAdapter) Name() string       { return a.inner.Name() }
func (a authorityAdapter) IsConfigured() bool { return a.inner.IsConfigured() }

func (a authorityAdapter) Fetch(ctx context.Context, domain string) provider.Result[provider.AuthorityMetrics] {
	res := a.inner.Fetch(ctx, domain)
	if !res.OK() {
		return provider.Fail[provider.AuthorityMetrics](res.Err)
	}
	da := res.Metrics.DomainAuthority
	if da == 0 {
		da = res.Metrics.DomainRating
	}
	return provider.Ok(provider.AuthorityMetrics{DomainAuthority: da})
}
