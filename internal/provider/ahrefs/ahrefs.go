// Package ahrefs implements the backlink family on top of the Ahrefs v3 Site
// Explorer API.
package ahrefs

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "ahrefs"
	DefaultEndpoint = "https://api.ahrefs.com"
)

var _ provider.Adapter[provider.BacklinkMetrics] = (*Adapter)(nil)

// Config holds the Ahrefs API token.
type Config struct {
	Token    string
	Endpoint string
}

// Adapter fetches backlink counts and domain rating from Ahrefs.
type Adapter struct {
	cfg    Config
	client *httpclient.Client
	now    func() time.Time
}

// New creates an Adapter.
func New(cfg Config, client *httpclient.Client) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Adapter{cfg: cfg, client: client, now: time.Now}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) IsConfigured() bool { return a.cfg.Token != "" }

type statsResponse struct {
	Metrics *struct {
		Live              int `json:"live"`
		LiveRefdomains    int `json:"live_refdomains"`
		AllTime           int `json:"all_time"`
		AllTimeRefdomains int `json:"all_time_refdomains"`
	} `json:"metrics"`
}

type ratingResponse struct {
	DomainRating *struct {
		DomainRating float64 `json:"domain_rating"`
	} `json:"domain_rating"`
}

// Fetch calls backlinks-stats, then domain-rating. A failed rating call is not
// fatal: the counts are still usable and authority can be filled by
// enrichment.
func (a *Adapter) Fetch(ctx context.Context, domain string) provider.Result[provider.BacklinkMetrics] {
	if !a.IsConfigured() {
		return provider.Fail[provider.BacklinkMetrics](provider.NotConfigured(Name))
	}

	var stats statsResponse
	if perr := a.get(ctx, "/v3/site-explorer/backlinks-stats", domain, &stats); perr != nil {
		return provider.Fail[provider.BacklinkMetrics](perr)
	}

	var rating ratingResponse
	if perr := a.get(ctx, "/v3/site-explorer/domain-rating", domain, &rating); perr != nil {
		if perr.Kind == provider.KindAuthFailed || perr.Kind == provider.KindQuotaExhausted {
			return provider.Fail[provider.BacklinkMetrics](perr)
		}
		rating = ratingResponse{}
	}

	m, perr := toMetrics(stats, rating)
	if perr != nil {
		return provider.Fail[provider.BacklinkMetrics](perr)
	}
	return provider.Ok(m)
}

func (a *Adapter) get(ctx context.Context, path, domain string, out any) *provider.Error {
	q := url.Values{}
	q.Set("target", domain)
	q.Set("mode", "domain")
	q.Set("date", a.now().UTC().Format("2006-01-02"))
	q.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.cfg.Endpoint, "/")+path+"?"+q.Encode(), nil)
	if err != nil {
		return provider.NewError(Name, provider.KindUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	return provider.CallJSON(ctx, a.client, Name, req, out)
}

func toMetrics(stats statsResponse, rating ratingResponse) (provider.BacklinkMetrics, *provider.Error) {
	if stats.Metrics == nil {
		return provider.BacklinkMetrics{}, provider.Empty(Name)
	}
	m := provider.BacklinkMetrics{
		Total:            stats.Metrics.Live,
		ReferringDomains: stats.Metrics.LiveRefdomains,
	}
	if rating.DomainRating != nil {
		m.DomainRating = rating.DomainRating.DomainRating
	}
	return m, nil
}
