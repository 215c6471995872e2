// Package moz implements the backlink family on top of the Moz Links API.
package moz

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "moz"
	DefaultEndpoint = "https://lsapi.seomoz.com"
)

var _ provider.Adapter[provider.BacklinkMetrics] = (*Adapter)(nil)

// Config holds Moz access credentials.
type Config struct {
	AccessID  string
	SecretKey string
	Endpoint  string
}

// Adapter fetches domain authority and linking root domains from Moz.
type Adapter struct {
	cfg    Config
	client *httpclient.Client
}

// New creates an Adapter.
func New(cfg Config, client *httpclient.Client) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) IsConfigured() bool {
	return a.cfg.AccessID != "" && a.cfg.SecretKey != ""
}

type urlMetricsResponse struct {
	Results []struct {
		DomainAuthority           float64 `json:"domain_authority"`
		RootDomainsToRootDomain   int     `json:"root_domains_to_root_domain"`
		ExternalPagesToRootDomain int     `json:"external_pages_to_root_domain"`
	} `json:"results"`
}

func (a *Adapter) Fetch(ctx context.Context, domain string) provider.Result[provider.BacklinkMetrics] {
	if !a.IsConfigured() {
		return provider.Fail[provider.BacklinkMetrics](provider.NotConfigured(Name))
	}

	payload, err := json.Marshal(map[string][]string{"targets": {domain}})
	if err != nil {
		return provider.Fail[provider.BacklinkMetrics](provider.NewError(Name, provider.KindMalformed, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.Endpoint, "/")+"/v2/url_metrics", bytes.NewReader(payload))
	if err != nil {
		return provider.Fail[provider.BacklinkMetrics](provider.NewError(Name, provider.KindUpstream, err))
	}
	req.SetBasicAuth(a.cfg.AccessID, a.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	var resp urlMetricsResponse
	if perr := provider.CallJSON(ctx, a.client, Name, req, &resp); perr != nil {
		return provider.Fail[provider.BacklinkMetrics](perr)
	}
	if len(resp.Results) == 0 {
		return provider.Fail[provider.BacklinkMetrics](provider.Empty(Name))
	}

	r := resp.Results[0]
	return provider.Ok(provider.BacklinkMetrics{
		Total:            r.ExternalPagesToRootDomain,
		ReferringDomains: r.RootDomainsToRootDomain,
		DomainAuthority:  r.DomainAuthority,
	})
}
