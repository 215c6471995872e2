// Package openpagerank implements the authority enrichment family using the
// Open PageRank API. It never supplies link counts.
package openpagerank

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "openpagerank"
	DefaultEndpoint = "https://openpagerank.com"
)

var _ provider.Adapter[provider.AuthorityMetrics] = (*Adapter)(nil)

// Config holds the Open PageRank API key.
type Config struct {
	APIKey   string
	Endpoint string
}

// Adapter converts the 0-10 Open PageRank decimal into a 0-100 authority.
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

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }

type pageRankResponse struct {
	StatusCode int `json:"status_code"`
	Response   []struct {
		StatusCode      int     `json:"status_code"`
		Error           string  `json:"error"`
		PageRankDecimal float64 `json:"page_rank_decimal"`
		Domain          string  `json:"domain"`
	} `json:"response"`
}

func (a *Adapter) Fetch(ctx context.Context, domain string) provider.Result[provider.AuthorityMetrics] {
	if !a.IsConfigured() {
		return provider.Fail[provider.AuthorityMetrics](provider.NotConfigured(Name))
	}

	q := url.Values{}
	q.Add("domains[]", domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.cfg.Endpoint, "/")+"/api/v1.0/getPageRank?"+q.Encode(), nil)
	if err != nil {
		return provider.Fail[provider.AuthorityMetrics](provider.NewError(Name, provider.KindUpstream, err))
	}
	req.Header.Set("API-OPR", a.cfg.APIKey)

	var resp pageRankResponse
	if perr := provider.CallJSON(ctx, a.client, Name, req, &resp); perr != nil {
		return provider.Fail[provider.AuthorityMetrics](perr)
	}
	if len(resp.Response) == 0 {
		return provider.Fail[provider.AuthorityMetrics](provider.Empty(Name))
	}

	r := resp.Response[0]
	if r.StatusCode != 0 && r.StatusCode != http.StatusOK {
		return provider.Fail[provider.AuthorityMetrics](provider.NewError(Name, provider.KindEmptyResult,
			fmt.Errorf("status %d: %s", r.StatusCode, r.Error)))
	}

	return provider.Ok(provider.AuthorityMetrics{
		DomainAuthority: math.Round(r.PageRankDecimal*10*10) / 10,
	})
}
