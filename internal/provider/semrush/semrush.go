// Package semrush implements the keyword family on top of the Semrush
// Analytics API domain_ranks report.
package semrush

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "semrush"
	DefaultEndpoint = "https://api.semrush.com"
)

var _ provider.Adapter[provider.KeywordMetrics] = (*Adapter)(nil)

// Config holds Semrush credentials.
type Config struct {
	APIKey   string
	Endpoint string
	Database string
}

// Adapter fetches organic keyword counts from Semrush.
type Adapter struct {
	cfg    Config
	client *httpclient.Client
}

// New creates an Adapter querying the US database unless configured otherwise.
func New(cfg Config, client *httpclient.Client) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Database == "" {
		cfg.Database = "us"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }

func (a *Adapter) Fetch(ctx context.Context, domain string) provider.Result[provider.KeywordMetrics] {
	if !a.IsConfigured() {
		return provider.Fail[provider.KeywordMetrics](provider.NotConfigured(Name))
	}

	q := url.Values{}
	q.Set("type", "domain_ranks")
	q.Set("key", a.cfg.APIKey)
	q.Set("domain", domain)
	q.Set("database", a.cfg.Database)
	q.Set("export_columns", "Dn,Rk,Or,Ot,Oc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.cfg.Endpoint, "/")+"/?"+q.Encode(), nil)
	if err != nil {
		return provider.Fail[provider.KeywordMetrics](provider.NewError(Name, provider.KindUpstream, err))
	}

	body, perr := provider.Call(ctx, a.client, Name, req)
	if perr != nil {
		return provider.Fail[provider.KeywordMetrics](perr)
	}

	m, perr := toMetrics(string(body))
	if perr != nil {
		return provider.Fail[provider.KeywordMetrics](perr)
	}
	return provider.Ok(m)
}

// toMetrics parses the semicolon separated report. Semrush reports errors as a
// 200 response whose body starts with "ERROR <code> :: <message>".
func toMetrics(body string) (provider.KeywordMetrics, *provider.Error) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "ERROR") {
		return provider.KeywordMetrics{}, reportError(body)
	}

	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return provider.KeywordMetrics{}, provider.Empty(Name)
	}

	header := strings.Split(strings.TrimSpace(lines[0]), ";")
	row := strings.Split(strings.TrimSpace(lines[1]), ";")
	if len(row) != len(header) {
		return provider.KeywordMetrics{}, provider.NewError(Name, provider.KindMalformed,
			fmt.Errorf("row has %d columns, header has %d", len(row), len(header)))
	}

	fields := make(map[string]string, len(header))
	for i, h := range header {
		fields[h] = row[i]
	}

	total, err := atoi(fields["Organic Keywords"])
	if err != nil {
		return provider.KeywordMetrics{}, provider.NewError(Name, provider.KindMalformed, err)
	}
	traffic, err := atoi(fields["Organic Traffic"])
	if err != nil {
		return provider.KeywordMetrics{}, provider.NewError(Name, provider.KindMalformed, err)
	}

	// domain_ranks has no position distribution; every reported keyword is in
	// the tracked top 100.
	return provider.KeywordMetrics{
		Total:            total,
		Top100:           total,
		EstimatedTraffic: traffic,
	}, nil
}

func atoi(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return n, nil
}

func reportError(body string) *provider.Error {
	code := strings.Fields(strings.TrimPrefix(body, "ERROR"))
	err := errors.New(body)
	if len(code) == 0 {
		return provider.NewError(Name, provider.KindUpstream, err)
	}
	switch code[0] {
	case "50":
		return provider.NewError(Name, provider.KindEmptyResult, err)
	case "120", "121", "122":
		return provider.NewError(Name, provider.KindAuthFailed, err)
	case "130", "131", "132", "133", "134":
		return provider.NewError(Name, provider.KindQuotaExhausted, err)
	default:
		return provider.NewError(Name, provider.KindUpstream, err)
	}
}
