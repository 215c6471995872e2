package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	GoogleName            = "google"
	DefaultGoogleEndpoint = "https://google.serper.dev"
)

var _ Provider = (*Google)(nil)

// GoogleConfig configures the Google results API.
type GoogleConfig struct {
	APIKey   string
	Endpoint string
	// Country and Language are passed through as gl and hl.
	Country  string
	Language string
}

// Google queries Google organic results through a JSON results API.
type Google struct {
	cfg    GoogleConfig
	client *httpclient.Client
}

// NewGoogle creates a Google provider.
func NewGoogle(cfg GoogleConfig, client *httpclient.Client) *Google {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	return &Google{cfg: cfg, client: client}
}

func (g *Google) Name() string { return GoogleName }

func (g *Google) IsConfigured() bool { return g.cfg.APIKey != "" }

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

type searchResponse struct {
	Organic []struct {
		Link     string `json:"link"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search returns up to limit organic results for query.
func (g *Google) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", limit)
	}
	if !g.IsConfigured() {
		return nil, provider.NotConfigured(GoogleName)
	}
	if limit == 0 {
		return []Result{}, nil
	}

	payload, err := json.Marshal(searchRequest{Q: query, Num: limit, GL: g.cfg.Country, HL: g.cfg.Language})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.Endpoint, "/")+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", g.cfg.APIKey)

	var resp searchResponse
	if perr := provider.CallJSON(ctx, g.client, GoogleName, req, &resp); perr != nil {
		if perr.Kind == provider.KindEmptyResult {
			return []Result{}, nil
		}
		return nil, perr
	}

	results := make([]Result, 0, len(resp.Organic))
	for i, o := range resp.Organic {
		if i >= limit {
			break
		}
		pos := o.Position
		if pos <= 0 {
			pos = i + 1
		}
		results = append(results, Result{URL: o.Link, Domain: provider.NormalizeDomain(o.Link), Position: pos})
	}
	return results, nil
}
