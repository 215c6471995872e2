// Package pagespeed fetches Core Web Vitals for a URL from the PageSpeed
// Insights API.
package pagespeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "pagespeed"
	DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
)

// Strategy selects the device profile the page is measured with.
type Strategy string

const (
	StrategyMobile  Strategy = "mobile"
	StrategyDesktop Strategy = "desktop"
)

// Facts sources.
const (
	SourceField = "field"
	SourceLab   = "lab"
)

// Facts are the three vitals the scoring engine bands. Source is SourceField
// when real-user data was available and SourceLab otherwise. Lab facts carry
// Total Blocking Time in InteractivityMs.
type Facts struct {
	LoadTimeMs      float64 `json:"loadTimeMs"`
	InteractivityMs float64 `json:"interactivityMs"`
	LayoutShift     float64 `json:"layoutShift"`
	Source          string  `json:"source"`
}

// Config configures the client. The API answers without a key at a low
// quota, so Enabled gates the call rather than the key.
type Config struct {
	Enabled  bool
	APIKey   string
	Endpoint string
	Strategy Strategy
}

// Client queries PageSpeed Insights.
type Client struct {
	cfg    Config
	client *httpclient.Client
}

// New creates a Client.
func New(cfg Config, client *httpclient.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyMobile
	}
	return &Client{cfg: cfg, client: client}
}

func (c *Client) Name() string { return Name }

func (c *Client) IsConfigured() bool { return c.cfg.Enabled || c.cfg.APIKey != "" }

type metric struct {
	Percentile float64 `json:"percentile"`
}

type audit struct {
	NumericValue *float64 `json:"numericValue"`
}

type response struct {
	LoadingExperience struct {
		Metrics map[string]metric `json:"metrics"`
	} `json:"loadingExperience"`
	LighthouseResult struct {
		Audits map[string]audit `json:"audits"`
	} `json:"lighthouseResult"`
}

// Measure returns the vitals for pageURL. Field data is preferred; any
// vital missing from it makes the whole result come from lab audits.
func (c *Client) Measure(ctx context.Context, pageURL string) (*Facts, error) {
	if !c.IsConfigured() {
		return nil, provider.NotConfigured(Name)
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(c.cfg.Strategy))
	q.Add("category", "performance")
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}

	sep := "?"
	if strings.Contains(c.cfg.Endpoint, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+sep+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pagespeed request: %w", err)
	}

	var resp response
	if perr := provider.CallJSON(ctx, c.client, Name, req, &resp); perr != nil {
		return nil, perr
	}

	if f, ok := fieldFacts(resp.LoadingExperience.Metrics); ok {
		return f, nil
	}
	if f, ok := labFacts(resp.LighthouseResult.Audits); ok {
		return f, nil
	}
	return nil, provider.Empty(Name)
}

func fieldFacts(m map[string]metric) (*Facts, bool) {
	lcp, ok1 := m["LARGEST_CONTENTFUL_PAINT_MS"]
	inp, ok2 := m["INTERACTION_TO_NEXT_PAINT"]
	if !ok2 {
		inp, ok2 = m["FIRST_INPUT_DELAY_MS"]
	}
	cls, ok3 := m["CUMULATIVE_LAYOUT_SHIFT_SCORE"]
	if !ok1 || !ok2 || !ok3 {
		return nil, false
	}
	// Field CLS is reported multiplied by 100.
	return &Facts{
		LoadTimeMs:      lcp.Percentile,
		InteractivityMs: inp.Percentile,
		LayoutShift:     cls.Percentile / 100,
		Source:          SourceField,
	}, true
}

func labFacts(a map[string]audit) (*Facts, bool) {
	lcp := a["largest-contentful-paint"].NumericValue
	tbt := a["total-blocking-time"].NumericValue
	cls := a["cumulative-layout-shift"].NumericValue
	if lcp == nil || tbt == nil || cls == nil {
		return nil, false
	}
	return &Facts{
		LoadTimeMs:      *lcp,
		InteractivityMs: *tbt,
		LayoutShift:     *cls,
		Source:          SourceLab,
	}, true
}
