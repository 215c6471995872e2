// Package dataforseo implements the keyword family on top of the DataForSEO
// Labs domain rank overview endpoint.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "dataforseo"
	DefaultEndpoint = "https://api.dataforseo.com"
	overviewPath    = "/v3/dataforseo_labs/google/domain_rank_overview/live"
)

var _ provider.Adapter[provider.KeywordMetrics] = (*Adapter)(nil)

// Config holds DataForSEO credentials.
type Config struct {
	Login        string
	Password     string
	Endpoint     string
	LocationCode int
	LanguageCode string
}

// Adapter fetches organic keyword metrics from DataForSEO.
type Adapter struct {
	cfg    Config
	client *httpclient.Client
}

// New creates an Adapter. Missing endpoint and locale fall back to the US
// English Google database.
func New(cfg Config, client *httpclient.Client) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.LocationCode == 0 {
		cfg.LocationCode = 2840
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) IsConfigured() bool {
	return a.cfg.Login != "" && a.cfg.Password != ""
}

type overviewTask struct {
	Target       string `json:"target"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
}

// organic mirrors the position buckets DataForSEO reports per domain.
type organic struct {
	Pos1      int     `json:"pos_1"`
	Pos2_3    int     `json:"pos_2_3"`
	Pos4_10   int     `json:"pos_4_10"`
	Pos11_20  int     `json:"pos_11_20"`
	Pos21_30  int     `json:"pos_21_30"`
	Pos31_40  int     `json:"pos_31_40"`
	Pos41_50  int     `json:"pos_41_50"`
	Pos51_60  int     `json:"pos_51_60"`
	Pos61_70  int     `json:"pos_61_70"`
	Pos71_80  int     `json:"pos_71_80"`
	Pos81_90  int     `json:"pos_81_90"`
	Pos91_100 int     `json:"pos_91_100"`
	ETV       float64 `json:"etv"`
	Count     int     `json:"count"`
}

type overviewResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Result        []struct {
			Items []struct {
				Metrics struct {
					Organic *organic `json:"organic"`
				} `json:"metrics"`
			} `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

func (a *Adapter) Fetch(ctx context.Context, domain string) provider.Result[provider.KeywordMetrics] {
	if !a.IsConfigured() {
		return provider.Fail[provider.KeywordMetrics](provider.NotConfigured(Name))
	}

	payload, err := json.Marshal([]overviewTask{{
		Target:       domain,
		LocationCode: a.cfg.LocationCode,
		LanguageCode: a.cfg.LanguageCode,
	}})
	if err != nil {
		return provider.Fail[provider.KeywordMetrics](provider.NewError(Name, provider.KindMalformed, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(a.cfg.Endpoint, "/")+overviewPath, bytes.NewReader(payload))
	if err != nil {
		return provider.Fail[provider.KeywordMetrics](provider.NewError(Name, provider.KindUpstream, err))
	}
	req.SetBasicAuth(a.cfg.Login, a.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	var resp overviewResponse
	if perr := provider.CallJSON(ctx, a.client, Name, req, &resp); perr != nil {
		return provider.Fail[provider.KeywordMetrics](perr)
	}

	m, perr := toMetrics(resp)
	if perr != nil {
		return provider.Fail[provider.KeywordMetrics](perr)
	}
	return provider.Ok(m)
}

// toMetrics converts the raw response. DataForSEO reports failures inside a
// 200 response as five-digit status codes, so those are classified here.
func toMetrics(resp overviewResponse) (provider.KeywordMetrics, *provider.Error) {
	if perr := statusError(resp.StatusCode, resp.StatusMessage); perr != nil {
		return provider.KeywordMetrics{}, perr
	}
	if len(resp.Tasks) == 0 {
		return provider.KeywordMetrics{}, provider.Empty(Name)
	}
	task := resp.Tasks[0]
	if perr := statusError(task.StatusCode, task.StatusMessage); perr != nil {
		return provider.KeywordMetrics{}, perr
	}
	if len(task.Result) == 0 || len(task.Result[0].Items) == 0 || task.Result[0].Items[0].Metrics.Organic == nil {
		return provider.KeywordMetrics{}, provider.Empty(Name)
	}

	o := task.Result[0].Items[0].Metrics.Organic
	top10 := o.Pos1 + o.Pos2_3 + o.Pos4_10
	top100 := top10 + o.Pos11_20 + o.Pos21_30 + o.Pos31_40 + o.Pos41_50 +
		o.Pos51_60 + o.Pos61_70 + o.Pos71_80 + o.Pos81_90 + o.Pos91_100

	total := o.Count
	if total == 0 {
		total = top100
	}

	return provider.KeywordMetrics{
		Total:            total,
		Top10:            top10,
		Top100:           top100,
		AvgPosition:      weightedPosition(o),
		EstimatedTraffic: int(math.Round(o.ETV)),
	}, nil
}

// bucketMidpoints weights each bucket by a representative position. This is a
// weighted midpoint per bucket, not a true mean of the underlying positions.
var bucketMidpoints = []float64{1, 2.5, 7, 15.5, 25.5, 35.5, 45.5, 55.5, 65.5, 75.5, 85.5, 95.5}

// weightedPosition returns the bucket-midpoint average position rounded to one
// decimal, or 0 when no bucket is populated.
func weightedPosition(o *organic) float64 {
	counts := []int{o.Pos1, o.Pos2_3, o.Pos4_10, o.Pos11_20, o.Pos21_30, o.Pos31_40,
		o.Pos41_50, o.Pos51_60, o.Pos61_70, o.Pos71_80, o.Pos81_90, o.Pos91_100}

	var sum float64
	var n int
	for i, c := range counts {
		sum += float64(c) * bucketMidpoints[i]
		n += c
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*10) / 10
}

func statusError(code int, msg string) *provider.Error {
	if code == 0 || code == 20000 {
		return nil
	}
	err := fmt.Errorf("status %d: %s", code, msg)
	switch code / 100 {
	case 401:
		return provider.NewError(Name, provider.KindAuthFailed, err)
	case 402:
		return provider.NewError(Name, provider.KindQuotaExhausted, err)
	case 429:
		return provider.NewError(Name, provider.KindRateLimited, err)
	case 404:
		return provider.NewError(Name, provider.KindEmptyResult, err)
	default:
		return provider.NewError(Name, provider.KindUpstream, err)
	}
}
