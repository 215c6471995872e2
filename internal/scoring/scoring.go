// Package scoring turns page facts, performance facts and aggregated provider
// metrics into four capped pillar scores with per-metric explanations.
//
// Every function here is pure: the same Input always yields the same
// DetailedScores.
package scoring

import (
	"math"

	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/llm"
	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/internal/pagespeed"
	"github.com/FranksOps/seoscope/internal/provider"
)

// Pillar is a top-level scoring category.
type Pillar string

const (
	PillarContentStructure  Pillar = "contentStructure"
	PillarBrandRanking      Pillar = "brandRanking"
	PillarKeywordVisibility Pillar = "keywordVisibility"
	PillarAITrust           Pillar = "aiTrust"
)

// Pillars lists the pillars in report order.
var Pillars = []Pillar{PillarContentStructure, PillarBrandRanking, PillarKeywordVisibility, PillarAITrust}

// MaxTotal caps the overall score.
const MaxTotal = 100

// GoodRatio is the share of a metric's maximum at or above which no insight
// or recommendation is attached.
const GoodRatio = 0.7

var pillarMax = map[Pillar]int{
	PillarContentStructure:  30,
	PillarBrandRanking:      25,
	PillarKeywordVisibility: 20,
	PillarAITrust:           25,
}

var pillarLabels = map[Pillar]string{
	PillarContentStructure:  "Content Structure",
	PillarBrandRanking:      "Brand Ranking",
	PillarKeywordVisibility: "Keyword Visibility",
	PillarAITrust:           "AI Trust",
}

// Max returns the point budget of p.
func (p Pillar) Max() int { return pillarMax[p] }

// Label returns the display name of p.
func (p Pillar) Label() string { return pillarLabels[p] }

// MetricValue is the score of one sub-metric. Insight and Recommendation are
// set only when Score is below GoodRatio of Max.
type MetricValue struct {
	Score          float64 `json:"score"`
	Max            float64 `json:"max"`
	RawValue       any     `json:"rawValue,omitempty"`
	Insight        string  `json:"insight,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Breakdown maps sub-metric names to their values.
type Breakdown map[string]MetricValue

// PillarResult is the output of one pillar function.
type PillarResult struct {
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// DetailedScores is the complete result of scoring one page.
type DetailedScores struct {
	Total             int                  `json:"total"`
	ContentStructure  int                  `json:"contentStructure"`
	BrandRanking      int                  `json:"brandRanking"`
	KeywordVisibility int                  `json:"keywordVisibility"`
	AITrust           int                  `json:"aiTrust"`
	Breakdown         map[Pillar]Breakdown `json:"breakdown"`
	DataSource        map[string]bool      `json:"dataSource"`
}

// Pillar returns the score of p.
func (d DetailedScores) Pillar(p Pillar) int {
	switch p {
	case PillarContentStructure:
		return d.ContentStructure
	case PillarBrandRanking:
		return d.BrandRanking
	case PillarKeywordVisibility:
		return d.KeywordVisibility
	case PillarAITrust:
		return d.AITrust
	}
	return 0
}

// PillarScores returns the pillar scores keyed by pillar name.
func (d DetailedScores) PillarScores() map[string]float64 {
	out := make(map[string]float64, len(Pillars))
	for _, p := range Pillars {
		out[string(p)] = float64(d.Pillar(p))
	}
	return out
}

// Input gathers everything a scan measured. Nil fields mean the signal was
// unavailable and score at their most conservative value.
type Input struct {
	Page        page.Facts
	Performance *pagespeed.Facts
	Metrics     *provider.UnifiedMetrics
	Keywords    *discovery.Result
	Sentiment   *llm.Sentiment
	DataSource  map[string]bool
}

// Score scores every pillar and composes the result.
func Score(in Input) DetailedScores {
	content := ScoreContentStructure(in.Page)
	brand := ScoreBrandRanking(in)
	visibility := ScoreKeywordVisibility(in)
	trust := ScoreAITrust(in.Page, in.Performance)

	dataSource := make(map[string]bool, len(in.DataSource))
	for k, v := range in.DataSource {
		dataSource[k] = v
	}

	return DetailedScores{
		Total:             Total(content.Score, brand.Score, visibility.Score, trust.Score),
		ContentStructure:  content.Score,
		BrandRanking:      brand.Score,
		KeywordVisibility: visibility.Score,
		AITrust:           trust.Score,
		Breakdown: map[Pillar]Breakdown{
			PillarContentStructure:  content.Breakdown,
			PillarBrandRanking:      brand.Breakdown,
			PillarKeywordVisibility: visibility.Breakdown,
			PillarAITrust:           trust.Breakdown,
		},
		DataSource: dataSource,
	}
}

// Total sums pillar scores and caps the result at MaxTotal.
func Total(pillars ...int) int {
	sum := 0
	for _, s := range pillars {
		sum += s
	}
	if sum > MaxTotal {
		return MaxTotal
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// CapPillar rounds a summed pillar score and caps it at the pillar maximum.
func CapPillar(p Pillar, sum float64) int {
	s := int(math.Round(sum))
	if s > p.Max() {
		return p.Max()
	}
	if s < 0 {
		return 0
	}
	return s
}

// CapMetric bounds a sub-metric score to [0, limit], rounded to one decimal.
func CapMetric(score, limit float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > limit {
		score = limit
	}
	return math.Round(score*10) / 10
}

// builder accumulates the sub-metrics of one pillar.
type builder struct {
	pillar    Pillar
	breakdown Breakdown
	sum       float64
}

func newBuilder(p Pillar) *builder {
	return &builder{pillar: p, breakdown: make(Breakdown)}
}

// add records a sub-metric. The advice is dropped when the capped score is
// good.
func (b *builder) add(name string, score float64, raw any, a advice) {
	limit := metricMax(b.pillar, name)
	mv := MetricValue{Score: CapMetric(score, limit), Max: limit, RawValue: raw}
	if mv.Score < GoodRatio*limit {
		mv.Insight = a.insight
		mv.Recommendation = a.recommendation
	}
	b.breakdown[name] = mv
	b.sum += mv.Score
}

func (b *builder) result() PillarResult {
	return PillarResult{Score: CapPillar(b.pillar, b.sum), Breakdown: b.breakdown}
}

// advice is the insight and recommendation for one threshold band.
type advice struct {
	insight        string
	recommendation string
}
