package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Priority ranks recommendations.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// Recommendation is one action derived from a low-scoring sub-metric.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Impact      string   `json:"impact,omitempty"`
	Pillar      Pillar   `json:"pillar"`
	Metric      string   `json:"metric"`
}

// PriorityFor maps the points a sub-metric left on the table to a priority.
func PriorityFor(lost float64) Priority {
	switch {
	case lost >= 4:
		return PriorityHigh
	case lost >= 2:
		return PriorityMedium
	}
	return PriorityLow
}

// Recommendations derives the action list from scores: one entry per
// sub-metric that carries a recommendation, highest priority and largest
// gain first, report order otherwise.
func Recommendations(d DetailedScores) []Recommendation {
	type item struct {
		rec  Recommendation
		lost float64
	}
	var items []item
	for _, def := range definitions {
		mv, ok := d.Breakdown[def.Pillar][def.Name]
		if !ok || mv.Recommendation == "" {
			continue
		}
		lost := math.Round((def.Max-mv.Score)*10) / 10
		items = append(items, item{
			rec: Recommendation{
				Title:       def.Title,
				Description: mv.Recommendation,
				Priority:    PriorityFor(lost),
				Impact:      fmt.Sprintf("up to +%s points in %s", formatPoints(lost), def.Pillar.Label()),
				Pillar:      def.Pillar,
				Metric:      def.Name,
			},
			lost: lost,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].rec.Priority.rank(), items[j].rec.Priority.rank()
		if pi != pj {
			return pi < pj
		}
		return items[i].lost > items[j].lost
	})

	out := make([]Recommendation, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
