// Package compare ranks a target's scores against its competitors.
package compare

import (
	"math"
	"sort"

	"github.com/FranksOps/seoscope/internal/scoring"
)

// Gap is the difference between the competitor average and the target on
// one pillar. A positive Gap means competitors are ahead.
type Gap struct {
	Pillar        scoring.Pillar `json:"pillar"`
	Target        int            `json:"target"`
	CompetitorAvg float64        `json:"competitorAvg"`
	Gap           float64        `json:"gap"`
}

// Result is the outcome of Compare.
type Result struct {
	// Rank is the 1-based position of the target by total score.
	Rank               int     `json:"rank"`
	Of                 int     `json:"of"`
	AvgCompetitorScore float64 `json:"avgCompetitorScore"`
	Gaps               []Gap   `json:"gaps"`
}

// Compare ranks target among competitors by total score, descending. Ties
// keep insertion order with the target first. With no competitors the target
// ranks first, the average is 0 and there are no gaps.
func Compare(target scoring.DetailedScores, competitors []scoring.DetailedScores) Result {
	res := Result{Rank: 1, Of: len(competitors) + 1, Gaps: []Gap{}}
	if len(competitors) == 0 {
		return res
	}

	all := make([]scoring.DetailedScores, 0, len(competitors)+1)
	all = append(all, target)
	all = append(all, competitors...)
	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return all[order[i]].Total > all[order[j]].Total
	})
	for pos, idx := range order {
		if idx == 0 {
			res.Rank = pos + 1
			break
		}
	}

	var totalSum float64
	for _, c := range competitors {
		totalSum += float64(c.Total)
	}
	res.AvgCompetitorScore = round1(totalSum / float64(len(competitors)))

	for _, p := range scoring.Pillars {
		var sum float64
		for _, c := range competitors {
			sum += float64(c.Pillar(p))
		}
		avg := sum / float64(len(competitors))
		res.Gaps = append(res.Gaps, Gap{
			Pillar:        p,
			Target:        target.Pillar(p),
			CompetitorAvg: round1(avg),
			Gap:           round1(avg - float64(target.Pillar(p))),
		})
	}
	return res
}

// Largest returns the gap where competitors lead by the most, or false when
// the target leads or ties on every pillar.
func (r Result) Largest() (Gap, bool) {
	var best Gap
	found := false
	for _, g := range r.Gaps {
		if g.Gap > 0 && (!found || g.Gap > best.Gap) {
			best, found = g, true
		}
	}
	return best, found
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
