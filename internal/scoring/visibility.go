package scoring

import (
	"fmt"

	"github.com/FranksOps/seoscope/internal/provider"
)

// ScoreKeywordVisibility scores how much organic search demand the domain
// captures.
func ScoreKeywordVisibility(in Input) PillarResult {
	var kw provider.KeywordMetrics
	source := ""
	if in.Metrics != nil {
		kw = in.Metrics.Keywords
		source = string(in.Metrics.Source.Keywords)
	}

	top10 := kw.Top10
	avg := kw.AvgPosition
	if in.Keywords != nil {
		top10 = max(top10, in.Keywords.Summary.Top10)
		if avg == 0 {
			avg = in.Keywords.Summary.AvgPosition
		}
	}

	b := newBuilder(PillarKeywordVisibility)
	b.add(rankingKeywords(kw.Total, source))
	b.add(top10Keywords(top10))
	b.add(averagePosition(avg))
	b.add(estimatedTraffic(kw.EstimatedTraffic, source))
	return b.result()
}

func rankingKeywords(total int, source string) (string, float64, any, advice) {
	var score float64
	switch {
	case total >= 1000:
		score = 6
	case total >= 100:
		score = 4.5
	case total >= 10:
		score = 3
	case total > 0:
		score = 1.5
	}
	return MetricRankingKeywords, score, withSource(fmt.Sprintf("%d keywords", total), source), advice{
		fmt.Sprintf("The domain ranks for only %d keywords.", total),
		"Publish pages that target the questions and topics your customers search for.",
	}
}

func top10Keywords(top10 int) (string, float64, any, advice) {
	var score float64
	switch {
	case top10 >= 100:
		score = 6
	case top10 >= 20:
		score = 4.5
	case top10 >= 5:
		score = 3
	case top10 > 0:
		score = 1.5
	}
	return MetricTop10Keywords, score, top10, advice{
		fmt.Sprintf("Only %d keywords rank on the first page.", top10),
		"Improve the pages ranking in positions 11 to 20; they are closest to page one.",
	}
}

func averagePosition(avg float64) (string, float64, any, advice) {
	var score float64
	switch {
	case avg <= 0:
	case avg <= 10:
		score = 4
	case avg <= 20:
		score = 3
	case avg <= 50:
		score = 1.5
	}
	if avg <= 0 {
		return MetricAveragePosition, score, "no ranked keywords", advice{
			"No ranking positions are known for the domain.",
			"Target a focused set of keywords and track their positions.",
		}
	}
	return MetricAveragePosition, score, avg, advice{
		fmt.Sprintf("Keywords rank at position %.1f on average.", avg),
		"Consolidate overlapping pages and strengthen internal links to the best ones.",
	}
}

func estimatedTraffic(traffic int, source string) (string, float64, any, advice) {
	var score float64
	switch {
	case traffic >= 10000:
		score = 4
	case traffic >= 1000:
		score = 3
	case traffic >= 100:
		score = 2
	case traffic > 0:
		score = 1
	}
	return MetricEstimatedTraffic, score, withSource(fmt.Sprintf("%d visits/month", traffic), source), advice{
		fmt.Sprintf("Estimated organic traffic is %d visits per month.", traffic),
		"Focus on keywords with real search volume and commercial intent.",
	}
}
