package scoring

import (
	"fmt"

	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/provider"
)

// ScoreBrandRanking scores how visible and well regarded the brand is.
func ScoreBrandRanking(in Input) PillarResult {
	var backlinks provider.BacklinkMetrics
	source := ""
	if in.Metrics != nil {
		backlinks = in.Metrics.Backlinks
		source = string(in.Metrics.Source.Backlinks)
	}

	b := newBuilder(PillarBrandRanking)
	b.add(brandedRanking(in.Keywords))
	b.add(domainAuthority(backlinks, source))
	b.add(referringDomains(backlinks, source))
	b.add(brandSentiment(in))
	return b.result()
}

func brandedRanking(res *discovery.Result) (string, float64, any, advice) {
	best := 0
	if res != nil {
		for _, k := range res.Keywords {
			if k.Type != discovery.TypeBranded || k.Position == nil {
				continue
			}
			if best == 0 || *k.Position < best {
				best = *k.Position
			}
		}
	}

	var score float64
	switch {
	case best == 1:
		score = 8
	case best > 0 && best <= 3:
		score = 6
	case best > 0 && best <= 10:
		score = 4
	case best > 0:
		score = 2
	}
	if best == 0 {
		return MetricBrandedRanking, score, "not ranked", advice{
			"The site does not rank for its own brand name.",
			"Make the brand name prominent in the title, H1 and Organization markup of the home page.",
		}
	}
	return MetricBrandedRanking, score, fmt.Sprintf("best branded position: %d", best), advice{
		fmt.Sprintf("The site's best position for a brand search is %d.", best),
		"Strengthen brand signals so the site owns the first result for its name.",
	}
}

func authorityOf(m provider.BacklinkMetrics) float64 {
	return max(m.DomainAuthority, m.DomainRating)
}

func withSource(raw, source string) string {
	if source == "" {
		return raw
	}
	return fmt.Sprintf("%s (%s)", raw, source)
}

func domainAuthority(m provider.BacklinkMetrics, source string) (string, float64, any, advice) {
	authority := authorityOf(m)
	var score float64
	switch {
	case authority >= 60:
		score = 7
	case authority >= 40:
		score = 5
	case authority >= 20:
		score = 3
	case authority > 0:
		score = 1
	}
	return MetricDomainAuthority, score, withSource(fmt.Sprintf("%.0f", authority), source), advice{
		fmt.Sprintf("Domain authority of %.0f is low.", authority),
		"Earn editorial links from established sites in your industry.",
	}
}

func referringDomains(m provider.BacklinkMetrics, source string) (string, float64, any, advice) {
	var score float64
	switch n := m.ReferringDomains; {
	case n >= 1000:
		score = 5
	case n >= 100:
		score = 4
	case n >= 20:
		score = 2
	case n > 0:
		score = 1
	}
	return MetricReferringDomains, score, withSource(fmt.Sprintf("%d referring domains", m.ReferringDomains), source), advice{
		fmt.Sprintf("Only %d domains link to the site.", m.ReferringDomains),
		"Publish reference content others cite and pursue links from new domains.",
	}
}

func brandSentiment(in Input) (string, float64, any, advice) {
	if in.Sentiment == nil {
		return MetricBrandSentiment, 0, "unavailable", advice{
			"Brand sentiment could not be measured.",
			"Configure a sentiment provider to track how AI assistants describe the brand.",
		}
	}
	s := in.Sentiment.Score
	var score float64
	switch {
	case s >= 0.5:
		score = 5
	case s >= 0.1:
		score = 4
	case s > -0.1:
		score = 3
	case s > -0.5:
		score = 1.5
	}
	return MetricBrandSentiment, score, fmt.Sprintf("%.2f", s), advice{
		fmt.Sprintf("Brand sentiment is %.2f on a scale from -1 to 1.", s),
		"Address recurring complaints and publish reviews, case studies and testimonials.",
	}
}
