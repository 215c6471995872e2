package scoring

import (
	"fmt"
	"strings"

	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/internal/pagespeed"
)

// band maps a measurement to one of three point levels. Lower is better.
type band struct {
	good, needsImprovement float64
}

func (b band) points(v, limit float64) float64 {
	switch {
	case v <= b.good:
		return limit
	case v <= b.needsImprovement:
		return limit / 2
	}
	return 0
}

func (b band) label(v float64) string {
	switch {
	case v <= b.good:
		return "good"
	case v <= b.needsImprovement:
		return "needs improvement"
	}
	return "poor"
}

// Core Web Vitals thresholds. Lab runs measure Total Blocking Time instead
// of INP and use the Lighthouse TBT band.
var (
	loadTimeBand         = band{good: 2500, needsImprovement: 4000}
	interactivityBand    = band{good: 200, needsImprovement: 500}
	labInteractivityBand = band{good: 200, needsImprovement: 600}
	layoutShiftBand      = band{good: 0.1, needsImprovement: 0.25}
)

// ScoreAITrust scores the technical and editorial signals that make a page
// trustworthy to cite. Missing performance data scores in the poor band.
func ScoreAITrust(f page.Facts, perf *pagespeed.Facts) PillarResult {
	b := newBuilder(PillarAITrust)
	b.add(vital(MetricLoadTime, perf, loadTimeBand, func(p pagespeed.Facts) float64 { return p.LoadTimeMs }, "%.0f ms", advice{
		"The largest content element renders slowly.",
		"Compress and preload the hero image, and cut render-blocking scripts and styles.",
	}))
	b.add(vital(MetricInteractivity, perf, interactivityBandFor(perf), func(p pagespeed.Facts) float64 { return p.InteractivityMs }, "%.0f ms", advice{
		"The page responds slowly to input.",
		"Split long JavaScript tasks and defer scripts that are not needed at load.",
	}))
	b.add(vital(MetricLayoutStability, perf, layoutShiftBand, func(p pagespeed.Facts) float64 { return p.LayoutShift }, "%.3f", advice{
		"Content shifts while the page loads.",
		"Reserve space for images, embeds and ads with explicit dimensions.",
	}))
	b.add(https(f))
	b.add(authorship(f))
	b.add(trustPages(f))
	b.add(citations(f))
	return b.result()
}

func interactivityBandFor(perf *pagespeed.Facts) band {
	if perf != nil && perf.Source == pagespeed.SourceLab {
		return labInteractivityBand
	}
	return interactivityBand
}

func vital(name string, perf *pagespeed.Facts, bd band, measure func(pagespeed.Facts) float64, format string, a advice) (string, float64, any, advice) {
	limit := metricMax(PillarAITrust, name)
	if perf == nil {
		return name, 0, "unavailable", advice{
			"No performance data was available, so this metric is treated as poor.",
			"Enable the page performance check to measure Core Web Vitals.",
		}
	}
	v := measure(*perf)
	raw := fmt.Sprintf(format+" (%s)", v, bd.label(v))
	return name, bd.points(v, limit), raw, a
}

func https(f page.Facts) (string, float64, any, advice) {
	if f.HTTPS {
		return MetricHTTPS, 3, "yes", advice{}
	}
	return MetricHTTPS, 0, "no", advice{
		"The page is served over plain HTTP.",
		"Install a TLS certificate and redirect all HTTP traffic to HTTPS.",
	}
}

func authorship(f page.Facts) (string, float64, any, advice) {
	var score float64
	if f.Author != "" {
		score += 2
	}
	if f.PublishedDate {
		score += 2
	}
	author := f.Author
	if author == "" {
		author = "none"
	}
	raw := fmt.Sprintf("author: %s, date: %s", author, yesNo(f.PublishedDate))
	if f.Author == "" {
		return MetricAuthorship, score, raw, advice{
			"No author is named on the page.",
			"Add a visible byline linking to an author bio, plus author markup.",
		}
	}
	return MetricAuthorship, score, raw, advice{
		"The page has no publication or update date.",
		"Show the publication date and the last updated date.",
	}
}

var trustPageKinds = []string{"about", "contact", "privacy", "terms"}

func trustPages(f page.Facts) (string, float64, any, advice) {
	have := make(map[string]bool, len(f.TrustPages))
	for _, p := range f.TrustPages {
		have[p] = true
	}
	var missing []string
	for _, kind := range trustPageKinds {
		if !have[kind] {
			missing = append(missing, kind)
		}
	}
	score := float64(len(trustPageKinds) - len(missing))
	raw := "none"
	if len(f.TrustPages) > 0 {
		raw = strings.Join(f.TrustPages, ", ")
	}
	return MetricTrustPages, score, raw, advice{
		fmt.Sprintf("Missing links to: %s.", strings.Join(missing, ", ")),
		"Link about, contact, privacy and terms pages from every page, usually in the footer.",
	}
}

func citations(f page.Facts) (string, float64, any, advice) {
	var score float64
	switch {
	case f.Citations >= 5:
		score = 4
	case f.Citations >= 2:
		score = 2.5
	case f.Citations == 1:
		score = 1
	}
	return MetricCitations, score, fmt.Sprintf("%d external sources", f.Citations), advice{
		fmt.Sprintf("The page cites %d external sources.", f.Citations),
		"Back claims with links to primary sources, studies and official documentation.",
	}
}
