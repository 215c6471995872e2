package aggregator

import (
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
)

// institutionalTLDs are restricted registries whose sites reliably attract
// links and rankings even when no provider data is available.
var institutionalTLDs = map[string]bool{
	"gov": true,
	"edu": true,
	"mil": true,
	"int": true,
}

func estimateMultiplier(domain string) int {
	d := provider.NormalizeDomain(domain)
	tld := d
	if i := strings.LastIndex(d, "."); i >= 0 {
		tld = d[i+1:]
	}
	if institutionalTLDs[tld] {
		return 5
	}
	return 1
}

// EstimateKeywords is the provider-independent fallback for the keyword
// family. It depends only on the domain.
func EstimateKeywords(domain string) provider.KeywordMetrics {
	m := estimateMultiplier(domain)
	total := 10 * m
	return provider.KeywordMetrics{
		Total:            total,
		Top10:            total / 5,
		Top100:           total,
		AvgPosition:      45,
		EstimatedTraffic: total * 2,
	}
}

// EstimateBacklinks is the provider-independent fallback for the backlink
// family. It depends only on the domain.
func EstimateBacklinks(domain string) provider.BacklinkMetrics {
	m := estimateMultiplier(domain)
	refDomains := 5 * m
	authority := float64(10 * m)
	if authority > 100 {
		authority = 100
	}
	return provider.BacklinkMetrics{
		Total:            refDomains * 4,
		ReferringDomains: refDomains,
		DomainRating:     authority,
		DomainAuthority:  authority,
	}
}

// Estimate returns metrics built entirely from the estimate path, for callers
// that have no provider result to use.
func Estimate(domain string) provider.UnifiedMetrics {
	return provider.UnifiedMetrics{
		Domain:    domain,
		Keywords:  EstimateKeywords(domain),
		Backlinks: EstimateBacklinks(domain),
		Source:    provider.Sources{Keywords: provider.SourceEstimate, Backlinks: provider.SourceEstimate},
		Providers: provider.Providers{
			Keywords:  string(provider.SourceEstimate),
			Backlinks: string(provider.SourceEstimate),
		},
		Errors: []string{},
	}
}
