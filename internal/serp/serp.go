// Package serp looks up where a domain ranks in search results for a keyword.
package serp

import (
	"context"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
)

// Result is one organic search result.
type Result struct {
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
}

// Provider abstracts a search engine results source. Implementations may use
// an official API or a results proxy. The limit parameter caps the number of
// results returned.
type Provider interface {
	Name() string
	IsConfigured() bool
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Position returns the 1-based position of the first result belonging to
// domain or one of its subdomains.
func Position(results []Result, domain string) (int, bool) {
	domain = provider.NormalizeDomain(domain)
	for i, r := range results {
		host := r.Domain
		if host == "" {
			host = r.URL
		}
		host = provider.NormalizeDomain(host)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			pos := r.Position
			if pos <= 0 {
				pos = i + 1
			}
			return pos, true
		}
	}
	return 0, false
}
