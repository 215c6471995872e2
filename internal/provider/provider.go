// Package provider defines the contract between the cascading aggregator and
// the third-party data providers it consults, together with the metric shapes
// each provider family produces.
package provider

import "context"

// Family names a logical metric that several providers can supply.
type Family string

const (
	FamilyKeywords  Family = "keywords"
	FamilyBacklinks Family = "backlinks"
	FamilyAuthority Family = "authority"
)

// SourceTag records which position in a family's cascade produced the
// accepted metrics, or that the heuristic estimate was used.
type SourceTag string

const (
	SourcePrimary   SourceTag = "primary"
	SourceSecondary SourceTag = "secondary"
	SourceTertiary  SourceTag = "tertiary"
	SourceEstimate  SourceTag = "estimate"
)

// TagForPosition maps a zero-based cascade position to its tag. Positions past
// the third are still reported as tertiary.
func TagForPosition(i int) SourceTag {
	switch i {
	case 0:
		return SourcePrimary
	case 1:
		return SourceSecondary
	default:
		return SourceTertiary
	}
}

// Metrics is implemented by every family payload. Usable reports whether the
// payload carries data worth accepting; an adapter that answers without error
// but with an unusable payload does not stop the cascade.
type Metrics interface {
	Usable() bool
}

// KeywordMetrics summarizes the organic keywords a domain ranks for.
type KeywordMetrics struct {
	Total            int            `json:"total"`
	Top10            int            `json:"top10"`
	Top100           int            `json:"top100"`
	AvgPosition      float64        `json:"avgPosition"`
	EstimatedTraffic int            `json:"estimatedTraffic"`
	IntentBreakdown  map[string]int `json:"intentBreakdown,omitempty"`
}

func (m KeywordMetrics) Usable() bool { return m.Total > 0 }

// BacklinkMetrics summarizes the link graph pointing at a domain.
type BacklinkMetrics struct {
	Total            int     `json:"total"`
	ReferringDomains int     `json:"referringDomains"`
	DomainRating     float64 `json:"domainRating"`
	DomainAuthority  float64 `json:"domainAuthority"`
}

func (m BacklinkMetrics) Usable() bool { return m.ReferringDomains > 0 }

// HasAuthority reports whether either authority figure is populated.
func (m BacklinkMetrics) HasAuthority() bool {
	return m.DomainRating > 0 || m.DomainAuthority > 0
}

// AuthorityMetrics carries only a 0-100 authority score. Enrichment adapters
// produce it to fill gaps in an already accepted BacklinkMetrics.
type AuthorityMetrics struct {
	DomainAuthority float64 `json:"domainAuthority"`
}

func (m AuthorityMetrics) Usable() bool { return m.DomainAuthority > 0 }

// Result is the outcome of one adapter call: either metrics or an error,
// never both.
type Result[T Metrics] struct {
	Metrics T
	Err     *Error
}

// Ok wraps successful metrics.
func Ok[T Metrics](m T) Result[T] {
	return Result[T]{Metrics: m}
}

// Fail wraps a provider error.
func Fail[T Metrics](err *Error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Adapter is one provider's implementation of a metric family.
type Adapter[T Metrics] interface {
	// Name is a stable lowercase identifier used in logs, metrics and the
	// dataSource map of a scan.
	Name() string
	// IsConfigured reports whether credentials are present. Unconfigured
	// adapters are skipped without a network call.
	IsConfigured() bool
	// Fetch retrieves metrics for a bare domain. Failures are returned in the
	// Result, never panicked or logged by the adapter itself.
	Fetch(ctx context.Context, domain string) Result[T]
}

// Sources records the provenance of each family in a UnifiedMetrics.
type Sources struct {
	Keywords  SourceTag `json:"keywords"`
	Backlinks SourceTag `json:"backlinks"`
}

// Providers records which adapter, by name, produced each family. The estimate
// path is recorded as "estimate".
type Providers struct {
	Keywords  string `json:"keywords"`
	Backlinks string `json:"backlinks"`
	Authority string `json:"authority,omitempty"`
}

// UnifiedMetrics is the provider-independent view of one aggregation run.
type UnifiedMetrics struct {
	Domain    string          `json:"domain"`
	Keywords  KeywordMetrics  `json:"keywords"`
	Backlinks BacklinkMetrics `json:"backlinks"`
	Source    Sources         `json:"source"`
	Providers Providers       `json:"providers"`
	Errors    []string        `json:"errors"`
}

// DataSource reports, per adapter name, whether that adapter contributed data.
func (u UnifiedMetrics) DataSource(names ...string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = n == u.Providers.Keywords || n == u.Providers.Backlinks || n == u.Providers.Authority
	}
	return out
}
