package scoring

// Sub-metric names.
const (
	MetricSchemaMarkup      = "schemaMarkup"
	MetricHeadingStructure  = "headingStructure"
	MetricMultimodalContent = "multimodalContent"
	MetricTablesLists       = "tablesLists"
	MetricDirectAnswer      = "directAnswer"
	MetricContentDepth      = "contentDepth"

	MetricBrandedRanking   = "brandedRanking"
	MetricDomainAuthority  = "domainAuthority"
	MetricReferringDomains = "referringDomains"
	MetricBrandSentiment   = "brandSentiment"

	MetricRankingKeywords  = "rankingKeywords"
	MetricTop10Keywords    = "top10Keywords"
	MetricAveragePosition  = "averagePosition"
	MetricEstimatedTraffic = "estimatedTraffic"

	MetricLoadTime        = "loadTime"
	MetricInteractivity   = "interactivity"
	MetricLayoutStability = "layoutStability"
	MetricHTTPS           = "https"
	MetricAuthorship      = "authorship"
	MetricTrustPages      = "trustPages"
	MetricCitations       = "citations"
)

// Definition declares one sub-metric: where it belongs, its point budget and
// the title used when it needs work.
type Definition struct {
	Pillar Pillar
	Name   string
	Max    float64
	Title  string
}

// definitions is in report order. The maxima of each pillar add up to the
// pillar maximum.
var definitions = []Definition{
	{PillarContentStructure, MetricSchemaMarkup, 6, "Add structured data"},
	{PillarContentStructure, MetricHeadingStructure, 6, "Fix the heading hierarchy"},
	{PillarContentStructure, MetricMultimodalContent, 4, "Enrich the page with media"},
	{PillarContentStructure, MetricTablesLists, 4, "Structure facts as tables and lists"},
	{PillarContentStructure, MetricDirectAnswer, 5, "Answer questions directly"},
	{PillarContentStructure, MetricContentDepth, 5, "Expand the content"},

	{PillarBrandRanking, MetricBrandedRanking, 8, "Win your brand searches"},
	{PillarBrandRanking, MetricDomainAuthority, 7, "Build domain authority"},
	{PillarBrandRanking, MetricReferringDomains, 5, "Earn links from more domains"},
	{PillarBrandRanking, MetricBrandSentiment, 5, "Improve brand perception"},

	{PillarKeywordVisibility, MetricRankingKeywords, 6, "Rank for more keywords"},
	{PillarKeywordVisibility, MetricTop10Keywords, 6, "Push keywords onto page one"},
	{PillarKeywordVisibility, MetricAveragePosition, 4, "Raise the average ranking position"},
	{PillarKeywordVisibility, MetricEstimatedTraffic, 4, "Grow organic traffic"},

	{PillarAITrust, MetricLoadTime, 4, "Speed up page load"},
	{PillarAITrust, MetricInteractivity, 3, "Reduce input delay"},
	{PillarAITrust, MetricLayoutStability, 3, "Stop layout shifts"},
	{PillarAITrust, MetricHTTPS, 3, "Serve the site over HTTPS"},
	{PillarAITrust, MetricAuthorship, 4, "Show who wrote the content and when"},
	{PillarAITrust, MetricTrustPages, 4, "Link the pages that establish trust"},
	{PillarAITrust, MetricCitations, 4, "Cite your sources"},
}

// Definitions returns every sub-metric in report order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

func metricMax(p Pillar, name string) float64 {
	for _, d := range definitions {
		if d.Pillar == p && d.Name == name {
			return d.Max
		}
	}
	return 0
}
