package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/pkg/ratelimit"
)

const (
	DefaultMaxChecks  = 20
	DefaultMaxRelated = 5
)

// Generator proposes content-derived keyword candidates for a page.
type Generator interface {
	Candidates(ctx context.Context, facts page.Facts) ([]Candidate, error)
}

// PathIndex lists URLs already known for a site, such as the entries of
// its sitemap. site is an origin like https://example.com.
type PathIndex interface {
	Paths(ctx context.Context, site string) ([]string, error)
}

// RankChecker finds the position of domain for a keyword. ok is false when
// the domain is not ranked within the lookup depth.
type RankChecker interface {
	Rank(ctx context.Context, keyword, domain string) (pos int, ok bool, err error)
}

// Config wires the engine's collaborators. Any of Generator, Paths and Ranks
// may be nil; the corresponding step is skipped.
type Config struct {
	Generator Generator
	Paths     PathIndex
	Ranks     RankChecker
	// Limiter gates successive rank lookups. Nil means no delay.
	Limiter *ratelimit.Limiter
	// MaxChecks caps rank lookups per discovery run.
	MaxChecks int
	// MaxRelated caps related keywords mined from similar pages.
	MaxRelated int
	Logger     *slog.Logger
}

// Engine runs keyword discovery.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// Summary aggregates a discovery run.
type Summary struct {
	Total              int            `json:"total"`
	Checked            int            `json:"checked"`
	Answered           int            `json:"answered"`
	Ranked             int            `json:"ranked"`
	Top10              int            `json:"top10"`
	Top100             int            `json:"top100"`
	AvgPosition        float64        `json:"avgPosition"`
	IntentDistribution map[Intent]int `json:"intentDistribution"`
	DominantIntent     Intent         `json:"dominantIntent"`
}

// Result is the output of Discover.
type Result struct {
	Keywords []Keyword `json:"keywords"`
	Summary  Summary   `json:"summary"`
	Warnings []string  `json:"warnings"`
}

// New creates an Engine.
func New(cfg Config) *Engine {
	if cfg.MaxChecks <= 0 {
		cfg.MaxChecks = DefaultMaxChecks
	}
	if cfg.MaxRelated < 0 {
		cfg.MaxRelated = 0
	} else if cfg.MaxRelated == 0 {
		cfg.MaxRelated = DefaultMaxRelated
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Discover builds the keyword set for the page at target on domain. It never
// fails; collaborator problems become warnings.
func (e *Engine) Discover(ctx context.Context, target, domain string, facts page.Facts) Result {
	res := Result{Warnings: []string{}}

	keywords := BrandVariants(domain)

	var paths []string
	if e.cfg.Paths != nil {
		p, err := e.cfg.Paths.Paths(ctx, siteOrigin(target, domain))
		if err != nil {
			e.logger.Warn("indexed paths unavailable", "domain", domain, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("indexed paths unavailable: %v", err))
		}
		paths = p
	}

	if e.cfg.Generator != nil {
		candidates, err := e.cfg.Generator.Candidates(ctx, facts)
		if err != nil {
			e.logger.Warn("keyword generation failed", "domain", domain, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("keyword generation failed: %v", err))
		}
		keywords = append(keywords, Filter(e.validate(candidates, paths, Brand(domain)))...)
	}

	if len(paths) > 0 {
		keywords = append(keywords, Related(pagePath(target), paths, e.cfg.MaxRelated)...)
	}

	keywords = dedupe(keywords)
	checked, answered, warnings := e.checkRanks(ctx, keywords, domain)
	res.Warnings = append(res.Warnings, warnings...)

	res.Keywords = keywords
	res.Summary = Summarize(keywords)
	res.Summary.Checked = checked
	res.Summary.Answered = answered
	return res
}

func (e *Engine) validate(candidates []Candidate, paths []string, brand string) []Keyword {
	out := make([]Keyword, 0, len(candidates))
	for _, c := range candidates {
		kw := normalizeKeyword(c.Keyword)
		if kw == "" {
			continue
		}
		intent, ok := ParseIntent(c.Intent)
		if !ok {
			intent = ClassifyIntent(kw)
		}
		typ := TypeNonBranded
		if brand != "" && containsPhrase(kw, brand) {
			typ = TypeBranded
		}
		out = append(out, Keyword{
			Keyword:    kw,
			Type:       typ,
			Intent:     intent,
			Origin:     OriginContent,
			Confidence: Validate(kw, paths),
		})
	}
	return out
}

// checkRanks looks keywords up one at a time, in order, until MaxChecks is
// reached. Every lookup after the first waits on the limiter. It returns the
// number of lookups attempted and the number that returned without error.
func (e *Engine) checkRanks(ctx context.Context, keywords []Keyword, domain string) (int, int, []string) {
	if e.cfg.Ranks == nil {
		return 0, 0, nil
	}

	var warnings []string
	checked, failures := 0, 0
	for i := range keywords {
		if i >= e.cfg.MaxChecks {
			e.logger.Debug("rank check cap reached", "domain", domain, "cap", e.cfg.MaxChecks, "skipped", len(keywords)-i)
			break
		}
		if e.cfg.Limiter != nil {
			if err := e.cfg.Limiter.Wait(ctx); err != nil {
				warnings = append(warnings, fmt.Sprintf("rank checks stopped: %v", err))
				break
			}
		}

		checked++
		pos, ok, err := e.cfg.Ranks.Rank(ctx, keywords[i].Keyword, domain)
		if err != nil {
			failures++
			continue
		}
		if ok {
			p := pos
			keywords[i].Position = &p
			keywords[i].InTop10 = pos <= 10
			keywords[i].InTop100 = pos <= 100
		}
	}
	if failures > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rank lookups failed", failures))
	}
	return checked, checked - failures, warnings
}

// Summarize computes ranking counts, the average position over ranked
// keywords only, and the intent distribution. Checked and Answered are left to
// the caller.
func Summarize(keywords []Keyword) Summary {
	s := Summary{
		Total:              len(keywords),
		IntentDistribution: make(map[Intent]int, len(Intents)),
	}
	for _, i := range Intents {
		s.IntentDistribution[i] = 0
	}

	sum := 0
	for _, k := range keywords {
		s.IntentDistribution[k.Intent]++
		if k.Position == nil {
			continue
		}
		s.Ranked++
		sum += *k.Position
		if k.InTop10 {
			s.Top10++
		}
		if k.InTop100 {
			s.Top100++
		}
	}
	if s.Ranked > 0 {
		s.AvgPosition = math.Round(float64(sum)/float64(s.Ranked)*10) / 10
	}
	s.DominantIntent = DominantIntent(s.IntentDistribution)
	return s
}

// DominantIntent returns the intent with the highest count. Ties go to the
// intent earlier in Intents.
func DominantIntent(dist map[Intent]int) Intent {
	best := Intents[0]
	for _, i := range Intents[1:] {
		if dist[i] > dist[best] {
			best = i
		}
	}
	return best
}

func dedupe(keywords []Keyword) []Keyword {
	seen := make(map[string]bool, len(keywords))
	out := keywords[:0]
	for _, k := range keywords {
		key := normalizeKeyword(k.Keyword)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out
}

func containsPhrase(s, phrase string) bool {
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}

func siteOrigin(target, domain string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "https://" + domain
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

func pagePath(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// SortByPosition orders keywords ranked first by ascending position, then
// unranked keywords in their original order.
func SortByPosition(keywords []Keyword) {
	sort.SliceStable(keywords, func(i, j int) bool {
		a, b := keywords[i].Position, keywords[j].Position
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}
