package discovery

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// Confidence levels assigned by validation.
const (
	ConfidenceExact        = 0.9
	ConfidencePartial      = 0.6
	ConfidenceDefault      = 0.3
	ConfidenceContradicted = 0.0
	ConfidenceRelated      = 0.4

	// MinConfidence is the lowest confidence a content-derived keyword may
	// have and still be kept.
	MinConfidence = 0.3
)

// Validate scores a candidate against the indexed URL paths of the domain.
// A nil or empty path set means the signal is unavailable.
func Validate(keyword string, paths []string) float64 {
	words := significant(tokens(keyword))
	if len(words) == 0 {
		return ConfidenceContradicted
	}
	if len(paths) == 0 {
		return ConfidenceDefault
	}

	slug := Slug(keyword)
	best := ConfidenceDefault
	for _, p := range paths {
		p = cleanPath(p)
		for _, seg := range segments(p) {
			if seg == slug {
				return ConfidenceExact
			}
		}
		if overlaps(words, significant(tokens(p))) {
			best = ConfidencePartial
		}
	}
	return best
}

// overlaps reports whether at least half of want (rounded up) appear in have.
func overlaps(want, have []string) bool {
	if len(have) == 0 {
		return false
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	hits := 0
	for _, w := range want {
		if set[w] {
			hits++
		}
	}
	return hits > 0 && hits*2 >= len(want)
}

// segments splits a decoded URL path into lowercase segments with file
// extensions removed.
func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(strings.ToLower(p), "/") {
		s = strings.TrimSuffix(s, path.Ext(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Filter drops content-derived keywords below MinConfidence. Brand variants
// are never dropped.
func Filter(keywords []Keyword) []Keyword {
	out := make([]Keyword, 0, len(keywords))
	for _, k := range keywords {
		if k.Origin == OriginBrand || k.Confidence >= MinConfidence {
			out = append(out, k)
		}
	}
	return out
}

// Related mines keywords from pages structurally similar to pagePath: pages
// under the same parent directory, or top-level pages for a root page.
func Related(pagePath string, paths []string, limit int) []Keyword {
	if limit <= 0 {
		return nil
	}

	self := cleanPath(pagePath)
	parent := path.Dir(self)

	var names []string
	seen := make(map[string]bool)
	for _, p := range paths {
		cp := cleanPath(p)
		if cp == self || path.Dir(cp) != parent {
			continue
		}
		segs := segments(cp)
		if len(segs) == 0 {
			continue
		}
		words := relatedWords(segs[len(segs)-1])
		if len(words) < 2 {
			continue
		}
		kw := strings.Join(words, " ")
		if !seen[kw] {
			seen[kw] = true
			names = append(names, kw)
		}
	}
	sort.Strings(names)

	if len(names) > limit {
		names = names[:limit]
	}
	out := make([]Keyword, 0, len(names))
	for _, kw := range names {
		out = append(out, Keyword{
			Keyword:    kw,
			Type:       TypeNonBranded,
			Intent:     IntentInformational,
			Origin:     OriginRelated,
			Confidence: ConfidenceRelated,
		})
	}
	return out
}

func relatedWords(segment string) []string {
	var out []string
	for _, w := range tokens(segment) {
		if strings.Trim(w, "0123456789") == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

func cleanPath(p string) string {
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if j := strings.Index(p, "/"); j >= 0 {
			p = p[j:]
		} else {
			p = "/"
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if u, err := url.PathUnescape(p); err == nil {
		p = u
	}
	if p == "" {
		p = "/"
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
