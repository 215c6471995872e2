// Package discovery finds the keywords a site should be visible for, scores
// how well each candidate is corroborated, and checks where the site ranks.
package discovery

import (
	"strings"
	"unicode"
)

// Type separates brand searches from everything else.
type Type string

const (
	TypeBranded    Type = "branded"
	TypeNonBranded Type = "non-branded"
)

// Intent is the search intent behind a keyword.
type Intent string

const (
	IntentInformational Intent = "informational"
	IntentCommercial    Intent = "commercial"
	IntentTransactional Intent = "transactional"
	IntentNavigational  Intent = "navigational"
)

// Intents is the fixed enumeration order. It breaks ties for the dominant
// intent.
var Intents = []Intent{IntentInformational, IntentCommercial, IntentTransactional, IntentNavigational}

// ParseIntent returns the intent named by s, or false.
func ParseIntent(s string) (Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, i := range Intents {
		if string(i) == s {
			return i, true
		}
	}
	return "", false
}

// Origin records which discovery step produced a keyword.
type Origin string

const (
	OriginBrand   Origin = "brand"
	OriginContent Origin = "content"
	OriginRelated Origin = "related"
)

// Keyword is one discovered keyword. Position is nil when the keyword was not
// checked or the site did not rank within the lookup depth.
type Keyword struct {
	Keyword    string  `json:"keyword"`
	Type       Type    `json:"type"`
	Intent     Intent  `json:"intent"`
	Origin     Origin  `json:"origin"`
	Confidence float64 `json:"confidence"`
	Position   *int    `json:"position"`
	InTop10    bool    `json:"inTop10"`
	InTop100   bool    `json:"inTop100"`
}

// Candidate is a content-derived keyword suggestion. Intent may be empty.
type Candidate struct {
	Keyword string `json:"keyword"`
	Intent  string `json:"intent,omitempty"`
}

var intentTerms = []struct {
	intent Intent
	terms  []string
}{
	{IntentTransactional, []string{"buy", "order", "coupon", "discount", "deal", "cheap", "download", "subscribe", "free trial", "sign up", "purchase"}},
	{IntentCommercial, []string{"best", "top", "review", "reviews", "vs", "versus", "compare", "comparison", "alternative", "alternatives", "pricing", "price", "cost"}},
	{IntentNavigational, []string{"login", "log in", "sign in", "contact", "support", "account", "dashboard", "website", "official"}},
}

// ClassifyIntent infers intent from qualifier terms, defaulting to
// informational.
func ClassifyIntent(keyword string) Intent {
	padded := " " + strings.Join(tokens(keyword), " ") + " "
	for _, it := range intentTerms {
		for _, term := range it.terms {
			if strings.Contains(padded, " "+term+" ") {
				return it.intent
			}
		}
	}
	return IntentInformational
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "for": true, "to": true,
	"in": true, "on": true, "with": true, "is": true, "are": true, "how": true, "what": true,
	"your": true, "you": true, "by": true, "at": true, "or": true, "from": true, "vs": true,
}

// tokens splits a keyword or path segment into lowercase words of letters,
// digits and combining marks in any script.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
}

// significant drops stop words.
func significant(words []string) []string {
	out := words[:0:0]
	for _, w := range words {
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// Slug is the URL path form of a keyword.
func Slug(keyword string) string {
	return strings.Join(tokens(keyword), "-")
}
