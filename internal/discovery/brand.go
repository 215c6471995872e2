package discovery

import (
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
)

type qualifier struct {
	term   string
	intent Intent
	prefix bool
}

// brandQualifiers are appended to (or put in front of) the brand name.
var brandQualifiers = []qualifier{
	{term: "reviews", intent: IntentCommercial},
	{term: "pricing", intent: IntentCommercial},
	{term: "alternatives", intent: IntentCommercial},
	{term: "login", intent: IntentNavigational},
	{term: "support", intent: IntentNavigational},
	{term: "free trial", intent: IntentTransactional},
	{term: "what is", intent: IntentInformational, prefix: true},
}

// compoundSLDs are second-level labels that belong to the public suffix, as
// in co.uk or com.au.
var compoundSLDs = map[string]bool{
	"co": true, "com": true, "org": true, "net": true, "ac": true, "gov": true, "edu": true,
}

// Brand extracts the brand name from a domain: the registrable label with
// hyphens turned into spaces.
func Brand(domain string) string {
	labels := strings.Split(provider.NormalizeDomain(domain), ".")
	var label string
	switch n := len(labels); {
	case n == 1:
		label = labels[0]
	case n >= 3 && compoundSLDs[labels[n-2]] && len(labels[n-1]) == 2:
		label = labels[n-3]
	default:
		label = labels[n-2]
	}
	return strings.Join(tokens(label), " ")
}

// BrandVariants generates the deterministic brand keyword set for a domain:
// the brand, the brand with each qualifier, and the bare domain.
func BrandVariants(domain string) []Keyword {
	brand := Brand(domain)
	if brand == "" {
		return nil
	}

	out := []Keyword{brandKeyword(brand, IntentNavigational)}
	for _, q := range brandQualifiers {
		kw := brand + " " + q.term
		if q.prefix {
			kw = q.term + " " + brand
		}
		out = append(out, brandKeyword(kw, q.intent))
	}
	if d := provider.NormalizeDomain(domain); d != brand {
		out = append(out, brandKeyword(d, IntentNavigational))
	}
	return out
}

func brandKeyword(kw string, intent Intent) Keyword {
	return Keyword{
		Keyword:    kw,
		Type:       TypeBranded,
		Intent:     intent,
		Origin:     OriginBrand,
		Confidence: 1,
	}
}
