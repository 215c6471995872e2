// Package page extracts the measurable facts the scoring engine and keyword
// discovery work from: headings, structured data, media, tables and lists,
// answer-style paragraphs, authorship, trust pages and outbound citations.
package page

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Facts is everything measured on one HTML document. Zero values are the
// conservative defaults used when a page could not be read.
type Facts struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	HTTPS  bool   `json:"https"`

	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription,omitempty"`

	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`

	// SchemaTypes are the distinct JSON-LD and microdata types on the page.
	SchemaTypes []string `json:"schemaTypes"`

	Images        int `json:"images"`
	ImagesWithAlt int `json:"imagesWithAlt"`
	Videos        int `json:"videos"`
	Audio         int `json:"audio"`
	Tables        int `json:"tables"`
	Lists         int `json:"lists"`

	// MainText is the readable article text, falling back to the body text.
	MainText  string `json:"-"`
	WordCount int    `json:"wordCount"`

	// QuestionHeadings counts headings phrased as a question.
	QuestionHeadings int `json:"questionHeadings"`
	// AnswerParagraphs counts short paragraphs that directly follow a heading
	// and could be quoted as a self-contained answer.
	AnswerParagraphs int  `json:"answerParagraphs"`
	FAQ              bool `json:"faq"`

	Author        string `json:"author,omitempty"`
	PublishedDate bool   `json:"publishedDate"`

	// TrustPages lists which of about, contact, privacy and terms are linked.
	TrustPages []string `json:"trustPages"`

	InternalLinks int `json:"internalLinks"`
	// Citations counts outbound links to other registrable hosts.
	Citations int `json:"citations"`
}

// HeadingSummary renders heading counts for reports, e.g. "H1: 1, H2: 4, H3: 9".
func (f Facts) HeadingSummary() string {
	return fmt.Sprintf("H1: %d, H2: %d, H3: %d", len(f.H1), len(f.H2), len(f.H3))
}

// HasSchema reports whether any of the given types is present.
func (f Facts) HasSchema(types ...string) bool {
	for _, have := range f.SchemaTypes {
		for _, want := range types {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

var trustPatterns = map[string]*regexp.Regexp{
	"about":   regexp.MustCompile(`(?i)(^|/)(about|about-us|company|team)(/|$|\.)`),
	"contact": regexp.MustCompile(`(?i)(^|/)(contact|contact-us|support)(/|$|\.)`),
	"privacy": regexp.MustCompile(`(?i)(^|/)(privacy|privacy-policy)(/|$|\.)`),
	"terms":   regexp.MustCompile(`(?i)(^|/)(terms|terms-of-service|tos|legal)(/|$|\.)`),
}

var questionWords = []string{"what", "why", "how", "when", "where", "who", "which", "can", "does", "is", "are", "should"}

const (
	answerMinWords = 20
	answerMaxWords = 80
)

// Parse measures an HTML document fetched from rawURL.
func Parse(rawURL string, body []byte) (Facts, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return Facts{}, fmt.Errorf("parse url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Facts{}, fmt.Errorf("parse html: %w", err)
	}

	f := Facts{
		URL:         rawURL,
		Domain:      provider.NormalizeDomain(base.Host),
		HTTPS:       strings.EqualFold(base.Scheme, "https"),
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		SchemaTypes: []string{},
		TrustPages:  []string{},
	}
	f.MetaDescription, _ = doc.Find(`meta[name="description"]`).Attr("content")

	f.H1 = texts(doc.Find("h1"))
	f.H2 = texts(doc.Find("h2"))
	f.H3 = texts(doc.Find("h3"))

	f.SchemaTypes = schemaTypes(doc)
	f.FAQ = f.HasSchema("FAQPage", "QAPage") || doc.Find("details summary").Length() > 1

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		f.Images++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			f.ImagesWithAlt++
		}
	})
	f.Videos = doc.Find("video").Length() + doc.Find(`iframe[src*="youtube"], iframe[src*="vimeo"]`).Length()
	f.Audio = doc.Find("audio").Length()
	f.Tables = doc.Find("table").Length()
	f.Lists = doc.Find("ul, ol").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("nav, header, footer").Length() == 0
	}).Length()

	f.QuestionHeadings, f.AnswerParagraphs = answers(doc)

	f.Author = author(doc)
	f.PublishedDate = doc.Find(`meta[property="article:published_time"], time[datetime]`).Length() > 0 ||
		doc.Find(`[itemprop="datePublished"]`).Length() > 0

	f.InternalLinks, f.Citations, f.TrustPages = links(doc, base, f.Domain)

	f.MainText = mainText(body, base)
	if f.MainText == "" {
		f.MainText = strings.TrimSpace(doc.Find("body").Text())
	}
	f.WordCount = len(strings.Fields(f.MainText))

	return f, nil
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.Join(strings.Fields(s.Text()), " "))
	})
	return out
}

func schemaTypes(doc *goquery.Document) []string {
	seen := make(map[string]bool)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		collectTypes(v, seen)
	})

	doc.Find("[itemtype]").Each(func(_ int, s *goquery.Selection) {
		it, _ := s.Attr("itemtype")
		for _, t := range strings.Fields(it) {
			if i := strings.LastIndex(t, "/"); i >= 0 {
				t = t[i+1:]
			}
			if t != "" {
				seen[t] = true
			}
		}
	})

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// collectTypes walks a decoded JSON-LD value, including @graph arrays.
func collectTypes(v any, seen map[string]bool) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectTypes(item, seen)
		}
	case map[string]any:
		switch typ := t["@type"].(type) {
		case string:
			seen[typ] = true
		case []any:
			for _, x := range typ {
				if s, ok := x.(string); ok {
					seen[s] = true
				}
			}
		}
		for k, child := range t {
			if k == "@type" || k == "@context" {
				continue
			}
			collectTypes(child, seen)
		}
	}
}

func answers(doc *goquery.Document) (questions, paragraphs int) {
	doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		if isQuestion(h.Text()) {
			questions++
		}
		p := h.NextFiltered("p")
		if p.Length() == 0 {
			return
		}
		n := len(strings.Fields(p.Text()))
		if n >= answerMinWords && n <= answerMaxWords {
			paragraphs++
		}
	})
	return questions, paragraphs
}

func isQuestion(heading string) bool {
	h := strings.ToLower(strings.TrimSpace(heading))
	if strings.HasSuffix(h, "?") {
		return true
	}
	first, _, _ := strings.Cut(h, " ")
	for _, w := range questionWords {
		if first == w {
			return true
		}
	}
	return false
}

func author(doc *goquery.Document) string {
	if a, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	if s := doc.Find(`[rel="author"], [itemprop="author"], .author, .byline`).First(); s.Length() > 0 {
		if a := strings.Join(strings.Fields(s.Text()), " "); a != "" {
			return a
		}
	}
	return ""
}

func links(doc *goquery.Document, base *url.URL, domain string) (internal, citations int, trust []string) {
	found := make(map[string]bool)
	cited := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := base.ResolveReference(u)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		host := provider.NormalizeDomain(resolved.Host)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			internal++
			for name, re := range trustPatterns {
				if re.MatchString(resolved.Path) {
					found[name] = true
				}
			}
			return
		}
		if !cited[host] {
			cited[host] = true
			citations++
		}
	})

	for _, name := range []string{"about", "contact", "privacy", "terms"} {
		if found[name] {
			trust = append(trust, name)
		}
	}
	if trust == nil {
		trust = []string{}
	}
	return internal, citations, trust
}

// mainText runs readability over the document. Failures fall back to the
// raw body text in the caller.
func mainText(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
