package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/page"
)

const (
	maxPromptWords   = 600
	defaultMaxTopics = 10
)

var _ discovery.Generator = (*KeywordGenerator)(nil)

const keywordSystemPrompt = `You are an SEO analyst. From the page content provided, list the search
queries this page could realistically rank for. Respond with a JSON object
{"keywords":[{"keyword":"...","intent":"informational|commercial|transactional|navigational"}]}.
Use lowercase queries of 2 to 5 words. Do not include the brand name alone.`

// KeywordGenerator proposes content-derived keyword candidates.
type KeywordGenerator struct {
	client *Client
	limit  int
}

// NewKeywordGenerator creates a generator returning at most limit candidates.
func NewKeywordGenerator(client *Client, limit int) *KeywordGenerator {
	if limit <= 0 {
		limit = defaultMaxTopics
	}
	return &KeywordGenerator{client: client, limit: limit}
}

type keywordAnswer struct {
	Keywords []discovery.Candidate `json:"keywords"`
}

// Candidates implements discovery.Generator. An unconfigured client yields
// no candidates without error.
func (g *KeywordGenerator) Candidates(ctx context.Context, facts page.Facts) ([]discovery.Candidate, error) {
	if !g.client.IsConfigured() {
		return nil, nil
	}

	var ans keywordAnswer
	if err := g.client.CompleteJSON(ctx, keywordSystemPrompt, keywordPrompt(facts, g.limit), &ans); err != nil {
		return nil, err
	}

	out := make([]discovery.Candidate, 0, len(ans.Keywords))
	for _, c := range ans.Keywords {
		if strings.TrimSpace(c.Keyword) == "" {
			continue
		}
		out = append(out, c)
		if len(out) == g.limit {
			break
		}
	}
	return out, nil
}

func keywordPrompt(f page.Facts, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Return at most %d keywords.\n", limit)
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n", f.URL, f.Title)
	if f.MetaDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", f.MetaDescription)
	}
	for _, h := range f.H1 {
		fmt.Fprintf(&b, "H1: %s\n", h)
	}
	for _, h := range f.H2 {
		fmt.Fprintf(&b, "H2: %s\n", h)
	}
	words := strings.Fields(f.MainText)
	if len(words) > maxPromptWords {
		words = words[:maxPromptWords]
	}
	fmt.Fprintf(&b, "Content: %s\n", strings.Join(words, " "))
	return b.String()
}
