package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const sentimentSystemPrompt = `You assess how a brand is perceived online. Respond with a JSON object
{"score": number between -1 and 1, "mentions": "none|few|many", "summary": "one sentence"}.
Score 0 when you know nothing about the brand.`

// Sentiment is the generative assessment of how a brand is perceived.
type Sentiment struct {
	// Score runs from -1 (negative) to 1 (positive).
	Score    float64 `json:"score"`
	Mentions string  `json:"mentions"`
	Summary  string  `json:"summary"`
}

// BrandSentiment asks the model how brand is perceived.
func (c *Client) BrandSentiment(ctx context.Context, brand, domain string) (*Sentiment, error) {
	var s Sentiment
	user := fmt.Sprintf("Brand: %s\nWebsite: %s", brand, domain)
	if err := c.CompleteJSON(ctx, sentimentSystemPrompt, user, &s); err != nil {
		return nil, err
	}
	if math.IsNaN(s.Score) {
		s.Score = 0
	}
	s.Score = math.Max(-1, math.Min(1, s.Score))
	s.Mentions = strings.ToLower(strings.TrimSpace(s.Mentions))
	return &s, nil
}
