// Package analyzer measures how the page text uses discovered keywords.
package analyzer

import (
	"strings"
	"unicode"
)

// maxSentences bounds the example sentences kept per keyword.
const maxSentences = 3

// Mention records occurrences of one keyword within page text.
type Mention struct {
	Keyword   string   `json:"keyword"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences,omitempty"`
}

// FindMentions scans text for each keyword, case-insensitively, and returns
// one Mention per keyword that occurs, in input order, with up to three of
// the sentences containing it. Sentences are split on '.', '!' and '?'.
func FindMentions(text string, keywords []string) []Mention {
	if len(text) == 0 || len(keywords) == 0 {
		return nil
	}

	lowerText := strings.ToLower(text)
	sentences := splitIntoSentences(text)

	results := make([]Mention, 0, len(keywords))
	for _, kw := range keywords {
		lowerKW := strings.ToLower(strings.TrimSpace(kw))
		if lowerKW == "" {
			continue
		}
		count := strings.Count(lowerText, lowerKW)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if len(matched) == maxSentences {
				break
			}
			if strings.Contains(s.lower, lowerKW) {
				matched = append(matched, s.original)
			}
		}

		results = append(results, Mention{
			Keyword:   kw,
			Count:     count,
			Sentences: matched,
		})
	}
	return results
}

// Coverage is the share of keywords that occur in text at least once.
func Coverage(mentions []Mention, keywords int) float64 {
	if keywords == 0 {
		return 0
	}
	return float64(len(mentions)) / float64(keywords)
}

// sentence holds original and lowercase versions together
type sentence struct {
	original string
	lower    string
}

// splitIntoSentences returns both original and lowercase sentences in one
// pass, keeping the delimiter at the end of each sentence.
func splitIntoSentences(text string) []sentence {
	// Estimate sentence count: roughly 1 sentence per 50 chars average
	estimated := len(text) / 50
	if estimated < 1 {
		estimated = 1
	}

	sentences := make([]sentence, 0, estimated)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, sentence{original: s, lower: strings.ToLower(s)})
		}
	}

	start := 0
	for i, r := range text {
		if i < start {
			continue
		}
		if r == '.' || r == '!' || r == '?' {
			// Include the delimiter
			end := i + 1
			// Include following whitespace
			for end < len(text) && unicode.IsSpace(rune(text[end])) {
				end++
			}
			add(text[start:end])
			start = end
		}
	}

	// Capture any trailing text
	if start < len(text) {
		add(text[start:])
	}

	return sentences
}
