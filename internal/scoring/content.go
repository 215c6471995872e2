package scoring

import (
	"fmt"
	"strings"

	"github.com/FranksOps/seoscope/internal/page"
)

// schemaFamilies earn a point each on top of the base point for having any
// structured data. Each inner list counts once.
var schemaFamilies = [][]string{
	{"Organization", "LocalBusiness", "Corporation", "Person"},
	{"Article", "BlogPosting", "NewsArticle", "TechArticle", "Product", "Service"},
	{"FAQPage", "QAPage", "HowTo"},
	{"BreadcrumbList", "WebSite", "WebPage"},
}

// headingCapWithoutSingleH1 bounds the heading score of pages with zero or
// several H1s below the single-H1 band.
const headingCapWithoutSingleH1 = 3

// ScoreContentStructure scores how machine-readable the page is.
func ScoreContentStructure(f page.Facts) PillarResult {
	b := newBuilder(PillarContentStructure)
	b.add(schemaMarkup(f))
	b.add(headingStructure(f))
	b.add(multimodalContent(f))
	b.add(tablesLists(f))
	b.add(directAnswer(f))
	b.add(contentDepth(f))
	return b.result()
}

func schemaMarkup(f page.Facts) (string, float64, any, advice) {
	if len(f.SchemaTypes) == 0 {
		return MetricSchemaMarkup, 0, "none", advice{
			"No structured data found; AI systems cannot identify what the page describes.",
			"Add JSON-LD markup for the organization and the page type (Article, Product, FAQPage).",
		}
	}
	score := 2.0
	for _, family := range schemaFamilies {
		if f.HasSchema(family...) {
			score++
		}
	}
	return MetricSchemaMarkup, score, strings.Join(f.SchemaTypes, ", "), advice{
		"Structured data is present but covers few entity types.",
		"Extend the markup with Organization, BreadcrumbList and FAQPage or HowTo types where they apply.",
	}
}

func headingStructure(f page.Facts) (string, float64, any, advice) {
	h1, h2, h3 := len(f.H1), len(f.H2), len(f.H3)
	raw := f.HeadingSummary()

	var score float64
	if h1 == 1 {
		score = 4
	}
	if h2 > 0 {
		score++
	}
	if h1 == 1 && h2 > 0 && h3 > 0 {
		score++
	}

	switch {
	case h1 == 0:
		score = min(score, headingCapWithoutSingleH1)
		return MetricHeadingStructure, score, raw, advice{
			"Missing H1: the page has no top-level heading naming its topic.",
			"Add exactly one H1 that states the main topic of the page.",
		}
	case h1 > 1:
		score = min(score+2, headingCapWithoutSingleH1)
		return MetricHeadingStructure, score, raw, advice{
			fmt.Sprintf("Found %d H1 headings; the page should have exactly one.", h1),
			"Keep a single H1 and demote the others to H2.",
		}
	}
	return MetricHeadingStructure, score, raw, advice{
		"Content is not divided into H2 sections.",
		"Break the content into sections with descriptive H2 and H3 subheadings.",
	}
}

func multimodalContent(f page.Facts) (string, float64, any, advice) {
	var score float64
	if f.Images > 0 {
		score++
		if float64(f.ImagesWithAlt) >= 0.8*float64(f.Images) {
			score++
		}
	}
	if f.Videos > 0 {
		score += 1.5
	}
	if f.Audio > 0 {
		score += 0.5
	}
	raw := fmt.Sprintf("images: %d (%d with alt), videos: %d, audio: %d", f.Images, f.ImagesWithAlt, f.Videos, f.Audio)

	if f.Images > 0 && float64(f.ImagesWithAlt) < 0.8*float64(f.Images) {
		return MetricMultimodalContent, score, raw, advice{
			fmt.Sprintf("Only %d of %d images have alt text.", f.ImagesWithAlt, f.Images),
			"Describe every meaningful image with alt text and add a video or diagram for key concepts.",
		}
	}
	return MetricMultimodalContent, score, raw, advice{
		"The page is mostly text with little supporting media.",
		"Add images with alt text and a video or diagram for key concepts.",
	}
}

func tablesLists(f page.Facts) (string, float64, any, advice) {
	var score float64
	if f.Tables > 0 {
		score += 2
	}
	switch {
	case f.Lists >= 2:
		score += 2
	case f.Lists == 1:
		score++
	}
	return MetricTablesLists, score, fmt.Sprintf("tables: %d, lists: %d", f.Tables, f.Lists), advice{
		"Few facts are laid out as tables or lists, which AI answers extract most easily.",
		"Present comparisons as tables and steps or features as lists.",
	}
}

func directAnswer(f page.Facts) (string, float64, any, advice) {
	var score float64
	switch {
	case f.AnswerParagraphs >= 3:
		score = 3
	case f.AnswerParagraphs >= 1:
		score = 2
	}
	if f.QuestionHeadings > 0 {
		score++
	}
	if f.FAQ {
		score++
	}
	raw := fmt.Sprintf("answer paragraphs: %d, question headings: %d, FAQ: %s", f.AnswerParagraphs, f.QuestionHeadings, yesNo(f.FAQ))

	if f.AnswerParagraphs == 0 {
		return MetricDirectAnswer, score, raw, advice{
			"No concise answer paragraphs follow the headings.",
			"Open each section with a 40 to 60 word paragraph that answers its heading directly.",
		}
	}
	return MetricDirectAnswer, score, raw, advice{
		"Few headings are phrased as the questions people ask.",
		"Phrase key headings as questions and add an FAQ section.",
	}
}

func contentDepth(f page.Facts) (string, float64, any, advice) {
	var score float64
	switch {
	case f.WordCount >= 1500:
		score = 5
	case f.WordCount >= 800:
		score = 4
	case f.WordCount >= 300:
		score = 2
	case f.WordCount > 0:
		score = 1
	}
	return MetricContentDepth, score, fmt.Sprintf("%d words", f.WordCount), advice{
		fmt.Sprintf("Thin content: %d words of main text.", f.WordCount),
		"Cover the topic in depth with at least 800 words of original content.",
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
