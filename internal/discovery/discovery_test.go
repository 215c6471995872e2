package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/pkg/ratelimit"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	candidates []Candidate
	err        error
}

func (g fakeGenerator) Candidates(context.Context, page.Facts) ([]Candidate, error) {
	return g.candidates, g.err
}

type fakePaths []string

func (p fakePaths) Paths(context.Context, string) ([]string, error) { return p, nil }

type failingPaths struct{}

func (failingPaths) Paths(context.Context, string) ([]string, error) {
	return nil, errors.New("sitemap 404")
}

type fakeRanks struct {
	mu        sync.Mutex
	positions map[string]int
	errs      map[string]bool
	calls     []string
}

func (r *fakeRanks) Rank(_ context.Context, keyword, _ string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, keyword)
	if r.errs[keyword] {
		return 0, false, errors.New("quota")
	}
	pos, ok := r.positions[keyword]
	return pos, ok, nil
}

func TestBrand(t *testing.T) {
	tests := map[string]string{
		"acme.com":                "acme",
		"https://www.acme.com/x":  "acme",
		"shop.acme-widgets.co.uk": "acme widgets",
		"localhost":               "localhost",
		"blog.example.io":         "example",
		"münchen.de":              "münchen",
		"www.café-crème.fr":       "café crème",
		"例え.jp":                   "例え",
	}
	for in, want := range tests {
		assert.Equal(t, want, Brand(in), in)
	}
}

func TestBrandVariants(t *testing.T) {
	kws := BrandVariants("www.acme.com")
	require.Len(t, kws, len(brandQualifiers)+2)

	assert.Equal(t, "acme", kws[0].Keyword)
	assert.Equal(t, IntentNavigational, kws[0].Intent)
	assert.Equal(t, "acme reviews", kws[1].Keyword)
	assert.Equal(t, IntentCommercial, kws[1].Intent)
	assert.Equal(t, "what is acme", kws[len(kws)-2].Keyword)
	assert.Equal(t, "acme.com", kws[len(kws)-1].Keyword)
	for _, k := range kws {
		assert.Equal(t, TypeBranded, k.Type)
		assert.Equal(t, OriginBrand, k.Origin)
	}

	assert.Equal(t, kws, BrandVariants("acme.com"), "variants are deterministic")
}

func TestClassifyIntent(t *testing.T) {
	tests := map[string]Intent{
		"buy widgets online":   IntentTransactional,
		"best widgets 2024":    IntentCommercial,
		"acme login":           IntentNavigational,
		"how widgets are made": IntentInformational,
		"Widget pricing?":      IntentCommercial,
		"topology of widgets":  IntentInformational,
	}
	for kw, want := range tests {
		assert.Equal(t, want, ClassifyIntent(kw), kw)
	}
}

func TestValidate(t *testing.T) {
	paths := []string{
		"https://acme.com/blog/widget-pricing-guide",
		"/docs/install-widgets.html",
		"/products/blue-widget",
	}

	assert.Equal(t, ConfidenceExact, Validate("install widgets", paths))
	assert.Equal(t, ConfidencePartial, Validate("blue widget colors", paths))
	assert.Equal(t, ConfidenceDefault, Validate("quantum computing", paths), "silent signal")
	assert.Equal(t, ConfidenceDefault, Validate("install widgets", nil), "unavailable signal")
	assert.Equal(t, ConfidenceContradicted, Validate("the and of", paths))
	assert.Equal(t, ConfidenceDefault, Validate("acme", paths), "host is not a path segment")
}

func TestValidate_NonLatin(t *testing.T) {
	paths := []string{
		"https://example.jp/%E6%97%A5%E6%9C%AC%E8%AA%9E-%E5%AD%A6%E7%BF%92",
		"/fr/café-crème-recette",
	}

	tests := []struct {
		keyword string
		paths   []string
		want    float64
	}{
		{"日本語 学習", nil, ConfidenceDefault},
		{"日本語 学習", paths, ConfidenceExact},
		{"café crème", paths, ConfidencePartial},
		{"Café Crème Recette", paths, ConfidenceExact},
		{"читать книги", paths, ConfidenceDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Validate(tt.keyword, tt.paths), tt.keyword)
	}

	kept := Filter([]Keyword{{Keyword: "日本語 学習", Origin: OriginContent, Confidence: Validate("日本語 学習", nil)}})
	assert.Len(t, kept, 1)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Blue Widgets!": "blue-widgets",
		"café crème":    "café-crème",
		"日本語 学習":        "日本語-学習",
		"नमस्ते दुनिया": "नमस्ते-दुनिया",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestFilter_Threshold(t *testing.T) {
	kws := []Keyword{
		{Keyword: "below", Origin: OriginContent, Confidence: 0.29},
		{Keyword: "at", Origin: OriginContent, Confidence: 0.30},
		{Keyword: "brand", Origin: OriginBrand, Confidence: 0},
		{Keyword: "zero", Origin: OriginContent, Confidence: 0},
	}

	got := Filter(kws)
	var names []string
	for _, k := range got {
		names = append(names, k.Keyword)
	}
	assert.Equal(t, []string{"at", "brand"}, names)
}

func TestRelated(t *testing.T) {
	paths := []string{
		"/blog/widget-care-tips",
		"/blog/choosing-a-widget",
		"/blog/2024",
		"/blog/widget-care-tips?utm=x",
		"/blog/current-post",
		"/docs/setup-guide",
		"/blog/archive/old-post",
		"/blog/a1-b2-c3",
		"/blog/more-widget-ideas",
		"/blog/widget-history",
		"/blog/widget-faq-list",
	}

	kws := Related("/blog/current-post", paths, 5)
	require.Len(t, kws, 5)
	assert.Equal(t, "a1 b2 c3", kws[0].Keyword)
	assert.Equal(t, "choosing a widget", kws[1].Keyword)
	for _, k := range kws {
		assert.Equal(t, ConfidenceRelated, k.Confidence)
		assert.Equal(t, IntentInformational, k.Intent)
		assert.Equal(t, OriginRelated, k.Origin)
		assert.NotEqual(t, "current post", k.Keyword)
	}

	root := Related("/", []string{"/pricing-plans", "/blog/x-y", "/about"}, 5)
	require.Len(t, root, 1)
	assert.Equal(t, "pricing plans", root[0].Keyword)
}

func TestDominantIntent_TieBreak(t *testing.T) {
	assert.Equal(t, IntentCommercial, DominantIntent(map[Intent]int{
		IntentCommercial:    3,
		IntentTransactional: 3,
		IntentNavigational:  1,
	}))
	assert.Equal(t, IntentInformational, DominantIntent(map[Intent]int{
		IntentInformational: 2,
		IntentNavigational:  2,
	}))
	assert.Equal(t, IntentInformational, DominantIntent(map[Intent]int{}))
}

func TestSummarize(t *testing.T) {
	pos := func(i int) *int { return &i }
	kws := []Keyword{
		{Keyword: "a", Intent: IntentCommercial, Position: pos(3), InTop10: true, InTop100: true},
		{Keyword: "b", Intent: IntentCommercial, Position: pos(40), InTop100: true},
		{Keyword: "c", Intent: IntentInformational},
		{Keyword: "d", Intent: IntentNavigational, Position: pos(8), InTop10: true, InTop100: true},
	}

	s := Summarize(kws)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Ranked)
	assert.Equal(t, 2, s.Top10)
	assert.Equal(t, 3, s.Top100)
	assert.Equal(t, 17.0, s.AvgPosition, "unranked keywords do not count toward the average")
	assert.Equal(t, IntentCommercial, s.DominantIntent)
	assert.Equal(t, 1, s.IntentDistribution[IntentInformational])
	assert.Equal(t, 0, s.IntentDistribution[IntentTransactional])
}

func TestDiscover(t *testing.T) {
	ranks := &fakeRanks{
		positions: map[string]int{"acme": 1, "install widgets": 14, "acme pricing": 4},
		errs:      map[string]bool{"acme login": true},
	}
	e := New(Config{
		Generator: fakeGenerator{candidates: []Candidate{
			{Keyword: "Install  Widgets", Intent: "informational"},
			{Keyword: "quantum computing"},
			{Keyword: "the of"},
			{Keyword: "acme pricing"},
			{Keyword: "buy acme widgets", Intent: "nonsense"},
		}},
		Paths: fakePaths{"/docs/install-widgets", "/docs/widget-sizing-chart", "/docs/getting-started"},
		Ranks: ranks,
	})

	res := e.Discover(context.Background(), "https://acme.com/docs/getting-started", "acme.com", page.Facts{})

	byName := make(map[string]Keyword)
	for _, k := range res.Keywords {
		byName[k.Keyword] = k
	}

	require.Contains(t, byName, "install widgets")
	assert.Equal(t, ConfidenceExact, byName["install widgets"].Confidence)
	assert.Equal(t, OriginContent, byName["install widgets"].Origin)
	require.NotNil(t, byName["install widgets"].Position)
	assert.Equal(t, 14, *byName["install widgets"].Position)
	assert.False(t, byName["install widgets"].InTop10)
	assert.True(t, byName["install widgets"].InTop100)

	assert.Equal(t, ConfidenceDefault, byName["quantum computing"].Confidence)
	assert.NotContains(t, byName, "the of", "contradicted candidates are filtered")

	assert.Equal(t, OriginBrand, byName["acme pricing"].Origin, "brand variant wins the dedupe")
	assert.Equal(t, TypeBranded, byName["buy acme widgets"].Type)
	assert.Equal(t, IntentTransactional, byName["buy acme widgets"].Intent)

	require.Contains(t, byName, "widget sizing chart")
	assert.Equal(t, OriginRelated, byName["widget sizing chart"].Origin)

	assert.Nil(t, byName["acme login"].Position)
	assert.Contains(t, res.Warnings, "1 rank lookups failed")

	assert.Equal(t, len(res.Keywords), res.Summary.Checked)
	assert.Equal(t, res.Summary.Checked-1, res.Summary.Answered)
	assert.Equal(t, 3, res.Summary.Ranked)
	assert.Equal(t, 2, res.Summary.Top10)
	assert.Equal(t, 6.3, res.Summary.AvgPosition)
	assert.Equal(t, ranks.calls[0], "acme", "lookups follow keyword order")
}

func TestDiscover_CollaboratorsFail(t *testing.T) {
	e := New(Config{
		Generator: fakeGenerator{err: errors.New("llm down")},
		Paths:     failingPaths{},
	})

	res := e.Discover(context.Background(), "https://acme.com/", "acme.com", page.Facts{})

	assert.Len(t, res.Keywords, len(BrandVariants("acme.com")))
	assert.Len(t, res.Warnings, 2)
	assert.Zero(t, res.Summary.Checked)
	assert.Zero(t, res.Summary.AvgPosition)
}

func TestDiscover_AllLookupsFail(t *testing.T) {
	ranks := &fakeRanks{errs: map[string]bool{}}
	for _, k := range BrandVariants("acme.com") {
		ranks.errs[k.Keyword] = true
	}
	e := New(Config{Ranks: ranks})

	res := e.Discover(context.Background(), "https://acme.com/", "acme.com", page.Facts{})
	assert.Equal(t, len(res.Keywords), res.Summary.Checked)
	assert.Zero(t, res.Summary.Answered)
	assert.Zero(t, res.Summary.Ranked)
}

func TestDiscover_CapAndRateLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ranks := &fakeRanks{}
	e := New(Config{
		Ranks:     ranks,
		Limiter:   ratelimit.Every(time.Second, 0, ratelimit.WithClock(clock)),
		MaxChecks: 3,
	})

	done := make(chan Result, 1)
	go func() {
		done <- e.Discover(context.Background(), "https://acme.com/", "acme.com", page.Facts{})
	}()

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		cancel()

		ranks.mu.Lock()
		assert.Len(t, ranks.calls, i+1, "next lookup waits for the gate")
		ranks.mu.Unlock()

		clock.Advance(time.Second)
	}

	select {
	case res := <-done:
		assert.Equal(t, 3, res.Summary.Checked)
		assert.Len(t, ranks.calls, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("discovery did not finish")
	}
}

func TestDiscover_CancelledLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := New(Config{
		Ranks:   &fakeRanks{},
		Limiter: ratelimit.Every(time.Hour, 0, ratelimit.WithClock(clock)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- e.Discover(ctx, "https://acme.com/", "acme.com", page.Facts{}) }()

	bctx, bcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer bcancel()
	require.NoError(t, clock.BlockUntilContext(bctx, 1))
	cancel()

	res := <-done
	assert.Equal(t, 1, res.Summary.Checked)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "rank checks stopped")
}
