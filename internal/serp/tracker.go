package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/seoscope/internal/metrics"
)

// DefaultDepth is how many results are inspected per lookup. A domain not
// found within the depth is reported as unranked.
const DefaultDepth = 100

// ErrNotConfigured is returned by a Tracker whose provider has no credentials.
var ErrNotConfigured = errors.New("serp: no provider configured")

// Lookup outcomes recorded in metrics.
const (
	OutcomeRanked   = "ranked"
	OutcomeUnranked = "unranked"
	OutcomeError    = "error"
)

// Tracker finds a domain's position for a keyword using one Provider.
type Tracker struct {
	provider Provider
	depth    int
	logger   *slog.Logger
}

// NewTracker creates a Tracker. depth <= 0 uses DefaultDepth.
func NewTracker(p Provider, depth int, logger *slog.Logger) *Tracker {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{provider: p, depth: depth, logger: logger}
}

// Available reports whether lookups can be made at all.
func (t *Tracker) Available() bool {
	return t != nil && t.provider != nil && t.provider.IsConfigured()
}

// Rank returns the 1-based position of domain for keyword, or ok=false when
// the domain does not appear within the lookup depth.
func (t *Tracker) Rank(ctx context.Context, keyword, domain string) (int, bool, error) {
	if !t.Available() {
		return 0, false, ErrNotConfigured
	}

	results, err := t.provider.Search(ctx, keyword, t.depth)
	if err != nil {
		metrics.RecordRankLookup(OutcomeError)
		t.logger.Warn("rank lookup failed", "provider", t.provider.Name(), "keyword", keyword, "err", err)
		return 0, false, fmt.Errorf("search %q: %w", keyword, err)
	}

	pos, ok := Position(results, domain)
	if !ok {
		metrics.RecordRankLookup(OutcomeUnranked)
		return 0, false, nil
	}
	metrics.RecordRankLookup(OutcomeRanked)
	return pos, true, nil
}
