// Package storage persists scan records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/FranksOps/seoscope/internal/analyzer"
	"github.com/FranksOps/seoscope/internal/compare"
	"github.com/FranksOps/seoscope/internal/discovery"
	"github.com/FranksOps/seoscope/internal/scoring"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("scan record not found")

// Competitor is the outcome of scanning one competitor URL.
type Competitor struct {
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
	Total  int    `json:"total"`
	Error  string `json:"error,omitempty"`
}

// ScanRecord is the persisted result of one scan.
type ScanRecord struct {
	ID              string                   `json:"id"`
	URL             string                   `json:"url"`
	Domain          string                   `json:"domain"`
	Scores          scoring.DetailedScores   `json:"scores"`
	Recommendations []scoring.Recommendation `json:"recommendations"`
	Keywords        []discovery.Keyword      `json:"keywords"`
	KeywordSummary  discovery.Summary        `json:"keywordSummary"`
	KeywordMentions []analyzer.Mention       `json:"keywordMentions,omitempty"`
	AIAccess        map[string]bool          `json:"aiAccess,omitempty"`
	Competitors     []Competitor             `json:"competitors,omitempty"`
	Comparison      *compare.Result          `json:"comparison,omitempty"`
	Warnings        []string                 `json:"warnings"`
	Duration        time.Duration            `json:"duration"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// Filter allows querying for specific ScanRecords.
type Filter struct {
	URL    string
	Domain string
	Since  *time.Time
	Limit  int
	Offset int
}

// Match reports whether r passes the filter's field conditions. Limit and
// Offset are applied by the caller.
func (f Filter) Match(r *ScanRecord) bool {
	if f.URL != "" && r.URL != f.URL {
		return false
	}
	if f.Domain != "" && r.Domain != f.Domain {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page applies Offset and Limit to records already in result order.
func (f Filter) Page(records []*ScanRecord) []*ScanRecord {
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*ScanRecord{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying scan records.
// Query returns the newest records first.
type Backend interface {
	Save(ctx context.Context, record *ScanRecord) error
	Get(ctx context.Context, id string) (*ScanRecord, error)
	Query(ctx context.Context, filter Filter) ([]*ScanRecord, error)
	Close() error
}

// Nop discards records. It backs scans run without persistence.
type Nop struct{}

func (Nop) Save(context.Context, *ScanRecord) error { return nil }

func (Nop) Get(context.Context, string) (*ScanRecord, error) { return nil, ErrNotFound }

func (Nop) Query(context.Context, Filter) ([]*ScanRecord, error) { return []*ScanRecord{}, nil }

func (Nop) Close() error { return nil }
