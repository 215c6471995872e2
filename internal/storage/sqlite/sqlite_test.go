package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/FranksOps/seoscope/internal/scoring"
	"github.com/FranksOps/seoscope/internal/storage"
)

func record(id, url, domain string, total int, at time.Time) *storage.ScanRecord {
	return &storage.ScanRecord{
		ID:     id,
		URL:    url,
		Domain: domain,
		Scores: scoring.DetailedScores{
			Total:            total,
			ContentStructure: total,
			DataSource:       map[string]bool{"dataforseo": true},
		},
		Recommendations: []scoring.Recommendation{{Title: "Add structured data", Priority: scoring.PriorityHigh}},
		Warnings:        []string{"keywords: dataforseo: rate_limited"},
		CreatedAt:       at,
	}
}

func TestSQLiteBackend(t *testing.T) {
	// Use a private in-memory database per test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	older := record("scan-1", "https://example.com/", "example.com", 40, now.Add(-2*time.Hour))
	newer := record("scan-2", "https://example.com/", "example.com", 55, now)
	other := record("scan-3", "https://other.org/", "other.org", 70, now.Add(-time.Minute))
	for _, r := range []*storage.ScanRecord{older, newer, other} {
		if err := b.Save(ctx, r); err != nil {
			t.Fatalf("Failed to save %s: %v", r.ID, err)
		}
	}

	got, err := b.Get(ctx, "scan-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.URL != newer.URL || got.Scores.Total != 55 || !got.Scores.DataSource["dataforseo"] {
		t.Errorf("unexpected record %+v", got)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Priority != scoring.PriorityHigh {
		t.Errorf("recommendations not round-tripped: %+v", got.Recommendations)
	}
	if !got.CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("Expected CreatedAt %v, got %v", newer.CreatedAt, got.CreatedAt)
	}

	if _, err := b.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 || all[0].ID != "scan-2" || all[1].ID != "scan-3" || all[2].ID != "scan-1" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}

	byDomain, err := b.Query(ctx, storage.Filter{Domain: "example.com"})
	if err != nil {
		t.Fatalf("Query by domain: %v", err)
	}
	if len(byDomain) != 2 {
		t.Errorf("expected 2 example.com scans, got %v", ids(byDomain))
	}

	since := now.Add(-time.Hour)
	recent, err := b.Query(ctx, storage.Filter{Since: &since})
	if err != nil {
		t.Fatalf("Query since: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("expected 2 recent scans, got %v", ids(recent))
	}

	page, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Query offset: %v", err)
	}
	if len(page) != 2 || page[0].ID != "scan-3" {
		t.Errorf("unexpected offset page %v", ids(page))
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 1, URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("Query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "scan-2" {
		t.Errorf("unexpected limited page %v", ids(limited))
	}
}

func TestSQLiteBackend_SaveOverwrites(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	r := record("scan-1", "https://example.com/", "example.com", 40, time.Now().UTC())
	if err := b.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r.Scores.Total = 45
	if err := b.Save(ctx, r); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	got, err := b.Get(ctx, "scan-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Scores.Total != 45 {
		t.Errorf("expected overwritten total 45, got %d", got.Scores.Total)
	}
}

func ids(records []*storage.ScanRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
