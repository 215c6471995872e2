package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/seoscope/internal/scoring"
	"github.com/FranksOps/seoscope/internal/storage"
)

func TestCSVBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")

	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	res := &storage.ScanRecord{
		ID:     "scan-1",
		URL:    "https://example.com/",
		Domain: "example.com",
		Scores: scoring.DetailedScores{
			Total:             62,
			ContentStructure:  20,
			BrandRanking:      15,
			KeywordVisibility: 10,
			AITrust:           17,
		},
		Warnings:  []string{"page served a Cloudflare challenge", "keywords: semrush: quota_exhausted"},
		CreatedAt: now,
	}

	if err := b.Save(ctx, res); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The file is readable as a plain spreadsheet.
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[1][3] != "62" || rows[1][7] != "17" {
		t.Errorf("unexpected csv contents %v", rows)
	}

	// Reopening appends without a second header.
	b, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	other := &storage.ScanRecord{ID: "scan-2", URL: "https://other.org/", Domain: "other.org", CreatedAt: now.Add(time.Minute)}
	if err := b.Save(ctx, other); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := b.Get(ctx, "scan-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Scores.BrandRanking != 15 || len(got.Warnings) != 2 {
		t.Errorf("unexpected record %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt %v, got %v", now, got.CreatedAt)
	}

	if _, err := b.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 2 || all[0].ID != "scan-2" {
		t.Fatalf("expected newest first, got %d", len(all))
	}

	since := now.Add(30 * time.Second)
	recent, err := b.Query(ctx, storage.Filter{Since: &since})
	if err != nil {
		t.Fatalf("Query since: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "scan-2" {
		t.Errorf("unexpected since results %v", recent)
	}
}
