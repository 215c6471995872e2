package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/seoscope/internal/config"
	"github.com/FranksOps/seoscope/internal/storage"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"scan", "serve", "history", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestVersion(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver  string
		dsn     string
		wantErr bool
	}{
		{"none", "", false},
		{"json", filepath.Join(dir, "scans.jsonl"), false},
		{"csv", filepath.Join(dir, "scans.csv"), false},
		{"sqlite", filepath.Join(dir, "scans.db"), false},
		{"mongo", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			b, err := openStore(context.Background(), config.StorageConfig{Driver: tt.driver, DSN: tt.dsn})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore failed: %v", err)
			}
			defer b.Close()
			if _, err := b.Get(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestHistory_Empty(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--storage", "json", "--dsn", filepath.Join(t.TempDir(), "scans.jsonl")})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "No scans found.") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestScan_InvalidURL(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scan", "ftp://example.com", "--storage", "none"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for non-http url")
	}
}
