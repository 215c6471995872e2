package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scan.ProviderTimeout != 30*time.Second {
		t.Errorf("expected 30s provider timeout, got %v", cfg.Scan.ProviderTimeout)
	}
	if cfg.Scan.SoftDeadline != time.Minute {
		t.Errorf("expected 60s soft deadline, got %v", cfg.Scan.SoftDeadline)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Providers.DataForSEO.LocationCode != 2840 {
		t.Errorf("expected location code 2840, got %d", cfg.Providers.DataForSEO.LocationCode)
	}
	if cfg.Providers.Semrush.APIKey != "" {
		t.Error("expected no semrush key by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seoscope.yaml")
	yaml := `
storage:
  driver: json
  dsn: /tmp/scans.jsonl
providers:
  moz:
    access_id: file-id
    secret_key: file-secret
scan:
  soft_deadline: 45s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SEOSCOPE_PROVIDERS_MOZ_ACCESS_ID", "env-id")
	t.Setenv("SEOSCOPE_SERP_API_KEY", "serp-key")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Driver != "json" || cfg.Storage.DSN != "/tmp/scans.jsonl" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Providers.Moz.AccessID != "env-id" {
		t.Errorf("expected env to override file, got %q", cfg.Providers.Moz.AccessID)
	}
	if cfg.Providers.Moz.SecretKey != "file-secret" {
		t.Errorf("expected file value, got %q", cfg.Providers.Moz.SecretKey)
	}
	if cfg.SERP.APIKey != "serp-key" {
		t.Errorf("expected env serp key, got %q", cfg.SERP.APIKey)
	}
	if cfg.Scan.SoftDeadline != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.Scan.SoftDeadline)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  any
		wantOK bool
	}{
		{"defaults", "", nil, true},
		{"unknown driver", "storage.driver", "mongo", false},
		{"none needs no dsn", "storage.driver", "none", true},
		{"bad fingerprint", "http.fingerprint", "netscape", false},
		{"bad strategy", "pagespeed.strategy", "tablet", false},
		{"bad log format", "log.format", "xml", false},
		{"zero deadline", "scan.soft_deadline", "0s", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViper()
			if tt.key != "" {
				v.Set(tt.key, tt.value)
			}
			if tt.key == "storage.driver" && tt.value == "none" {
				v.Set("storage.dsn", "")
			}
			_, err := Load(v, "")
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
