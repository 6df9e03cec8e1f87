package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wildscribe/site-search/internal/indexing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AttributeBoost != 10 {
		t.Errorf("expected default attribute_boost 10, got %v", cfg.AttributeBoost)
	}
	if cfg.MaxResults != indexing.DefaultMaxResults {
		t.Errorf("expected default max_results %d, got %d", indexing.DefaultMaxResults, cfg.MaxResults)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Timeout())
	}
	if cfg.Serve.Prefix != "/" {
		t.Errorf("expected default serve.prefix /, got %q", cfg.Serve.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wildscribe.yml")

	original := DefaultConfig()
	original.SiteURL = "https://docs.example.org"
	original.PagePath = "/docs/v2/index.html"
	original.SessionPath = filepath.Join(dir, "session.db")
	original.HTTPTimeout = "3s"
	original.MaxResults = 5
	original.Serve.Prefix = "/docs/v2"
	original.Serve.AllowAll = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *loaded != *original {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.SiteURL != DefaultConfig().SiteURL {
		t.Errorf("expected default site_url, got %q", cfg.SiteURL)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("site_url: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wildscribe.yml")
	cfg := DefaultConfig()
	cfg.SiteURL = "https://from-file.example.org"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WILDSCRIBE_SITE_URL", "https://from-env.example.org")
	t.Setenv("WILDSCRIBE_MAX_RESULTS", "7")
	t.Setenv("WILDSCRIBE_SERVE_ADDR", ":9999")
	t.Setenv("WILDSCRIBE_SERVE_ALLOW_ALL", "true")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SiteURL != "https://from-env.example.org" {
		t.Errorf("site_url = %q", loaded.SiteURL)
	}
	if loaded.MaxResults != 7 {
		t.Errorf("max_results = %d", loaded.MaxResults)
	}
	if loaded.Serve.Addr != ":9999" {
		t.Errorf("serve.addr = %q", loaded.Serve.Addr)
	}
	if !loaded.Serve.AllowAll {
		t.Error("serve.allow_all should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty site url", func(c *Config) { c.SiteURL = "" }},
		{"relative site url", func(c *Config) { c.SiteURL = "/docs" }},
		{"relative page path", func(c *Config) { c.PagePath = "index.html" }},
		{"bad timeout", func(c *Config) { c.HTTPTimeout = "soon" }},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = "-1s" }},
		{"negative max results", func(c *Config) { c.MaxResults = -1 }},
		{"zero boost", func(c *Config) { c.AttributeBoost = 0 }},
		{"relative prefix", func(c *Config) { c.Serve.Prefix = "docs" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"WILDSCRIBE_SITE_URL":        "site_url",
		"WILDSCRIBE_HTTP_TIMEOUT":    "http_timeout",
		"WILDSCRIBE_SERVE_PREFIX":    "serve.prefix",
		"WILDSCRIBE_SERVE_ALLOW_ALL": "serve.allow_all",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
