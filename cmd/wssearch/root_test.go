package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with fresh flag values
func run(t *testing.T, args ...string) error {
	t.Helper()
	cfgFile, siteURL, pagePath = "", "", ""
	configForce, resolveNoCache = false, false
	decorateFragment, decorateOutput = "", ""
	searchJSON, searchHTML, searchFresh = false, false, false

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wildscribe.yml")

	if err := run(t, "config", "init", "--config", path, "--site", "http://docs.example.com"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	cfgFile = path
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.SiteURL != "http://docs.example.com" {
		t.Errorf("SiteURL = %q", cfg.SiteURL)
	}

	// Existing files are kept unless forced
	if err := run(t, "config", "init", "--config", path); err == nil {
		t.Error("expected error for existing config file")
	}
	if err := run(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "missing.yml")
	siteURL = "http://localhost:9000"
	pagePath = "/docs/v2/index.html"
	t.Cleanup(func() { siteURL, pagePath = "", "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.SiteURL != "http://localhost:9000" || cfg.PagePath != "/docs/v2/index.html" {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	siteURL = "not a url"
	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error")
	}
}

func TestDecorateCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	out := filepath.Join(dir, "out.html")
	page := `<html><body>
<span data-bs-toggle="popover" data-bs-target="#help">?</span>
<div id="help">Some <b>help</b></div>
<div id="attribute-enabled" class="collapse">details</div>
</body></html>`
	if err := os.WriteFile(in, []byte(page), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "decorate", in, "--fragment", "#attr-enabled", "-o", out); err != nil {
		t.Fatalf("decorate failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `class="collapse show"`) {
		t.Errorf("attribute section not expanded:\n%s", body)
	}
	if !strings.Contains(body, `data-bs-html="true"`) {
		t.Errorf("popover not decorated:\n%s", body)
	}
}

func TestResolveAndSearchCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/v2/search-index.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id": "1", "attribute": "enabled", "description": "Whether it is on", "url": "a/index.html"}]`))
	}))
	defer server.Close()

	cfg := filepath.Join(t.TempDir(), "wildscribe.yml")
	if err := os.WriteFile(cfg, []byte("session_path: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "resolve", "/docs/v2/a/index.html", "--config", cfg, "--site", server.URL, "--no-cache"); err != nil {
		t.Errorf("resolve failed: %v", err)
	}
	if err := run(t, "search", "enabled", "--config", cfg, "--site", server.URL, "--page", "/docs/v2/a/index.html", "--json"); err != nil {
		t.Errorf("search failed: %v", err)
	}
}

func TestSearchCommandUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := filepath.Join(t.TempDir(), "wildscribe.yml")
	if err := os.WriteFile(cfg, []byte("session_path: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(t, "search", "enabled", "--config", cfg, "--site", server.URL); err == nil {
		t.Error("expected error when search is unavailable")
	}
}
