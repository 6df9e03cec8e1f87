package contextpath_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/wildscribe/site-search/internal/contextpath"
	"github.com/wildscribe/site-search/internal/session"
)

// recordingProber answers Found only for the configured directory
type recordingProber struct {
	foundAt string
	err     error
	calls   []string
}

func (p *recordingProber) Probe(ctx context.Context, dir string) (contextpath.ProbeResult, error) {
	p.calls = append(p.calls, dir)
	if p.err != nil {
		return contextpath.NotFound, p.err
	}
	if dir == p.foundAt {
		return contextpath.Found, nil
	}
	return contextpath.NotFound, nil
}

func TestStartPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/docs/v2/pages/foo/index.html", "/docs/v2/pages/foo"},
		{"/docs/v2/", "/docs/v2/"},
		{"/docs/v2/page.html", "/docs/v2/page.html"},
		{"/index.html", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := contextpath.StartPath(tt.input); got != tt.expected {
				t.Errorf("StartPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIndexURL(t *testing.T) {
	if got := contextpath.IndexURL("/docs"); got != "/docs/search-index.json" {
		t.Errorf("IndexURL(/docs) = %q", got)
	}
	if got := contextpath.IndexURL("/docs/"); got != "/docs/search-index.json" {
		t.Errorf("IndexURL(/docs/) = %q", got)
	}
	if got := contextpath.IndexURL("/"); got != "/search-index.json" {
		t.Errorf("IndexURL(/) = %q", got)
	}
}

func TestResolveWalksUpToIndex(t *testing.T) {
	prober := &recordingProber{foundAt: "/docs/v2"}
	cache := session.NewMemory()
	resolver := contextpath.NewResolver(prober, cache)

	got, err := resolver.Resolve(context.Background(), "/docs/v2/pages/foo/index.html")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "/docs/v2" {
		t.Errorf("Resolve() = %q, want /docs/v2", got)
	}

	// Two not-found retries before the hit
	want := []string{"/docs/v2/pages/foo", "/docs/v2/pages", "/docs/v2"}
	if !reflect.DeepEqual(prober.calls, want) {
		t.Errorf("probe sequence = %v, want %v", prober.calls, want)
	}

	cached, ok, _ := cache.ContextPath()
	if !ok || cached != "/docs/v2" {
		t.Errorf("context path not cached: %q %v", cached, ok)
	}
}

func TestResolveUsesCache(t *testing.T) {
	prober := &recordingProber{foundAt: "/never"}
	cache := session.NewMemory()
	cache.SetContextPath("/cached")

	got, err := contextpath.NewResolver(prober, cache).Resolve(context.Background(), "/a/b/index.html")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "/cached" {
		t.Errorf("Resolve() = %q, want /cached", got)
	}
	if len(prober.calls) != 0 {
		t.Errorf("Expected no probes with a cached path, got %v", prober.calls)
	}
}

func TestResolveFallsBackToRoot(t *testing.T) {
	prober := &recordingProber{foundAt: "/elsewhere"}
	cache := session.NewMemory()

	got, err := contextpath.NewResolver(prober, cache).Resolve(context.Background(), "/docs/page/index.html")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "/" {
		t.Errorf("Resolve() = %q, want /", got)
	}

	// "/docs" has its last '/' at index 0, so no further probe
	want := []string{"/docs/page", "/docs"}
	if !reflect.DeepEqual(prober.calls, want) {
		t.Errorf("probe sequence = %v, want %v", prober.calls, want)
	}

	// The fallback is returned but never cached
	if _, ok, _ := cache.ContextPath(); ok {
		t.Error("root fallback should not be cached")
	}
}

func TestResolveProbeFailure(t *testing.T) {
	prober := &recordingProber{err: &contextpath.StatusError{URL: "/x", StatusCode: 500}}
	cache := session.NewMemory()

	got, err := contextpath.NewResolver(prober, cache).Resolve(context.Background(), "/a/b")
	if !errors.Is(err, contextpath.ErrUnresolved) {
		t.Fatalf("Expected ErrUnresolved, got %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty path on failure, got %q", got)
	}
	if len(prober.calls) != 1 {
		t.Errorf("Expected a single probe, got %v", prober.calls)
	}
	if _, ok, _ := cache.ContextPath(); ok {
		t.Error("nothing should be cached on failure")
	}
}

func TestResolveWithoutCache(t *testing.T) {
	prober := &recordingProber{foundAt: "/a"}
	got, err := contextpath.NewResolver(prober, nil).Resolve(context.Background(), "/a/b/c")
	if err != nil || got != "/a" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
}

func TestHTTPProber(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/v2/search-index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("/broken/search-index.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	prober, err := contextpath.NewHTTPProber(server.URL, server.Client())
	if err != nil {
		t.Fatalf("NewHTTPProber failed: %v", err)
	}
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		result, err := prober.Probe(ctx, "/docs/v2")
		if err != nil || result != contextpath.Found {
			t.Errorf("Probe() = %v, %v", result, err)
		}
	})

	t.Run("found with trailing slash", func(t *testing.T) {
		result, err := prober.Probe(ctx, "/docs/v2/")
		if err != nil || result != contextpath.Found {
			t.Errorf("Probe() = %v, %v", result, err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		result, err := prober.Probe(ctx, "/docs/v2/pages")
		if err != nil || result != contextpath.NotFound {
			t.Errorf("Probe() = %v, %v", result, err)
		}
	})

	t.Run("status error", func(t *testing.T) {
		_, err := prober.Probe(ctx, "/broken")
		var statusErr *contextpath.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("Expected *StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusForbidden {
			t.Errorf("StatusCode = %d", statusErr.StatusCode)
		}
	})

	t.Run("end to end", func(t *testing.T) {
		resolver := contextpath.NewResolver(prober, session.NewMemory())
		got, err := resolver.Resolve(ctx, "/docs/v2/pages/foo/index.html")
		if err != nil || got != "/docs/v2" {
			t.Errorf("Resolve() = %q, %v", got, err)
		}
	})
}

func TestHTTPProberTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	prober, err := contextpath.NewHTTPProber(url, nil)
	if err != nil {
		t.Fatalf("NewHTTPProber failed: %v", err)
	}

	resolver := contextpath.NewResolver(prober, nil)
	if _, err := resolver.Resolve(context.Background(), "/docs"); !errors.Is(err, contextpath.ErrUnresolved) {
		t.Errorf("Expected ErrUnresolved on transport failure, got %v", err)
	}
}

func TestNewHTTPProberRejectsRelativeURL(t *testing.T) {
	if _, err := contextpath.NewHTTPProber("/docs", nil); err == nil {
		t.Error("Expected error for URL without scheme and host")
	}
}
