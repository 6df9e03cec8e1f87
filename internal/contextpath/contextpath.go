// Package contextpath discovers the base path a documentation site is served
// under by probing for its search-index.json.
//
// A page may be opened from a mirror subdirectory or a non-root deployment,
// so the resolver walks up from the page's directory one segment at a time
// until the index document answers.
package contextpath

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/wildscribe/site-search/internal/indexing"
)

// ProbeResult is the outcome of a clean probe
type ProbeResult int

const (
	NotFound ProbeResult = iota
	Found
)

func (r ProbeResult) String() string {
	if r == Found {
		return "found"
	}
	return "not found"
}

var (
	// ErrUnresolved means resolution stopped on a failure other than not-found
	ErrUnresolved = errors.New("context path unresolved")
)

// StatusError is a probe response that is neither success nor 404
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("probe %s failed with status: %d", e.URL, e.StatusCode)
}

// Prober checks whether the index document exists under a directory path
type Prober interface {
	Probe(ctx context.Context, dir string) (ProbeResult, error)
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context, dir string) (ProbeResult, error)

func (f ProberFunc) Probe(ctx context.Context, dir string) (ProbeResult, error) {
	return f(ctx, dir)
}

// Cache stores the resolved context path for the session
type Cache interface {
	ContextPath() (string, bool, error)
	SetContextPath(path string) error
}

// IndexURL joins a directory path and the index file name
func IndexURL(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + indexing.IndexFileName
	}
	return dir + "/" + indexing.IndexFileName
}

// StartPath turns a page path into the first candidate
// Example: "/docs/v2/pages/foo/index.html" -> "/docs/v2/pages/foo"
func StartPath(pagePath string) string {
	if strings.HasSuffix(pagePath, "/index.html") {
		return pagePath[:strings.LastIndex(pagePath, "/index.html")]
	}
	return pagePath
}

// HTTPProber probes a site over HTTP
type HTTPProber struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPProber creates a prober for the site at baseURL (scheme and host;
// any path is ignored because candidates are absolute paths)
func NewHTTPProber(baseURL string, client *http.Client) (*HTTPProber, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site URL %q must include scheme and host", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{base: base, client: client}, nil
}

// Probe issues GET <dir>/search-index.json
func (p *HTTPProber) Probe(ctx context.Context, dir string) (ProbeResult, error) {
	target := p.base.ResolveReference(&url.URL{Path: IndexURL(dir)}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return NotFound, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return NotFound, fmt.Errorf("failed to probe %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Found, nil
	case resp.StatusCode == http.StatusNotFound:
		return NotFound, nil
	default:
		return NotFound, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
}

// Resolver finds and caches the context path
type Resolver struct {
	prober Prober
	cache  Cache
}

// NewResolver creates a resolver; cache may be nil
func NewResolver(prober Prober, cache Cache) *Resolver {
	return &Resolver{prober: prober, cache: cache}
}

// Resolve returns the context path for a page.
//
// A cached path is returned without probing. Otherwise candidates shrink
// one segment per not-found answer; when no segment is left to strip the
// root path "/" is returned as a fallback without being probed or cached.
// Status and transport failures are logged and reported as ErrUnresolved.
func (r *Resolver) Resolve(ctx context.Context, pagePath string) (string, error) {
	if r.cache != nil {
		cached, ok, err := r.cache.ContextPath()
		if err != nil {
			log.Printf("Warning: Failed to read cached context path: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	candidate := StartPath(pagePath)

	// Each not-found answer removes one '/', so this bounds the loop
	maxAttempts := strings.Count(candidate, "/") + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := r.prober.Probe(ctx, candidate)
		if err != nil {
			log.Printf("Failed to find context path: %v", err)
			return "", fmt.Errorf("%w: %v", ErrUnresolved, err)
		}

		if result == Found {
			if r.cache != nil {
				if err := r.cache.SetContextPath(candidate); err != nil {
					log.Printf("Warning: Failed to cache context path: %v", err)
				}
			}
			return candidate, nil
		}

		i := strings.LastIndex(candidate, "/")
		if i <= 0 {
			return "/", nil
		}
		candidate = candidate[:i]
	}

	return "/", nil
}
