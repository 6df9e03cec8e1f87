// Package bootstrap obtains a ready-to-query search index once per session.
//
// The bootstrap either restores the serialized index kept in the session or
// resolves the site's context path, downloads search-index.json and builds
// a new index from it. Any failure leaves search disabled for the rest of
// the session; there is no retry path.
//
//	Uninitialized -> ResolvingContext -> IndexReady              (cached index)
//	Uninitialized -> ResolvingContext -> Fetching -> IndexReady  (200)
//	                                              -> Disabled    (anything else)
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/wildscribe/site-search/internal/contextpath"
	"github.com/wildscribe/site-search/internal/fulltext"
	"github.com/wildscribe/site-search/internal/indexing"
	"github.com/wildscribe/site-search/internal/session"
)

// State is a step of the bootstrap state machine
type State int

const (
	Uninitialized State = iota
	ResolvingContext
	Fetching
	IndexReady
	Disabled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ResolvingContext:
		return "resolving_context"
	case Fetching:
		return "fetching"
	case IndexReady:
		return "index_ready"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == IndexReady || s == Disabled
}

var (
	// ErrIndexUnavailable means the index document did not answer with 200
	ErrIndexUnavailable = errors.New("search index unavailable")
)

// Resolver finds the context path for a page
type Resolver interface {
	Resolve(ctx context.Context, pagePath string) (string, error)
}

// Options configures a Bootstrap
type Options struct {
	// SiteURL is the scheme and host the site is served from
	SiteURL string

	// Client performs the index download; http.DefaultClient when nil
	Client *http.Client

	// Engine builds and restores the index; bleve when nil
	Engine fulltext.Engine

	// Fields are the indexed fields and weights; DefaultFields when empty
	Fields []fulltext.Field

	// Reveal is called once the index is ready (un-hides the search trigger)
	Reveal func()
}

// DefaultFields weights the attribute name well above the description
func DefaultFields() []fulltext.Field {
	return []fulltext.Field{
		{Name: indexing.FieldAttribute, Boost: indexing.AttributeBoost},
		{Name: indexing.FieldDescription, Boost: 1},
	}
}

// Bootstrap drives index acquisition for one session
type Bootstrap struct {
	session  *session.Session
	resolver Resolver
	engine   fulltext.Engine
	fields   []fulltext.Field
	base     *url.URL
	client   *http.Client
	reveal   func()

	mu          sync.Mutex
	state       State
	index       fulltext.Index
	contextPath string
}

// New creates a bootstrap bound to a session
func New(sess *session.Session, resolver Resolver, opts Options) (*Bootstrap, error) {
	base, err := url.Parse(opts.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", opts.SiteURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site URL %q must include scheme and host", opts.SiteURL)
	}

	b := &Bootstrap{
		session:  sess,
		resolver: resolver,
		engine:   opts.Engine,
		fields:   opts.Fields,
		base:     base,
		client:   opts.Client,
		reveal:   opts.Reveal,
	}
	if b.engine == nil {
		b.engine = fulltext.NewBleveEngine()
	}
	if len(b.fields) == 0 {
		b.fields = DefaultFields()
	}
	if b.client == nil {
		b.client = http.DefaultClient
	}
	return b, nil
}

// NewForSite wires the HTTP context-path resolver for siteURL
func NewForSite(sess *session.Session, opts Options) (*Bootstrap, error) {
	prober, err := contextpath.NewHTTPProber(opts.SiteURL, opts.Client)
	if err != nil {
		return nil, err
	}
	return New(sess, contextpath.NewResolver(prober, sess), opts)
}

// State returns the current state
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Index returns the live index, or nil until IndexReady
func (b *Bootstrap) Index() fulltext.Index {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}

// ContextPath returns the context path used for result links
func (b *Bootstrap) ContextPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contextPath
}

// Session returns the session the bootstrap writes to
func (b *Bootstrap) Session() *session.Session {
	return b.session
}

// Start runs the bootstrap for a page. Only the first call does any work;
// later calls return the current state. The returned error explains why
// search ended up Disabled.
func (b *Bootstrap) Start(ctx context.Context, pagePath string) (State, error) {
	b.mu.Lock()
	if b.state != Uninitialized {
		state := b.state
		b.mu.Unlock()
		return state, nil
	}
	b.state = ResolvingContext
	b.mu.Unlock()

	startTime := time.Now()

	if index := b.restoreFromSession(); index != nil {
		contextPath, err := b.cachedContextPath(ctx, pagePath)
		if err != nil {
			index.Close()
			return b.disable(err)
		}
		b.ready(index, contextPath)
		log.Printf("✓ Search index restored from session in %v", time.Since(startTime).Round(time.Millisecond))
		return IndexReady, nil
	}

	contextPath, err := b.resolver.Resolve(ctx, pagePath)
	if err != nil {
		return b.disable(err)
	}

	b.mu.Lock()
	b.state = Fetching
	b.contextPath = contextPath
	b.mu.Unlock()

	items, err := b.fetchItems(ctx, contextPath)
	if err != nil {
		return b.disable(err)
	}

	index, err := b.buildIndex(items)
	if err != nil {
		return b.disable(err)
	}

	b.ready(index, contextPath)
	count, _ := index.DocCount()
	log.Printf("✓ Search index built (%d items, context %s) in %v",
		count, contextPath, time.Since(startTime).Round(time.Millisecond))
	return IndexReady, nil
}

// restoreFromSession loads a cached snapshot without any network call
func (b *Bootstrap) restoreFromSession() fulltext.Index {
	snapshot, ok, err := b.session.Index()
	if err != nil {
		log.Printf("Warning: Failed to read cached search index: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	index, err := b.engine.Load(snapshot)
	if err != nil {
		// Corrupted or outdated snapshot, rebuild from the site
		log.Printf("Warning: Cached search index unusable, rebuilding: %v", err)
		return nil
	}
	return index
}

// cachedContextPath returns the session's context path. A session prewarmed
// without one still needs the resolver, but never the index download.
func (b *Bootstrap) cachedContextPath(ctx context.Context, pagePath string) (string, error) {
	contextPath, ok, err := b.session.ContextPath()
	if err != nil {
		log.Printf("Warning: Failed to read cached context path: %v", err)
	}
	if ok && err == nil {
		return contextPath, nil
	}
	return b.resolver.Resolve(ctx, pagePath)
}

// fetchItems downloads and parses <contextPath>/search-index.json
func (b *Bootstrap) fetchItems(ctx context.Context, contextPath string) ([]indexing.Item, error) {
	target := b.base.ResolveReference(&url.URL{Path: contextpath.IndexURL(contextPath)}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build index request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s answered with status: %d", ErrIndexUnavailable, target, resp.StatusCode)
	}

	items, err := indexing.ParseItems(resp.Body)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// buildIndex builds the index from items and caches it in the session
func (b *Bootstrap) buildIndex(items []indexing.Item) (fulltext.Index, error) {
	return Populate(b.session, b.engine, b.fields, items, nil)
}

// Populate caches every item in document order while adding it to a new
// index, then caches the serialized index. Items with an id seen before are
// skipped. engine defaults to bleve; progress, if set, is called per item.
func Populate(sess *session.Session, engine fulltext.Engine, fields []fulltext.Field, items []indexing.Item, progress func(done, total int)) (fulltext.Index, error) {
	if engine == nil {
		engine = fulltext.NewBleveEngine()
	}
	builder, err := engine.NewBuilder(fields)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if progress != nil {
			progress(i+1, len(items))
		}
		if _, dup := seen[item.ID]; dup {
			log.Printf("Warning: Duplicate item id %q in search index, keeping the first", item.ID)
			continue
		}
		seen[item.ID] = struct{}{}

		if err := sess.SetItem(item); err != nil {
			return nil, fmt.Errorf("failed to cache item %q: %w", item.ID, err)
		}
		if err := builder.Add(fulltext.Document{Ref: item.ID, Fields: item.Fields()}); err != nil {
			return nil, err
		}
	}

	index, err := builder.Finish()
	if err != nil {
		return nil, err
	}

	snapshot, err := index.Snapshot()
	if err != nil {
		index.Close()
		return nil, err
	}
	if err := sess.SetIndex(snapshot); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to cache search index: %w", err)
	}

	return index, nil
}

func (b *Bootstrap) ready(index fulltext.Index, contextPath string) {
	b.mu.Lock()
	b.state = IndexReady
	b.index = index
	b.contextPath = contextPath
	b.mu.Unlock()

	if b.reveal != nil {
		b.reveal()
	}
}

func (b *Bootstrap) disable(cause error) (State, error) {
	b.mu.Lock()
	b.state = Disabled
	b.mu.Unlock()

	log.Printf("Search disabled for this session: %v", cause)
	return Disabled, cause
}

// Close releases the live index
func (b *Bootstrap) Close() error {
	b.mu.Lock()
	index := b.index
	b.index = nil
	b.mu.Unlock()

	if index == nil {
		return nil
	}
	return index.Close()
}
