package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wildscribe/site-search/internal/bootstrap"
	"github.com/wildscribe/site-search/internal/contextpath"
	"github.com/wildscribe/site-search/internal/fulltext"
	"github.com/wildscribe/site-search/internal/indexing"
	"github.com/wildscribe/site-search/internal/searchui"
	"github.com/wildscribe/site-search/internal/session"
)

const maxResultsLimit = 50

// ErrSearchDisabled is returned when the site index could not be obtained
var ErrSearchDisabled = errors.New("site search is disabled for this session")

// Settings configures the site search tools
type Settings struct {
	SiteURL        string
	PagePath       string
	SessionPath    string // bbolt session file, empty for an in-memory session
	Timeout        time.Duration
	MaxResults     int
	AttributeBoost float64
}

var (
	settings   = Settings{PagePath: "/index.html", MaxResults: indexing.DefaultMaxResults, AttributeBoost: indexing.AttributeBoost}
	settingsMu sync.RWMutex
)

// Configure replaces the tool settings. Call before registering the tools.
func Configure(s Settings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	if s.MaxResults <= 0 {
		s.MaxResults = indexing.DefaultMaxResults
	}
	if s.AttributeBoost <= 0 {
		s.AttributeBoost = indexing.AttributeBoost
	}
	settings = s
}

func currentSettings() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

func (s Settings) client() *http.Client {
	return &http.Client{Timeout: s.Timeout}
}

func (s Settings) fields() []fulltext.Field {
	return []fulltext.Field{
		{Name: indexing.FieldAttribute, Boost: s.AttributeBoost},
		{Name: indexing.FieldDescription, Boost: 1},
	}
}

// site is one ready index together with the widget querying it. The widget
// returns every matching entry; maxResults is applied per call.
type site struct {
	index       fulltext.Index
	contextPath string
	widget      *searchui.Widget
	maxResults  int
}

func newSite(index fulltext.Index, contextPath string, items searchui.ItemStore, maxResults int) *site {
	s := &site{index: index, contextPath: contextPath, maxResults: maxResults}
	s.widget = searchui.NewWidget(s, items, &searchui.ListView{}, nil)
	return s
}

func (s *site) Index() fulltext.Index { return s.index }
func (s *site) ContextPath() string   { return s.contextPath }

func (s *site) Close() error {
	return s.index.Close()
}

// siteHolder manages concurrent access to the site index
type siteHolder struct {
	// current holds the active site (atomic access for lock-free reads)
	current atomic.Pointer[site]

	// refreshMu serializes initialization and refresh, never searches
	refreshMu sync.Mutex

	// wg tracks in-flight searches for graceful cleanup of old indexes
	wg sync.WaitGroup

	session *session.Session
}

var siteMgr = &siteHolder{}

// openSession opens the shared session once
func (h *siteHolder) openSession(s Settings) (*session.Session, error) {
	if h.session != nil {
		return h.session, nil
	}
	if s.SessionPath == "" {
		h.session = session.NewMemory()
		log.Printf("✓ Session kept in memory")
		return h.session, nil
	}
	sess, err := session.NewBolt(s.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", s.SessionPath, err)
	}
	log.Printf("✓ Session file: %s", s.SessionPath)
	h.session = sess
	return sess, nil
}

// bootstrapSite runs the index bootstrap against the configured site.
// Caller must hold refreshMu.
func (h *siteHolder) bootstrapSite(ctx context.Context, s Settings) (*site, error) {
	sess, err := h.openSession(s)
	if err != nil {
		return nil, err
	}

	boot, err := bootstrap.NewForSite(sess, bootstrap.Options{
		SiteURL: s.SiteURL,
		Client:  s.client(),
		Fields:  s.fields(),
	})
	if err != nil {
		return nil, err
	}

	state, err := boot.Start(ctx, s.PagePath)
	if state != bootstrap.IndexReady {
		if err == nil {
			err = fmt.Errorf("bootstrap ended in state %s", state)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchDisabled, err)
	}

	return newSite(boot.Index(), boot.ContextPath(), sess, s.MaxResults), nil
}

// InitializeSiteSearch bootstraps the site index if it is not ready yet
func InitializeSiteSearch(ctx context.Context) error {
	startTime := time.Now()

	siteMgr.refreshMu.Lock()
	defer siteMgr.refreshMu.Unlock()

	// Another caller may have initialized while we were waiting
	if siteMgr.current.Load() != nil {
		return nil
	}

	s := currentSettings()
	log.Printf("Initializing site search for %s%s...", s.SiteURL, s.PagePath)

	st, err := siteMgr.bootstrapSite(ctx, s)
	if err != nil {
		return err
	}
	siteMgr.current.Store(st)

	count, _ := st.index.DocCount()
	log.Printf("✓ Site search initialized (%d items, context %s) in %v",
		count, st.contextPath, time.Since(startTime).Round(time.Millisecond))
	return nil
}

// swap installs a new site and closes the old one once in-flight searches
// have drained
func (h *siteHolder) swap(next *site) {
	old := h.current.Swap(next)
	if old == nil {
		return
	}

	go func() {
		waitStart := time.Now()
		h.wg.Wait()
		if err := old.Close(); err != nil {
			log.Printf("Warning: Error closing old index: %v", err)
			return
		}
		log.Printf("✓ Old index closed (waited %v)", time.Since(waitStart).Round(time.Millisecond))
	}()
}

// refreshSiteIndex forgets the cached index and context path and rebuilds
// from the site. The previous index keeps serving until the swap.
func refreshSiteIndex(ctx context.Context, force bool) (bool, error) {
	if !force && siteMgr.current.Load() != nil {
		return false, nil
	}

	siteMgr.refreshMu.Lock()
	defer siteMgr.refreshMu.Unlock()

	// Double-checked: a concurrent refresh may have finished meanwhile
	if !force && siteMgr.current.Load() != nil {
		log.Printf("Site index was built by another goroutine, skipping")
		return false, nil
	}

	startTime := time.Now()
	s := currentSettings()

	sess, err := siteMgr.openSession(s)
	if err != nil {
		return false, err
	}
	if err := sess.ForgetIndex(); err != nil {
		return false, fmt.Errorf("failed to reset session: %w", err)
	}

	st, err := siteMgr.bootstrapSite(ctx, s)
	if err != nil {
		return false, err
	}
	siteMgr.swap(st)

	log.Printf("✓ Site index refreshed in %v", time.Since(startTime).Round(time.Millisecond))
	return true, nil
}

// SearchSiteInput defines input for search_site tool
type SearchSiteInput struct {
	Query      string `json:"query" jsonschema:"Search text, more than three characters"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results, at most 50 (optional, defaults to the configured limit)"`
}

// SearchSiteOutput defines output for search_site tool
type SearchSiteOutput struct {
	Query       string           `json:"query"`
	Results     []searchui.Entry `json:"results"`
	TotalHits   int              `json:"total_hits"`
	ContextPath string           `json:"context_path"`
	Message     string           `json:"message,omitempty"`
}

// SearchSite queries the site index, bootstrapping it on first use
func SearchSite(ctx context.Context, req *mcp.CallToolRequest, input SearchSiteInput) (*mcp.CallToolResult, SearchSiteOutput, error) {
	// Track in-flight searches (MUST be before Load)
	siteMgr.wg.Add(1)
	defer siteMgr.wg.Done()

	st := siteMgr.current.Load()
	if st == nil {
		log.Printf("Site index not initialized, initializing now...")
		if err := InitializeSiteSearch(ctx); err != nil {
			return nil, SearchSiteOutput{}, err
		}
		st = siteMgr.current.Load()
		if st == nil {
			return nil, SearchSiteOutput{}, ErrSearchDisabled
		}
	}

	return searchSite(st, input)
}

func searchSite(st *site, input SearchSiteInput) (*mcp.CallToolResult, SearchSiteOutput, error) {
	output := SearchSiteOutput{
		Query:       input.Query,
		Results:     []searchui.Entry{},
		ContextPath: st.contextPath,
	}

	entries, err := st.widget.Search(input.Query)
	if err != nil {
		return nil, output, err
	}
	if entries == nil {
		output.Message = fmt.Sprintf("Query must be longer than %d characters", indexing.MinQueryLength)
		return nil, output, nil
	}

	limit := input.MaxResults
	if limit <= 0 {
		limit = st.maxResults
	}
	if limit <= 0 || limit > maxResultsLimit {
		limit = maxResultsLimit
	}
	output.TotalHits = len(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	output.Results = entries
	if len(entries) == 0 {
		output.Message = searchui.NoResults
	}

	return nil, output, nil
}

// ResolveContextPathInput defines input for resolve_context_path tool
type ResolveContextPathInput struct {
	PagePath string `json:"page_path" jsonschema:"Path of a page on the site, e.g. /docs/v2/subsystem/index.html"`
}

// ResolveContextPathOutput defines output for resolve_context_path tool
type ResolveContextPathOutput struct {
	PagePath    string `json:"page_path"`
	StartPath   string `json:"start_path"`
	ContextPath string `json:"context_path"`
	IndexURL    string `json:"index_url"`
}

// ResolveContextPath probes the site for the directory serving search-index.json
func ResolveContextPath(ctx context.Context, req *mcp.CallToolRequest, input ResolveContextPathInput) (*mcp.CallToolResult, ResolveContextPathOutput, error) {
	s := currentSettings()
	output := ResolveContextPathOutput{
		PagePath:  input.PagePath,
		StartPath: contextpath.StartPath(input.PagePath),
	}

	prober, err := contextpath.NewHTTPProber(s.SiteURL, s.client())
	if err != nil {
		return nil, output, err
	}

	// No cache: always probe the live site
	resolved, err := contextpath.NewResolver(prober, nil).Resolve(ctx, input.PagePath)
	if err != nil {
		return nil, output, err
	}

	output.ContextPath = resolved
	output.IndexURL = contextpath.IndexURL(resolved)
	return nil, output, nil
}

// RefreshSiteIndexInput defines input for refresh_site_index tool
type RefreshSiteIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Rebuild even if an index is already loaded (optional, defaults to false)"`
}

// RefreshSiteIndexOutput defines output for refresh_site_index tool
type RefreshSiteIndexOutput struct {
	Updated      bool   `json:"updated"`
	ItemsIndexed int    `json:"items_indexed"`
	ContextPath  string `json:"context_path"`
	Message      string `json:"message"`
}

// RefreshSiteIndex starts a fresh session and rebuilds the index
func RefreshSiteIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshSiteIndexInput) (*mcp.CallToolResult, RefreshSiteIndexOutput, error) {
	output := RefreshSiteIndexOutput{}

	updated, err := refreshSiteIndex(ctx, input.Force)
	if err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	if st := siteMgr.current.Load(); st != nil {
		count, _ := st.index.DocCount()
		output.ItemsIndexed = int(count)
		output.ContextPath = st.contextPath
	}

	output.Updated = updated
	if updated {
		output.Message = fmt.Sprintf("Site index rebuilt, %d items indexed", output.ItemsIndexed)
	} else {
		output.Message = "Site index already loaded, use force to rebuild"
	}

	return nil, output, nil
}

// RegisterSiteSearchTools registers the site search tools
func RegisterSiteSearchTools(server *mcp.Server) error {
	if err := InitializeSiteSearch(context.Background()); err != nil {
		log.Printf("Warning: Site search initialization failed: %v", err)
		log.Printf("Site search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_site",
			Description: "Search the documentation site's attribute index. Returns ranked attributes with a link to their page.",
		},
		SearchSite,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "resolve_context_path",
			Description: "Find the base path under which the documentation site and its search-index.json are served",
		},
		ResolveContextPath,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_site_index",
			Description: "Forget the cached search index and context path, then download and rebuild the index",
		},
		RefreshSiteIndex,
	)

	return nil
}

// CloseSiteSearch closes the index and the session
func CloseSiteSearch() error {
	var closeErr error

	if st := siteMgr.current.Swap(nil); st != nil {
		log.Printf("Waiting for in-flight searches to complete before closing...")
		siteMgr.wg.Wait()

		if err := st.Close(); err != nil {
			log.Printf("Error closing site index: %v", err)
			closeErr = err
		} else {
			log.Printf("✓ Site index closed successfully")
		}
	}

	siteMgr.refreshMu.Lock()
	defer siteMgr.refreshMu.Unlock()
	if siteMgr.session != nil {
		if err := siteMgr.session.Close(); err != nil {
			log.Printf("Error closing session: %v", err)
			if closeErr == nil {
				closeErr = err
			}
		}
		siteMgr.session = nil
	}

	return closeErr
}
