// Package searchui turns keystrokes into ranked, rendered search results.
package searchui

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/wildscribe/site-search/internal/fulltext"
	"github.com/wildscribe/site-search/internal/indexing"
)

// KeyEvent is a key release in the search input
type KeyEvent struct {
	Value       string
	IsComposing bool
}

// Entry is one rendered result
type Entry struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Href        string `json:"href"`
}

// IndexSource exposes the index once it is ready.
// *bootstrap.Bootstrap satisfies it.
type IndexSource interface {
	Index() fulltext.Index
	ContextPath() string
}

// ItemStore looks up cached items by id.
// *session.Session satisfies it.
type ItemStore interface {
	Item(id string) (indexing.Item, bool, error)
}

// View displays the result list
type View interface {
	Clear()
	ShowEmpty()
	Append(entry Entry)
}

// Dialog is the modal holding the search input
type Dialog interface {
	Hide()
}

// Widget wires the search input to the index and the result view
type Widget struct {
	source IndexSource
	items  ItemStore
	view   View
	dialog Dialog

	// MaxResults caps rendered entries; zero renders every hit
	MaxResults int

	mu      sync.Mutex
	input   string
	focused bool
	entries []Entry
}

// NewWidget creates a widget. dialog may be nil.
func NewWidget(source IndexSource, items ItemStore, view View, dialog Dialog) *Widget {
	return &Widget{
		source: source,
		items:  items,
		view:   view,
		dialog: dialog,
	}
}

// KeyUp handles a key release in the search input
func (w *Widget) KeyUp(ev KeyEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.input = ev.Value
	if ev.IsComposing {
		return nil
	}

	// Short input clears whether or not the index is ready
	if !queryable(ev.Value) {
		w.clear()
		return nil
	}

	index := w.source.Index()
	if index == nil {
		return nil
	}

	entries, err := w.search(index, ev.Value)
	if err != nil {
		return err
	}
	w.render(entries)
	return nil
}

// Search runs a query without touching the view
func (w *Widget) Search(value string) ([]Entry, error) {
	if !queryable(value) {
		return nil, nil
	}
	index := w.source.Index()
	if index == nil {
		return nil, nil
	}
	return w.search(index, value)
}

// Select follows the i-th rendered entry: the dialog closes and the input
// is emptied, the result list stays until the dialog is hidden.
func (w *Widget) Select(i int) (Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i < 0 || i >= len(w.entries) {
		return Entry{}, fmt.Errorf("no result at position %d", i)
	}
	if w.dialog != nil {
		w.dialog.Hide()
	}
	w.input = ""
	return w.entries[i], nil
}

// DialogHidden clears the results when the dialog closes
func (w *Widget) DialogHidden() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clear()
}

// DialogShown moves focus to the search input
func (w *Widget) DialogShown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = true
}

// Input returns the current input text
func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// Focused reports whether the input has focus
func (w *Widget) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// Entries returns the rendered entries
func (w *Widget) Entries() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Entry(nil), w.entries...)
}

func (w *Widget) search(index fulltext.Index, value string) ([]Entry, error) {
	hits, err := index.Query(norm.NFC.String(strings.TrimSpace(value)) + "*")
	if err != nil {
		log.Printf("Warning: Search for %q failed: %v", value, err)
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return BuildEntries(hits, w.items, w.source.ContextPath(), w.MaxResults), nil
}

func (w *Widget) render(entries []Entry) {
	w.clear()
	if len(entries) == 0 {
		w.view.ShowEmpty()
		return
	}
	for _, entry := range entries {
		w.view.Append(entry)
	}
	w.entries = entries
}

func (w *Widget) clear() {
	w.view.Clear()
	w.entries = nil
}

// queryable reports whether the trimmed input is long enough to search
func queryable(value string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) > indexing.MinQueryLength
}

// BuildEntries resolves ranked hits against the item cache, keeping hit
// order. Hits missing from the cache are skipped.
func BuildEntries(hits []fulltext.Hit, items ItemStore, contextPath string, limit int) []Entry {
	entries := make([]Entry, 0, len(hits))
	for _, hit := range hits {
		if limit > 0 && len(entries) >= limit {
			break
		}

		item, ok, err := items.Item(hit.Ref)
		if err != nil {
			log.Printf("Warning: Failed to read cached item %q: %v", hit.Ref, err)
			continue
		}
		if !ok {
			log.Printf("Warning: Item %q is indexed but not cached", hit.Ref)
			continue
		}

		entries = append(entries, NewEntry(item, contextPath))
	}
	return entries
}

// NewEntry renders a single item
func NewEntry(item indexing.Item, contextPath string) Entry {
	return Entry{
		Name:        item.Attribute,
		Source:      item.URL,
		Description: indexing.TruncateDescription(item.Description, indexing.DescriptionLimit),
		Href:        Href(contextPath, item.URL, item.Attribute),
	}
}

// Href links to the attribute on its source page:
// <contextPath>/<itemURL>#attr-<attribute without quotes>
func Href(contextPath, itemURL, attribute string) string {
	base := strings.TrimSuffix(contextPath, "/")

	u, err := url.Parse(itemURL)
	if err != nil || u.IsAbs() || u.Host != "" {
		u = &url.URL{Path: itemURL}
	}
	u.Path = base + "/" + strings.TrimPrefix(u.Path, "/")
	u.RawPath = ""
	u.Fragment = indexing.Fragment(attribute)
	u.RawFragment = ""

	return u.String()
}
