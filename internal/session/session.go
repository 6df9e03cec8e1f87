// Package session holds the per-session search state: the resolved context
// path, the serialized search index and one entry per indexed item.
//
// Keys live in a fixed namespace:
//
//	contextPath        resolved context path
//	wildscribe-index   serialized search index
//	item:<id>          JSON encoded indexing.Item
//
// Item ids are always prefixed, so an id equal to a reserved key cannot
// overwrite it. Entries are overwritten on recompute and never evicted.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wildscribe/site-search/internal/indexing"
)

const (
	KeyContextPath = "contextPath"
	KeyIndex       = "wildscribe-index"
	itemKeyPrefix  = "item:"
)

var (
	// ErrClosed is returned by backends used after Close
	ErrClosed = errors.New("session closed")
)

// Backend is the key-value storage behind a Session
type Backend interface {
	// Get returns the value and whether the key exists
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Session is the typed view over a Backend
type Session struct {
	backend Backend
}

// New wraps a backend
func New(backend Backend) *Session {
	return &Session{backend: backend}
}

// NewMemory returns a session kept in process memory
func NewMemory() *Session {
	return New(NewMemoryBackend())
}

// ItemKey returns the namespaced key of an item id
func ItemKey(id string) string {
	return itemKeyPrefix + id
}

// Has reports whether a raw key is present
func (s *Session) Has(key string) (bool, error) {
	_, ok, err := s.backend.Get(key)
	return ok, err
}

// ContextPath returns the cached context path
func (s *Session) ContextPath() (string, bool, error) {
	value, ok, err := s.backend.Get(KeyContextPath)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(value), true, nil
}

// HasContextPath reports whether a context path is cached
func (s *Session) HasContextPath() (bool, error) {
	return s.Has(KeyContextPath)
}

// SetContextPath caches the resolved context path
func (s *Session) SetContextPath(path string) error {
	return s.backend.Set(KeyContextPath, []byte(path))
}

// Index returns the serialized search index
func (s *Session) Index() ([]byte, bool, error) {
	return s.backend.Get(KeyIndex)
}

// HasIndex reports whether a serialized index is cached
func (s *Session) HasIndex() (bool, error) {
	return s.Has(KeyIndex)
}

// SetIndex caches the serialized search index
func (s *Session) SetIndex(snapshot []byte) error {
	return s.backend.Set(KeyIndex, snapshot)
}

// Item returns the cached item with the given id
func (s *Session) Item(id string) (indexing.Item, bool, error) {
	value, ok, err := s.backend.Get(ItemKey(id))
	if err != nil || !ok {
		return indexing.Item{}, ok, err
	}

	var item indexing.Item
	if err := json.Unmarshal(value, &item); err != nil {
		return indexing.Item{}, false, fmt.Errorf("failed to decode cached item %q: %w", id, err)
	}
	return item, true, nil
}

// HasItem reports whether an item is cached
func (s *Session) HasItem(id string) (bool, error) {
	return s.Has(ItemKey(id))
}

// SetItem caches an item under its namespaced id
func (s *Session) SetItem(item indexing.Item) error {
	value, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item %q: %w", item.ID, err)
	}
	return s.backend.Set(ItemKey(item.ID), value)
}

// ForgetIndex drops the cached index and context path so the next bootstrap
// starts from scratch. Cached items are left in place and overwritten by the
// next build.
func (s *Session) ForgetIndex() error {
	if err := s.backend.Delete(KeyIndex); err != nil {
		return err
	}
	return s.backend.Delete(KeyContextPath)
}

// Close releases the backend
func (s *Session) Close() error {
	return s.backend.Close()
}
