package tools

import (
	"fmt"
	"sync/atomic"

	"github.com/wildscribe/site-search/internal/fulltext"
)

// mockIndex is a simple in-memory mock of fulltext.Index for testing
type mockIndex struct {
	id         int
	docCount   uint64
	hits       []fulltext.Hit
	queryError error
	closeError error
	closed     atomic.Bool
}

// newMockIndex creates a new mock index with the given ID
func newMockIndex(id int) *mockIndex {
	return &mockIndex{
		id:       id,
		docCount: 100, // Default doc count
	}
}

func (m *mockIndex) Query(term string) ([]fulltext.Hit, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	if m.queryError != nil {
		return nil, m.queryError
	}
	return m.hits, nil
}

func (m *mockIndex) Snapshot() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"mock":%d}`, m.id)), nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Load() {
		return fmt.Errorf("already closed")
	}
	m.closed.Store(true)
	return m.closeError
}

// IsClosed returns true if the index has been closed
func (m *mockIndex) IsClosed() bool {
	return m.closed.Load()
}
