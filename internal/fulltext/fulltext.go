// Package fulltext models the full-text search capability the search widget
// depends on: build an index from weighted fields, query it for ranked refs,
// and serialize it for reuse within a session.
//
// The bootstrap code only talks to the Engine, Builder and Index interfaces,
// so any conformant engine can be plugged in. BleveEngine is the production
// implementation.
package fulltext

import "errors"

var (
	// ErrDuplicateRef is returned when a ref is added twice to one builder
	ErrDuplicateRef = errors.New("duplicate document ref")

	// ErrSnapshotVersion is returned when a snapshot has an unknown layout
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Field is an indexed field and its scoring weight
type Field struct {
	Name  string  `json:"name"`
	Boost float64 `json:"boost"`
}

// Document is one entry of the index, identified by Ref
type Document struct {
	Ref    string            `json:"ref"`
	Fields map[string]string `json:"fields"`
}

// Hit is a ranked reference returned by a query
type Hit struct {
	Ref   string  `json:"ref"`
	Score float64 `json:"score"`
}

// Index is a ready-to-query search index
type Index interface {
	// Query returns matching refs by descending relevance.
	// Whitespace separates terms; a trailing '*' makes a term match as a prefix.
	Query(term string) ([]Hit, error)

	// Snapshot serializes the index for Engine.Load
	Snapshot() ([]byte, error)

	// DocCount returns the number of documents in the index
	DocCount() (uint64, error)

	// Close closes the index
	Close() error
}

// Builder accumulates documents for a new index
type Builder interface {
	Add(doc Document) error
	Finish() (Index, error)
}

// Engine creates and restores indexes
type Engine interface {
	NewBuilder(fields []Field) (Builder, error)
	Load(snapshot []byte) (Index, error)
}

// Build adds every document and finishes the index
func Build(engine Engine, fields []Field, docs []Document) (Index, error) {
	builder, err := engine.NewBuilder(fields)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := builder.Add(doc); err != nil {
			return nil, err
		}
	}
	return builder.Finish()
}
