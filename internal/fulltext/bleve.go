package fulltext

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/wildscribe/site-search/internal/indexing"
)

// analyzerName is a unicode tokenizer with lowercasing only.
// No stop words or stemming, so prefix terms match what users type.
const (
	analyzerName = "wildscribe"
	batchSize    = 100
)

// snapshot is the serialized form of a bleve-backed index
type snapshot struct {
	Version   int        `json:"version"`
	Fields    []Field    `json:"fields"`
	Documents []Document `json:"documents"`
}

// BleveEngine builds in-memory bleve indexes
type BleveEngine struct{}

// NewBleveEngine returns the bleve engine
func NewBleveEngine() *BleveEngine {
	return &BleveEngine{}
}

// newIndexMapping maps every field as analyzed text, unstored
func newIndexMapping(fields []Field) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = analyzerName

	docMapping := bleve.NewDocumentStaticMapping()
	for _, field := range fields {
		fieldMapping := bleve.NewTextFieldMapping()
		fieldMapping.Analyzer = analyzerName
		fieldMapping.Store = false
		fieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field.Name, fieldMapping)
	}
	indexMapping.DefaultMapping = docMapping

	return indexMapping, nil
}

// NewBuilder creates a builder for a fresh in-memory index
func (e *BleveEngine) NewBuilder(fields []Field) (Builder, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}

	indexMapping, err := newIndexMapping(fields)
	if err != nil {
		return nil, err
	}

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &bleveBuilder{
		index:  index,
		batch:  index.NewBatch(),
		fields: append([]Field(nil), fields...),
		seen:   make(map[string]struct{}),
	}, nil
}

// Load rebuilds an index from a snapshot
func (e *BleveEngine) Load(data []byte) (Index, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse index snapshot: %w", err)
	}
	if snap.Version != indexing.SnapshotVersion {
		return nil, fmt.Errorf("%w: have v%d, want v%d", ErrSnapshotVersion, snap.Version, indexing.SnapshotVersion)
	}
	return Build(e, snap.Fields, snap.Documents)
}

type bleveBuilder struct {
	index  bleve.Index
	batch  *bleve.Batch
	fields []Field
	docs   []Document
	seen   map[string]struct{}
}

func (b *bleveBuilder) Add(doc Document) error {
	if _, dup := b.seen[doc.Ref]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRef, doc.Ref)
	}

	// Only the mapped fields are indexed and kept in the snapshot
	kept := make(map[string]string, len(b.fields))
	body := make(map[string]interface{}, len(b.fields))
	for _, field := range b.fields {
		if value, ok := doc.Fields[field.Name]; ok {
			kept[field.Name] = value
			body[field.Name] = value
		}
	}

	if err := b.batch.Index(doc.Ref, body); err != nil {
		return fmt.Errorf("failed to add document %s to batch: %w", doc.Ref, err)
	}
	b.seen[doc.Ref] = struct{}{}
	b.docs = append(b.docs, Document{Ref: doc.Ref, Fields: kept})

	if b.batch.Size() >= batchSize {
		if err := b.index.Batch(b.batch); err != nil {
			return fmt.Errorf("failed to index batch: %w", err)
		}
		b.batch = b.index.NewBatch()
	}
	return nil
}

func (b *bleveBuilder) Finish() (Index, error) {
	if b.batch.Size() > 0 {
		if err := b.index.Batch(b.batch); err != nil {
			b.index.Close()
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	analyzer := b.index.Mapping().AnalyzerNamed(analyzerName)
	if analyzer == nil {
		b.index.Close()
		return nil, fmt.Errorf("analyzer %s not registered", analyzerName)
	}

	return &bleveIndex{
		index:    b.index,
		analyzer: analyzer,
		fields:   b.fields,
		docs:     b.docs,
	}, nil
}

type bleveIndex struct {
	index    bleve.Index
	analyzer analysis.Analyzer
	fields   []Field
	docs     []Document
}

func (i *bleveIndex) Query(term string) ([]Hit, error) {
	q := i.buildQuery(term)
	if q == nil {
		return []Hit{}, nil
	}

	count, err := i.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	// Deterministic tie-breaking: score DESC, then ref ASC
	req.SortBy([]string{"-_score", "_id"})

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hits = append(hits, Hit{Ref: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// buildQuery turns "foo bar*" into a disjunction of per-field term and
// prefix queries. Each word goes through the index analyzer so multi-token
// words like "max-connections" match the way they were indexed.
func (i *bleveIndex) buildQuery(term string) query.Query {
	var clauses []query.Query

	for _, w := range queryWords(term) {
		tokens := i.analyzer.Analyze([]byte(w.text))

		for n, token := range tokens {
			text := string(token.Term)
			asPrefix := w.prefix && n == len(tokens)-1

			for _, field := range i.fields {
				boost := field.Boost
				if boost <= 0 {
					boost = 1
				}
				if asPrefix {
					pq := bleve.NewPrefixQuery(text)
					pq.SetField(field.Name)
					pq.SetBoost(boost)
					clauses = append(clauses, pq)
				} else {
					tq := bleve.NewTermQuery(text)
					tq.SetField(field.Name)
					tq.SetBoost(boost)
					clauses = append(clauses, tq)
				}
			}
		}
	}

	if len(clauses) == 0 {
		return nil
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

type queryWord struct {
	text   string
	prefix bool
}

// queryWords splits a query into words. A lone "*" marks the word before
// it as a prefix, so "max-conn *" reads like "max-conn*".
func queryWords(term string) []queryWord {
	var words []queryWord
	for _, field := range strings.Fields(term) {
		text := strings.TrimRight(field, "*")
		prefix := text != field
		if text == "" {
			if prefix && len(words) > 0 {
				words[len(words)-1].prefix = true
			}
			continue
		}
		words = append(words, queryWord{text: text, prefix: prefix})
	}
	return words
}

func (i *bleveIndex) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Version:   indexing.SnapshotVersion,
		Fields:    i.fields,
		Documents: i.docs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize index: %w", err)
	}
	return data, nil
}

func (i *bleveIndex) DocCount() (uint64, error) {
	return i.index.DocCount()
}

func (i *bleveIndex) Close() error {
	return i.index.Close()
}
