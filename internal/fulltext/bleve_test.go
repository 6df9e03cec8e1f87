package fulltext_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/wildscribe/site-search/internal/fulltext"
)

var testFields = []fulltext.Field{
	{Name: "attribute", Boost: 10},
	{Name: "description", Boost: 1},
}

func doc(ref, attribute, description string) fulltext.Document {
	return fulltext.Document{
		Ref: ref,
		Fields: map[string]string{
			"attribute":   attribute,
			"description": description,
		},
	}
}

func sampleDocs() []fulltext.Document {
	return []fulltext.Document{
		doc("1", "max-connections", "The maximum number of pooled connections"),
		doc("2", "enabled", "Whether the connection pool is enabled"),
		doc("3", "connection-timeout", "Timeout in milliseconds"),
		doc("4", `He said "hi"`, "A greeting attribute"),
		doc("5", "statistics-enabled", "Enables statistics for the subsystem"),
	}
}

func buildSample(t *testing.T) fulltext.Index {
	t.Helper()
	index, err := fulltext.Build(fulltext.NewBleveEngine(), testFields, sampleDocs())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func refs(hits []fulltext.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.Ref)
	}
	return out
}

func contains(hits []fulltext.Hit, ref string) bool {
	for _, hit := range hits {
		if hit.Ref == ref {
			return true
		}
	}
	return false
}

func TestQueryExactAttribute(t *testing.T) {
	index := buildSample(t)

	for _, d := range sampleDocs() {
		attribute := d.Fields["attribute"]
		t.Run(attribute, func(t *testing.T) {
			hits, err := index.Query(attribute + "*")
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if !contains(hits, d.Ref) {
				t.Errorf("Query(%q) = %v, expected ref %s", attribute+"*", refs(hits), d.Ref)
			}
		})
	}
}

func TestQueryPrefix(t *testing.T) {
	index := buildSample(t)

	hits, err := index.Query("connec*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for _, ref := range []string{"1", "2", "3"} {
		if !contains(hits, ref) {
			t.Errorf("expected ref %s in %v", ref, refs(hits))
		}
	}
	if contains(hits, "4") {
		t.Errorf("unexpected ref 4 in %v", refs(hits))
	}
}

func TestQueryAttributeBoost(t *testing.T) {
	index := buildSample(t)

	// 2 matches "enabled" in both fields with a one-word attribute
	hits, err := index.Query("enabled*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) == 0 || hits[0].Ref != "2" {
		t.Fatalf("expected ref 2 ranked first, got %v", refs(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted by descending score: %+v", hits)
		}
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	index := buildSample(t)

	hits, err := index.Query("MAX-CONN*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !contains(hits, "1") {
		t.Errorf("expected ref 1, got %v", refs(hits))
	}
}

func TestQueryDetachedPrefixMarker(t *testing.T) {
	index := buildSample(t)

	attached, err := index.Query("max-conn*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	detached, err := index.Query("max-conn *")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(attached) == 0 || attached[0].Ref != "1" {
		t.Fatalf("expected ref 1 first, got %v", refs(attached))
	}
	if !reflect.DeepEqual(attached, detached) {
		t.Errorf("Query(%q) = %v, want %v", "max-conn *", detached, attached)
	}

	// A leading marker has no word to apply to
	if hits, err := index.Query("* zzzz"); err != nil || len(hits) != 0 {
		t.Errorf("Query(%q) = %v, %v", "* zzzz", refs(hits), err)
	}
}

func TestQueryNoMatch(t *testing.T) {
	index := buildSample(t)

	hits, err := index.Query("zzzz*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", refs(hits))
	}

	hits, err = index.Query("   ")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for blank query, got %v", refs(hits))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	engine := fulltext.NewBleveEngine()
	index := buildSample(t)

	data, err := index.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	restored, err := engine.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer restored.Close()

	count, _ := restored.DocCount()
	if count != uint64(len(sampleDocs())) {
		t.Errorf("restored DocCount = %d, want %d", count, len(sampleDocs()))
	}

	for _, term := range []string{"connec*", "enabled*", "timeout*", "greeting attribute*"} {
		original, err := index.Query(term)
		if err != nil {
			t.Fatalf("Query(%q) failed: %v", term, err)
		}
		again, err := restored.Query(term)
		if err != nil {
			t.Fatalf("restored Query(%q) failed: %v", term, err)
		}
		if !reflect.DeepEqual(refs(original), refs(again)) {
			t.Errorf("Query(%q): original %v, restored %v", term, refs(original), refs(again))
		}
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	_, err := fulltext.NewBleveEngine().Load([]byte(`{"version": 99, "fields": [], "documents": []}`))
	if !errors.Is(err, fulltext.ErrSnapshotVersion) {
		t.Errorf("expected ErrSnapshotVersion, got %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := fulltext.NewBleveEngine().Load([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid snapshot")
	}
}

func TestBuilderDuplicateRef(t *testing.T) {
	builder, err := fulltext.NewBleveEngine().NewBuilder(testFields)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	if err := builder.Add(doc("1", "a", "b")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := builder.Add(doc("1", "c", "d")); !errors.Is(err, fulltext.ErrDuplicateRef) {
		t.Errorf("expected ErrDuplicateRef, got %v", err)
	}
}

func TestBuilderRequiresFields(t *testing.T) {
	if _, err := fulltext.NewBleveEngine().NewBuilder(nil); err == nil {
		t.Error("expected error without fields")
	}
}

func TestBuildAcrossBatches(t *testing.T) {
	// More documents than one batch holds
	docs := make([]fulltext.Document, 0, 250)
	for i := 0; i < 250; i++ {
		docs = append(docs, doc(fmt.Sprintf("id-%03d", i), fmt.Sprintf("attribute-%03d", i), "shared description"))
	}

	index, err := fulltext.Build(fulltext.NewBleveEngine(), testFields, docs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer index.Close()

	count, err := index.DocCount()
	if err != nil || count != 250 {
		t.Errorf("DocCount() = %d, %v", count, err)
	}

	hits, err := index.Query("shared*")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 250 {
		t.Errorf("expected all 250 documents, got %d", len(hits))
	}
}
