package indexing

// Search index constants
const (
	// IndexFileName is the index document published at the site's context path
	IndexFileName = "search-index.json"

	// FieldAttribute and FieldDescription are the indexed item fields
	FieldAttribute   = "attribute"
	FieldDescription = "description"

	// AttributeBoost weights attribute matches above description matches
	AttributeBoost = 10.0

	// DescriptionLimit is the number of characters shown before truncation
	DescriptionLimit = 250

	// DefaultMaxResults caps the rendered result list unless configured
	DefaultMaxResults = 20

	// MinQueryLength is the longest trimmed input that still counts as "no query"
	MinQueryLength = 3

	// FragmentPrefix links a result to the attribute section of its page
	FragmentPrefix = "attr-"

	// SnapshotVersion increments when the serialized index layout changes
	// v1: fields + documents in insertion order
	SnapshotVersion = 1
)
