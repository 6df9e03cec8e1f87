package indexing

// Item is one searchable record of the site's search-index.json
type Item struct {
	ID          string `json:"id"`
	Attribute   string `json:"attribute"`   // Attribute name, weighted above the description
	Description string `json:"description"` // Free text
	URL         string `json:"url"`         // Page of the attribute, relative to the context path
}

// Fields returns the indexed fields of the item keyed by field name
func (i Item) Fields() map[string]string {
	return map[string]string{
		FieldAttribute:   i.Attribute,
		FieldDescription: i.Description,
	}
}
