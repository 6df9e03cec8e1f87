package searchui

import (
	"html/template"
	"io"
	"sync"
)

// NoResults is shown in place of an empty result list
const NoResults = "No Results"

// resultsTemplate mirrors the Bootstrap list-group markup of the site theme
const resultsTemplate = `{{if .Empty}}{{.Placeholder}}{{else}}{{range .Entries}}<a href="{{.Href}}" class="list-group-item list-group-item-action">
    <div class="d-flex w-100 justify-content-between">
        <h5 class="mb-1">{{.Name}}</h5>
        <small>{{.Source}}</small>
    </div>
    <p class="mb-1">{{.Description}}</p>
</a>
{{end}}{{end}}`

var results = template.Must(template.New("results").Parse(resultsTemplate))

// ListView keeps the displayed entries in memory
type ListView struct {
	mu      sync.Mutex
	entries []Entry
	empty   bool
}

func (v *ListView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	v.empty = false
}

func (v *ListView) ShowEmpty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	v.empty = true
}

func (v *ListView) Append(entry Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entry)
	v.empty = false
}

// Entries returns a copy of the displayed entries
func (v *ListView) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Entry(nil), v.entries...)
}

// Empty reports whether the "No Results" placeholder is shown
func (v *ListView) Empty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.empty
}

// HTMLView renders the result list as HTML
type HTMLView struct {
	ListView
}

// Render writes the current result list. A cleared view writes nothing.
func (v *HTMLView) Render(w io.Writer) error {
	data := struct {
		Empty       bool
		Placeholder string
		Entries     []Entry
	}{
		Empty:       v.Empty(),
		Placeholder: NoResults,
		Entries:     v.Entries(),
	}
	return results.Execute(w, data)
}
