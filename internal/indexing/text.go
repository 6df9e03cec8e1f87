package indexing

import "strings"

var quoteStripper = strings.NewReplacer(`'`, "", `"`, "")

// SanitizeAttribute removes single and double quotes so the attribute can be
// used as a fragment identifier
// Example: `He said "hi"` -> "He said hi"
func SanitizeAttribute(attribute string) string {
	return quoteStripper.Replace(attribute)
}

// TruncateDescription cuts text to limit characters and appends an ellipsis
// when something was cut
func TruncateDescription(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// Fragment returns the URL fragment (without '#') linking to an attribute
func Fragment(attribute string) string {
	return FragmentPrefix + SanitizeAttribute(attribute)
}
