package vectordb

import (
	"fmt"
	"strings"
)

// FormatPassages renders search hits as human-readable text.
func FormatPassages(passages []Passage) string {
	if len(passages) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d passage(s):\n\n", len(passages)))

	for i, p := range passages {
		sb.WriteString(fmt.Sprintf("--- Result %d (page %d, similarity: %.4f) ---\n", i+1, p.Page, p.Similarity))
		sb.WriteString(p.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
