package vectordb

import "sort"

// Passage is one stored text segment of a document, tagged with the page it
// was cut from.
type Passage struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Page       int     `json:"page"`
	Similarity float32 `json:"similarity,omitempty"`
}

// Pages returns the distinct page numbers of the first n passages in
// ascending order. n <= 0 means all passages.
func Pages(passages []Passage, n int) []int {
	if n <= 0 || n > len(passages) {
		n = len(passages)
	}
	seen := make(map[int]bool, n)
	pages := make([]int, 0, n)
	for _, p := range passages[:n] {
		if seen[p.Page] {
			continue
		}
		seen[p.Page] = true
		pages = append(pages, p.Page)
	}
	sort.Ints(pages)
	return pages
}

// Contents returns the text of the first n passages. n <= 0 means all.
func Contents(passages []Passage, n int) []string {
	if n <= 0 || n > len(passages) {
		n = len(passages)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = passages[i].Content
	}
	return out
}
