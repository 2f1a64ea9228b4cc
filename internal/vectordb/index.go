package vectordb

import "context"

// Index is a searchable semantic index over one document.
type Index interface {
	// Search returns up to k passages most similar to query, best first.
	Search(ctx context.Context, query string, k int) ([]Passage, error)
	// Count returns the number of stored passages.
	Count() int
}
