package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/esg-benchmark/internal/embeddings"
)

const (
	collectionName = "report"
	indexFileName  = "chromem.gob.gz"
)

// ChromemIndex implements Index using an in-memory chromem-go collection
// that is exported to a single compressed file.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemIndex creates an empty index.
func NewChromemIndex(embedder embeddings.Embedder) (*ChromemIndex, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemIndex{db: db, collection: col, embedFunc: ef}, nil
}

// Add stores passages with precomputed vectors. vectors[i] belongs to
// passages[i].
func (s *ChromemIndex) Add(ctx context.Context, passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("have %d passages but %d vectors", len(passages), len(vectors))
	}
	if len(passages) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Content,
			Embedding: embeddings.Normalize(vectors[i]),
			Metadata:  map[string]string{"page": strconv.Itoa(p.Page)},
		}
	}
	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemIndex) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Passage, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		out[i] = Passage{
			ID:         r.ID,
			Content:    r.Content,
			Page:       page,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemIndex) Count() int {
	return s.collection.Count()
}

// Persist writes the index to dir, replacing any previous export atomically.
func (s *ChromemIndex) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	final := filepath.Join(dir, indexFileName)
	tmp := final + ".tmp"
	if err := s.db.ExportToFile(tmp, true, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export index: %w", err)
	}
	return os.Rename(tmp, final)
}

// Load replaces the index contents with the export found in dir.
func (s *ChromemIndex) Load(dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, indexFileName), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}
