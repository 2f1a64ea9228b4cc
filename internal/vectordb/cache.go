package vectordb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ziadkadry99/esg-benchmark/internal/embeddings"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/textsplit"
)

// ErrIndexNotFound is returned by Open when no persisted index exists for a key.
var ErrIndexNotFound = errors.New("vector index not found")

const embedBatchSize = 64

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Dir is the service-local root. New indexes are always written here.
	Dir string
	// LegacyDir is a shared root checked before Dir. Optional.
	LegacyDir    string
	Embedder     embeddings.Embedder
	ChunkSize    int
	ChunkOverlap int
	Logger       *slog.Logger
}

// Cache maps a document content hash to a persisted semantic index. Loaded
// indexes are kept open for the life of the process.
type Cache struct {
	dir       string
	legacyDir string
	embedder  embeddings.Embedder
	splitter  *textsplit.Splitter
	logger    *slog.Logger

	mu    sync.Mutex
	open  map[string]*ChromemIndex
	locks map[string]*sync.Mutex

	builds atomic.Int64
}

// NewCache creates a Cache. The local directory is created on first build.
func NewCache(opts CacheOptions) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:       opts.Dir,
		legacyDir: opts.LegacyDir,
		embedder:  opts.Embedder,
		splitter:  textsplit.New(opts.ChunkSize, opts.ChunkOverlap),
		logger:    logger.With("component", "vectordb"),
		open:      make(map[string]*ChromemIndex),
		locks:     make(map[string]*sync.Mutex),
	}
}

// GetOrBuild returns the index for key. It looks in the legacy root, then the
// local root, and only splits and embeds pages when neither holds a
// non-empty index. Concurrent calls for one key in this process build once.
func (c *Cache) GetOrBuild(ctx context.Context, key string, pages []pdftext.Page) (Index, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if idx := c.cached(key); idx != nil {
		return idx, nil
	}

	idx, err := c.load(key)
	if err == nil {
		c.remember(key, idx)
		return idx, nil
	}
	if !errors.Is(err, ErrIndexNotFound) {
		return nil, err
	}

	c.logger.Info("building vector index", "key", key, "pages", len(pages))
	idx, err = c.build(ctx, key, pages)
	if err != nil {
		return nil, err
	}
	c.remember(key, idx)
	return idx, nil
}

// Open returns a previously persisted index without building. It returns
// ErrIndexNotFound when no root holds one.
func (c *Cache) Open(key string) (Index, error) {
	if idx := c.cached(key); idx != nil {
		return idx, nil
	}
	idx, err := c.load(key)
	if err != nil {
		return nil, err
	}
	c.remember(key, idx)
	return idx, nil
}

// Builds reports how many indexes this Cache has embedded.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Reset forgets key and deletes its local index. Legacy indexes are shared
// and never deleted.
func (c *Cache) Reset(key string) error {
	c.mu.Lock()
	delete(c.open, key)
	c.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(c.dir, key)); err != nil {
		return fmt.Errorf("remove index %s: %w", key, err)
	}
	return nil
}

func (c *Cache) load(key string) (*ChromemIndex, error) {
	for _, root := range c.roots() {
		dir := filepath.Join(root, key)
		if !nonEmptyDir(dir) {
			continue
		}
		idx, err := NewChromemIndex(c.embedder)
		if err != nil {
			return nil, err
		}
		if err := idx.Load(dir); err != nil {
			// A foreign or half-written directory is skipped rather than fatal.
			c.logger.Warn("skipping unreadable vector index", "dir", dir, "error", err)
			continue
		}
		if idx.Count() == 0 {
			continue
		}
		c.logger.Info("loaded vector index", "dir", dir, "passages", idx.Count())
		return idx, nil
	}
	return nil, ErrIndexNotFound
}

func (c *Cache) build(ctx context.Context, key string, pages []pdftext.Page) (*ChromemIndex, error) {
	var passages []Passage
	for _, p := range pages {
		for _, seg := range c.splitter.Split(p.Text) {
			passages = append(passages, Passage{
				ID:      fmt.Sprintf("%s-%d", key, len(passages)),
				Content: seg,
				Page:    p.Number,
			})
		}
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("no text to index for %s", key)
	}

	vectors := make([][]float32, 0, len(passages))
	for i := 0; i < len(passages); i += embedBatchSize {
		end := min(i+embedBatchSize, len(passages))
		texts := make([]string, 0, end-i)
		for _, p := range passages[i:end] {
			texts = append(texts, p.Content)
		}
		batch, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed passages: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d passages", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}

	idx, err := NewChromemIndex(c.embedder)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(ctx, passages, vectors); err != nil {
		return nil, fmt.Errorf("add passages: %w", err)
	}
	c.builds.Add(1)

	dir := filepath.Join(c.dir, key)
	if err := idx.Persist(dir); err != nil {
		// The in-memory index is still usable for this process.
		c.logger.Error("failed to persist vector index", "dir", dir, "error", err)
	}
	return idx, nil
}

func (c *Cache) roots() []string {
	if c.legacyDir == "" || filepath.Clean(c.legacyDir) == filepath.Clean(c.dir) {
		return []string{c.dir}
	}
	return []string{c.legacyDir, c.dir}
}

func (c *Cache) cached(key string) *ChromemIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open[key]
}

func (c *Cache) remember(key string, idx *ChromemIndex) {
	c.mu.Lock()
	c.open[key] = idx
	c.mu.Unlock()
}

func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

func nonEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// HashFile returns the hex SHA-256 of the file contents. The path plays no
// part, so renamed copies share a key.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hash: %w", err)
	}
	defer f.Close()
	return HashReader(f)
}

// HashReader returns the hex SHA-256 of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
