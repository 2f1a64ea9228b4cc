package analysiscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
)

// JSONBackend stores every company in one JSON document keyed by company
// name. Each write rewrites the whole file through a temp file and rename.
type JSONBackend struct {
	path string
	data map[string]coverage.Map
}

// NewJSONBackend returns a backend for the file at path. The file need not
// exist yet.
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{path: path, data: map[string]coverage.Map{}}
}

func (b *JSONBackend) Name() string { return "json" }

// Path returns the cache file location.
func (b *JSONBackend) Path() string { return b.path }

func (b *JSONBackend) LoadAll(_ context.Context) (map[string]coverage.Map, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		b.data = map[string]coverage.Map{}
		return map[string]coverage.Map{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis cache: %w", err)
	}

	data := map[string]coverage.Map{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse analysis cache %s: %w", b.path, err)
		}
	}
	b.data = data
	return cloneAll(data), nil
}

func (b *JSONBackend) Put(_ context.Context, company string, m coverage.Map) error {
	b.data[company] = m.Clone()
	return b.flush()
}

func (b *JSONBackend) Delete(_ context.Context, company string) error {
	delete(b.data, company)
	return b.flush()
}

func (b *JSONBackend) Clear(_ context.Context) error {
	b.data = map[string]coverage.Map{}
	return b.flush()
}

func (b *JSONBackend) Backup(_ context.Context) (string, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read analysis cache: %w", err)
	}
	dst := b.path + ".bak"
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

// Quarantine renames the cache file to <path>.corrupt and returns the new
// location. A missing file is not an error.
func (b *JSONBackend) Quarantine() (string, error) {
	dst := b.path + ".corrupt"
	if err := os.Rename(b.path, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("move aside analysis cache: %w", err)
	}
	return dst, nil
}

func (b *JSONBackend) flush() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace analysis cache: %w", err)
	}
	return nil
}

func cloneAll(in map[string]coverage.Map) map[string]coverage.Map {
	out := make(map[string]coverage.Map, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}
