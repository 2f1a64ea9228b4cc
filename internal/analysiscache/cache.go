// Package analysiscache keeps finished company analyses in memory and
// mirrors every change to a persistent backend.
package analysiscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
)

// Cache is the in-memory view of all cached analyses. All methods are safe
// for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	backend Backend
	entries map[string]coverage.Map
	logger  *slog.Logger
}

// quarantiner is implemented by backends that can move an unreadable store
// out of the way before it is overwritten.
type quarantiner interface {
	Quarantine() (string, error)
}

// New loads everything from backend. A store that cannot be read is logged
// and the cache starts empty; a JSON file is first moved aside to
// <path>.corrupt so the next write does not destroy it.
func New(ctx context.Context, backend Backend, logger *slog.Logger) (*Cache, error) {
	if backend == nil {
		return nil, errors.New("analysiscache: backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		backend: backend,
		entries: map[string]coverage.Map{},
		logger:  logger.With("component", "analysiscache", "backend", backend.Name()),
	}
	if err := c.Reload(ctx); err != nil {
		c.logger.Error("starting with empty analysis cache", "error", err)
		if q, ok := backend.(quarantiner); ok {
			moved, qerr := q.Quarantine()
			if qerr != nil {
				c.logger.Error("failed to move unreadable cache aside", "error", qerr)
			} else if moved != "" {
				c.logger.Warn("unreadable cache moved aside", "path", moved)
			}
		}
	}
	return c, nil
}

// Get returns a copy of the cached map for company.
func (c *Cache) Get(company string) (coverage.Map, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[company]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Put stores m for company. Memory is updated even when the backend write
// fails; the error is returned so callers can log it.
func (c *Cache) Put(ctx context.Context, company string, m coverage.Map) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[company] = m.Clone()
	if err := c.backend.Put(ctx, company, m); err != nil {
		return fmt.Errorf("persist analysis for %s: %w", company, err)
	}
	return nil
}

// Delete removes company and reports whether it was present.
func (c *Cache) Delete(ctx context.Context, company string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[company]; !ok {
		return false, nil
	}
	delete(c.entries, company)
	if err := c.backend.Delete(ctx, company); err != nil {
		return true, fmt.Errorf("persist delete of %s: %w", company, err)
	}
	return true, nil
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]coverage.Map{}
	return c.backend.Clear(ctx)
}

// Backup copies the persisted state aside. See Backend.Backup.
func (c *Cache) Backup(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Backup(ctx)
}

// Companies returns the cached company names, sorted.
func (c *Cache) Companies() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a deep copy of every entry.
func (c *Cache) Snapshot() map[string]coverage.Map {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.entries)
}

// Len returns the number of cached companies.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reload replaces memory with the backend's contents. On error the previous
// entries are kept.
func (c *Cache) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	all, err := c.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load analysis cache: %w", err)
	}
	c.entries = all
	c.logger.Debug("analysis cache loaded", "companies", len(all))
	return nil
}
