package analysiscache

import (
	"context"
	"errors"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
)

// ErrNotFound is returned when a company has no cached analysis.
var ErrNotFound = errors.New("company not cached")

// Backend persists per-company coverage maps. Implementations must be safe
// for use by one Cache; the Cache serializes calls.
type Backend interface {
	Name() string
	LoadAll(ctx context.Context) (map[string]coverage.Map, error)
	Put(ctx context.Context, company string, m coverage.Map) error
	Delete(ctx context.Context, company string) error
	Clear(ctx context.Context) error
	// Backup writes a copy of the persisted state and returns its location.
	// An empty location means there was nothing to back up.
	Backup(ctx context.Context) (string, error)
}
