package analysiscache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/db"
)

// SQLiteBackend stores one row per company in the company_analyses table.
type SQLiteBackend struct {
	db *db.DB
}

// NewSQLiteBackend creates a backend on an open database.
func NewSQLiteBackend(database *db.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) LoadAll(ctx context.Context) (map[string]coverage.Map, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT company, result FROM company_analyses`)
	if err != nil {
		return nil, fmt.Errorf("querying company analyses: %w", err)
	}
	defer rows.Close()

	out := map[string]coverage.Map{}
	for rows.Next() {
		var company, raw string
		if err := rows.Scan(&company, &raw); err != nil {
			return nil, err
		}
		var m coverage.Map
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decoding analysis for %s: %w", company, err)
		}
		out[company] = m
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) Put(ctx context.Context, company string, m coverage.Map) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO company_analyses (company, result, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(company) DO UPDATE SET result = excluded.result, updated_at = excluded.updated_at`,
		company, string(raw))
	if err != nil {
		return fmt.Errorf("upserting analysis: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, company string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM company_analyses WHERE company = ?`, company); err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM company_analyses`); err != nil {
		return fmt.Errorf("clearing analyses: %w", err)
	}
	return nil
}

// Backup exports the table as JSON next to the database file, in the same
// layout the JSON backend uses.
func (b *SQLiteBackend) Backup(ctx context.Context) (string, error) {
	if b.db.Path() == ":memory:" {
		return "", nil
	}
	all, err := b.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", nil
	}
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}
	dst := b.db.Path() + ".analyses.json.bak"
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}
