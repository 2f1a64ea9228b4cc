package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/esg-benchmark/internal/db"
)

// Store provides CRUD operations for journal entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated and a
// zero Timestamp is replaced by the current time.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, timestamp, action, company, document_hash, language,
			extracted_issues, yes_count, partial_count, no_count,
			cached, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.DateTime),
		string(entry.Action),
		entry.Company,
		entry.DocumentHash,
		entry.Language,
		entry.ExtractedIssues,
		entry.YesCount,
		entry.PartialCount,
		entry.NoCount,
		entry.Cached,
		entry.Error,
		entry.Duration,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, timestamp, action, company, document_hash, language,
	extracted_issues, yes_count, partial_count, no_count, cached, error, duration_ms
	FROM audit_entries`

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanInto(row)
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	Company    string
	Action     Action
	Since      *time.Time
	Until      *time.Time
	FailedOnly bool
	Limit      int
	Offset     int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Company != "" {
		clauses = append(clauses, "company = ?")
		args = append(args, filter.Company)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}
	if filter.FailedOnly {
		clauses = append(clauses, "error != ''")
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e      Entry
		action string
		ts     string
		cached int
	)

	err := sc.Scan(
		&e.ID, &ts, &action, &e.Company, &e.DocumentHash, &e.Language,
		&e.ExtractedIssues, &e.YesCount, &e.PartialCount, &e.NoCount,
		&cached, &e.Error, &e.Duration,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("audit entry not found")
	}
	if err != nil {
		return nil, err
	}

	e.Action = Action(action)
	e.Cached = cached != 0

	// The driver may hand DATETIME columns back already formatted as RFC 3339.
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, parseErr := time.Parse(layout, ts); parseErr == nil {
			e.Timestamp = t
			break
		}
	}

	return &e, nil
}
