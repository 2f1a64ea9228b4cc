// Package audit keeps a journal of benchmark runs and cache maintenance.
package audit

import (
	"context"
	"time"
)

// Action describes what was done.
type Action string

const (
	ActionAnalyze     Action = "analyze"
	ActionKeyword     Action = "keyword"
	ActionReanalyze   Action = "reanalyze"
	ActionCacheDelete Action = "cache_delete"
	ActionCacheClear  Action = "cache_clear"
	ActionClassify    Action = "classify"
)

// Entry is a single journal record.
type Entry struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Action          Action    `json:"action"`
	Company         string    `json:"company,omitempty"`
	DocumentHash    string    `json:"document_hash,omitempty"`
	Language        string    `json:"language,omitempty"`
	ExtractedIssues int       `json:"extracted_issues"`
	// Verdict counts. A reanalyze entry counts companies instead: YesCount
	// succeeded and NoCount failed. A classify entry uses YesCount for a
	// model pick and PartialCount for a fallback.
	YesCount     int `json:"yes_count"`
	PartialCount int `json:"partial_count"`
	NoCount      int `json:"no_count"`
	// Cached is true when the result came from the analysis cache.
	Cached   bool   `json:"cached"`
	Error    string `json:"error,omitempty"`
	Duration int64  `json:"duration_ms"`
}

// Logger is the write side of the journal.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}
