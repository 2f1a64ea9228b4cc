// Package coverage defines how well a report addresses each taxonomy item.
package coverage

import (
	"math"

	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
)

// Level is the coverage verdict for one taxonomy item.
type Level string

const (
	Yes       Level = "Yes"
	Partially Level = "Partially"
	No        Level = "No"
)

// Result is the verdict for one taxonomy item in one document.
type Result struct {
	Coverage    Level  `json:"coverage"`
	Response    string `json:"response"`
	SourcePages []int  `json:"source_pages"`
	// Set only for direct matches against an extracted company issue.
	MatchedIssue string `json:"matched_issue,omitempty"`
	Score        int    `json:"score,omitempty"`
}

// NewResult builds a Result, normalizing nil pages to an empty list so the
// JSON form is always an array.
func NewResult(level Level, response string, pages []int) Result {
	if pages == nil {
		pages = []int{}
	}
	return Result{Coverage: level, Response: response, SourcePages: pages}
}

// Map is keyed by taxonomy item name.
type Map map[string]Result

// Uniform returns a Map with every taxonomy item set to the same verdict.
func Uniform(level Level, response string) Map {
	m := make(Map, taxonomy.Len())
	for _, name := range taxonomy.Names() {
		m[name] = NewResult(level, response, nil)
	}
	return m
}

// Clone returns a deep copy.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		v.SourcePages = append([]int{}, v.SourcePages...)
		out[k] = v
	}
	return out
}

// Counts tallies the verdicts.
func (m Map) Counts() (yes, partial, no int) {
	for _, r := range m {
		switch r.Coverage {
		case Yes:
			yes++
		case Partially:
			partial++
		default:
			no++
		}
	}
	return yes, partial, no
}

// Complete reports whether m has exactly one entry per taxonomy item.
func (m Map) Complete() bool {
	if len(m) != taxonomy.Len() {
		return false
	}
	for _, name := range taxonomy.Names() {
		if _, ok := m[name]; !ok {
			return false
		}
	}
	return true
}

// Summary aggregates results, typically one per company for a keyword.
type Summary struct {
	Total        int     `json:"total_companies"`
	Full         int     `json:"full_coverage"`
	Partial      int     `json:"partial_coverage"`
	None         int     `json:"no_coverage"`
	CoverageRate float64 `json:"coverage_rate"`
}

// Summarize counts verdicts and computes the coverage rate, where a partial
// counts half, rounded to one decimal place.
func Summarize(results map[string]Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Coverage {
		case Yes:
			s.Full++
		case Partially:
			s.Partial++
		case No:
			s.None++
		}
	}
	s.Total = len(results)
	if s.Total > 0 {
		rate := (float64(s.Full) + 0.5*float64(s.Partial)) / float64(s.Total) * 100
		s.CoverageRate = math.Round(rate*10) / 10
	}
	return s
}
