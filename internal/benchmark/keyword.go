package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/langdetect"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

const (
	keywordPageDocs     = 5
	keywordScanDocs     = 10
	keywordYesMentions  = 5
	keywordPartMentions = 2
	keywordYesRunes     = 300
	keywordPartRunes    = 200
)

// ErrEmptyKeyword is returned for a blank keyword.
var ErrEmptyKeyword = errors.New("keyword must not be empty")

// CompanyReport names one company's report for a multi-company request.
type CompanyReport struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// keywordCache memoizes keyword results per report path and keyword.
type keywordCache struct {
	mu      sync.Mutex
	entries map[string]coverage.Result
}

func (c *keywordCache) get(key string) (coverage.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *keywordCache) put(key string, r coverage.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]coverage.Result)
	}
	c.entries[key] = r
}

func (c *keywordCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = nil
	return n
}

// AnalyzeKeywordInReport rates how thoroughly one report covers keyword.
// Only successful analyses are memoized. Failures come back as a No result,
// so the error return is reserved for invalid input.
func (s *Service) AnalyzeKeywordInReport(ctx context.Context, path, company, keyword string) (coverage.Result, error) {
	if strings.TrimSpace(keyword) == "" {
		return coverage.Result{}, ErrEmptyKeyword
	}
	start := time.Now()
	entry := audit.Entry{Action: audit.ActionKeyword, Company: company}
	defer func() {
		entry.Duration = time.Since(start).Milliseconds()
		s.record(ctx, entry)
	}()

	key := path + ":" + keyword
	if r, ok := s.keywords.get(key); ok {
		entry.Cached = true
		countInto(&entry, r)
		return r, nil
	}

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil || len(pages) == 0 {
		s.logger.Warn("no text extracted", "company", company, "path", path, "error", err)
		entry.Error = extractionFailed
		r := coverage.NewResult(coverage.No, extractionFailed, nil)
		countInto(&entry, r)
		return r, nil
	}

	lang := langdetect.Detect(pdftext.Texts(pages))
	entry.Language = string(lang)

	r, err := s.keywordResult(ctx, path, pages, lang, keyword, &entry)
	if err != nil {
		s.logger.Error("keyword analysis failed", "company", company, "keyword", keyword, "error", err)
		entry.Error = err.Error()
		r = coverage.NewResult(coverage.No, fmt.Sprintf("analysis error: %v", err), nil)
		countInto(&entry, r)
		return r, nil
	}

	s.keywords.put(key, r)
	countInto(&entry, r)
	return r, nil
}

func (s *Service) keywordResult(ctx context.Context, path string, pages []pdftext.Page, lang langdetect.Language, keyword string, entry *audit.Entry) (coverage.Result, error) {
	idx, hash, err := s.index(ctx, path, pages)
	entry.DocumentHash = hash
	if err != nil {
		return coverage.Result{}, err
	}

	answer, passages, err := s.answer(ctx, idx, keywordQuery(lang, keyword), s.retrieval.KeywordTopK)
	if err != nil {
		return coverage.Result{}, err
	}

	sourcePages := vectordb.Pages(passages, keywordPageDocs)
	if isNegative(answer) {
		return coverage.NewResult(coverage.No, "no related content found", sourcePages), nil
	}

	combined := strings.ToLower(strings.Join(vectordb.Contents(passages, keywordScanDocs), " "))
	mentions := strings.Count(combined, strings.ToLower(keyword))
	switch {
	case mentions >= keywordYesMentions:
		return coverage.NewResult(coverage.Yes, truncateRunes(answer, keywordYesRunes), sourcePages), nil
	case mentions >= keywordPartMentions:
		return coverage.NewResult(coverage.Partially, truncateRunes(answer, keywordPartRunes), sourcePages), nil
	default:
		return coverage.NewResult(coverage.No, "insufficient keyword mentions", sourcePages), nil
	}
}

// AnalyzeKeywordForCompanies runs AnalyzeKeywordInReport for every company.
// A missing report only affects that company. When a name repeats, the
// later entry wins.
func (s *Service) AnalyzeKeywordForCompanies(ctx context.Context, keyword string, companies []CompanyReport) (map[string]coverage.Result, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, ErrEmptyKeyword
	}
	s.logger.Info("analyzing keyword across companies", "keyword", keyword, "companies", len(companies))

	results := make([]coverage.Result, len(companies))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, c := range companies {
		g.Go(func() error {
			if _, err := os.Stat(c.Path); err != nil {
				results[i] = coverage.NewResult(coverage.No, "file not found", nil)
				return nil
			}
			r, err := s.AnalyzeKeywordInReport(ctx, c.Path, c.Name, keyword)
			if err != nil {
				r = coverage.NewResult(coverage.No, fmt.Sprintf("analysis error: %v", err), nil)
			}
			results[i] = r
			return nil
		})
	}
	g.Wait()

	out := make(map[string]coverage.Result, len(companies))
	for i, c := range companies {
		out[c.Name] = results[i]
	}
	return out, nil
}

// Summarize aggregates per-company keyword results.
func (s *Service) Summarize(results map[string]coverage.Result) coverage.Summary {
	return coverage.Summarize(results)
}

// ClearCache empties the keyword result cache. Company analyses are not
// affected.
func (s *Service) ClearCache() {
	n := s.keywords.clear()
	s.logger.Info("keyword cache cleared", "entries", n)
}

func countInto(e *audit.Entry, r coverage.Result) {
	switch r.Coverage {
	case coverage.Yes:
		e.YesCount = 1
	case coverage.Partially:
		e.PartialCount = 1
	default:
		e.NoCount = 1
	}
}
