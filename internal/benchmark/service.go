// Package benchmark rates competitor sustainability reports against the
// reference ESG taxonomy.
//
// A company analysis extracts the report's self-declared material issues
// through retrieval-augmented generation, matches them to taxonomy items by
// name and keyword, and searches the whole report for every item left
// unmatched. Results are cached per company.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/langdetect"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

const extractionFailed = "PDF text extraction failed"

// IndexSource yields the semantic index of a document by content hash,
// building it from pages when none exists.
type IndexSource interface {
	GetOrBuild(ctx context.Context, key string, pages []pdftext.Page) (vectordb.Index, error)
}

// Retrieval sets how many passages each query pulls.
type Retrieval struct {
	ExtractTopK    int
	FallbackTopK   int
	KeywordTopK    int
	SourcePageDocs int
}

// DefaultRetrieval is a wide net for issue extraction and a narrower one
// for per-item and keyword searches.
func DefaultRetrieval() Retrieval {
	return Retrieval{ExtractTopK: 70, FallbackTopK: 50, KeywordTopK: 50, SourcePageDocs: 10}
}

// Config wires a Service. Extractor, Indexes, LLM and Cache are required.
type Config struct {
	Extractor pdftext.Extractor
	Indexes   IndexSource
	LLM       llm.Provider
	Cache     *analysiscache.Cache
	// Journal is optional.
	Journal  audit.Logger
	Assigner Assigner
	Logger   *slog.Logger

	Retrieval   Retrieval
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxConcurrency bounds parallel fallback searches and per-company
	// keyword analyses.
	MaxConcurrency int
}

// Service is the benchmark facade. It is safe for concurrent use.
type Service struct {
	extractor pdftext.Extractor
	indexes   IndexSource
	llm       llm.Provider
	cache     *analysiscache.Cache
	journal   audit.Logger
	assigner  Assigner
	logger    *slog.Logger

	retrieval   Retrieval
	gen         llm.GenerateOptions
	concurrency int
	hashFile    func(path string) (string, error)

	keywords keywordCache
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Extractor == nil:
		return nil, errors.New("benchmark: extractor is required")
	case cfg.Indexes == nil:
		return nil, errors.New("benchmark: index source is required")
	case cfg.LLM == nil:
		return nil, errors.New("benchmark: llm provider is required")
	case cfg.Cache == nil:
		return nil, errors.New("benchmark: analysis cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	assigner := cfg.Assigner
	if assigner == nil {
		assigner = Greedy{}
	}

	r := cfg.Retrieval
	def := DefaultRetrieval()
	if r.ExtractTopK <= 0 {
		r.ExtractTopK = def.ExtractTopK
	}
	if r.FallbackTopK <= 0 {
		r.FallbackTopK = def.FallbackTopK
	}
	if r.KeywordTopK <= 0 {
		r.KeywordTopK = def.KeywordTopK
	}
	if r.SourcePageDocs <= 0 {
		r.SourcePageDocs = def.SourcePageDocs
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Service{
		extractor:   cfg.Extractor,
		indexes:     cfg.Indexes,
		llm:         cfg.LLM,
		cache:       cfg.Cache,
		journal:     cfg.Journal,
		assigner:    assigner,
		logger:      logger.With("component", "benchmark"),
		retrieval:   r,
		gen:         llm.GenerateOptions{Model: cfg.Model, Temperature: cfg.Temperature, MaxTokens: maxTokens},
		concurrency: concurrency,
		hashFile:    vectordb.HashFile,
	}, nil
}

// Taxonomy returns the reference items in canonical order.
func (s *Service) Taxonomy() []taxonomy.Item {
	return taxonomy.All()
}

// AnalyzeCompanyIssues rates the report at path against every taxonomy item.
// A cached result for company is returned as is. An unreadable or empty
// report, or one whose index cannot be built, yields an all-No map that is
// not cached.
func (s *Service) AnalyzeCompanyIssues(ctx context.Context, path, company string) (coverage.Map, error) {
	result, err := s.analyze(ctx, path, company)
	if err != nil {
		return coverage.Uniform(coverage.No, fmt.Sprintf("analysis error: %v", err)), nil
	}
	return result, nil
}

// analyze is AnalyzeCompanyIssues with index failures returned as errors.
func (s *Service) analyze(ctx context.Context, path, company string) (coverage.Map, error) {
	start := time.Now()
	entry := audit.Entry{Action: audit.ActionAnalyze, Company: company}
	defer func() {
		entry.Duration = time.Since(start).Milliseconds()
		s.record(ctx, entry)
	}()

	if cached, ok := s.cache.Get(company); ok {
		s.logger.Info("returning cached analysis", "company", company)
		entry.Cached = true
		entry.YesCount, entry.PartialCount, entry.NoCount = cached.Counts()
		return cached, nil
	}

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil || len(pages) == 0 {
		s.logger.Warn("no text extracted", "company", company, "path", path, "error", err)
		entry.Error = extractionFailed
		result := coverage.Uniform(coverage.No, extractionFailed)
		entry.NoCount = len(result)
		return result, nil
	}

	lang := langdetect.Detect(pdftext.Texts(pages))
	entry.Language = string(lang)
	s.logger.Info("analyzing company", "company", company, "pages", len(pages), "language", lang)

	idx, hash, err := s.index(ctx, path, pages)
	entry.DocumentHash = hash
	if err != nil {
		s.logger.Error("document index unavailable", "company", company, "error", err)
		entry.Error = err.Error()
		entry.NoCount = len(taxonomy.All())
		return nil, err
	}

	issues, materialityPages, err := s.extractMaterialIssues(ctx, idx, lang)
	if err != nil {
		s.logger.Error("material issue extraction failed", "company", company, "error", err)
		entry.Error = err.Error()
		result := coverage.Uniform(coverage.No, fmt.Sprintf("analysis error: %v", err))
		entry.NoCount = len(result)
		return result, nil
	}
	entry.ExtractedIssues = len(issues)
	s.logger.Info("extracted material issues", "company", company, "issues", len(issues))

	result := s.matchAll(ctx, idx, lang, issues, materialityPages)
	entry.YesCount, entry.PartialCount, entry.NoCount = result.Counts()

	if err := s.cache.Put(ctx, company, result); err != nil {
		s.logger.Error("failed to persist analysis", "company", company, "error", err)
	}
	return result.Clone(), nil
}

// matchAll matches issues to the taxonomy and runs fallback searches for
// the items left over. Fallback searches run in parallel and each failure
// stays confined to its own item.
func (s *Service) matchAll(ctx context.Context, idx vectordb.Index, lang langdetect.Language, issues []string, materialityPages []int) coverage.Map {
	items := taxonomy.All()
	assigned := Match(issues, s.assigner)

	results := make([]coverage.Result, len(items))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, it := range items {
		if c, ok := assigned[it.Name]; ok {
			r := coverage.NewResult(coverage.Yes,
				fmt.Sprintf("matched: %s (similarity %d%%)", c.Issue, c.Score),
				append([]int{}, materialityPages...))
			r.MatchedIssue = c.Issue
			r.Score = c.Score
			results[i] = r
			continue
		}
		g.Go(func() error {
			results[i] = s.fallbackSearch(ctx, idx, it, lang)
			return nil
		})
	}
	g.Wait()

	out := make(coverage.Map, len(items))
	for i, it := range items {
		out[it.Name] = results[i]
	}
	return out
}

// index hashes the file and returns its semantic index with the hash.
func (s *Service) index(ctx context.Context, path string, pages []pdftext.Page) (vectordb.Index, string, error) {
	hash, err := s.hashFile(path)
	if err != nil {
		// The text was already read, so the file vanished in between. Key
		// on the path so the run can still finish.
		s.logger.Warn("hashing report failed, keying index by path", "path", path, "error", err)
		hash, _ = vectordb.HashReader(strings.NewReader(path))
	}
	idx, err := s.indexes.GetOrBuild(ctx, hash, pages)
	if err != nil {
		return nil, hash, fmt.Errorf("vector index for %s: %w", path, err)
	}
	return idx, hash, nil
}

// Search returns the passages of the report at path closest to query.
func (s *Service) Search(ctx context.Context, path, query string, k int) ([]vectordb.Passage, error) {
	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, pdftext.ErrNoText
	}
	idx, _, err := s.index(ctx, path, pages)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, k)
}

// CachedCompanies lists companies with a cached analysis, sorted.
func (s *Service) CachedCompanies() []string {
	return s.cache.Companies()
}

// CachedData returns every cached analysis.
func (s *Service) CachedData() map[string]coverage.Map {
	return s.cache.Snapshot()
}

// CachedCompany returns one cached analysis or analysiscache.ErrNotFound.
func (s *Service) CachedCompany(company string) (coverage.Map, error) {
	m, ok := s.cache.Get(company)
	if !ok {
		return nil, fmt.Errorf("%s: %w", company, analysiscache.ErrNotFound)
	}
	return m, nil
}

// DeleteCompanyCache forgets a company's analysis and reports whether it
// existed.
func (s *Service) DeleteCompanyCache(ctx context.Context, company string) (bool, error) {
	removed, err := s.cache.Delete(ctx, company)
	if removed {
		e := audit.Entry{Action: audit.ActionCacheDelete, Company: company}
		if err != nil {
			e.Error = err.Error()
		}
		s.record(ctx, e)
	}
	return removed, err
}

// ClearAnalyses backs up and then drops every cached company analysis. It
// returns the backup location, empty when there was nothing to back up.
func (s *Service) ClearAnalyses(ctx context.Context) (string, error) {
	backup, err := s.cache.Backup(ctx)
	if err != nil {
		return "", fmt.Errorf("backup analysis cache: %w", err)
	}
	e := audit.Entry{Action: audit.ActionCacheClear}
	if err := s.cache.Clear(ctx); err != nil {
		e.Error = err.Error()
		s.record(ctx, e)
		return backup, fmt.Errorf("clear analysis cache: %w", err)
	}
	s.record(ctx, e)
	s.logger.Info("analysis cache cleared", "backup", backup)
	return backup, nil
}

// Reload re-reads the analysis cache from durable storage.
func (s *Service) Reload(ctx context.Context) error {
	return s.cache.Reload(ctx)
}

// record writes a journal entry. Journal failures never affect the caller.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Log(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("failed to record run", "action", e.Action, "error", err)
	}
}
