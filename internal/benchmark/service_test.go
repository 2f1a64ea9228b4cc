package benchmark

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/db"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

type harness struct {
	svc       *Service
	extractor *fakeExtractor
	indexes   *fakeIndexSource
	llm       *scriptedLLM
	cache     *analysiscache.Cache
	dir       string
}

// defaultResponder extracts two issues and answers NOT_FOUND to every
// fallback search.
func defaultResponder(system, user string) (string, error) {
	if isMaterialityPrompt(user) {
		return "- 탄소중립 추진\n- 정보보안\n", nil
	}
	return "NOT_FOUND", nil
}

func newHarness(t *testing.T, respond func(system, user string) (string, error)) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		extractor: &fakeExtractor{pages: englishPages(), empty: map[string]bool{}},
		indexes:   &fakeIndexSource{index: &fakeIndex{passages: passagesFixture()}},
		llm:       &scriptedLLM{respond: respond},
		cache:     newJSONCache(t, filepath.Join(dir, "benchmark_cache.json")),
		dir:       dir,
	}
	svc, err := New(Config{
		Extractor:      h.extractor,
		Indexes:        h.indexes,
		LLM:            h.llm,
		Cache:          h.cache,
		MaxConcurrency: 4,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.svc = svc
	return h
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}

func TestAnalyzeCompanyIssuesCoversWholeTaxonomy(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatalf("AnalyzeCompanyIssues: %v", err)
	}
	if !got.Complete() {
		t.Fatalf("result does not cover the taxonomy: %d entries", len(got))
	}

	climate := got["기후변화 대응"]
	if climate.Coverage != coverage.Yes {
		t.Fatalf("기후변화 대응 = %+v", climate)
	}
	if climate.Response != "matched: 탄소중립 추진 (similarity 70%)" {
		t.Errorf("unexpected evidence %q", climate.Response)
	}
	if !reflect.DeepEqual(climate.SourcePages, []int{4, 9, 12}) {
		t.Errorf("materiality pages = %v", climate.SourcePages)
	}

	security := got["정보보안 및 프라이버시"]
	if security.Coverage != coverage.Yes || security.Score != ScoreContains {
		t.Errorf("정보보안 및 프라이버시 = %+v", security)
	}

	// 1 extraction call plus one fallback per unmatched item.
	if want := 1 + taxonomy.Len() - 2; h.llm.calls() != want {
		t.Errorf("llm calls = %d, want %d", h.llm.calls(), want)
	}
}

func TestFallbackCountsKeywordsOnNegativeAnswer(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	// Passages mention 리스크, ERM and BCP.
	risk := got["리스크 관리"]
	if risk.Coverage != coverage.Partially {
		t.Fatalf("리스크 관리 = %+v", risk)
	}
	if risk.Response != "keywords found: 리스크, ERM, BCP" {
		t.Errorf("unexpected evidence %q", risk.Response)
	}
	if !reflect.DeepEqual(risk.SourcePages, []int{4, 9, 12}) {
		t.Errorf("fallback pages = %v", risk.SourcePages)
	}

	// Only TCFD, one keyword, is present for disclosure.
	if r := got["ESG 공시 의무화 대응"]; r.Coverage != coverage.No || r.Response != "issue not found" {
		t.Errorf("ESG 공시 의무화 대응 = %+v", r)
	}
}

func TestFallbackAffirmativeAnswer(t *testing.T) {
	h := newHarness(t, func(system, user string) (string, error) {
		if isMaterialityPrompt(user) {
			return "", nil
		}
		if fallbackItem(user) == "투명한 이사회 경영" {
			return "Board of Directors (p.4)\nMore detail follows.", nil
		}
		return "NOT_FOUND", nil
	})
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatal(err)
	}
	r := got["투명한 이사회 경영"]
	if r.Coverage != coverage.Yes || r.Response != "fallback match: Board of Directors (p.4)" {
		t.Errorf("투명한 이사회 경영 = %+v", r)
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	baseline := newHarness(t, defaultResponder)
	basePath := writeReport(t, baseline.dir, "acme.pdf", "report bytes")
	want, err := baseline.svc.AnalyzeCompanyIssues(context.Background(), basePath, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	const failing = "생물다양성 보호"
	h := newHarness(t, func(system, user string) (string, error) {
		if !isMaterialityPrompt(user) && fallbackItem(user) == failing {
			return "", errLLMDown
		}
		return defaultResponder(system, user)
	})
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")
	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	r := got[failing]
	if r.Coverage != coverage.No || !strings.HasPrefix(r.Response, "analysis error: ") {
		t.Errorf("%s = %+v", failing, r)
	}
	if len(r.SourcePages) != 0 {
		t.Errorf("error result should carry no pages, got %v", r.SourcePages)
	}
	for name, w := range want {
		if name == failing {
			continue
		}
		if !reflect.DeepEqual(got[name], w) {
			t.Errorf("%s changed: got %+v, want %+v", name, got[name], w)
		}
	}
}

func TestEmptyReportMakesNoCalls(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "empty.pdf", "")
	h.extractor.empty[path] = true

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "EmptyCo")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Complete() {
		t.Fatalf("expected all %d items, got %d", taxonomy.Len(), len(got))
	}
	for name, r := range got {
		if r.Coverage != coverage.No || r.Response != "PDF text extraction failed" {
			t.Errorf("%s = %+v", name, r)
		}
	}
	if h.llm.calls() != 0 || h.indexes.calls() != 0 {
		t.Errorf("expected no llm or index calls, got %d/%d", h.llm.calls(), h.indexes.calls())
	}
	if _, ok := h.cache.Get("EmptyCo"); ok {
		t.Error("extraction failures must not be cached")
	}
}

func TestExtractionErrorDegradesToNo(t *testing.T) {
	h := newHarness(t, func(system, user string) (string, error) {
		return "", errLLMDown
	})
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatalf("expected degraded result, got error %v", err)
	}
	for name, r := range got {
		if r.Coverage != coverage.No || !strings.Contains(r.Response, "llm unavailable") {
			t.Errorf("%s = %+v", name, r)
		}
	}
	if _, ok := h.cache.Get("Acme"); ok {
		t.Error("failed analyses must not be cached")
	}
}

func TestIndexFailureDegradesToNo(t *testing.T) {
	h := newHarness(t, defaultResponder)
	h.indexes.err = errors.New("embedding quota exceeded")
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")

	got, err := h.svc.AnalyzeCompanyIssues(context.Background(), path, "Acme")
	if err != nil {
		t.Fatalf("expected degraded result, got error %v", err)
	}
	if len(got) != len(taxonomy.All()) {
		t.Fatalf("got %d entries, want %d", len(got), len(taxonomy.All()))
	}
	for name, r := range got {
		if r.Coverage != coverage.No || !strings.Contains(r.Response, "embedding quota exceeded") {
			t.Errorf("%s = %+v", name, r)
		}
	}
	if _, ok := h.cache.Get("Acme"); ok {
		t.Error("index failures must not be cached")
	}
	if h.llm.calls() != 0 {
		t.Errorf("no generation expected without an index, got %d", h.llm.calls())
	}
}

func TestCachedCompanySkipsWork(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")
	ctx := context.Background()

	first, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme")
	if err != nil {
		t.Fatal(err)
	}
	calls := h.llm.calls()

	second, err := h.svc.AnalyzeCompanyIssues(ctx, filepath.Join(h.dir, "other.pdf"), "Acme")
	if err != nil {
		t.Fatal(err)
	}
	if h.llm.calls() != calls || h.extractor.calls != 1 {
		t.Error("cached company should not be re-analyzed")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached result differs from the original")
	}
}

func TestCacheRoundTripAcrossRestart(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")
	ctx := context.Background()

	want, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme")
	if err != nil {
		t.Fatal(err)
	}

	restartedLLM := &scriptedLLM{respond: defaultResponder}
	svc, err := New(Config{
		Extractor: &fakeExtractor{pages: englishPages()},
		Indexes:   &fakeIndexSource{index: &fakeIndex{}},
		LLM:       restartedLLM,
		Cache:     newJSONCache(t, filepath.Join(h.dir, "benchmark_cache.json")),
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.CachedCompany("Acme")
	if err != nil {
		t.Fatalf("CachedCompany: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if _, err := svc.AnalyzeCompanyIssues(ctx, path, "Acme"); err != nil || restartedLLM.calls() != 0 {
		t.Errorf("restarted service should serve from cache, err=%v calls=%d", err, restartedLLM.calls())
	}
}

func TestIdenticalReportsBuildOneIndex(t *testing.T) {
	dir := t.TempDir()
	embedder := &hashEmbedder{}
	indexes := vectordb.NewCache(vectordb.CacheOptions{
		Dir:      filepath.Join(dir, "vectors"),
		Embedder: embedder,
	})
	llmFake := &scriptedLLM{respond: defaultResponder}
	svc, err := New(Config{
		Extractor: &fakeExtractor{pages: englishPages()},
		Indexes:   indexes,
		LLM:       llmFake,
		Cache:     newJSONCache(t, filepath.Join(dir, "cache.json")),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	a := writeReport(t, dir, "삼성전자_20240101_090000.pdf", "identical bytes")
	b := writeReport(t, dir, "copy-of-report.pdf", "identical bytes")

	if _, err := svc.AnalyzeCompanyIssues(ctx, a, "A"); err != nil {
		t.Fatal(err)
	}
	embedded, calls := embedder.texts, llmFake.calls()
	if _, err := svc.AnalyzeCompanyIssues(ctx, b, "B"); err != nil {
		t.Fatal(err)
	}

	if indexes.Builds() != 1 {
		t.Errorf("expected one index build, got %d", indexes.Builds())
	}
	// Every query embeds its text once; the second run must embed nothing else.
	if queries := llmFake.calls() - calls; embedder.texts-embedded != queries {
		t.Errorf("second run embedded %d texts for %d queries", embedder.texts-embedded, queries)
	}
}

func TestDeleteAndClearAnalyses(t *testing.T) {
	h := newHarness(t, defaultResponder)
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")
	ctx := context.Background()

	if _, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme"); err != nil {
		t.Fatal(err)
	}
	if got := h.svc.CachedCompanies(); !reflect.DeepEqual(got, []string{"Acme"}) {
		t.Errorf("CachedCompanies() = %v", got)
	}

	removed, err := h.svc.DeleteCompanyCache(ctx, "Acme")
	if err != nil || !removed {
		t.Fatalf("DeleteCompanyCache = %v, %v", removed, err)
	}
	if removed, _ := h.svc.DeleteCompanyCache(ctx, "Acme"); removed {
		t.Error("second delete should report false")
	}
	if _, err := h.svc.CachedCompany("Acme"); !errors.Is(err, analysiscache.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme"); err != nil {
		t.Fatal(err)
	}
	backup, err := h.svc.ClearAnalyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if backup == "" || len(h.svc.CachedData()) != 0 {
		t.Errorf("backup=%q remaining=%d", backup, len(h.svc.CachedData()))
	}
}

func TestRunsAreJournaled(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	journal := audit.NewStore(database)

	h := newHarness(t, defaultResponder)
	h.svc.journal = journal
	path := writeReport(t, h.dir, "acme.pdf", "report bytes")
	ctx := context.Background()

	if _, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.AnalyzeCompanyIssues(ctx, path, "Acme"); err != nil {
		t.Fatal(err)
	}

	entries, err := journal.Query(ctx, audit.QueryFilter{Company: "Acme", Action: audit.ActionAnalyze})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}
	var cached, fresh int
	for _, e := range entries {
		if e.Cached {
			cached++
			continue
		}
		fresh++
		if e.ExtractedIssues != 2 || e.Language != "en" || e.DocumentHash == "" {
			t.Errorf("unexpected fresh entry %+v", e)
		}
		if e.YesCount+e.PartialCount+e.NoCount != taxonomy.Len() {
			t.Errorf("counts do not add up: %+v", e)
		}
	}
	if cached != 1 || fresh != 1 {
		t.Errorf("cached/fresh = %d/%d", cached, fresh)
	}
}
