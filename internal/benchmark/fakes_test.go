package benchmark

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

// fakeExtractor returns the same pages for every path unless a path is
// listed in empty.
type fakeExtractor struct {
	mu    sync.Mutex
	pages []pdftext.Page
	empty map[string]bool
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, path string) ([]pdftext.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.empty[path] {
		return nil, pdftext.ErrNoText
	}
	return f.pages, nil
}

// fakeIndex returns its passages in stored order regardless of the query.
type fakeIndex struct {
	passages []vectordb.Passage
	err      error
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int) ([]vectordb.Passage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.passages) {
		k = len(f.passages)
	}
	return f.passages[:k], nil
}

func (f *fakeIndex) Count() int { return len(f.passages) }

type fakeIndexSource struct {
	mu    sync.Mutex
	index vectordb.Index
	err   error
	keys  []string
}

func (f *fakeIndexSource) GetOrBuild(_ context.Context, key string, _ []pdftext.Page) (vectordb.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	return f.index, nil
}

func (f *fakeIndexSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// scriptedLLM answers by inspecting the user prompt.
type scriptedLLM struct {
	mu      sync.Mutex
	respond func(system, user string) (string, error)
	prompts []string
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleUser:
			user = m.Content
		}
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, user)
	s.mu.Unlock()

	text, err := s.respond(system, user)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: text}, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func isMaterialityPrompt(user string) bool {
	return strings.Contains(user, "Materiality Assessment")
}

// fallbackItem extracts the quoted item name from a fallback prompt.
func fallbackItem(user string) string {
	_, rest, ok := strings.Cut(user, `"`)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, `"`)
	return name
}

// hashEmbedder is deterministic and counts the texts it embeds.
type hashEmbedder struct {
	mu    sync.Mutex
	texts int
}

func (h *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	h.texts += len(texts)
	h.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f := fnv.New32a()
		f.Write([]byte(t))
		sum := f.Sum32()
		out[i] = []float32{float32(sum%97) + 1, float32(sum%89) + 1, float32(len(t)%13) + 1}
	}
	return out, nil
}

func (h *hashEmbedder) Dimensions() int { return 3 }
func (h *hashEmbedder) Name() string    { return "hash" }

var errLLMDown = errors.New("llm unavailable")

func englishPages() []pdftext.Page {
	return []pdftext.Page{
		{Number: 1, Text: "Sustainability Report 2024. Our approach to ESG."},
		{Number: 4, Text: "Double Materiality Assessment results: carbon neutrality, information security."},
		{Number: 9, Text: "Risk management: ERM framework and business continuity planning (BCP)."},
	}
}

func passagesFixture() []vectordb.Passage {
	return []vectordb.Passage{
		{ID: "1", Content: "Materiality matrix lists carbon neutrality and information security.", Page: 4},
		{ID: "2", Content: "Risk management follows an ERM framework with BCP drills. 리스크 관리 체계.", Page: 9},
		{ID: "3", Content: "We publish a TCFD report every year.", Page: 12},
		{ID: "4", Content: "Board of directors overview.", Page: 4},
	}
}

func newJSONCache(t *testing.T, path string) *analysiscache.Cache {
	t.Helper()
	c, err := analysiscache.New(context.Background(), analysiscache.NewJSONBackend(path), nil)
	if err != nil {
		t.Fatalf("analysis cache: %v", err)
	}
	return c
}

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
