package standards

import (
	"context"
	"errors"
	"sync"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
)

// axisEmbedder puts every taxonomy item on its own axis. Other texts get the
// vector registered for them, or a flat vector.
type axisEmbedder struct {
	mu      sync.Mutex
	queries map[string][]float32
	fail    map[string]bool
	batches int
}

func newAxisEmbedder() *axisEmbedder {
	return &axisEmbedder{queries: map[string][]float32{}, fail: map[string]bool{}}
}

// near registers text as pointing at the named items with the given weights.
func (a *axisEmbedder) near(text string, weights map[string]float32) {
	v := make([]float32, taxonomy.Len())
	for i, name := range taxonomy.Names() {
		v[i] = weights[name]
	}
	a.queries[text] = v
}

func (a *axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batches++
	names := taxonomy.Names()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if a.fail[t] {
			return nil, errors.New("embedding service down")
		}
		v := make([]float32, len(names))
		if q, ok := a.queries[t]; ok {
			copy(v, q)
		} else if idx := indexOf(names, t); idx >= 0 {
			v[idx] = 1
		} else {
			for j := range v {
				v[j] = 0.1
			}
		}
		out[i] = v
	}
	return out, nil
}

func (a *axisEmbedder) Dimensions() int { return taxonomy.Len() }
func (a *axisEmbedder) Name() string    { return "axis" }

func indexOf(names []string, s string) int {
	for i, n := range names {
		if n == s {
			return i
		}
	}
	return -1
}

type fakeLLM struct {
	mu      sync.Mutex
	respond func(user string) (string, error)
	reqs    []llm.CompletionRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	user := req.Messages[len(req.Messages)-1].Content
	text, err := f.respond(user)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: text}, nil
}

func (f *fakeLLM) lastUser() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.reqs[len(f.reqs)-1].Messages
	return msgs[len(msgs)-1].Content
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingJournal) Log(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

type fakePDF struct {
	pages []pdftext.Page
	err   error
}

func (f fakePDF) Extract(context.Context, string) ([]pdftext.Page, error) {
	return f.pages, f.err
}
