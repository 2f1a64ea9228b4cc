// Package standards maps sustainability-standard disclosures (GRI, SASB and
// similar) onto the reference taxonomy and extracts disclosure requirements
// from standard documents.
package standards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/embeddings"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
)

// DefaultShortlistK is the number of embedding candidates shown to the model.
const DefaultShortlistK = 3

const fallbackRationale = "Fallback to top embedding match"

// ErrNoCandidates is returned when the embedding shortlist comes back empty.
var ErrNoCandidates = errors.New("no taxonomy candidates for disclosure")

// Candidate is a shortlisted taxonomy item with its cosine similarity.
type Candidate struct {
	Item       string  `json:"item"`
	Similarity float64 `json:"similarity"`
}

// Classification is the verdict for one disclosure. Item is always one of
// Candidates unless Error is set, in which case Item is empty.
type Classification struct {
	DisclosureID    string      `json:"disclosure_id"`
	DisclosureTitle string      `json:"disclosure_title,omitempty"`
	Standard        string      `json:"standard,omitempty"`
	Item            string      `json:"item"`
	Category        string      `json:"category,omitempty"`
	Confidence      float64     `json:"confidence"`
	Rationale       string      `json:"rationale"`
	Candidates      []Candidate `json:"candidates"`
	Fallback        bool        `json:"fallback"`
	Error           string      `json:"error,omitempty"`
}

// ClassifierConfig wires a Classifier.
type ClassifierConfig struct {
	Embedder    embeddings.Embedder
	LLM         llm.Provider
	Journal     audit.Logger
	Logger      *slog.Logger
	Model       string
	ShortlistK  int
	Concurrency int
}

// Classifier assigns disclosures to taxonomy items in two stages: an
// embedding shortlist, then a model pick constrained to that shortlist.
// When the model's answer is unusable the top shortlist entry wins.
type Classifier struct {
	embedder    embeddings.Embedder
	llm         llm.Provider
	journal     audit.Logger
	logger      *slog.Logger
	gen         llm.GenerateOptions
	k           int
	concurrency int

	mu    sync.Mutex
	items []taxonomy.Item
	vecs  [][]float32
}

// NewClassifier creates a Classifier. Taxonomy embeddings are computed on the
// first classification and kept for the life of the Classifier.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.Embedder == nil || cfg.LLM == nil {
		return nil, errors.New("standards: embedder and llm are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	k := cfg.ShortlistK
	if k <= 0 {
		k = DefaultShortlistK
	}
	if k > taxonomy.Len() {
		k = taxonomy.Len()
	}
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = 1
	}
	return &Classifier{
		embedder:    cfg.Embedder,
		llm:         cfg.LLM,
		journal:     cfg.Journal,
		logger:      logger.With("component", "classifier"),
		gen:         llm.GenerateOptions{Model: cfg.Model, Temperature: 0.1, MaxTokens: 500},
		k:           k,
		concurrency: conc,
	}, nil
}

// Classify maps one disclosure onto the taxonomy.
func (c *Classifier) Classify(ctx context.Context, d Disclosure) (Classification, error) {
	start := time.Now()
	out, err := c.classify(ctx, d.MatchText())
	out.DisclosureID = d.ID
	out.DisclosureTitle = d.Title
	out.Standard = d.Standard
	c.record(ctx, out, err, time.Since(start))
	return out, err
}

// ClassifyText maps free disclosure text onto the taxonomy.
func (c *Classifier) ClassifyText(ctx context.Context, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, errors.New("disclosure text must not be empty")
	}
	start := time.Now()
	out, err := c.classify(ctx, text)
	c.record(ctx, out, err, time.Since(start))
	return out, err
}

// ClassifyAll classifies every disclosure. A failing disclosure carries its
// error in the result and does not affect the others. Results keep input
// order.
func (c *Classifier) ClassifyAll(ctx context.Context, ds []Disclosure) []Classification {
	out := make([]Classification, len(ds))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, d := range ds {
		g.Go(func() error {
			r, err := c.Classify(ctx, d)
			if err != nil {
				c.logger.Warn("classification failed", "disclosure", d.ID, "error", err)
				r = Classification{
					DisclosureID:    d.ID,
					DisclosureTitle: d.Title,
					Standard:        d.Standard,
					Candidates:      []Candidate{},
					Error:           err.Error(),
				}
			}
			out[i] = r
			return nil
		})
	}
	g.Wait()
	return out
}

// Shortlist returns the top-K taxonomy items for text by cosine similarity,
// highest first. Ties keep taxonomy order.
func (c *Classifier) Shortlist(ctx context.Context, text string) ([]Candidate, error) {
	items, vecs, err := c.taxonomyVectors(ctx)
	if err != nil {
		return nil, err
	}
	q, err := c.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	all := make([]Candidate, len(items))
	for i, it := range items {
		all[i] = Candidate{Item: it.Name, Similarity: embeddings.Dot(vecs[i], q)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Similarity > all[j].Similarity })
	return all[:min(c.k, len(all))], nil
}

func (c *Classifier) classify(ctx context.Context, text string) (Classification, error) {
	candidates, err := c.Shortlist(ctx, text)
	if err != nil {
		return Classification{}, err
	}
	if len(candidates) == 0 {
		return Classification{}, ErrNoCandidates
	}

	raw, err := llm.Generate(ctx, c.llm, classifierSystem, classifierPrompt(text, candidates), c.gen)
	if err != nil {
		c.logger.Warn("classification model failed, using top embedding match", "error", err)
		return fallback(candidates, fmt.Sprintf("%s: %v", fallbackRationale, err)), nil
	}

	p, ok := parsePick(raw, candidates)
	if !ok {
		c.logger.Debug("unusable classification answer", "answer", raw)
		return fallback(candidates, fallbackRationale), nil
	}
	return withCategory(Classification{
		Item:       p.item,
		Confidence: p.confidence,
		Rationale:  p.reason,
		Candidates: candidates,
	}), nil
}

func fallback(candidates []Candidate, rationale string) Classification {
	top := candidates[0]
	return withCategory(Classification{
		Item:       top.Item,
		Confidence: clamp01(top.Similarity),
		Rationale:  rationale,
		Candidates: candidates,
		Fallback:   true,
	})
}

func withCategory(c Classification) Classification {
	if it, ok := taxonomy.Lookup(c.Item); ok {
		c.Category = string(it.Category)
	}
	return c
}

type pick struct {
	item       string
	confidence float64
	reason     string
}

// parsePick decodes the model's JSON answer and resolves the chosen item
// against the shortlist. Any item outside the shortlist is rejected.
func parsePick(raw string, candidates []Candidate) (pick, bool) {
	var answer struct {
		Item       string   `json:"item"`
		KoreanItem string   `json:"korean_item"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &answer); err != nil {
		return pick{}, false
	}
	name := answer.Item
	if name == "" {
		name = answer.KoreanItem
	}

	var chosen *Candidate
	for i := range candidates {
		if candidates[i].Item == name {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		norm := taxonomy.Normalize(name)
		for i := range candidates {
			if norm != "" && taxonomy.Normalize(candidates[i].Item) == norm {
				chosen = &candidates[i]
				break
			}
		}
	}
	if chosen == nil {
		return pick{}, false
	}

	confidence := chosen.Similarity
	if answer.Confidence != nil {
		confidence = *answer.Confidence
	}
	return pick{item: chosen.Item, confidence: clamp01(confidence), reason: answer.Reason}, true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func (c *Classifier) taxonomyVectors(ctx context.Context) ([]taxonomy.Item, [][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vecs != nil {
		return c.items, c.vecs, nil
	}

	items := taxonomy.All()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	vecs, err := c.embedder.Embed(ctx, names)
	if err != nil {
		return nil, nil, fmt.Errorf("embed taxonomy: %w", err)
	}
	if len(vecs) != len(items) {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d taxonomy items", len(vecs), len(items))
	}
	for i := range vecs {
		vecs[i] = embeddings.Normalize(vecs[i])
	}
	c.logger.Info("embedded taxonomy", "items", len(items), "model", c.embedder.Name())
	c.items, c.vecs = items, vecs
	return items, vecs, nil
}

func (c *Classifier) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed disclosure: %w", err)
	}
	if len(vecs) == 0 {
		return nil, ErrNoCandidates
	}
	return embeddings.Normalize(vecs[0]), nil
}

func (c *Classifier) record(ctx context.Context, out Classification, err error, took time.Duration) {
	if c.journal == nil {
		return
	}
	e := audit.Entry{
		Action:          audit.ActionClassify,
		ExtractedIssues: len(out.Candidates),
		Duration:        took.Milliseconds(),
	}
	switch {
	case err != nil:
		e.NoCount = 1
		e.Error = err.Error()
	case out.Fallback:
		e.PartialCount = 1
	default:
		e.YesCount = 1
	}
	if jerr := c.journal.Log(context.WithoutCancel(ctx), e); jerr != nil {
		c.logger.Warn("failed to journal classification", "error", jerr)
	}
}
