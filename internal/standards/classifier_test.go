package standards

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
)

const climateText = "Gross direct (Scope 1) GHG emissions. Report gross emissions in tCO2e. Category: Environmental"

func newTestClassifier(t *testing.T, respond func(string) (string, error)) (*Classifier, *axisEmbedder, *fakeLLM) {
	t.Helper()
	emb := newAxisEmbedder()
	emb.near(climateText, map[string]float32{
		"기후변화 대응":      0.9,
		"리스크 관리":       0.5,
		"정보보안 및 프라이버시": 0.3,
	})
	fake := &fakeLLM{respond: respond}
	c, err := NewClassifier(ClassifierConfig{Embedder: emb, LLM: fake, Concurrency: 2})
	if err != nil {
		t.Fatal(err)
	}
	return c, emb, fake
}

func answer(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

func TestShortlistOrderAndSize(t *testing.T) {
	c, _, _ := newTestClassifier(t, answer("{}"))
	got, err := c.Shortlist(context.Background(), climateText)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"기후변화 대응", "리스크 관리", "정보보안 및 프라이버시"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Item != w {
			t.Errorf("candidate %d = %s, want %s", i, got[i].Item, w)
		}
		if i > 0 && got[i].Similarity > got[i-1].Similarity {
			t.Errorf("candidates not sorted: %+v", got)
		}
	}
	if math.Abs(got[0].Similarity-0.839) > 0.001 {
		t.Errorf("top similarity = %f", got[0].Similarity)
	}
}

func TestClassifyModelPick(t *testing.T) {
	c, _, fake := newTestClassifier(t, answer("```json\n{\"item\": \"리스크 관리\", \"confidence\": 1.4, \"reason\": \"risk framing\"}\n```"))
	got, err := c.ClassifyText(context.Background(), climateText)
	if err != nil {
		t.Fatal(err)
	}
	if got.Item != "리스크 관리" || got.Fallback {
		t.Errorf("got %+v", got)
	}
	if got.Confidence != 1 {
		t.Errorf("confidence should be clamped to 1, got %f", got.Confidence)
	}
	if got.Category != "G" || got.Rationale != "risk framing" {
		t.Errorf("got %+v", got)
	}

	prompt := fake.lastUser()
	for _, want := range []string{
		"Disclosure text:\n" + climateText,
		"1. 기후변화 대응 | similarity=0.839",
		"3. 정보보안 및 프라이버시 | similarity=",
		"Remember: choose ONLY from the candidate list.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, classifierSystem) {
		t.Error("system instruction repeated in user prompt")
	}
	req := fake.reqs[0]
	if msgs := req.Messages; len(msgs) != 2 || msgs[0].Role != llm.RoleSystem || msgs[0].Content != classifierSystem {
		t.Errorf("unexpected messages %+v", msgs)
	}
	if req.Temperature != 0.1 || req.MaxTokens != 500 {
		t.Errorf("unexpected sampling options %+v", req)
	}
}

func TestClassifyFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		respond   func(string) (string, error)
		rationale string
	}{
		{"outside shortlist", answer(`{"item": "생물다양성 보호", "confidence": 0.9, "reason": "x"}`), fallbackRationale},
		{"not json", answer("The best item is climate."), fallbackRationale},
		{"model error", func(string) (string, error) { return "", errors.New("timeout") }, fallbackRationale + ": timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClassifier(t, tt.respond)
			got, err := c.ClassifyText(context.Background(), climateText)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Fallback || got.Item != "기후변화 대응" {
				t.Errorf("expected fallback to top match, got %+v", got)
			}
			if got.Confidence != got.Candidates[0].Similarity {
				t.Errorf("fallback confidence %f != top similarity %f", got.Confidence, got.Candidates[0].Similarity)
			}
			if got.Rationale != tt.rationale {
				t.Errorf("rationale = %q", got.Rationale)
			}
		})
	}
}

func TestClassifyAcceptsNormalizedName(t *testing.T) {
	c, _, _ := newTestClassifier(t, answer(`{"item": "리스크관리", "reason": "close"}`))
	got, err := c.ClassifyText(context.Background(), climateText)
	if err != nil {
		t.Fatal(err)
	}
	if got.Item != "리스크 관리" || got.Fallback {
		t.Errorf("got %+v", got)
	}
	// Without a confidence the candidate's similarity is used.
	if got.Confidence != got.Candidates[1].Similarity {
		t.Errorf("confidence = %f", got.Confidence)
	}
}

func TestTaxonomyEmbeddedOnce(t *testing.T) {
	c, emb, _ := newTestClassifier(t, answer(`{"item": "기후변화 대응"}`))
	for i := 0; i < 3; i++ {
		if _, err := c.ClassifyText(context.Background(), climateText); err != nil {
			t.Fatal(err)
		}
	}
	// One taxonomy batch plus one batch per query.
	if emb.batches != 4 {
		t.Errorf("expected 4 embedding batches, got %d", emb.batches)
	}
}

func TestClassifyAllIsolatesFailures(t *testing.T) {
	c, emb, _ := newTestClassifier(t, answer(`{"item": "기후변화 대응", "confidence": 0.8}`))
	journal := &recordingJournal{}
	c.journal = journal

	good := Disclosure{ID: "GRI 305-1", Title: "Gross direct (Scope 1) GHG emissions", Description: "Report gross emissions in tCO2e", Category: "Environmental", Standard: "GRI 305"}
	bad := Disclosure{ID: "GRI 418-1", Title: "Privacy", Standard: "GRI 418"}
	emb.fail[bad.MatchText()] = true

	got := c.ClassifyAll(context.Background(), []Disclosure{bad, good})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].DisclosureID != "GRI 418-1" || got[0].Error == "" || got[0].Item != "" {
		t.Errorf("failed disclosure = %+v", got[0])
	}
	if got[1].DisclosureID != "GRI 305-1" || got[1].Item != "기후변화 대응" || got[1].Standard != "GRI 305" {
		t.Errorf("classified disclosure = %+v", got[1])
	}
	if len(journal.entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(journal.entries))
	}
	for _, e := range journal.entries {
		if e.Action != audit.ActionClassify || e.Company != "" {
			t.Errorf("classify entry should not name a company: %+v", e)
		}
	}
}

func TestShortlistKClamped(t *testing.T) {
	emb := newAxisEmbedder()
	c, err := NewClassifier(ClassifierConfig{Embedder: emb, LLM: &fakeLLM{respond: answer("{}")}, ShortlistK: 40})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Shortlist(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 18 {
		t.Errorf("expected the whole taxonomy, got %d", len(got))
	}
}

func TestNewClassifierRequiresDependencies(t *testing.T) {
	if _, err := NewClassifier(ClassifierConfig{}); err == nil {
		t.Error("expected error")
	}
}

func TestGroupByItem(t *testing.T) {
	groups := GroupByItem([]Classification{
		{DisclosureID: "GRI 305-1", DisclosureTitle: "Scope 1", Item: "기후변화 대응"},
		{DisclosureID: "GRI 305-2", DisclosureTitle: "Scope 2", Item: "기후변화 대응"},
		{DisclosureID: "GRI 2-9", DisclosureTitle: "Governance structure", Item: "투명한 이사회 경영"},
		{DisclosureID: "GRI 418-1", Error: "embedding service down"},
	})
	if len(groups) != 18 {
		t.Fatalf("expected 18 groups, got %d", len(groups))
	}
	if groups[0].Item != "기후변화 대응" || len(groups[0].Disclosures) != 2 || groups[0].Disclosures[1].ID != "GRI 305-2" {
		t.Errorf("climate group = %+v", groups[0])
	}
	total := 0
	for _, g := range groups {
		if g.Disclosures == nil {
			t.Errorf("group %s has nil disclosures", g.Item)
		}
		total += len(g.Disclosures)
	}
	if total != 3 {
		t.Errorf("expected 3 grouped disclosures, got %d", total)
	}
}
