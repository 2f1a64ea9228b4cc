package standards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
)

// MaxChunkChars bounds the text sent to the model in one extraction call.
const MaxChunkChars = 12000

// Disclosure is one reporting requirement from a standard.
type Disclosure struct {
	ID           string `json:"disclosure_id"`
	Title        string `json:"disclosure_title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Category     string `json:"category"`
	Standard     string `json:"standard,omitempty"`
}

// MatchText is the text embedded and shown to the model when classifying.
func (d Disclosure) MatchText() string {
	return fmt.Sprintf("%s. %s. Category: %s", d.Title, d.Description, d.Category)
}

// Extractor pulls disclosure requirements out of standard documents.
type Extractor struct {
	llm    llm.Provider
	pdf    pdftext.Extractor
	logger *slog.Logger
	gen    llm.GenerateOptions
}

// NewExtractor creates an Extractor. pdf may be nil when only
// ExtractFromText is used.
func NewExtractor(p llm.Provider, pdf pdftext.Extractor, model string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		llm:    p,
		pdf:    pdf,
		logger: logger.With("component", "standards"),
		gen:    llm.GenerateOptions{Model: model, Temperature: 0.1, MaxTokens: 4000},
	}
}

// ExtractFromText chunks text by paragraph and asks the model for the
// disclosures in each chunk. A chunk whose answer cannot be used contributes
// nothing; the other chunks still count.
func (e *Extractor) ExtractFromText(ctx context.Context, text, standard string) []Disclosure {
	var out []Disclosure
	for i, chunk := range ChunkText(text, MaxChunkChars) {
		if ctx.Err() != nil {
			break
		}
		ds, err := e.extractChunk(ctx, chunk, standard)
		if err != nil {
			e.logger.Error("disclosure extraction failed", "standard", standard, "chunk", i, "error", err)
			continue
		}
		out = append(out, ds...)
	}
	e.logger.Info("extracted disclosures", "standard", standard, "count", len(out))
	return out
}

// ExtractFromPDF reads the document at path and runs ExtractFromText over
// its text. A document without text yields no disclosures.
func (e *Extractor) ExtractFromPDF(ctx context.Context, path, standard string) ([]Disclosure, error) {
	if e.pdf == nil {
		return nil, errors.New("standards: no PDF extractor configured")
	}
	pages, err := e.pdf.Extract(ctx, path)
	if errors.Is(err, pdftext.ErrNoText) {
		e.logger.Warn("standard has no extractable text", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read standard %s: %w", path, err)
	}
	return e.ExtractFromText(ctx, pdftext.JoinText(pages), standard), nil
}

func (e *Extractor) extractChunk(ctx context.Context, chunk, standard string) ([]Disclosure, error) {
	raw, err := llm.Generate(ctx, e.llm, extractorSystem, extractorPrompt(standard, chunk), e.gen)
	if err != nil {
		return nil, err
	}
	var ds []Disclosure
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), &ds); err != nil {
		return nil, fmt.Errorf("decode disclosures: %w", err)
	}
	for i := range ds {
		ds[i].Standard = standard
	}
	return ds, nil
}

// ChunkText splits text on blank lines and packs paragraphs into chunks that
// stay under maxChars. A single paragraph longer than maxChars becomes its
// own chunk.
func ChunkText(text string, maxChars int) []string {
	var chunks []string
	var cur strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		if cur.Len()+len(para) >= maxChars && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(para)
		cur.WriteString("\n\n")
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// Dedupe keeps the first disclosure for each ID. Disclosures without an ID
// are always kept.
func Dedupe(ds []Disclosure) []Disclosure {
	seen := make(map[string]bool, len(ds))
	out := make([]Disclosure, 0, len(ds))
	for _, d := range ds {
		if d.ID != "" {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
		}
		out = append(out, d)
	}
	return out
}
