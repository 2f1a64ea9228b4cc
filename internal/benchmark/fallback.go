package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/langdetect"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

const (
	fallbackQueryKeywords = 5
	fallbackPageDocs      = 3
	fallbackScanDocs      = 5
	fallbackMinKeywords   = 2
	fallbackEvidenceRunes = 100
)

// fallbackSearch looks for an unmatched item anywhere in the report. It never
// fails: errors become a No result naming the error.
func (s *Service) fallbackSearch(ctx context.Context, idx vectordb.Index, item taxonomy.Item, lang langdetect.Language) coverage.Result {
	query := fallbackQuery(lang, item.Name, item.MatchKeywords(fallbackQueryKeywords))
	answer, passages, err := s.answer(ctx, idx, query, s.retrieval.FallbackTopK)
	if err != nil {
		s.logger.Warn("fallback search failed", "item", item.Name, "error", err)
		return coverage.NewResult(coverage.No, fmt.Sprintf("analysis error: %v", err), nil)
	}

	pages := vectordb.Pages(passages, fallbackPageDocs)
	if !isNegative(answer) {
		first, _, _ := strings.Cut(answer, "\n")
		return coverage.NewResult(coverage.Yes, "fallback match: "+truncateRunes(first, fallbackEvidenceRunes), pages)
	}

	found := keywordsIn(vectordb.Contents(passages, fallbackScanDocs), item.MatchKeywords(keywordsForMatching))
	if len(found) >= fallbackMinKeywords {
		return coverage.NewResult(coverage.Partially, "keywords found: "+strings.Join(found[:min(3, len(found))], ", "), pages)
	}
	return coverage.NewResult(coverage.No, "issue not found", pages)
}

// keywordsIn returns the keywords that occur, case-insensitively, in any of
// the texts, in keyword order.
func keywordsIn(texts []string, keywords []string) []string {
	combined := strings.ToLower(strings.Join(texts, " "))
	var found []string
	for _, kw := range keywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}
