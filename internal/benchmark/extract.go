package benchmark

import (
	"context"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/langdetect"
	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

// listMarkers are stripped from the left of each line of a model-produced
// issue list: bullets, circled numbers, digits, dots and spaces.
const listMarkers = "-•*①②③④⑤⑥⑦⑧⑨⑩⑪⑫⑬⑭⑮⑯⑰⑱⑲⑳0123456789. "

// extractMaterialIssues asks for the company's self-declared material issues
// and returns them together with the pages of the top passages. The pages
// are attributed to every issue alike.
func (s *Service) extractMaterialIssues(ctx context.Context, idx vectordb.Index, lang langdetect.Language) ([]string, []int, error) {
	text, passages, err := s.answer(ctx, idx, materialityQuery(lang), s.retrieval.ExtractTopK)
	if err != nil {
		return nil, nil, err
	}
	return ParseIssueList(text), vectordb.Pages(passages, s.retrieval.SourcePageDocs), nil
}

// ParseIssueList turns a newline-delimited model answer into issue names.
// Blank lines and markdown headings are skipped, list markers are removed,
// and lines with nothing comparable left are dropped.
func ParseIssueList(text string) []string {
	var issues []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		issue := strings.TrimLeft(line, listMarkers)
		// An empty name would be contained in every taxonomy item.
		if taxonomy.Normalize(issue) == "" {
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}
