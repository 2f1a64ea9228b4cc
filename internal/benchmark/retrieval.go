package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

// answer retrieves the k passages closest to question and asks the model to
// answer from them. The passages are returned best first even when the
// generation call fails.
func (s *Service) answer(ctx context.Context, idx vectordb.Index, question string, k int) (string, []vectordb.Passage, error) {
	passages, err := idx.Search(ctx, question, k)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve passages: %w", err)
	}

	system := fmt.Sprintf(qaSystemTemplate, strings.Join(vectordb.Contents(passages, 0), "\n\n"))
	text, err := llm.Generate(ctx, s.llm, system, question, s.gen)
	if err != nil {
		return "", passages, fmt.Errorf("generate answer: %w", err)
	}
	return text, passages, nil
}
