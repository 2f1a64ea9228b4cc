package benchmark

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/langdetect"
)

// qaSystemTemplate frames retrieved passages for the generation model. The
// passages are substituted for %s.
const qaSystemTemplate = "Use the following pieces of context to answer the user's question.\n" +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer.\n" +
	"----------------\n%s"

const materialityQueryKO = `
이 지속가능경영 보고서에서 회사가 이중중대성 평가(Double Materiality Assessment) 또는 중요성 평가를 통해 선정한 모든 중요 이슈의 이름을 찾아주세요.

다음과 같은 섹션을 찾아보세요:
- 이중중대성 평가
- 중요성 평가
- Materiality Assessment
- 중요 이슈
- Material Topics

출력 형식 (이슈 이름만 나열):
- 이슈1
- 이슈2
...
`

const materialityQueryEN = `
Find all material topics or issues that this company identified through Double Materiality Assessment or Materiality Assessment in this sustainability report.

Look for sections like:
- Double Materiality Assessment
- Materiality Assessment
- Material Topics
- Material Issues

Output format (list topic names only):
- Topic 1
- Topic 2
...
`

// notFoundMarker is what the fallback and keyword prompts ask the model to
// answer when nothing relevant was retrieved.
const notFoundMarker = "NOT_FOUND"

func materialityQuery(lang langdetect.Language) string {
	if lang == langdetect.Korean {
		return materialityQueryKO
	}
	return materialityQueryEN
}

func fallbackQuery(lang langdetect.Language, issue string, keywords []string) string {
	kw := strings.Join(keywords, ", ")
	if lang == langdetect.Korean {
		return fmt.Sprintf(`이 보고서에서 "%s"와 관련된 내용이 있는지 확인해주세요. 키워드: %s. 있으면: 관련 섹션명 (한 줄), 없으면: NOT_FOUND`, issue, kw)
	}
	return fmt.Sprintf(`Is "%s" mentioned in this report? Keywords: %s. If yes: Related section (one line), If no: NOT_FOUND`, issue, kw)
}

func keywordQuery(lang langdetect.Language, keyword string) string {
	if lang == langdetect.Korean {
		return fmt.Sprintf(`이 지속가능경영 보고서에서 "%s"와 관련된 내용을 찾아주세요. 관련 내용이 없다면: "NOT_FOUND". 있다면: 핵심 내용을 3-5문장으로 요약`, keyword)
	}
	return fmt.Sprintf(`Find content related to "%s" in this sustainability report. If not found: "NOT_FOUND". If found: Summarize key content in 3-5 sentences`, keyword)
}

// isNegative reports whether a model answer says nothing was found. "없" is
// the Korean negative the model tends to use instead of the marker.
func isNegative(answer string) bool {
	return strings.Contains(answer, notFoundMarker) || strings.Contains(answer, "없")
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
