package benchmark

import (
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/esg-benchmark/internal/taxonomy"
)

// Match scores.
const (
	ScoreExact    = 100
	ScoreContains = 90
	ScoreKeyword  = 70
)

// keywordsForMatching is how many leading keywords of an item are tried
// against a company issue.
const keywordsForMatching = 10

// Candidate links a company issue to a taxonomy item it matched.
type Candidate struct {
	Item  string `json:"item"`
	Issue string `json:"issue"`
	Score int    `json:"score"`
}

// Assigner resolves scored candidates into at most one company issue per
// taxonomy item. The result is keyed by item name.
type Assigner interface {
	Assign(candidates []Candidate) map[string]Candidate
}

// Score rates how well a company issue names a taxonomy item: 100 for equal
// normalized names, 90 when either contains the other, 70 when one of the
// item's leading keywords longer than two characters occurs in the issue,
// otherwise 0.
func Score(item taxonomy.Item, issue string) int {
	itemNorm := taxonomy.Normalize(item.Name)
	issueNorm := taxonomy.Normalize(issue)

	switch {
	case itemNorm == issueNorm:
		return ScoreExact
	case strings.Contains(issueNorm, itemNorm) || strings.Contains(itemNorm, issueNorm):
		return ScoreContains
	}
	for _, kw := range item.MatchKeywords(keywordsForMatching) {
		k := taxonomy.NormalizeKeyword(kw)
		if utf8.RuneCountInString(k) > 2 && strings.Contains(issueNorm, k) {
			return ScoreKeyword
		}
	}
	return 0
}

// Candidates scores every (item, issue) pair and keeps those at or above
// the keyword threshold, in item order then issue order.
func Candidates(items []taxonomy.Item, issues []string) []Candidate {
	var out []Candidate
	for _, it := range items {
		for _, issue := range issues {
			if sc := Score(it, issue); sc >= ScoreKeyword {
				out = append(out, Candidate{Item: it.Name, Issue: issue, Score: sc})
			}
		}
	}
	return out
}

// Greedy gives each company issue its single best item (first seen wins a
// tie), then lets each item keep the highest scoring issue that chose it,
// visiting issues in the order they first appeared as candidates. It is not
// a globally optimal matching: an item can lose an issue whose best score
// lies elsewhere.
type Greedy struct{}

func (Greedy) Assign(candidates []Candidate) map[string]Candidate {
	var order []string
	best := make(map[string]Candidate)
	for _, c := range candidates {
		cur, ok := best[c.Issue]
		if !ok {
			order = append(order, c.Issue)
			best[c.Issue] = c
			continue
		}
		if c.Score > cur.Score {
			best[c.Issue] = c
		}
	}

	out := make(map[string]Candidate)
	for _, issue := range order {
		c := best[issue]
		if cur, ok := out[c.Item]; !ok || cur.Score < c.Score {
			out[c.Item] = c
		}
	}
	return out
}

// Match runs scoring and assignment over the whole taxonomy.
func Match(issues []string, a Assigner) map[string]Candidate {
	if a == nil {
		a = Greedy{}
	}
	return a.Assign(Candidates(taxonomy.All(), issues))
}
