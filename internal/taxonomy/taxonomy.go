// Package taxonomy holds the fixed reference list of ESG material issues that
// company reports and standards disclosures are benchmarked against.
package taxonomy

import (
	"strings"
	"unicode"
)

// Category is the ESG pillar a taxonomy item belongs to.
type Category string

const (
	Environmental Category = "E"
	Social        Category = "S"
	Governance    Category = "G"
)

// Item is one reference issue. Items are immutable after package init.
type Item struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Keywords []string `json:"keywords"`
}

// MatchKeywords returns at most the first n keywords.
func (it Item) MatchKeywords(n int) []string {
	if n > len(it.Keywords) {
		n = len(it.Keywords)
	}
	return it.Keywords[:n]
}

var items = []Item{
	{Name: "기후변화 대응", Category: Environmental, Keywords: []string{
		"기후변화", "탄소", "온실가스", "감축", "Net Zero", "탄소중립", "배출량", "RE100",
		"기후 리스크", "GHG", "Scope", "climate change", "carbon", "greenhouse gas",
		"emission", "mitigation", "adaptation", "decarbonization", "net zero",
	}},
	{Name: "신재생에너지 확대 및 전력 효율화", Category: Environmental, Keywords: []string{
		"신재생", "재생에너지", "태양광", "풍력", "그린에너지", "청정에너지", "재생가능",
		"전력 효율", "에너지 효율", "renewable", "PPA", "REC", "renewable energy", "solar", "wind",
	}},
	{Name: "환경영향 관리", Category: Environmental, Keywords: []string{
		"환경영향평가", "대기", "수질", "토양", "폐기물", "오염물질", "배출", "환경법규",
		"environmental impact", "air quality", "water", "waste", "pollution",
	}},
	{Name: "생물다양성 보호", Category: Environmental, Keywords: []string{
		"생물다양성", "생태계", "서식지", "멸종위기", "보전", "biodiversity", "자연자본",
		"ecosystem", "habitat", "conservation", "natural capital",
	}},
	{Name: "친환경 사업/기술 투자", Category: Environmental, Keywords: []string{
		"친환경 기술", "녹색기술", "그린 뉴딜", "청정기술", "환경 R&D", "친환경 투자",
		"green technology", "sustainable technology", "eco-friendly",
	}},
	{Name: "인재양성 및 다양성", Category: Social, Keywords: []string{
		"인재 육성", "교육", "훈련", "역량 개발", "인적자원", "HRD", "리더십", "인재 관리",
		"다양성", "포용", "DEI", "talent development", "training", "human capital", "diversity",
	}},
	{Name: "인권경영 고도화", Category: Social, Keywords: []string{
		"인권", "노동인권", "아동노동", "강제노동", "차별금지", "인권실사", "인권영향평가",
		"인권경영", "human rights", "labor rights", "child labor", "forced labor", "discrimination",
	}},
	{Name: "안전보건 관리", Category: Social, Keywords: []string{
		"안전", "보건", "산업재해", "안전사고", "작업환경", "위험성 평가", "KOSHA", "중대재해",
		"safety", "health", "occupational health", "workplace safety",
	}},
	{Name: "공급망 ESG 관리", Category: Governance, Keywords: []string{
		"협력사", "공급망", "SCM", "협력업체", "동반성장", "공급망 실사", "공급망 리스크",
		"supply chain", "supplier", "vendor", "supply chain management",
	}},
	{Name: "책임있는 제품/서비스 관리", Category: Social, Keywords: []string{
		"제품 책임", "서비스 품질", "고객만족", "품질관리", "서비스 안정성", "SLA",
		"product responsibility", "service quality", "customer satisfaction", "quality management",
	}},
	{Name: "정보보안 및 프라이버시", Category: Governance, Keywords: []string{
		"정보보안", "개인정보", "사이버 보안", "데이터 보호", "ISMS", "GDPR", "해킹", "프라이버시",
		"information security", "cybersecurity", "data protection", "privacy",
	}},
	{Name: "지역사회 공헌", Category: Social, Keywords: []string{
		"사회공헌", "지역사회", "기부", "봉사", "CSR", "사회적 가치", "지역경제",
		"community", "social contribution", "donation", "volunteering",
	}},
	{Name: "포트폴리오 ESG 관리", Category: Governance, Keywords: []string{
		"포트폴리오", "투자", "자회사", "계열사", "ESG 투자", "지분", "자산관리",
		"손자회사", "멤버사", "portfolio", "investment", "subsidiary",
	}},
	{Name: "투명한 이사회 경영", Category: Governance, Keywords: []string{
		"이사회", "독립이사", "사외이사", "이사회 구성", "ESG 위원회", "지배구조",
		"board of directors", "independent director", "corporate governance",
	}},
	{Name: "윤리 및 컴플라이언스", Category: Governance, Keywords: []string{
		"윤리", "부패", "컴플라이언스", "반부패", "청렴", "윤리규범", "비윤리", "준법",
		"ethics", "anti-corruption", "compliance", "integrity", "code of conduct",
	}},
	{Name: "주주가치 제고", Category: Governance, Keywords: []string{
		"주주", "배당", "주주환원", "IR", "주주총회", "주가", "기업가치", "ROE",
		"shareholder", "dividend", "investor relations", "shareholder value",
	}},
	{Name: "리스크 관리", Category: Governance, Keywords: []string{
		"리스크", "위기관리", "ERM", "리스크 평가", "BCP", "재무리스크", "운영리스크",
		"risk management", "crisis management", "enterprise risk", "business continuity",
	}},
	{Name: "ESG 공시 의무화 대응", Category: Governance, Keywords: []string{
		"ESG 공시", "CSRD", "ISSB", "지속가능성 보고", "공시", "TCFD", "ESRS", "K-ESG",
		"disclosure", "sustainability reporting", "ESG reporting", "mandatory disclosure",
	}},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(items))
	for i, it := range items {
		m[it.Name] = i
	}
	return m
}()

// All returns a copy of the taxonomy in its canonical order.
func All() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Names returns item names in canonical order.
func Names() []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

// Len is the number of taxonomy items.
func Len() int { return len(items) }

// Lookup finds an item by exact name, falling back to a normalized comparison
// so that "기후변화대응" and "기후변화 대응" resolve to the same item.
func Lookup(name string) (Item, bool) {
	if i, ok := byName[name]; ok {
		return items[i], true
	}
	norm := Normalize(name)
	if norm == "" {
		return Item{}, false
	}
	for _, it := range items {
		if Normalize(it.Name) == norm {
			return it, true
		}
	}
	return Item{}, false
}

// ByCategory returns the items of one pillar in canonical order.
func ByCategory(c Category) []Item {
	var out []Item
	for _, it := range items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

// Normalize strips whitespace, parentheses and slashes and lower-cases the
// result. Both sides of a name comparison go through it.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '/' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeKeyword removes whitespace and lower-cases. Keyword normalization
// keeps punctuation so "K-ESG" stays distinct from "KESG".
func NormalizeKeyword(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
