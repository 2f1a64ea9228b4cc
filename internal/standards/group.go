package standards

import "github.com/ziadkadry99/esg-benchmark/internal/taxonomy"

// DisclosureRef identifies a disclosure inside a Group.
type DisclosureRef struct {
	ID    string `json:"disclosure_id"`
	Title string `json:"disclosure_title"`
}

// Group lists the disclosures assigned to one taxonomy item.
type Group struct {
	Item        string          `json:"issue_title"`
	Category    string          `json:"category"`
	Disclosures []DisclosureRef `json:"disclosures"`
}

// GroupByItem returns one Group per taxonomy item in taxonomy order, empty
// groups included. Failed classifications are left out.
func GroupByItem(cs []Classification) []Group {
	byItem := make(map[string][]DisclosureRef)
	for _, c := range cs {
		if c.Error != "" || c.Item == "" {
			continue
		}
		byItem[c.Item] = append(byItem[c.Item], DisclosureRef{ID: c.DisclosureID, Title: c.DisclosureTitle})
	}

	items := taxonomy.All()
	out := make([]Group, len(items))
	for i, it := range items {
		refs := byItem[it.Name]
		if refs == nil {
			refs = []DisclosureRef{}
		}
		out[i] = Group{Item: it.Name, Category: string(it.Category), Disclosures: refs}
	}
	return out
}
