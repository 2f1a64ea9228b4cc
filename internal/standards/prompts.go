package standards

import (
	"fmt"
	"strings"
)

const classifierSystem = "You are an ESG classification assistant."

func classifierPrompt(text string, candidates []Candidate) string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%d. %s | similarity=%.3f", i+1, c.Item, c.Similarity)
	}
	return "Select the single best materiality item from the provided candidate list.\n" +
		"Respond ONLY with valid JSON containing keys 'item', 'confidence' (0-1 float), and 'reason'.\n" +
		"Do not reference any items outside the candidate list.\n\n" +
		"Disclosure text:\n" + text + "\n\n" +
		"Materiality candidates:\n" + strings.Join(lines, "\n") + "\n\n" +
		"Remember: choose ONLY from the candidate list."
}

const extractorSystem = `You are an expert in sustainability reporting standards.
Your task is to extract ALL disclosure requirements from the provided text.

For each disclosure requirement, extract:
1. disclosure_id: The official identifier (e.g., "GRI 201-1", "TC-SI-130a.1")
2. disclosure_title: The short title of the disclosure
3. description: What needs to be disclosed/reported
4. requirements: Specific requirements or metrics to report
5. category: The main category/topic (e.g., "Economic", "Environmental", "Social")

Return ONLY a valid JSON array of disclosure objects. Do not include any markdown formatting or explanations.
Format: [{"disclosure_id": "...", "disclosure_title": "...", "description": "...", "requirements": "...", "category": "..."}]

If no disclosure requirements are found in the text, return an empty array: []`

func extractorPrompt(standard, text string) string {
	return fmt.Sprintf("Extract ALL disclosure requirements from this %s standard text:\n\n%s\n\nReturn a JSON array of disclosure requirements.", standard, text)
}
