// Package langdetect decides whether a report is written in Korean or English
// so downstream prompts can be issued in the report's language.
package langdetect

import (
	"strings"
	"unicode"
)

// Language is a prompt language code.
type Language string

const (
	Korean  Language = "ko"
	English Language = "en"
)

const (
	samplePages   = 5
	samplePerPage = 500
	// Hangul share of non-whitespace runes above which a report is Korean.
	koreanThreshold = 0.1
)

// Detect samples the first pages of a document and returns Korean when the
// share of Hangul syllables is above the threshold. Empty input is English.
func Detect(pages []string) Language {
	if len(pages) > samplePages {
		pages = pages[:samplePages]
	}
	sample := make([]string, 0, len(pages))
	for _, p := range pages {
		sample = append(sample, prefix(p, samplePerPage))
	}
	return DetectText(strings.Join(sample, " "))
}

// DetectText classifies a single string.
func DetectText(text string) Language {
	var hangul, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0xAC00 && r <= 0xD7A3 {
			hangul++
		}
	}
	if total == 0 {
		return English
	}
	if float64(hangul)/float64(total) > koreanThreshold {
		return Korean
	}
	return English
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
