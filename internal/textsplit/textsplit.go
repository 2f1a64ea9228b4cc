// Package textsplit breaks page text into overlapping segments for embedding.
// Splitting prefers paragraph, then line, then sentence boundaries and only
// cuts inside words when nothing coarser fits.
package textsplit

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order; the empty separator splits per rune.
var DefaultSeparators = []string{"\n\n", "\n", "。", ". ", " ", ""}

// Splitter is a recursive character splitter. Lengths are measured in runes.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// New returns a Splitter with the default separator ladder.
func New(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 2000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the segments of text. Segments never exceed ChunkSize runes
// unless a single unbreakable piece does.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	var final []string

	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeep(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs small pieces into segments up to ChunkSize, carrying at most
// ChunkOverlap runes of trailing context into the next segment. Separators
// are already attached to the pieces so they are joined with nothing.
func (s *Splitter) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.ChunkSize && len(current) > 0 {
			if doc := join(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := join(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeep splits on sep and keeps the separator at the start of every piece
// after the first. Empty pieces are dropped.
func splitKeep(text, sep string) []string {
	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, sep)
	for i, p := range raw {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
