// Package pdftext turns a PDF file into page-numbered plain text.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document opens but yields no text, which is
// typical for scanned reports.
var ErrNoText = errors.New("no extractable text found in PDF")

// Page is the text of one 1-based page.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Extractor produces ordered page text for a document path.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

// PDFExtractor reads PDFs with ledongthuc/pdf. Pages with no text are
// skipped, so page numbers may have gaps.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the non-empty pages of the PDF at path. A missing or
// unreadable file yields an error and no pages.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (pages []Page, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = sanitize(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

// JoinText concatenates page texts with a newline after each page.
func JoinText(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Texts returns just the page texts in order.
func Texts(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Text
	}
	return out
}

// sanitize drops NUL bytes and invalid UTF-8 that some encoders emit.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}
