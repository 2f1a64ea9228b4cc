package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractMissingFile(t *testing.T) {
	pages, err := NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}

func TestExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	pages, err := NewPDFExtractor().Extract(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}

func TestJoinAndTexts(t *testing.T) {
	pages := []Page{{Number: 1, Text: "first"}, {Number: 3, Text: "third"}}
	if got := JoinText(pages); got != "first\nthird\n" {
		t.Errorf("JoinText = %q", got)
	}
	texts := Texts(pages)
	if len(texts) != 2 || texts[1] != "third" {
		t.Errorf("Texts = %q", texts)
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("a\x00b\xffc"); got != "abc" {
		t.Errorf("sanitize = %q", got)
	}
}
