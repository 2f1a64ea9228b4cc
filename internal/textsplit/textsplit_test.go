package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortTextIsSingleSegment(t *testing.T) {
	s := New(2000, 200)
	got := s.Split("  기후변화 대응 전략을 수립했습니다.  ")
	if len(got) != 1 || got[0] != "기후변화 대응 전략을 수립했습니다." {
		t.Fatalf("unexpected segments: %q", got)
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := New(100, 10).Split(""); len(got) != 0 {
		t.Fatalf("expected no segments, got %q", got)
	}
}

func TestSplitWithOverlap(t *testing.T) {
	tests := []struct {
		name    string
		overlap int
		want    []string
	}{
		{"no carry", 3, []string{"aaaa bbbb", "cccc dddd"}},
		{"carry one word", 5, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(10, tt.overlap).Split("aaaa bbbb cccc dddd")
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitPrefersParagraphs(t *testing.T) {
	para1 := strings.Repeat("가", 30)
	para2 := strings.Repeat("나", 30)
	got := New(40, 0).Split(para1 + "\n\n" + para2)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %q", len(got), got)
	}
	if got[0] != para1 || got[1] != para2 {
		t.Errorf("paragraph boundaries not respected: %q", got)
	}
}

func TestSplitRespectsRuneBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("온실가스 배출량을 감축합니다. ")
		if i%20 == 19 {
			b.WriteString("\n")
		}
	}
	s := New(200, 20)
	segments := s.Split(b.String())
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if n := utf8.RuneCountInString(seg); n > 200 {
			t.Errorf("segment %d has %d runes", i, n)
		}
		if !utf8.ValidString(seg) {
			t.Errorf("segment %d is not valid UTF-8", i)
		}
	}
}

func TestSplitUnbreakableFallsBackToRunes(t *testing.T) {
	got := New(5, 0).Split(strings.Repeat("탄", 12))
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %q", got)
	}
	if got[2] != "탄탄" {
		t.Errorf("last segment = %q", got[2])
	}
}

func TestNewClampsBadSettings(t *testing.T) {
	s := New(0, 5000)
	if s.ChunkSize != 2000 || s.ChunkOverlap != 0 {
		t.Errorf("unexpected splitter %+v", s)
	}
}
