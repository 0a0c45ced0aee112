package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParagraphSplitterDropsShortParagraphs(t *testing.T) {
	long := "O compressor reduz a faixa dinâmica de um sinal de áudio de forma controlada."
	text := "Título\r\n\r\n" + long + "\n   \nCurto demais.\n\n" + long + " Segunda vez."

	got := NewParagraphSplitter(50, 900, 150).Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %q", len(got), got)
	}
	if got[0] != long {
		t.Fatalf("unexpected first paragraph %q", got[0])
	}
}

func TestParagraphSplitterCapsLongParagraphs(t *testing.T) {
	long := strings.Repeat("palavra ", 300)
	got := NewParagraphSplitter(50, 500, 100).Split(long)
	if len(got) < 2 {
		t.Fatalf("expected long paragraph to be split, got %d chunks", len(got))
	}
	for i, chunk := range got {
		if utf8.RuneCountInString(chunk) > 500 {
			t.Fatalf("chunk %d exceeds cap: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestRuneWindowCutsOnWhitespace(t *testing.T) {
	got := newRuneWindow(10, 3).cut("aaaa bbbb cccc dddd")
	if len(got) != 2 || got[0] != "aaaa bbbb" || got[1] != "cccc dddd" {
		t.Fatalf("unexpected windows %q", got)
	}
}

func TestRuneWindowOverlapsWithoutWhitespace(t *testing.T) {
	got := newRuneWindow(10, 4).cut("abcdefghijklmnopqrst")
	want := []string{"abcdefghij", "ghijklmnop", "mnopqrst"}
	if len(got) != len(want) {
		t.Fatalf("unexpected windows %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d = %q, want %q", i, got[i], want[i])
		}
	}
}
