package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// ParagraphSplitter splits on blank lines and drops paragraphs of MinChars
// runes or fewer. Paragraphs longer than MaxChars are cut into overlapping
// windows.
type ParagraphSplitter struct {
	MinChars int
	MaxChars int
	window   runeWindow
}

func NewParagraphSplitter(minChars, maxChars, overlap int) *ParagraphSplitter {
	if minChars < 0 {
		minChars = 0
	}
	window := newRuneWindow(maxChars, overlap)
	return &ParagraphSplitter{
		MinChars: minChars,
		MaxChars: window.size,
		window:   window,
	}
}

func (s *ParagraphSplitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	paragraphs := blankLine.Split(text, -1)

	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		n := utf8.RuneCountInString(p)
		if n <= s.MinChars {
			continue
		}
		if n <= s.MaxChars {
			out = append(out, p)
			continue
		}
		out = append(out, s.window.cut(p)...)
	}
	return out
}
