package chunking

import (
	"strings"
	"unicode"
)

const defaultMaxChars = 1500

// runeWindow cuts an overlong paragraph into pieces of at most size runes.
// Consecutive pieces share up to overlap runes. Cuts land on whitespace when
// there is any in the second half of the window.
type runeWindow struct {
	size    int
	overlap int
}

func newRuneWindow(size, overlap int) runeWindow {
	if size <= 0 {
		size = defaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size/2 {
		overlap = size / 4
	}
	return runeWindow{size: size, overlap: overlap}
}

func (w runeWindow) cut(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var out []string
	for start := 0; start < len(runes); {
		end := min(start+w.size, len(runes))
		if end < len(runes) {
			if sp := lastSpace(runes[start:end]); sp > w.size/2 {
				end = start + sp
			}
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
		start = w.nextStart(runes, start, end)
	}
	return out
}

// nextStart backs off by overlap runes, then skips forward past the first
// whitespace so the next piece does not open mid-word.
func (w runeWindow) nextStart(runes []rune, start, end int) int {
	next := end - w.overlap
	if next <= start {
		return end
	}
	for i := next; i <= end && i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return next
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
