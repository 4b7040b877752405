package optimize

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// WrapText lays text out on at most two lines of roughly lineLength runes.
// The break is placed at the word boundary closest to the midpoint so both
// lines have similar width. Text longer than two full lines is truncated with
// an ellipsis.
func WrapText(text string, lineLength int) string {
	if lineLength <= 0 {
		lineLength = DefaultLineLength
	}
	text = strings.Join(strings.Fields(text), " ")
	length := utf8.RuneCountInString(text)
	if length <= lineLength {
		return text
	}
	if length > lineLength*2 {
		runes := []rune(text)
		return strings.TrimSpace(string(runes[:max(0, lineLength*2-len(ellipsis))])) + ellipsis
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}
	mid := length / 2
	best, bestDiff := 1, length
	pos := 0
	for i, word := range words[:len(words)-1] {
		pos += utf8.RuneCountInString(word) + 1
		diff := pos - mid
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i+1, diff
		}
	}
	return strings.Join(words[:best], " ") + "\n" + strings.Join(words[best:], " ")
}
