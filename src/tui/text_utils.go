package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens text to maxLen visual columns, with an ellipsis when it
// had to cut. File paths can be long; the left side is the less interesting
// half, so truncation keeps the tail.
func Truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return "..." + truncateLeft(s, maxLen-3)
}

// truncateLeft keeps the rightmost columns of s up to width.
func truncateLeft(s string, width int) string {
	runes := []rune(s)
	for len(runes) > 0 && runewidth.StringWidth(string(runes)) > width {
		runes = runes[1:]
	}
	return string(runes)
}

// Pad right-pads s with spaces to exactly width visual columns.
func Pad(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
