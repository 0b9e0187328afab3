// Package hunk models contiguous line-range replacements and applies them to a base document.
package hunk

import (
	"fmt"
	"sort"
	"strings"
)

// Hunk is a single line-range replacement within a file.
// StartLine is 1-indexed: the first line of the document is line 1.
type Hunk struct {
	// StartLine is the 1-indexed line where OldLines begin.
	StartLine int `json:"start_line"`
	// OldLines are the lines the hunk removes, starting at StartLine.
	OldLines []string `json:"old_lines"`
	// NewLines are the lines inserted in place of OldLines.
	NewLines []string `json:"new_lines"`
}

// Span returns the half-open line range [start, end) the hunk occupies in the
// base document, sized by the larger of its removed and inserted sides.
// This is the range used for overlap detection between competing edits.
func (h Hunk) Span() (start, end int) {
	n := len(h.OldLines)
	if len(h.NewLines) > n {
		n = len(h.NewLines)
	}
	return h.StartLine, h.StartLine + n
}

// ApplyError reports a hunk that cannot be applied to the base document:
// either its range falls outside the document, or the lines it removes no
// longer match the document's content (Mismatch). It is fatal for that
// file's mechanical merge; callers route the file to arbitration instead of
// clamping the range or splicing blindly.
type ApplyError struct {
	StartLine int
	Removed   int
	DocLines  int
	Mismatch  bool
}

func (e *ApplyError) Error() string {
	if e.Mismatch {
		return fmt.Sprintf("hunk at line %d no longer matches the document content", e.StartLine)
	}
	return fmt.Sprintf("hunk at line %d removing %d lines does not fit document of %d lines",
		e.StartLine, e.Removed, e.DocLines)
}

// Apply splices hunks into base and returns the resulting text.
//
// Hunks are sorted by StartLine descending and applied in that order, so a
// splice never shifts the line numbers of hunks still waiting to be applied.
// A hunk whose range falls outside the document, or whose OldLines differ
// from the lines actually at that range, yields an *ApplyError and no
// partial result. The content check catches hunks whose coordinates were
// invalidated by an earlier edit that changed the line count.
func Apply(base string, hunks []Hunk) (string, error) {
	lines := splitLines(base)

	ordered := make([]Hunk, len(hunks))
	copy(ordered, hunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartLine > ordered[j].StartLine
	})

	for _, h := range ordered {
		if h.StartLine < 1 {
			return "", &ApplyError{StartLine: h.StartLine, Removed: len(h.OldLines), DocLines: len(lines)}
		}
		idx := h.StartLine - 1
		end := idx + len(h.OldLines)
		if idx > len(lines) || end > len(lines) {
			return "", &ApplyError{StartLine: h.StartLine, Removed: len(h.OldLines), DocLines: len(lines)}
		}
		for i, old := range h.OldLines {
			if lines[idx+i] != old {
				return "", &ApplyError{StartLine: h.StartLine, Removed: len(h.OldLines), DocLines: len(lines), Mismatch: true}
			}
		}

		spliced := make([]string, 0, len(lines)-len(h.OldLines)+len(h.NewLines))
		spliced = append(spliced, lines[:idx]...)
		spliced = append(spliced, h.NewLines...)
		spliced = append(spliced, lines[end:]...)
		lines = spliced
	}

	return strings.Join(lines, "\n"), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
