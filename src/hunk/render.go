package hunk

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Render produces a unified-style diff between two versions of a file.
// Used to show the arbiter (and audit logs) what each competing edit did,
// without requiring hunk metadata on the edit.
func Render(path, before, after string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
