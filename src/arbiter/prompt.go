package arbiter

import (
	"fmt"
	"strings"

	"weld-agent/src/contracts"
	"weld-agent/src/hunk"
)

// systemPrompt is the fixed, versioned instruction for the reasoning engine.
// Bump the version suffix whenever the wording changes so responses remain
// attributable to the prompt that produced them.
const systemPrompt = `You are a merge arbiter for concurrent code edits (weld-arbiter/v2).
Multiple autonomous agents edited the same file from the same base content.
Decide how to integrate their changes.

Respond with a single JSON object and nothing else:
{
  "strategy": "MERGE_BOTH" | "REFACTOR" | "TAKE_A" | "TAKE_B",
  "merged_content": "<the full merged file content>",
  "deleted": <true only when the file should be removed>,
  "reasoning": "<one or two sentences explaining the decision>"
}

Rules:
- MERGE_BOTH: both changes are kept, combined mechanically or with small adjustments.
- REFACTOR: the changes require restructuring to coexist; merged_content reflects the restructured file.
- TAKE_A / TAKE_B: one edit wins outright (A is the earlier edit, B the later).
- merged_content must be the complete file, not a diff.
- To resolve in favor of a deletion, set "deleted": true; merged_content may then be omitted.
- Prefer the minimal merge that preserves both agents' intent.`

// buildPrompt interpolates one conflict context into the user message.
// Every competing edit is shown as the diff of its resulting content against
// the common base, plus the agent's own rationale when it supplied one.
func buildPrompt(ctx contracts.FileConflictContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "File: %s\n\n", ctx.FilePath)
	sb.WriteString("=== ORIGINAL CONTENT (common base) ===\n")
	sb.WriteString(ctx.OriginalContent)
	sb.WriteString("\n\n")

	for i, edit := range ctx.Edits {
		label := editLabel(i)
		fmt.Fprintf(&sb, "=== EDIT %s (agent %s, operation %s) ===\n", label, edit.AgentID, edit.Operation)

		switch edit.Operation {
		case contracts.OpDelete:
			sb.WriteString("This edit deletes the file.\n")
		case contracts.OpRename:
			fmt.Fprintf(&sb, "This edit renames the file to %s.\n", edit.RenameTo)
		default:
			result, err := editResult(ctx.OriginalContent, edit)
			if err != nil {
				fmt.Fprintf(&sb, "This edit's hunks do not apply cleanly to the base: %v\n", err)
				fmt.Fprintf(&sb, "Raw hunks: %+v\n", edit.DiffHunks)
			} else {
				sb.WriteString(hunk.Render(ctx.FilePath, ctx.OriginalContent, result))
			}
		}

		if edit.Rationale != "" {
			fmt.Fprintf(&sb, "Agent rationale: %s\n", edit.Rationale)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Produce the merge decision JSON.")
	return sb.String()
}

// editResult computes the content an edit would produce on its own against
// the base.
func editResult(base string, edit contracts.EditEntry) (string, error) {
	if len(edit.DiffHunks) > 0 {
		return hunk.Apply(base, edit.DiffHunks)
	}
	return edit.NewContent, nil
}

// editLabel names edits A, B, C... in submission order, matching the
// TAKE_A/TAKE_B vocabulary of the response schema.
func editLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("E%d", i+1)
}
