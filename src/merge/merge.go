// Package merge implements the mechanical auto-merge engine. It resolves
// files whose edits are provably non-overlapping; everything else is left
// for the semantic arbiter.
package merge

import (
	"fmt"
	"sort"

	"weld-agent/src/conflict"
	"weld-agent/src/contracts"
	"weld-agent/src/hunk"
)

// CanAutoMerge reports whether a file's edits can be merged mechanically:
// either there is exactly one edit, or every pairwise classification is
// provably non-overlapping. LOGICAL pairs are not eligible; only
// geometrically verified non-overlap is.
func CanAutoMerge(ctx contracts.FileConflictContext) bool {
	if len(ctx.Edits) == 1 {
		return true
	}

	for i := 0; i < len(ctx.Edits); i++ {
		for j := i + 1; j < len(ctx.Edits); j++ {
			if conflict.Classify(ctx.Edits[i], ctx.Edits[j]) != contracts.ConflictNone {
				return false
			}
		}
	}
	return true
}

// File merges one eligible context and returns the merged file.
// Returns an error when a hunk cannot be applied; the caller routes the file
// to arbitration rather than failing the run.
func File(ctx contracts.FileConflictContext) (contracts.MergedFile, error) {
	if len(ctx.Edits) == 0 {
		// The grouper never constructs empty contexts; guard anyway.
		return contracts.MergedFile{}, fmt.Errorf("empty edit set for %s", ctx.FilePath)
	}

	if len(ctx.Edits) == 1 {
		return mergeSingle(ctx, ctx.Edits[0])
	}

	// Apply edits to the accumulating content, highest first-hunk start line
	// first, so earlier regions are unaffected by line-count shifts. An edit
	// whose hunks straddle another edit's region can still end up on stale
	// coordinates; hunk.Apply rejects that by checking OldLines against the
	// document, and the file falls through to arbitration.
	ordered := make([]contracts.EditEntry, len(ctx.Edits))
	copy(ordered, ctx.Edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		as, bs := firstHunkStart(a), firstHunkStart(b)
		if as != bs {
			return as > bs
		}
		if a.SubmittedAt != b.SubmittedAt {
			return a.SubmittedAt < b.SubmittedAt
		}
		return a.AgentID < b.AgentID
	})

	content := ctx.OriginalContent
	for _, edit := range ordered {
		if len(edit.DiffHunks) > 0 {
			merged, err := hunk.Apply(content, edit.DiffHunks)
			if err != nil {
				return contracts.MergedFile{}, fmt.Errorf("edit by %s: %w", edit.AgentID, err)
			}
			content = merged
			continue
		}
		// Full-content edit: replaces the accumulated text wholesale.
		// When several edits supply full content, the last one applied wins
		// and the others' changes are discarded. Known limitation.
		content = edit.NewContent
	}

	return contracts.MergedFile{
		FilePath:  ctx.FilePath,
		Content:   content,
		Strategy:  contracts.StrategyAuto,
		Reasoning: fmt.Sprintf("mechanically merged %d non-overlapping edits", len(ctx.Edits)),
	}, nil
}

// mergeSingle applies a lone edit; a one-edit context is never a true
// conflict and always auto-merges.
func mergeSingle(ctx contracts.FileConflictContext, edit contracts.EditEntry) (contracts.MergedFile, error) {
	out := contracts.MergedFile{
		FilePath:  ctx.FilePath,
		Strategy:  contracts.StrategyAuto,
		Reasoning: "single edit applied",
	}

	switch edit.Operation {
	case contracts.OpDelete:
		out.Deleted = true

	case contracts.OpRename:
		out.FilePath = edit.RenameTo
		out.Content = ctx.OriginalContent
		out.Reasoning = fmt.Sprintf("renamed from %s", ctx.FilePath)

	default:
		if len(edit.DiffHunks) > 0 {
			merged, err := hunk.Apply(ctx.OriginalContent, edit.DiffHunks)
			if err != nil {
				return contracts.MergedFile{}, fmt.Errorf("edit by %s: %w", edit.AgentID, err)
			}
			out.Content = merged
		} else {
			out.Content = edit.NewContent
		}
	}

	return out, nil
}

// AutoMerge merges every eligible context and reports the rest as
// unresolved. Per-file failures never abort the batch.
func AutoMerge(contexts []contracts.FileConflictContext) contracts.IntegratorOutput {
	output := contracts.IntegratorOutput{Success: true}

	for _, ctx := range contexts {
		if !CanAutoMerge(ctx) {
			output.Success = false
			output.Unresolved = append(output.Unresolved, contracts.UnresolvedFile{
				FilePath: ctx.FilePath,
				Reason:   fmt.Sprintf("conflicting edits (%s)", conflict.ClassifyContext(ctx)),
			})
			continue
		}

		merged, err := File(ctx)
		if err != nil {
			output.Success = false
			output.Unresolved = append(output.Unresolved, contracts.UnresolvedFile{
				FilePath: ctx.FilePath,
				Reason:   err.Error(),
			})
			continue
		}
		output.MergedFiles = append(output.MergedFiles, merged)
	}

	return output
}

// firstHunkStart returns the starting line of an edit's first hunk, or 0
// when the edit carries no hunks.
func firstHunkStart(e contracts.EditEntry) int {
	if len(e.DiffHunks) == 0 {
		return 0
	}
	return e.DiffHunks[0].StartLine
}
