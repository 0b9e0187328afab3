package conflict

import (
	"weld-agent/src/contracts"
)

// Classify assigns a conflict taxonomy label to a pair of edits to the same
// file. The decision order is fixed; the first matching rule wins:
//
//  1. one edit deletes the file while the other does something else
//  2. either edit renames the file
//  3. both edits carry hunks: intersect their line ranges
//  4. otherwise the pair cannot be proven independent
//
// Rule 4 is deliberately conservative: missing hunk metadata is not proof of
// independence, so such pairs require arbitration instead of being silently
// auto-merged.
//
// Classify is symmetric: Classify(a, b) == Classify(b, a).
func Classify(a, b contracts.EditEntry) contracts.ConflictType {
	if (a.Operation == contracts.OpDelete || b.Operation == contracts.OpDelete) &&
		a.Operation != b.Operation {
		return contracts.ConflictDeleteModify
	}

	if a.Operation == contracts.OpRename || b.Operation == contracts.OpRename {
		return contracts.ConflictRename
	}

	if len(a.DiffHunks) > 0 && len(b.DiffHunks) > 0 {
		sameLine := false
		overlap := false
		for _, ha := range a.DiffHunks {
			aStart, aEnd := ha.Span()
			for _, hb := range b.DiffHunks {
				bStart, bEnd := hb.Span()
				if aStart < bEnd && bStart < aEnd {
					overlap = true
					if aStart == bStart && aEnd == bEnd {
						sameLine = true
					}
				}
			}
		}
		if sameLine {
			return contracts.ConflictSameLine
		}
		if overlap {
			return contracts.ConflictSameBlock
		}
		// Every hunk pair is geometrically disjoint.
		return contracts.ConflictNone
	}

	return contracts.ConflictLogical
}

// ClassifyContext collapses a whole context to its most severe pairwise
// classification, for reporting. A single-edit context is never a conflict.
func ClassifyContext(ctx contracts.FileConflictContext) contracts.ConflictType {
	if !ctx.IsConflict() {
		return contracts.ConflictNone
	}

	worst := contracts.ConflictNone
	for i := 0; i < len(ctx.Edits); i++ {
		for j := i + 1; j < len(ctx.Edits); j++ {
			c := Classify(ctx.Edits[i], ctx.Edits[j])
			if severity(c) > severity(worst) {
				worst = c
			}
		}
	}
	return worst
}

// severity orders conflict types for ClassifyContext. Higher means harder to
// resolve mechanically.
func severity(c contracts.ConflictType) int {
	switch c {
	case contracts.ConflictNone:
		return 0
	case contracts.ConflictLogical:
		return 1
	case contracts.ConflictSameBlock:
		return 2
	case contracts.ConflictSameLine:
		return 3
	case contracts.ConflictRename:
		return 4
	case contracts.ConflictDeleteModify:
		return 5
	}
	return 0
}
