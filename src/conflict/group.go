// Package conflict partitions the edit stream into per-file conflict
// contexts and classifies edit pairs into a conflict taxonomy.
package conflict

import (
	"sort"

	"weld-agent/src/contracts"
)

// Group partitions entries by file path. Each group's edits are ordered by
// (SubmittedAt, AgentID); the agent-id tie-break bounds the effect of clock
// skew between agents deterministically.
//
// Pure: identical input always produces identical groups.
func Group(entries []contracts.EditEntry) map[string]contracts.FileConflictContext {
	groups := make(map[string]contracts.FileConflictContext)

	for _, entry := range entries {
		ctx := groups[entry.FilePath]
		ctx.FilePath = entry.FilePath
		ctx.Edits = append(ctx.Edits, entry)
		groups[entry.FilePath] = ctx
	}

	for path, ctx := range groups {
		sort.SliceStable(ctx.Edits, func(i, j int) bool {
			a, b := ctx.Edits[i], ctx.Edits[j]
			if a.SubmittedAt != b.SubmittedAt {
				return a.SubmittedAt < b.SubmittedAt
			}
			return a.AgentID < b.AgentID
		})
		groups[path] = ctx
	}

	return groups
}

// SortedPaths returns the group keys in lexical order, for deterministic
// iteration over a grouping.
func SortedPaths(groups map[string]contracts.FileConflictContext) []string {
	paths := make([]string, 0, len(groups))
	for path := range groups {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
