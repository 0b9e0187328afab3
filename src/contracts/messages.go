// Package contracts defines message types exchanged between the edit
// integration agents and the merge pipeline.
package contracts

import (
	"fmt"

	"weld-agent/src/hunk"
)

// Operation is the kind of change an agent proposes for a file.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRename Operation = "rename"
)

// EditEntry is one change proposed by one agent, submitted to the edit stream.
// Entries are immutable once appended.
// Published to: weld.edits.raw
// Key: {file_path}
type EditEntry struct {
	// AgentID identifies the submitting agent. Opaque; also the deterministic
	// tie-breaker when two agents share a SubmittedAt timestamp.
	AgentID string `json:"agent_id"`
	// FilePath is the repository-relative path; the grouping key.
	FilePath string `json:"file_path"`
	// Operation is one of create, update, delete, rename.
	Operation Operation `json:"operation"`
	// DiffHunks are the line-range replacements, when the agent supplied them.
	// Absent for full-content, delete and rename edits.
	DiffHunks []hunk.Hunk `json:"diff_hunks,omitempty"`
	// NewContent is the full replacement text, used when hunks are unavailable
	// or the operation is create.
	NewContent string `json:"new_content,omitempty"`
	// HasContent distinguishes an intentionally empty NewContent (empty file)
	// from an absent one.
	HasContent bool `json:"has_content,omitempty"`
	// RenameTo is the destination path for rename operations.
	RenameTo string `json:"rename_to,omitempty"`
	// Rationale is the agent's optional explanation of the change, forwarded
	// verbatim to the arbiter.
	Rationale string `json:"rationale,omitempty"`
	// SubmittedAt is a unix-nano timestamp used for ordering within a file.
	SubmittedAt int64 `json:"submitted_at"`
}

// Validate checks the structural invariants an entry must satisfy before it
// enters the edit stream.
func (e EditEntry) Validate() error {
	if e.AgentID == "" {
		return fmt.Errorf("edit entry missing agent_id")
	}
	if e.FilePath == "" {
		return fmt.Errorf("edit entry missing file_path")
	}
	switch e.Operation {
	case OpCreate:
		if !e.HasContent && e.NewContent == "" {
			return fmt.Errorf("create edit for %s carries no content", e.FilePath)
		}
		if len(e.DiffHunks) > 0 {
			return fmt.Errorf("create edit for %s must not carry diff hunks", e.FilePath)
		}
	case OpDelete:
		if e.NewContent != "" || e.HasContent {
			return fmt.Errorf("delete edit for %s must not carry content", e.FilePath)
		}
	case OpRename:
		if e.RenameTo == "" {
			return fmt.Errorf("rename edit for %s missing destination", e.FilePath)
		}
	case OpUpdate:
		if len(e.DiffHunks) == 0 && !e.HasContent && e.NewContent == "" {
			return fmt.Errorf("update edit for %s carries neither hunks nor content", e.FilePath)
		}
	default:
		return fmt.Errorf("unknown operation %q for %s", e.Operation, e.FilePath)
	}
	return nil
}

// FileConflictContext is the unit of work handed to merge logic: every edit
// proposed for one file, ordered by (SubmittedAt, AgentID), plus the last
// known common base content. Materialized fresh per merge run from a snapshot
// of the edit stream; never persisted across runs.
type FileConflictContext struct {
	FilePath        string      `json:"file_path"`
	OriginalContent string      `json:"original_content"`
	Edits           []EditEntry `json:"edits"`
}

// IsConflict reports whether more than one agent touched the file.
func (c FileConflictContext) IsConflict() bool {
	return len(c.Edits) > 1
}

// ConflictType classifies a pair of edits to the same file.
type ConflictType string

const (
	// ConflictSameLine means two hunks cover the identical line range.
	ConflictSameLine ConflictType = "SAME_LINE"
	// ConflictSameBlock means two hunk ranges intersect without being identical.
	ConflictSameBlock ConflictType = "SAME_BLOCK"
	// ConflictDeleteModify means one edit deletes the file another modifies.
	ConflictDeleteModify ConflictType = "DELETE_MODIFY"
	// ConflictRename means at least one edit renames the file.
	ConflictRename ConflictType = "RENAME_CONFLICT"
	// ConflictLogical is the conservative fallback: the pair cannot be proven
	// independent (e.g. hunk metadata missing on either side).
	ConflictLogical ConflictType = "LOGICAL"
	// ConflictNone means the pair is provably non-overlapping.
	ConflictNone ConflictType = "NONE"
)

// MergeStrategy labels how a merged file was produced.
type MergeStrategy string

const (
	StrategyAuto      MergeStrategy = "AUTO"
	StrategyMergeBoth MergeStrategy = "MERGE_BOTH"
	StrategyRefactor  MergeStrategy = "REFACTOR"
	StrategyTakeA     MergeStrategy = "TAKE_A"
	StrategyTakeB     MergeStrategy = "TAKE_B"
)

// KnownStrategy reports whether s is one of the strategies the arbiter is
// allowed to return.
func KnownStrategy(s MergeStrategy) bool {
	switch s {
	case StrategyAuto, StrategyMergeBoth, StrategyRefactor, StrategyTakeA, StrategyTakeB:
		return true
	}
	return false
}

// MergedFile is the per-file result of a merge run.
type MergedFile struct {
	FilePath string        `json:"file_path"`
	Content  string        `json:"content"`
	Deleted  bool          `json:"deleted,omitempty"`
	Strategy MergeStrategy `json:"strategy"`
	// Reasoning is a human-readable rationale, kept verbatim when it comes
	// from the reasoning engine, for auditability.
	Reasoning string `json:"reasoning"`
}

// UnresolvedFile is a file the run could not merge, with the reason.
type UnresolvedFile struct {
	FilePath string `json:"file_path"`
	Reason   string `json:"reason"`
}

// IntegratorInput is the request envelope handed to the semantic merge
// arbiter: the conflict contexts the auto-merge engine could not resolve.
type IntegratorInput struct {
	RunID     string                `json:"run_id"`
	Conflicts []FileConflictContext `json:"conflicts"`
}

// IntegratorOutput is the terminal artifact of a merge run. The caller is
// responsible for writing MergedFiles back to storage; this subsystem never
// touches the repository.
type IntegratorOutput struct {
	RunID       string           `json:"run_id"`
	Success     bool             `json:"success"`
	MergedFiles []MergedFile     `json:"merged_files"`
	Unresolved  []UnresolvedFile `json:"unresolved,omitempty"`
}

// RunStatus is the persisted state of a merge run.
type RunStatus struct {
	RunID      string
	Status     string // pending, running, completed, failed
	FilesTotal int
	FilesDone  int
	Success    bool
}

// Topic names for the distributed submission path.
const (
	// TopicEditsRaw carries EditEntry submissions from coding agents.
	TopicEditsRaw = "weld.edits.raw"

	// TopicMergeResults carries completed IntegratorOutput envelopes.
	TopicMergeResults = "weld.merge.results"
)
