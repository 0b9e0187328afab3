// Package run orchestrates a merge run over a snapshot of the edit stream
// and surfaces progress as a finite sequence of stage events.
package run

import "weld-agent/src/contracts"

// Stage is a phase of a merge run.
type Stage string

const (
	StageAnalyzing  Stage = "analyzing"
	StageMerging    Stage = "merging"
	StageValidating Stage = "validating"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// Event is one element of the run's progress sequence:
// analyzing -> merging (one per file) -> validating -> complete | error.
// Exactly one terminal event is emitted, never both.
type Event struct {
	Stage Stage

	// FilePath is set on merging events.
	FilePath string

	// Processed and Total drive the percentage on merging events.
	Processed int
	Total     int

	// Percent is processed/total*100, non-decreasing across merging events;
	// it reaches exactly 100 only on complete.
	Percent float64

	// Output carries the run result on the complete event.
	Output *contracts.IntegratorOutput

	// Err carries the failure message on the error event.
	Err string
}
