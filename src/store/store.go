// Package store defines the interface for persisting merge run audit records.
package store

import (
	"context"

	"weld-agent/src/contracts"
)

// Store persists merge runs and their per-file outcomes. Consumers of the
// audit trail read strategy and reasoning here; the merged content itself is
// written back to the repository by the caller, not by this subsystem.
type Store interface {
	// CreateRun records a new merge run with the number of files in scope.
	CreateRun(ctx context.Context, runID string, filesTotal int) error

	// GetRunStatus returns the status of a run.
	GetRunStatus(ctx context.Context, runID string) (*contracts.RunStatus, error)

	// CompleteRun records a run's terminal state.
	CompleteRun(ctx context.Context, status contracts.RunStatus) error

	// SaveMergedFile saves one per-file merge outcome.
	SaveMergedFile(ctx context.Context, runID string, file contracts.MergedFile) error

	// GetMergedFiles retrieves all merge outcomes for a run.
	GetMergedFiles(ctx context.Context, runID string) ([]contracts.MergedFile, error)

	// Close closes the store connection.
	Close() error
}
