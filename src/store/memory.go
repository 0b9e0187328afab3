// Package store provides an in-memory store implementation.
package store

import (
	"context"
	"fmt"
	"sync"

	"weld-agent/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Used for tests and local single-process runs.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*contracts.RunStatus
	files map[string][]contracts.MergedFile // runID -> merged files
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]*contracts.RunStatus),
		files: make(map[string][]contracts.MergedFile),
	}
}

// CreateRun records a new merge run.
func (s *MemoryStore) CreateRun(ctx context.Context, runID string, filesTotal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[runID] = &contracts.RunStatus{
		RunID:      runID,
		Status:     "running",
		FilesTotal: filesTotal,
	}
	return nil
}

// GetRunStatus returns the status of a run.
func (s *MemoryStore) GetRunStatus(ctx context.Context, runID string) (*contracts.RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	statusCopy := *status
	return &statusCopy, nil
}

// CompleteRun records a run's terminal state.
func (s *MemoryStore) CompleteRun(ctx context.Context, status contracts.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[status.RunID] = &status
	return nil
}

// SaveMergedFile saves one per-file merge outcome.
func (s *MemoryStore) SaveMergedFile(ctx context.Context, runID string, file contracts.MergedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[runID] = append(s.files[runID], file)
	return nil
}

// GetMergedFiles retrieves all merge outcomes for a run.
func (s *MemoryStore) GetMergedFiles(ctx context.Context, runID string) ([]contracts.MergedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, exists := s.files[runID]
	if !exists {
		return []contracts.MergedFile{}, nil
	}

	result := make([]contracts.MergedFile, len(files))
	copy(result, files)
	return result, nil
}

// Close closes the store (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}
