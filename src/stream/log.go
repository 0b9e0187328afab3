// Package stream provides the append-only edit stream that coding agents
// submit changes to, and the collector agent that feeds it from a broker.
package stream

import (
	"fmt"
	"sync"

	"weld-agent/src/contracts"
)

// Log is the append-only store of edit entries. It is the only mutable
// shared state in the integration engine; everything downstream of a
// Snapshot works on immutable copies.
type Log interface {
	// Append adds one validated entry. Safe for concurrent use.
	Append(entry contracts.EditEntry) error

	// Snapshot returns a point-in-time copy of all entries. Entries appended
	// after the snapshot is taken do not affect it.
	Snapshot() []contracts.EditEntry
}

// MemoryLog is a mutex-guarded, in-process Log.
type MemoryLog struct {
	mu      sync.Mutex
	entries []contracts.EditEntry
}

// NewMemoryLog creates an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append validates and appends a single entry.
func (l *MemoryLog) Append(entry contracts.EditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("rejected edit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	return nil
}

// Snapshot returns a copy of the log's entries.
func (l *MemoryLog) Snapshot() []contracts.EditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]contracts.EditEntry, len(l.entries))
	copy(snapshot, l.entries)
	return snapshot
}

// Len returns the number of entries appended so far.
func (l *MemoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
