package run

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"weld-agent/src/broker"
	"weld-agent/src/conflict"
	"weld-agent/src/contracts"
	"weld-agent/src/logger"
	"weld-agent/src/merge"
	"weld-agent/src/store"
)

// BaseSource supplies the last known common base content for a file. The
// repository-context assembler behind it is outside this subsystem; a map
// satisfies the interface for tests and local runs.
type BaseSource interface {
	Content(path string) (string, bool)
}

// MapSource is a BaseSource backed by an in-memory map.
type MapSource map[string]string

// Content returns the base content for path.
func (m MapSource) Content(path string) (string, bool) {
	content, ok := m[path]
	return content, ok
}

// SyncSource is a concurrency-safe BaseSource that can be populated while
// agents are still submitting edits.
type SyncSource struct {
	mu       sync.RWMutex
	contents map[string]string
}

// NewSyncSource creates an empty SyncSource.
func NewSyncSource() *SyncSource {
	return &SyncSource{contents: make(map[string]string)}
}

// Content returns the base content for path.
func (s *SyncSource) Content(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.contents[path]
	return content, ok
}

// Set records the base content for path. The first recording wins: the base
// is the last known COMMON content, not any one agent's view.
func (s *SyncSource) Set(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contents[path]; !exists {
		s.contents[path] = content
	}
}

// Resolver arbitrates conflicts the auto-merge engine cannot resolve.
// Satisfied by *arbiter.Arbiter; tests substitute a stub.
type Resolver interface {
	Resolve(ctx context.Context, input contracts.IntegratorInput) contracts.IntegratorOutput
}

// Runner executes merge runs over edit stream snapshots. Everything it
// touches downstream of the snapshot is immutable; per-file work shares no
// state across files.
type Runner struct {
	resolver Resolver
	base     BaseSource
	logger   logger.Logger

	store  store.Store   // optional run audit persistence
	broker broker.Broker // optional result publication
}

// NewRunner creates a runner. Store and broker are optional; set them with
// SetStore / SetBroker when audit persistence or result publication is wanted.
func NewRunner(resolver Resolver, base BaseSource, lgr logger.Logger) *Runner {
	return &Runner{
		resolver: resolver,
		base:     base,
		logger:   lgr,
	}
}

// SetStore enables persistence of run audit records.
func (r *Runner) SetStore(s store.Store) { r.store = s }

// SetBroker enables publication of completed outputs to weld.merge.results.
func (r *Runner) SetBroker(b broker.Broker) { r.broker = b }

// Run executes a merge run synchronously and returns its terminal output.
// Per-file failures are reported inside the output; the returned error is
// reserved for structural failures (cancellation, empty machinery).
func (r *Runner) Run(ctx context.Context, snapshot []contracts.EditEntry) (contracts.IntegratorOutput, error) {
	return r.execute(ctx, snapshot, nil)
}

// Events executes the same run lazily, yielding the progress sequence of
// stage events. The channel is closed after the single terminal event.
func (r *Runner) Events(ctx context.Context, snapshot []contracts.EditEntry) <-chan Event {
	ch := make(chan Event)
	emit := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(ch)
		output, err := r.execute(ctx, snapshot, emit)
		if err != nil {
			emit(Event{Stage: StageError, Err: err.Error()})
			return
		}
		emit(Event{Stage: StageComplete, Percent: 100, Output: &output})
	}()

	return ch
}

// execute is the single underlying run shared by Run and Events. emit may be
// nil (synchronous mode); it returns false when the consumer is gone.
func (r *Runner) execute(ctx context.Context, snapshot []contracts.EditEntry, emit func(Event) bool) (contracts.IntegratorOutput, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	output := contracts.IntegratorOutput{RunID: runID, Success: true}

	send := func(ev Event) {
		if emit != nil {
			emit(ev)
		}
	}

	send(Event{Stage: StageAnalyzing})
	r.logger.Info("[Run %s] Analyzing %d edit entries", runID, len(snapshot))

	groups := conflict.Group(snapshot)
	paths := conflict.SortedPaths(groups)
	total := len(paths)

	if r.store != nil {
		if err := r.store.CreateRun(ctx, runID, total); err != nil {
			r.logger.Error("[Run %s] Failed to persist run record: %v", runID, err)
		}
	}

	// Split the grouping into mechanically mergeable contexts and conflicts
	// needing arbitration. Merge-time execution is a single logical sequence
	// over the snapshot; no further mutation is visible to it.
	var pending []contracts.FileConflictContext
	processed := 0

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return output, fmt.Errorf("merge run cancelled: %w", err)
		}

		fc := groups[path]
		if base, ok := r.base.Content(path); ok {
			fc.OriginalContent = base
		}

		// Progress is reported as each file starts, so merging events span
		// [0, 100) and the sequence reaches exactly 100 only on complete.
		send(Event{
			Stage:     StageMerging,
			FilePath:  path,
			Processed: processed,
			Total:     total,
			Percent:   percent(processed, total),
		})
		processed++

		if !merge.CanAutoMerge(fc) {
			pending = append(pending, fc)
			continue
		}

		merged, err := merge.File(fc)
		if err != nil {
			// Malformed hunks are fatal for the mechanical attempt only;
			// the file is routed to arbitration instead.
			r.logger.Info("[Run %s] %s not auto-mergeable: %v", runID, path, err)
			pending = append(pending, fc)
			continue
		}

		output.MergedFiles = append(output.MergedFiles, merged)
	}

	if len(pending) > 0 {
		r.logger.Info("[Run %s] Arbitrating %d conflicting files", runID, len(pending))
		resolved := r.resolver.Resolve(ctx, contracts.IntegratorInput{RunID: runID, Conflicts: pending})

		output.MergedFiles = append(output.MergedFiles, resolved.MergedFiles...)
		output.Unresolved = append(output.Unresolved, resolved.Unresolved...)
		if !resolved.Success {
			output.Success = false
		}
	}

	if err := ctx.Err(); err != nil {
		return output, fmt.Errorf("merge run cancelled: %w", err)
	}

	// The validating event carries counts but no percent; 100 appears only
	// on the terminal complete event.
	send(Event{Stage: StageValidating, Processed: processed, Total: total})
	r.validate(&output)

	r.finish(ctx, &output, total)

	return output, nil
}

// validate is the defensive post-merge check: every merged file must carry a
// known strategy and a non-empty rationale. Violations demote the file to
// unresolved rather than crashing the run.
func (r *Runner) validate(output *contracts.IntegratorOutput) {
	valid := output.MergedFiles[:0]
	for _, mf := range output.MergedFiles {
		if !contracts.KnownStrategy(mf.Strategy) || mf.Reasoning == "" {
			output.Success = false
			output.Unresolved = append(output.Unresolved, contracts.UnresolvedFile{
				FilePath: mf.FilePath,
				Reason:   fmt.Sprintf("invalid merge result (strategy %q)", mf.Strategy),
			})
			continue
		}
		valid = append(valid, mf)
	}
	output.MergedFiles = valid
}

// finish persists the audit record and publishes the result. Both are
// best-effort: the output is already final.
func (r *Runner) finish(ctx context.Context, output *contracts.IntegratorOutput, total int) {
	if r.store != nil {
		status := "completed"
		if !output.Success {
			status = "failed"
		}
		err := r.store.CompleteRun(ctx, contracts.RunStatus{
			RunID:      output.RunID,
			Status:     status,
			FilesTotal: total,
			FilesDone:  len(output.MergedFiles),
			Success:    output.Success,
		})
		if err != nil {
			r.logger.Error("[Run %s] Failed to persist run status: %v", output.RunID, err)
		}
		for _, mf := range output.MergedFiles {
			if err := r.store.SaveMergedFile(ctx, output.RunID, mf); err != nil {
				r.logger.Error("[Run %s] Failed to persist merged file %s: %v", output.RunID, mf.FilePath, err)
			}
		}
	}

	if r.broker != nil {
		data, err := json.Marshal(output)
		if err == nil {
			err = r.broker.Publish(ctx, contracts.TopicMergeResults, output.RunID, data)
		}
		if err != nil {
			r.logger.Error("[Run %s] Failed to publish result: %v", output.RunID, err)
		}
	}
}

func percent(processed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(processed) / float64(total) * 100
}
