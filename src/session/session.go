// Package session wires the edit stream, broker, arbiter and merge runner
// into one integration session. Both the CLI and the MCP server build on it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"weld-agent/src/arbiter"
	"weld-agent/src/broker"
	"weld-agent/src/config"
	"weld-agent/src/contracts"
	"weld-agent/src/logger"
	"weld-agent/src/run"
	"weld-agent/src/store"
	"weld-agent/src/stream"
)

// Session owns the shared machinery of one integration session: the mutable
// edit log fed by the collector, and the immutable merge pipeline run over
// its snapshots.
//
// Mode is selected by configuration: with REDPANDA_BROKERS set, submissions
// travel through Redpanda and the audit trail lands in Postgres; otherwise
// everything stays in-process.
type Session struct {
	broker broker.Broker
	log    *stream.MemoryLog
	store  store.Store
	runner *run.Runner
	logger logger.Logger
}

// New builds a session from configuration. base supplies original file
// contents for merge runs (the repository-context assembler is external).
func New(cfg *config.Config, base run.BaseSource, lgr logger.Logger) (*Session, error) {
	var brk broker.Broker
	var err error

	if cfg.Distributed() {
		brk, err = broker.NewRedpandaBroker(cfg.RedpandaBrokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
	} else {
		brk = broker.NewInMemoryBroker()
	}

	var st store.Store
	if cfg.PostgresDSN != "" {
		st, err = store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			brk.Close()
			return nil, fmt.Errorf("failed to create Postgres store: %w", err)
		}
	} else {
		st = store.NewMemoryStore()
	}

	engine := arbiter.NewHTTPEngine(cfg.ArbiterURL, cfg.ArbiterAPIKey, cfg.ArbiterModel)
	arb := arbiter.New(engine, lgr)

	runner := run.NewRunner(arb, base, lgr)
	runner.SetStore(st)
	runner.SetBroker(brk)

	return &Session{
		broker: brk,
		log:    stream.NewMemoryLog(),
		store:  st,
		runner: runner,
		logger: lgr,
	}, nil
}

// StartCollector launches the collector agent as a goroutine, feeding the
// session's edit log from the broker until ctx is cancelled.
func (s *Session) StartCollector(ctx context.Context) {
	collector := stream.NewCollector(s.broker, s.log, s.logger)
	go func() {
		if err := collector.Run(ctx); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "[Session] Collector error: %v\n", err)
		}
	}()
}

// Submit publishes one edit entry to the edit submission topic.
func (s *Session) Submit(ctx context.Context, entry contracts.EditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal edit entry: %w", err)
	}

	if err := s.broker.Publish(ctx, contracts.TopicEditsRaw, entry.FilePath, data); err != nil {
		return fmt.Errorf("failed to publish edit entry: %w", err)
	}

	return nil
}

// Append bypasses the broker and appends directly to the edit log. Used when
// edits arrive through a local call instead of the submission topic.
func (s *Session) Append(entry contracts.EditEntry) error {
	return s.log.Append(entry)
}

// Snapshot returns a point-in-time copy of the edit log.
func (s *Session) Snapshot() []contracts.EditEntry {
	return s.log.Snapshot()
}

// Merge runs a synchronous merge over the current snapshot.
func (s *Session) Merge(ctx context.Context) (contracts.IntegratorOutput, error) {
	return s.runner.Run(ctx, s.log.Snapshot())
}

// MergeEvents runs a merge over the current snapshot, yielding the progress
// event sequence.
func (s *Session) MergeEvents(ctx context.Context) <-chan run.Event {
	return s.runner.Events(ctx, s.log.Snapshot())
}

// RunStatus returns the persisted status of a past run.
func (s *Session) RunStatus(ctx context.Context, runID string) (*contracts.RunStatus, error) {
	return s.store.GetRunStatus(ctx, runID)
}

// MergedFiles returns the persisted per-file outcomes of a past run.
func (s *Session) MergedFiles(ctx context.Context, runID string) ([]contracts.MergedFile, error) {
	return s.store.GetMergedFiles(ctx, runID)
}

// Close shuts down the broker and store.
func (s *Session) Close() error {
	if err := s.broker.Close(); err != nil {
		return err
	}
	return s.store.Close()
}
