// Package main provides the weld CLI: submit edits, run merges, audit runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"weld-agent/src/config"
	"weld-agent/src/contracts"
	"weld-agent/src/logger"
	"weld-agent/src/run"
	"weld-agent/src/session"
	"weld-agent/src/tui"
)

var rootCmd = &cobra.Command{
	Use:   "weld",
	Short: "Weld - integration engine for concurrent multi-agent edits",
	Long: `Weld reconciles file edits produced independently by multiple autonomous
coding agents working on the same checkout. Non-overlapping edits merge
mechanically; conflicting edits are arbitrated through a reasoning engine.

It supports two modes:
- Local Mode: in-memory broker and store, single process (default)
- Distributed Mode: Redpanda + Postgres, agents submit from separate processes

Mode is auto-detected from the REDPANDA_BROKERS environment variable.`,
}

var (
	editsPath string
	basePath  string
	useTUI    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Run a merge over a set of edit entries",
	Long: `Load edit entries (JSON array of entries) and optional base contents
(JSON object mapping file path to content), run one merge, and print the
integrator output as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		if editsPath == "" {
			fatal("--edits is required")
		}

		entries, err := loadEdits(editsPath)
		if err != nil {
			fatal("failed to load edits: %v", err)
		}

		base := run.MapSource{}
		if basePath != "" {
			if err := loadJSON(basePath, (*map[string]string)(&base)); err != nil {
				fatal("failed to load base contents: %v", err)
			}
		}

		cfg, err := config.LoadFromEnv()
		if err != nil {
			fatal("%v", err)
		}

		var lgr logger.Logger = logger.NewConsoleLogger()
		if useTUI {
			lgr = logger.NewSilentLogger()
		}

		sess, err := session.New(cfg, base, lgr)
		if err != nil {
			fatal("failed to create session: %v", err)
		}
		defer sess.Close()

		for _, entry := range entries {
			if err := sess.Append(entry); err != nil {
				fatal("%v", err)
			}
		}

		ctx := cmd.Context()
		var output contracts.IntegratorOutput

		if useTUI {
			result, err := tui.Run(sess.MergeEvents(ctx))
			if err != nil {
				fatal("merge run failed: %v", err)
			}
			if result == nil {
				fatal("merge run produced no output")
			}
			output = *result
		} else {
			output, err = sess.Merge(ctx)
			if err != nil {
				fatal("merge run failed: %v", err)
			}
		}

		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			fatal("failed to marshal output: %v", err)
		}
		fmt.Println(string(data))

		if !output.Success {
			os.Exit(1)
		}
	},
}

var (
	submitAgent     string
	submitRationale string
)

var submitCmd = &cobra.Command{
	Use:   "submit [edit.json]",
	Short: "Submit an edit entry to the integration broker",
	Long: `Publish one edit entry (JSON) to the weld.edits.raw topic. Requires
distributed mode (REDPANDA_BROKERS); a running collector appends it to the
session's edit stream.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var entry contracts.EditEntry
		if err := loadJSON(args[0], &entry); err != nil {
			fatal("failed to load edit entry: %v", err)
		}
		if submitAgent != "" {
			entry.AgentID = submitAgent
		}
		if submitRationale != "" {
			entry.Rationale = submitRationale
		}
		if entry.SubmittedAt == 0 {
			entry.SubmittedAt = time.Now().UnixNano()
		}

		cfg, err := config.LoadFromEnv()
		if err != nil {
			fatal("%v", err)
		}
		if !cfg.Distributed() {
			fatal("submit requires distributed mode: set REDPANDA_BROKERS")
		}

		sess, err := session.New(cfg, run.MapSource{}, logger.NewConsoleLogger())
		if err != nil {
			fatal("failed to create session: %v", err)
		}
		defer sess.Close()

		if err := sess.Submit(cmd.Context(), entry); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("submitted %s edit for %s\n", entry.Operation, entry.FilePath)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the persisted status and outcomes of a merge run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fatal("%v", err)
		}
		if cfg.PostgresDSN == "" {
			fatal("status requires the audit store: set POSTGRES_DSN")
		}

		sess, err := session.New(cfg, run.MapSource{}, logger.NewConsoleLogger())
		if err != nil {
			fatal("failed to create session: %v", err)
		}
		defer sess.Close()

		status, err := sess.RunStatus(cmd.Context(), args[0])
		if err != nil {
			fatal("%v", err)
		}
		files, err := sess.MergedFiles(cmd.Context(), args[0])
		if err != nil {
			fatal("%v", err)
		}

		fmt.Printf("run %s: %s (%d/%d files, success=%t)\n",
			status.RunID, status.Status, status.FilesDone, status.FilesTotal, status.Success)
		for _, f := range files {
			fmt.Printf("  %-40s %-10s %s\n", f.FilePath, f.Strategy, f.Reasoning)
		}
	},
}

// loadEdits reads a JSON array of edit entries and validates each.
func loadEdits(path string) ([]contracts.EditEntry, error) {
	var entries []contracts.EditEntry
	if err := loadJSON(path, &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	mergeCmd.Flags().StringVar(&editsPath, "edits", "", "path to JSON array of edit entries")
	mergeCmd.Flags().StringVar(&basePath, "base", "", "path to JSON object of base file contents")
	mergeCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress TUI")

	submitCmd.Flags().StringVar(&submitAgent, "agent", "", "override the entry's agent id")
	submitCmd.Flags().StringVar(&submitRationale, "rationale", "", "override the entry's rationale")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
