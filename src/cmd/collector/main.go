// Package main runs the standalone collector for distributed mode: it
// consumes edit submissions from Redpanda until interrupted, then runs one
// merge over the collected stream and publishes the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"weld-agent/src/config"
	"weld-agent/src/logger"
	"weld-agent/src/run"
	"weld-agent/src/session"
)

func main() {
	cfg := config.MustLoadFromEnv()
	if !cfg.Distributed() {
		fmt.Fprintln(os.Stderr, "collector requires distributed mode: set REDPANDA_BROKERS")
		os.Exit(1)
	}

	basePath := os.Getenv("WELD_BASE_CONTENTS")
	base := run.MapSource{}
	if basePath != "" {
		data, err := os.ReadFile(basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read base contents: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, (*map[string]string)(&base)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse base contents: %v\n", err)
			os.Exit(1)
		}
	}

	lgr := logger.NewConsoleLogger()

	sess, err := session.New(cfg, base, lgr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	collectCtx, stopCollect := context.WithCancel(context.Background())
	sess.StartCollector(collectCtx)

	lgr.Info("[Collector] Collecting edits; send SIGINT/SIGTERM to run the merge")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	stopCollect()

	lgr.Info("[Collector] Running merge over %d collected edits", len(sess.Snapshot()))

	output, err := sess.Merge(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge run failed: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))

	if !output.Success {
		os.Exit(1)
	}
}
