package arbiter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"weld-agent/src/contracts"
	"weld-agent/src/logger"
)

const (
	// DefaultConcurrency bounds parallel engine calls; the engine is the
	// dominant latency cost and rate-limited upstream.
	DefaultConcurrency = 4

	// DefaultCallTimeout bounds a single per-file arbitration call. A timed
	// out file is marked unresolved, never retried here; retries are the
	// caller's policy.
	DefaultCallTimeout = 90 * time.Second
)

// ParseError reports a reasoning-engine response that failed schema
// validation. The affected file is marked unresolved; the engine's output is
// never partially accepted.
type ParseError struct {
	FilePath string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("arbitration response for %s: %s", e.FilePath, e.Reason)
}

// decision is the schema the engine's JSON must match.
type decision struct {
	Strategy      contracts.MergeStrategy `json:"strategy"`
	MergedContent *string                 `json:"merged_content"`
	Deleted       bool                    `json:"deleted"`
	Reasoning     string                  `json:"reasoning"`
}

// Arbiter delegates unresolved conflicts to a reasoning engine with bounded
// concurrency.
type Arbiter struct {
	engine      Engine
	logger      logger.Logger
	concurrency int
	callTimeout time.Duration
}

// New creates an arbiter with default concurrency and timeout bounds.
func New(engine Engine, lgr logger.Logger) *Arbiter {
	return &Arbiter{
		engine:      engine,
		logger:      lgr,
		concurrency: DefaultConcurrency,
		callTimeout: DefaultCallTimeout,
	}
}

// SetConcurrency overrides the number of parallel engine calls.
func (a *Arbiter) SetConcurrency(n int) {
	if n > 0 {
		a.concurrency = n
	}
}

// SetCallTimeout overrides the per-file call timeout.
func (a *Arbiter) SetCallTimeout(d time.Duration) {
	if d > 0 {
		a.callTimeout = d
	}
}

// Resolve arbitrates every conflict in the input. One engine call per file,
// issued with bounded concurrency. Per-file failures (timeout, unreachable
// engine, malformed response) mark that file unresolved and never abort the
// batch; cancellation of ctx abandons in-flight calls at file boundaries.
func (a *Arbiter) Resolve(ctx context.Context, input contracts.IntegratorInput) contracts.IntegratorOutput {
	output := contracts.IntegratorOutput{RunID: input.RunID, Success: true}
	if len(input.Conflicts) == 0 {
		return output
	}

	type fileResult struct {
		merged     contracts.MergedFile
		unresolved *contracts.UnresolvedFile
	}
	results := make([]fileResult, len(input.Conflicts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, fc := range input.Conflicts {
		g.Go(func() error {
			merged, err := a.resolveFile(gctx, fc)
			if err != nil {
				a.logger.Error("[Arbiter] %s: %v", fc.FilePath, err)
				results[i] = fileResult{unresolved: &contracts.UnresolvedFile{
					FilePath: fc.FilePath,
					Reason:   err.Error(),
				}}
				return nil // per-file failures never abort the batch
			}
			a.logger.Debug("[Arbiter] %s resolved with strategy %s", fc.FilePath, merged.Strategy)
			results[i] = fileResult{merged: merged}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.unresolved != nil {
			output.Success = false
			output.Unresolved = append(output.Unresolved, *r.unresolved)
			continue
		}
		output.MergedFiles = append(output.MergedFiles, r.merged)
	}

	return output
}

// resolveFile arbitrates a single conflict context.
func (a *Arbiter) resolveFile(ctx context.Context, fc contracts.FileConflictContext) (contracts.MergedFile, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	raw, err := a.engine.Complete(callCtx, Request{
		System:      systemPrompt,
		User:        buildPrompt(fc),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return contracts.MergedFile{}, fmt.Errorf("reasoning engine call timed out")
		}
		return contracts.MergedFile{}, err
	}

	dec, err := parseDecision(fc.FilePath, raw)
	if err != nil {
		return contracts.MergedFile{}, err
	}

	var content string
	if dec.MergedContent != nil {
		content = *dec.MergedContent
	}

	return contracts.MergedFile{
		FilePath: fc.FilePath,
		Content:  content,
		Deleted:  dec.Deleted,
		Strategy: dec.Strategy,
		// Kept verbatim for auditability.
		Reasoning: dec.Reasoning,
	}, nil
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// parseDecision extracts and validates the engine's JSON decision. Prose
// around the JSON block is tolerated; any schema deviation is a *ParseError.
func parseDecision(filePath, raw string) (decision, error) {
	text := extractJSON(raw)
	if text == "" {
		return decision{}, &ParseError{FilePath: filePath, Reason: "no JSON object in response"}
	}

	var dec decision
	if err := json.Unmarshal([]byte(text), &dec); err != nil {
		return decision{}, &ParseError{FilePath: filePath, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if dec.Strategy == "" {
		return decision{}, &ParseError{FilePath: filePath, Reason: "missing required field: strategy"}
	}
	if dec.Strategy == contracts.StrategyAuto || !contracts.KnownStrategy(dec.Strategy) {
		return decision{}, &ParseError{FilePath: filePath, Reason: fmt.Sprintf("unknown strategy %q", dec.Strategy)}
	}
	if dec.MergedContent == nil && !dec.Deleted {
		return decision{}, &ParseError{FilePath: filePath, Reason: "missing required field: merged_content"}
	}
	if dec.Reasoning == "" {
		return decision{}, &ParseError{FilePath: filePath, Reason: "missing required field: reasoning"}
	}

	return dec, nil
}

// extractJSON pulls the JSON object out of a response that may wrap it in a
// markdown fence or surrounding prose.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
