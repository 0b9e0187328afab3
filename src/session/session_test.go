package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"weld-agent/src/config"
	"weld-agent/src/contracts"
	"weld-agent/src/hunk"
	"weld-agent/src/logger"
	"weld-agent/src/run"
)

// fakeArbiterServer answers chat-completions calls with a fixed TAKE_B
// decision wrapped in a markdown fence, the way real engines wrap it.
func fakeArbiterServer(t *testing.T) *httptest.Server {
	t.Helper()
	content := "```json\n" +
		`{"strategy": "TAKE_B", "merged_content": "arbitrated", "reasoning": "later edit wins"}` +
		"\n```"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]string{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode fake response: %v", err)
		}
	}))
}

func localConfig(url string) *config.Config {
	return &config.Config{
		ArbiterURL:    url,
		ArbiterAPIKey: "test-key",
		ArbiterModel:  "test-model",
	}
}

func newLocalSession(t *testing.T, base run.BaseSource) *Session {
	t.Helper()
	server := fakeArbiterServer(t)
	t.Cleanup(server.Close)

	sess, err := New(localConfig(server.URL), base, &logger.SilentLogger{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestSession_LocalMergeViaBroker(t *testing.T) {
	base := run.MapSource{"auth.go": "line 1\nline 2"}
	sess := newLocalSession(t, base)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.StartCollector(ctx)
	time.Sleep(20 * time.Millisecond)

	entry := contracts.EditEntry{
		AgentID: "agent-a", FilePath: "auth.go", Operation: contracts.OpUpdate, SubmittedAt: 1,
		DiffHunks: []hunk.Hunk{{StartLine: 2, OldLines: []string{"line 2"}, NewLines: []string{"LINE 2"}}},
	}
	if err := sess.Submit(ctx, entry); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Wait for the collector to land the submission in the log.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(sess.Snapshot()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if len(sess.Snapshot()) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(sess.Snapshot()))
	}

	output, err := sess.Merge(ctx)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !output.Success || len(output.MergedFiles) != 1 {
		t.Fatalf("output = %+v, want one merged file", output)
	}

	mf := output.MergedFiles[0]
	if mf.Strategy != contracts.StrategyAuto || mf.Content != "line 1\nLINE 2" {
		t.Errorf("merged = %+v, want auto-merged content", mf)
	}

	// The run's audit trail is queryable afterwards.
	status, err := sess.RunStatus(ctx, output.RunID)
	if err != nil {
		t.Fatalf("RunStatus() error = %v", err)
	}
	if status.Status != "completed" || !status.Success {
		t.Errorf("status = %+v, want completed", status)
	}
	files, err := sess.MergedFiles(ctx, output.RunID)
	if err != nil {
		t.Fatalf("MergedFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("persisted %d files, want 1", len(files))
	}
}

func TestSession_SubmitRejectsInvalidEntry(t *testing.T) {
	sess := newLocalSession(t, run.MapSource{})

	err := sess.Submit(context.Background(), contracts.EditEntry{FilePath: "a.go", Operation: contracts.OpDelete})
	if err == nil {
		t.Fatal("Submit() accepted an entry without agent_id")
	}
}

func TestSession_ConflictGoesThroughArbiter(t *testing.T) {
	base := run.MapSource{"f.go": "original"}
	sess := newLocalSession(t, base)

	edits := []contracts.EditEntry{
		{AgentID: "agent-a", FilePath: "f.go", Operation: contracts.OpUpdate, NewContent: "version A", SubmittedAt: 1},
		{AgentID: "agent-b", FilePath: "f.go", Operation: contracts.OpUpdate, NewContent: "version B", SubmittedAt: 2},
	}
	for _, e := range edits {
		if err := sess.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	output, err := sess.Merge(context.Background())
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !output.Success || len(output.MergedFiles) != 1 {
		t.Fatalf("output = %+v, want one arbitrated file", output)
	}

	mf := output.MergedFiles[0]
	if mf.Strategy != contracts.StrategyTakeB || mf.Content != "arbitrated" {
		t.Errorf("merged = %+v, want the arbiter's TAKE_B decision", mf)
	}
	if mf.Reasoning != "later edit wins" {
		t.Errorf("Reasoning = %q, not the arbiter's verbatim text", mf.Reasoning)
	}
}

func TestSession_MergeEvents(t *testing.T) {
	base := run.MapSource{"f.go": "a"}
	sess := newLocalSession(t, base)

	if err := sess.Append(contracts.EditEntry{
		AgentID: "agent-a", FilePath: "f.go", Operation: contracts.OpUpdate, NewContent: "b", SubmittedAt: 1,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var last run.Event
	for ev := range sess.MergeEvents(context.Background()) {
		last = ev
	}
	if last.Stage != run.StageComplete {
		t.Errorf("terminal stage = %s, want %s", last.Stage, run.StageComplete)
	}
	if last.Output == nil || len(last.Output.MergedFiles) != 1 {
		t.Errorf("terminal output = %+v, want one merged file", last.Output)
	}
}
