package tui

import (
	"strings"
	"testing"

	"weld-agent/src/contracts"
	"weld-agent/src/run"
)

func TestModel_MergingEventUpdatesState(t *testing.T) {
	m := NewModel(nil)

	updated, cmd := m.Update(EventMsg(run.Event{
		Stage:    run.StageMerging,
		FilePath: "auth.go",
		Percent:  40,
	}))
	model := updated.(Model)

	if model.stage != run.StageMerging {
		t.Errorf("stage = %s, want %s", model.stage, run.StageMerging)
	}
	if model.file != "auth.go" || model.percent != 40 {
		t.Errorf("file/percent = %q/%v, want auth.go/40", model.file, model.percent)
	}
	if cmd == nil {
		t.Error("no follow-up command; the model stopped pumping events")
	}
}

func TestModel_CompleteEventQuits(t *testing.T) {
	m := NewModel(nil)

	output := &contracts.IntegratorOutput{RunID: "run-1", Success: true}
	updated, cmd := m.Update(EventMsg(run.Event{
		Stage:   run.StageComplete,
		Percent: 100,
		Output:  output,
	}))
	model := updated.(Model)

	if !model.done || model.percent != 100 {
		t.Errorf("done/percent = %v/%v, want true/100", model.done, model.percent)
	}
	if model.output != output {
		t.Error("output not captured from the complete event")
	}
	if cmd == nil {
		t.Error("complete event did not produce a quit command")
	}
}

func TestModel_ErrorEventQuits(t *testing.T) {
	m := NewModel(nil)

	updated, cmd := m.Update(EventMsg(run.Event{Stage: run.StageError, Err: "boom"}))
	model := updated.(Model)

	if !model.done || model.errMsg != "boom" {
		t.Errorf("done/errMsg = %v/%q, want true/boom", model.done, model.errMsg)
	}
	if cmd == nil {
		t.Error("error event did not produce a quit command")
	}
}

func TestModel_ViewShowsError(t *testing.T) {
	m := NewModel(nil)
	m.errMsg = "engine unreachable"

	view := m.View()
	if !strings.Contains(view, "engine unreachable") {
		t.Errorf("View() missing the error message:\n%s", view)
	}
}

func TestRenderSummary(t *testing.T) {
	output := &contracts.IntegratorOutput{
		RunID:   "run-7",
		Success: false,
		MergedFiles: []contracts.MergedFile{
			{FilePath: "a.go", Strategy: contracts.StrategyAuto, Reasoning: "single edit applied"},
			{FilePath: "b.go", Strategy: contracts.StrategyMergeBoth, Reasoning: "both kept"},
		},
		Unresolved: []contracts.UnresolvedFile{
			{FilePath: "c.go", Reason: "reasoning engine call timed out"},
		},
	}

	got := renderSummary(output)

	for _, want := range []string{"run-7", "a.go", "AUTO", "b.go", "MERGE_BOTH", "c.go", "timed out"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderSummary() missing %q:\n%s", want, got)
		}
	}
}
