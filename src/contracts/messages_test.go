package contracts

import (
	"testing"

	"weld-agent/src/hunk"
)

func TestEditEntryValidate(t *testing.T) {
	hunks := []hunk.Hunk{{StartLine: 1, OldLines: []string{"a"}, NewLines: []string{"b"}}}

	tests := []struct {
		name    string
		entry   EditEntry
		wantErr bool
	}{
		{
			name:    "missing agent id",
			entry:   EditEntry{FilePath: "a.go", Operation: OpDelete},
			wantErr: true,
		},
		{
			name:    "missing file path",
			entry:   EditEntry{AgentID: "agent-a", Operation: OpDelete},
			wantErr: true,
		},
		{
			name:    "unknown operation",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: "truncate"},
			wantErr: true,
		},
		{
			name:    "create with content",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpCreate, NewContent: "package a"},
			wantErr: false,
		},
		{
			name:    "create of intentionally empty file",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpCreate, HasContent: true},
			wantErr: false,
		},
		{
			name:    "create without content",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpCreate},
			wantErr: true,
		},
		{
			name:    "create with hunks",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpCreate, NewContent: "x", DiffHunks: hunks},
			wantErr: true,
		},
		{
			name:    "delete",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpDelete},
			wantErr: false,
		},
		{
			name:    "delete with content",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpDelete, NewContent: "x"},
			wantErr: true,
		},
		{
			name:    "rename with destination",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpRename, RenameTo: "b.go"},
			wantErr: false,
		},
		{
			name:    "rename without destination",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpRename},
			wantErr: true,
		},
		{
			name:    "update with hunks",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpUpdate, DiffHunks: hunks},
			wantErr: false,
		},
		{
			name:    "update with full content",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpUpdate, NewContent: "x"},
			wantErr: false,
		},
		{
			name:    "update emptying the file",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpUpdate, HasContent: true},
			wantErr: false,
		},
		{
			name:    "update carrying nothing",
			entry:   EditEntry{AgentID: "agent-a", FilePath: "a.go", Operation: OpUpdate},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	single := FileConflictContext{Edits: []EditEntry{{AgentID: "a"}}}
	if single.IsConflict() {
		t.Error("IsConflict() = true for a single edit")
	}

	double := FileConflictContext{Edits: []EditEntry{{AgentID: "a"}, {AgentID: "b"}}}
	if !double.IsConflict() {
		t.Error("IsConflict() = false for two edits")
	}
}

func TestKnownStrategy(t *testing.T) {
	for _, s := range []MergeStrategy{StrategyAuto, StrategyMergeBoth, StrategyRefactor, StrategyTakeA, StrategyTakeB} {
		if !KnownStrategy(s) {
			t.Errorf("KnownStrategy(%q) = false", s)
		}
	}
	if KnownStrategy("PICK_NEWEST") {
		t.Error(`KnownStrategy("PICK_NEWEST") = true`)
	}
	if KnownStrategy("") {
		t.Error(`KnownStrategy("") = true`)
	}
}
