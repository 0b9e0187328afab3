package conflict

import (
	"testing"

	"weld-agent/src/contracts"
)

func TestGroup(t *testing.T) {
	entries := []contracts.EditEntry{
		{AgentID: "agent-a", FilePath: "auth.go", Operation: contracts.OpUpdate, SubmittedAt: 10},
		{AgentID: "agent-b", FilePath: "db.go", Operation: contracts.OpUpdate, SubmittedAt: 20},
		{AgentID: "agent-b", FilePath: "auth.go", Operation: contracts.OpUpdate, SubmittedAt: 30},
	}

	groups := Group(entries)

	if len(groups) != 2 {
		t.Fatalf("Group() returned %d groups, want 2", len(groups))
	}
	if got := len(groups["auth.go"].Edits); got != 2 {
		t.Errorf("auth.go has %d edits, want 2", got)
	}
	if got := len(groups["db.go"].Edits); got != 1 {
		t.Errorf("db.go has %d edits, want 1", got)
	}
	if groups["auth.go"].FilePath != "auth.go" {
		t.Errorf("group FilePath = %q, want auth.go", groups["auth.go"].FilePath)
	}
}

func TestGroup_OrdersBySubmittedAt(t *testing.T) {
	entries := []contracts.EditEntry{
		{AgentID: "agent-a", FilePath: "a.go", SubmittedAt: 300},
		{AgentID: "agent-b", FilePath: "a.go", SubmittedAt: 100},
		{AgentID: "agent-c", FilePath: "a.go", SubmittedAt: 200},
	}

	edits := Group(entries)["a.go"].Edits

	want := []string{"agent-b", "agent-c", "agent-a"}
	for i, agent := range want {
		if edits[i].AgentID != agent {
			t.Errorf("edits[%d].AgentID = %q, want %q", i, edits[i].AgentID, agent)
		}
	}
}

// Equal timestamps fall back to the agent-id tie-break, so clock skew between
// agents never makes grouping nondeterministic.
func TestGroup_AgentIDTieBreak(t *testing.T) {
	entries := []contracts.EditEntry{
		{AgentID: "zeta", FilePath: "a.go", SubmittedAt: 100},
		{AgentID: "alpha", FilePath: "a.go", SubmittedAt: 100},
	}

	edits := Group(entries)["a.go"].Edits
	if edits[0].AgentID != "alpha" || edits[1].AgentID != "zeta" {
		t.Errorf("tie-break order = [%s, %s], want [alpha, zeta]", edits[0].AgentID, edits[1].AgentID)
	}
}

func TestGroup_Deterministic(t *testing.T) {
	entries := []contracts.EditEntry{
		{AgentID: "agent-a", FilePath: "a.go", SubmittedAt: 2},
		{AgentID: "agent-b", FilePath: "b.go", SubmittedAt: 1},
		{AgentID: "agent-c", FilePath: "a.go", SubmittedAt: 1},
	}

	first := Group(entries)
	second := Group(entries)

	for path, ctx := range first {
		other := second[path]
		if len(other.Edits) != len(ctx.Edits) {
			t.Fatalf("group %s sizes differ between runs", path)
		}
		for i := range ctx.Edits {
			if ctx.Edits[i].AgentID != other.Edits[i].AgentID {
				t.Errorf("group %s edit %d differs between runs", path, i)
			}
		}
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Errorf("Group(nil) returned %d groups, want 0", len(got))
	}
}

func TestSortedPaths(t *testing.T) {
	groups := Group([]contracts.EditEntry{
		{AgentID: "a", FilePath: "zebra.go"},
		{AgentID: "a", FilePath: "alpha.go"},
		{AgentID: "a", FilePath: "mid.go"},
	})

	paths := SortedPaths(groups)
	want := []string{"alpha.go", "mid.go", "zebra.go"}
	if len(paths) != len(want) {
		t.Fatalf("SortedPaths() returned %d paths, want %d", len(paths), len(want))
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], p)
		}
	}
}
