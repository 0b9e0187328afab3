package hunk

import (
	"errors"
	"strings"
	"testing"
)

func TestApply(t *testing.T) {
	base := "line 1\nline 2\nline 3\nline 4\nline 5"

	tests := []struct {
		name  string
		hunks []Hunk
		want  string
	}{
		{
			name:  "no hunks",
			hunks: nil,
			want:  base,
		},
		{
			name: "replace one line",
			hunks: []Hunk{
				{StartLine: 2, OldLines: []string{"line 2"}, NewLines: []string{"LINE 2"}},
			},
			want: "line 1\nLINE 2\nline 3\nline 4\nline 5",
		},
		{
			name: "pure insertion",
			hunks: []Hunk{
				{StartLine: 3, OldLines: nil, NewLines: []string{"inserted"}},
			},
			want: "line 1\nline 2\ninserted\nline 3\nline 4\nline 5",
		},
		{
			name: "pure removal",
			hunks: []Hunk{
				{StartLine: 2, OldLines: []string{"line 2", "line 3"}, NewLines: nil},
			},
			want: "line 1\nline 4\nline 5",
		},
		{
			name: "append at end",
			hunks: []Hunk{
				{StartLine: 6, OldLines: nil, NewLines: []string{"line 6"}},
			},
			want: base + "\nline 6",
		},
		{
			name: "two disjoint hunks",
			hunks: []Hunk{
				{StartLine: 1, OldLines: []string{"line 1"}, NewLines: []string{"first"}},
				{StartLine: 5, OldLines: []string{"line 5"}, NewLines: []string{"last"}},
			},
			want: "first\nline 2\nline 3\nline 4\nlast",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, tt.hunks)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Applying hunks in submission order would shift line numbers of hunks above
// the splice point; descending application must make the input order irrelevant.
func TestApply_OrderIndependent(t *testing.T) {
	base := strings.Join([]string{"a", "b", "c", "d", "e", "f"}, "\n")
	hunks := []Hunk{
		{StartLine: 1, OldLines: []string{"a"}, NewLines: []string{"a1", "a2"}},
		{StartLine: 4, OldLines: []string{"d"}, NewLines: []string{"D"}},
		{StartLine: 6, OldLines: []string{"f"}, NewLines: nil},
	}
	reversed := []Hunk{hunks[2], hunks[1], hunks[0]}

	want := "a1\na2\nb\nc\nD\ne"

	for _, input := range [][]Hunk{hunks, reversed} {
		got, err := Apply(base, input)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got != want {
			t.Errorf("Apply() = %q, want %q", got, want)
		}
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	hunks := []Hunk{
		{StartLine: 3, OldLines: []string{"c"}, NewLines: []string{"C"}},
		{StartLine: 1, OldLines: []string{"a"}, NewLines: []string{"A"}},
	}

	if _, err := Apply("a\nb\nc", hunks); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if hunks[0].StartLine != 3 || hunks[1].StartLine != 1 {
		t.Errorf("Apply() reordered the caller's slice: %+v", hunks)
	}
}

func TestApply_OutOfBounds(t *testing.T) {
	base := "line 1\nline 2\nline 3"

	tests := []struct {
		name string
		hunk Hunk
	}{
		{
			name: "start line zero",
			hunk: Hunk{StartLine: 0, OldLines: []string{"line 1"}, NewLines: []string{"x"}},
		},
		{
			name: "start past end",
			hunk: Hunk{StartLine: 5, OldLines: nil, NewLines: []string{"x"}},
		},
		{
			name: "removal runs past end",
			hunk: Hunk{StartLine: 3, OldLines: []string{"line 3", "line 4"}, NewLines: nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, []Hunk{tt.hunk})
			if err == nil {
				t.Fatalf("Apply() = %q, want error", got)
			}
			var applyErr *ApplyError
			if !errors.As(err, &applyErr) {
				t.Fatalf("Apply() error = %T, want *ApplyError", err)
			}
			if applyErr.StartLine != tt.hunk.StartLine {
				t.Errorf("ApplyError.StartLine = %d, want %d", applyErr.StartLine, tt.hunk.StartLine)
			}
			if got != "" {
				t.Errorf("Apply() returned partial result %q on error", got)
			}
		})
	}
}

// A hunk whose OldLines no longer match the document must be rejected, not
// spliced blindly. This is what catches coordinates made stale by an earlier
// edit that grew or shrank the file.
func TestApply_StaleOldLines(t *testing.T) {
	base := "a\nb\nc\nd\ne"

	got, err := Apply(base, []Hunk{
		{StartLine: 4, OldLines: []string{"x"}, NewLines: []string{"X"}},
	})
	if err == nil {
		t.Fatalf("Apply() = %q, want error for mismatched OldLines", got)
	}
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Apply() error = %T, want *ApplyError", err)
	}
	if !applyErr.Mismatch {
		t.Errorf("ApplyError.Mismatch = false, want true")
	}
	if applyErr.StartLine != 4 {
		t.Errorf("ApplyError.StartLine = %d, want 4", applyErr.StartLine)
	}
	if got != "" {
		t.Errorf("Apply() returned partial result %q on error", got)
	}
}

func TestApply_EmptyBase(t *testing.T) {
	got, err := Apply("", []Hunk{{StartLine: 1, OldLines: nil, NewLines: []string{"hello"}}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Apply() = %q, want %q", got, "hello")
	}
}

func TestSpan(t *testing.T) {
	tests := []struct {
		name      string
		hunk      Hunk
		wantStart int
		wantEnd   int
	}{
		{
			name:      "replacement",
			hunk:      Hunk{StartLine: 4, OldLines: []string{"a", "b"}, NewLines: []string{"x", "y"}},
			wantStart: 4,
			wantEnd:   6,
		},
		{
			name:      "insertion sized by new side",
			hunk:      Hunk{StartLine: 2, OldLines: nil, NewLines: []string{"x", "y", "z"}},
			wantStart: 2,
			wantEnd:   5,
		},
		{
			name:      "removal sized by old side",
			hunk:      Hunk{StartLine: 7, OldLines: []string{"a", "b"}, NewLines: []string{"x"}},
			wantStart: 7,
			wantEnd:   9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.hunk.Span()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Span() = [%d, %d), want [%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRender(t *testing.T) {
	got := Render("pkg/auth.go", "func a() {}\nfunc b() {}\n", "func a() {}\nfunc c() {}\n")

	if !strings.HasPrefix(got, "--- a/pkg/auth.go\n+++ b/pkg/auth.go\n") {
		t.Errorf("Render() missing header, got:\n%s", got)
	}
	if !strings.Contains(got, "-") || !strings.Contains(got, "+") {
		t.Errorf("Render() missing change markers, got:\n%s", got)
	}
}

func TestRender_Identical(t *testing.T) {
	got := Render("x.txt", "same\n", "same\n")
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "+same") || strings.HasPrefix(line, "-same") {
			t.Errorf("Render() marked unchanged text as changed:\n%s", got)
		}
	}
}
