package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskboard/internal/model"
	"taskboard/internal/view"
)

func testBoard() board {
	return newBoard(view.Current{Workspace: model.MaterializedWorkspace{
		Workspace: model.Workspace{ID: "w1", Name: "Home"},
		OrderedGroups: []model.MaterializedGroup{
			{Group: model.Group{ID: "g1", Name: "Todo"}, OrderedTasks: []model.Task{{ID: "t1", Name: "alpha"}, {ID: "t2", Name: "beta", Description: "x"}}},
			{Group: model.Group{ID: "g2", Name: "Done"}},
		},
	}})
}

func TestBoard_ClampPrefersTaskID(t *testing.T) {
	b := testBoard()
	sel := b.clamp(selection{Col: 1, Row: 0, TaskID: "t2"})
	if sel.Col != 0 || sel.Row != 1 {
		t.Fatalf("clamp by id = %+v", sel)
	}
	sel = b.clamp(selection{Col: 9, Row: 9})
	if sel.Col != 1 || sel.Row != -1 || sel.TaskID != "" {
		t.Fatalf("clamp to empty column = %+v", sel)
	}
	sel = b.clamp(selection{Col: 0, Row: 7})
	if sel.Row != 1 || sel.TaskID != "t2" {
		t.Fatalf("clamp row = %+v", sel)
	}
}

func TestRenderBoard(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	out := renderBoard(testBoard(), selection{}, func(id string) bool { return id == "g2" }, 40, 6)
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for _, want := range []string{"Todo (2)", "Done (0) …", "alpha", "beta ¶", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
}

func TestWrapWordsAndTruncate(t *testing.T) {
	got := wrapWords("a verylongword b", 4)
	want := []string{"a", "very", "long", "word", "b"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapWords = %q", got)
	}
	if s := truncateText("abcdef", 4); s != "abc…" {
		t.Fatalf("truncateText = %q", s)
	}
	if s := normalizePane("ab", 4, 2); s != "ab  \n    " {
		t.Fatalf("normalizePane = %q", s)
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	t.Setenv("TASKBOARD_TUI_MD_STYLE", "notty")
	out := RenderMarkdown("# Title\n\nsome *text*", 40)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "text") {
		t.Fatalf("unexpected markdown output: %q", out)
	}
	if RenderMarkdown("  ", 40) != "" {
		t.Fatalf("expected empty output for blank input")
	}
}
