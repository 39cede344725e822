package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/model"
	"taskboard/internal/view"
)

// selection tracks the focused column and card. TaskID keeps focus on the same task when the
// board is rebuilt after a move.
type selection struct {
	Col    int
	Row    int
	TaskID string
}

type board struct {
	workspace model.MaterializedWorkspace
	empty     bool
	cols      []model.MaterializedGroup
}

func newBoard(cur view.Current) board {
	return board{workspace: cur.Workspace, empty: cur.Empty, cols: cur.Workspace.OrderedGroups}
}

func (b board) locate(taskID string) (int, int, bool) {
	if taskID == "" {
		return 0, 0, false
	}
	for ci, g := range b.cols {
		for ri, t := range g.OrderedTasks {
			if t.ID == taskID {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}

func (b board) clamp(sel selection) selection {
	if len(b.cols) == 0 {
		return selection{Col: 0, Row: -1}
	}
	if ci, ri, ok := b.locate(sel.TaskID); ok {
		sel.Col, sel.Row = ci, ri
		return sel
	}
	sel.TaskID = ""
	sel.Col = min(max(sel.Col, 0), len(b.cols)-1)
	n := len(b.cols[sel.Col].OrderedTasks)
	if n == 0 {
		sel.Row = -1
		return sel
	}
	sel.Row = min(max(sel.Row, 0), n-1)
	sel.TaskID = b.cols[sel.Col].OrderedTasks[sel.Row].ID
	return sel
}

func (b board) column(sel selection) (model.MaterializedGroup, bool) {
	if sel.Col < 0 || sel.Col >= len(b.cols) {
		return model.MaterializedGroup{}, false
	}
	return b.cols[sel.Col], true
}

func (b board) selectedTask(sel selection) (model.Task, bool) {
	g, ok := b.column(sel)
	if !ok || sel.Row < 0 || sel.Row >= len(g.OrderedTasks) {
		return model.Task{}, false
	}
	return g.OrderedTasks[sel.Row], true
}

// renderBoard draws one column per group. busy reports containers with a move in flight.
func renderBoard(b board, sel selection, busy func(id string) bool, width, height int) string {
	if b.empty {
		msg := "No workspaces yet. Press n to create one."
		return normalizePane(styleMuted().Render(msg), width, height)
	}
	n := len(b.cols)
	if n == 0 {
		msg := "No groups in " + b.workspace.Name + ". Press g to add one."
		return normalizePane(styleMuted().Render(msg), width, height)
	}

	const gap = 2
	colW := max((width-gap*(n-1))/n, 12)
	innerW := colW - 2

	header := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg).Width(colW)
	headerSel := header.Foreground(colorSelectedFg).Background(colorSelectedBg)
	card := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	cardSel := card.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	rendered := make([]string, 0, n)
	for ci, g := range b.cols {
		head := fmt.Sprintf("%s (%d)", g.Name, len(g.OrderedTasks))
		if busy != nil && busy(g.ID) {
			head += " …"
		}
		hs := header
		if ci == sel.Col {
			hs = headerSel
		}
		lines := []string{hs.Render(truncateText(head, colW))}
		if len(g.OrderedTasks) == 0 {
			lines = append(lines, styleMuted().Render("(empty)"))
		}
		for ri, t := range g.OrderedTasks {
			st := card
			if ci == sel.Col && ri == sel.Row {
				st = cardSel
			}
			body := wrapWords(t.Name, innerW)
			if t.Description != "" {
				body[len(body)-1] += " ¶"
			}
			lines = append(lines, st.Render(normalizePane(strings.Join(body, "\n"), innerW, 0)))
		}
		rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
	}

	out := rendered[0]
	sep := strings.Repeat(" ", gap)
	for _, r := range rendered[1:] {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, r)
	}
	return normalizePane(out, width, height)
}

// renderDetail shows one task with its description and activity log.
func renderDetail(t model.Task, groupName string, width int) string {
	var b strings.Builder
	b.WriteString(styleTitle().Render(t.Name))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render("in " + groupName + " · " + t.ID))
	b.WriteString("\n\n")
	if desc := RenderMarkdown(t.Description, width); desc != "" {
		b.WriteString(desc)
	} else {
		b.WriteString(styleMuted().Render("(no description)"))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Activity"))
	b.WriteString("\n")
	if len(t.Activities) == 0 {
		b.WriteString(styleMuted().Render("(none)"))
	}
	for _, a := range t.Activities {
		line := a.CreatedAt.Local().Format("2006-01-02 15:04") + "  " + a.Content
		b.WriteString(truncateText(line, width))
		b.WriteString("\n")
	}
	return b.String()
}
