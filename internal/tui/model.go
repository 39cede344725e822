package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/coordinator"
	"taskboard/internal/model"
	"taskboard/internal/mutate"
)

type mode int

const (
	modeBoard mode = iota
	modeInput
	modeConfirm
	modeDetail
)

type inputPurpose int

const (
	inputNewTask inputPurpose = iota
	inputNewGroup
	inputNewWorkspace
	inputRenameTask
	inputRenameGroup
	inputDescription
)

var inputPrompts = map[inputPurpose]string{
	inputNewTask:      "New task: ",
	inputNewGroup:     "New group: ",
	inputNewWorkspace: "New workspace: ",
	inputRenameTask:   "Rename task: ",
	inputRenameGroup:  "Rename group: ",
	inputDescription:  "Description: ",
}

type (
	loadedMsg  struct{ err error }
	opDoneMsg  struct{ err error }
	changedMsg struct{}
)

// Model is the interactive board. Every mutation runs as a tea.Cmd so the backend round trip
// never blocks rendering; the optimistic state is visible as soon as the store changes.
type Model struct {
	ctx  context.Context
	c    *coordinator.Coordinator
	keys keyMap

	board board
	sel   selection

	mode    mode
	purpose inputPurpose
	target  string
	input   textinput.Model
	confirm string
	onYes   tea.Cmd

	status   string
	err      error
	inflight int
	// version is the store version the board was last built from.
	version uint64

	width, height int
}

func NewModel(ctx context.Context, c *coordinator.Coordinator) Model {
	in := textinput.New()
	in.CharLimit = 500
	m := Model{ctx: ctx, c: c, keys: defaultKeys(), input: in, width: 80, height: 24}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.c.Load(m.ctx)}
	}
}

func (m *Model) refresh() {
	_, cur, v := m.c.Store().Snapshot()
	if v != m.version || v == 0 {
		m.version = v
		m.board = newBoard(cur)
	}
	m.sel = m.board.clamp(m.sel)
}

// run executes fn in the background and reports completion with an opDoneMsg.
func (m *Model) run(status string, fn func(ctx context.Context) error) tea.Cmd {
	m.inflight++
	m.status = status
	m.err = nil
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case loadedMsg:
		m.err = msg.err
		m.refresh()
		return m, nil
	case changedMsg:
		m.refresh()
		return m, nil
	case opDoneMsg:
		m.inflight = max(m.inflight-1, 0)
		m.err = msg.err
		if msg.err == nil && m.inflight == 0 {
			m.status = ""
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeDetail:
			if key.Matches(msg, m.keys.Back, m.keys.Open, m.keys.Quit) {
				m.mode = modeBoard
			}
			return m, nil
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Left):
		m.sel = m.board.clamp(selection{Col: m.sel.Col - 1, Row: m.sel.Row})
	case key.Matches(msg, k.Right):
		m.sel = m.board.clamp(selection{Col: m.sel.Col + 1, Row: m.sel.Row})
	case key.Matches(msg, k.Up):
		m.sel = m.board.clamp(selection{Col: m.sel.Col, Row: m.sel.Row - 1})
	case key.Matches(msg, k.Down):
		m.sel = m.board.clamp(selection{Col: m.sel.Col, Row: m.sel.Row + 1})
	case key.Matches(msg, k.TaskLeft):
		cmd := m.moveTask(-1, 0)
		return m, cmd
	case key.Matches(msg, k.TaskRight):
		cmd := m.moveTask(1, 0)
		return m, cmd
	case key.Matches(msg, k.TaskUp):
		cmd := m.moveTask(0, -1)
		return m, cmd
	case key.Matches(msg, k.TaskDown):
		cmd := m.moveTask(0, 1)
		return m, cmd
	case key.Matches(msg, k.GroupLeft):
		cmd := m.moveGroup(-1)
		return m, cmd
	case key.Matches(msg, k.GroupRight):
		cmd := m.moveGroup(1)
		return m, cmd
	case key.Matches(msg, k.NewWorkspace):
		return m.prompt(inputNewWorkspace, "", "")
	case key.Matches(msg, k.NextWorkspace):
		cmd := m.nextWorkspace()
		return m, cmd
	case key.Matches(msg, k.Refresh):
		m.status = "refreshing"
		return m, m.Init()
	}

	if m.board.empty {
		return m, nil
	}
	g, hasGroup := m.board.column(m.sel)
	t, hasTask := m.board.selectedTask(m.sel)
	switch {
	case key.Matches(msg, k.NewGroup):
		return m.prompt(inputNewGroup, m.board.workspace.ID, "")
	case key.Matches(msg, k.NewTask) && hasGroup:
		return m.prompt(inputNewTask, g.ID, "")
	case key.Matches(msg, k.RenameGroup) && hasGroup:
		return m.prompt(inputRenameGroup, g.ID, g.Name)
	case key.Matches(msg, k.Rename) && hasTask:
		return m.prompt(inputRenameTask, t.ID, t.Name)
	case key.Matches(msg, k.Describe) && hasTask:
		return m.prompt(inputDescription, t.ID, t.Description)
	case key.Matches(msg, k.Open) && hasTask:
		m.mode = modeDetail
	case key.Matches(msg, k.Delete) && hasTask:
		id := t.ID
		return m.ask(fmt.Sprintf("Delete task %q?", t.Name), m.runCmd(func(ctx context.Context) error {
			return m.c.DeleteTask(ctx, id)
		}))
	case key.Matches(msg, k.DeleteGroup) && hasGroup:
		id := g.ID
		return m.ask(fmt.Sprintf("Delete group %q and its %d tasks?", g.Name, len(g.OrderedTasks)), m.runCmd(func(ctx context.Context) error {
			return m.c.DeleteGroup(ctx, id)
		}))
	}
	return m, nil
}

// runCmd wraps fn without counting it as in flight; updateConfirm does that once the user agrees.
func (m *Model) runCmd(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m Model) prompt(p inputPurpose, target, value string) (tea.Model, tea.Cmd) {
	m.mode = modeInput
	m.purpose = p
	m.target = target
	m.input.Prompt = inputPrompts[p]
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) ask(question string, onYes tea.Cmd) (tea.Model, tea.Cmd) {
	m.mode = modeConfirm
	m.confirm = question
	m.onYes = onYes
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBoard
	cmd := m.onYes
	m.onYes = nil
	if strings.EqualFold(msg.String(), "y") {
		m.inflight++
		m.status = "deleting"
		m.err = nil
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBoard
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeBoard
		m.input.Blur()
		cmd := m.submit(m.input.Value())
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit(value string) tea.Cmd {
	c, target := m.c, m.target
	switch m.purpose {
	case inputNewWorkspace:
		return m.run("creating workspace", func(ctx context.Context) error {
			_, err := c.CreateWorkspace(ctx, value)
			return err
		})
	case inputNewGroup:
		return m.run("creating group", func(ctx context.Context) error {
			_, err := c.CreateGroup(ctx, target, value)
			return err
		})
	case inputNewTask:
		return m.run("creating task", func(ctx context.Context) error {
			_, err := c.CreateTask(ctx, target, value, "")
			return err
		})
	case inputRenameGroup:
		return m.run("renaming group", func(ctx context.Context) error {
			return c.RenameGroup(ctx, target, value)
		})
	case inputRenameTask, inputDescription:
		t, ok := m.c.Current().Task(target)
		if !ok {
			m.err = &mutate.NotFoundError{Kind: "task", ID: target}
			return nil
		}
		name, desc := value, t.Description
		if m.purpose == inputDescription {
			name, desc = t.Name, value
		}
		return m.run("saving task", func(ctx context.Context) error {
			return c.UpdateTask(ctx, target, name, desc)
		})
	}
	return nil
}

// moveTask shifts the selected task by dCol groups or dRow positions, the way a drag would.
func (m *Model) moveTask(dCol, dRow int) tea.Cmd {
	t, ok := m.board.selectedTask(m.sel)
	if !ok {
		return nil
	}
	src := m.board.cols[m.sel.Col]
	destCol := m.sel.Col + dCol
	if destCol < 0 || destCol >= len(m.board.cols) {
		return nil
	}
	dest := m.board.cols[destCol]
	if m.c.Busy(src.ID) || m.c.Busy(dest.ID) {
		m.status = "still saving " + busyName(src, dest, m.c.Busy)
		return nil
	}
	destIdx := m.sel.Row + dRow
	if dCol != 0 {
		destIdx = min(m.sel.Row, len(dest.OrderedTasks))
	} else if destIdx < 0 || destIdx >= len(src.OrderedTasks) {
		return nil
	}
	ev := coordinator.DragEvent{
		Kind:        coordinator.DragTask,
		DraggableID: t.ID,
		Source:      coordinator.Location{ContainerID: src.ID, Index: m.sel.Row},
		Destination: &coordinator.Location{ContainerID: dest.ID, Index: destIdx},
	}
	m.sel = selection{Col: destCol, Row: destIdx, TaskID: t.ID}
	c := m.c
	return m.run("moving task", func(ctx context.Context) error {
		return c.DragEnd(ctx, ev)
	})
}

func (m *Model) moveGroup(d int) tea.Cmd {
	g, ok := m.board.column(m.sel)
	if !ok {
		return nil
	}
	dest := m.sel.Col + d
	if dest < 0 || dest >= len(m.board.cols) {
		return nil
	}
	if m.c.Busy(m.board.workspace.ID) {
		m.status = "still saving " + m.board.workspace.Name
		return nil
	}
	ev := coordinator.DragEvent{
		Kind:        coordinator.DragGroup,
		DraggableID: g.ID,
		Source:      coordinator.Location{ContainerID: m.board.workspace.ID, Index: m.sel.Col},
		Destination: &coordinator.Location{ContainerID: m.board.workspace.ID, Index: dest},
	}
	m.sel = selection{Col: dest, Row: m.sel.Row, TaskID: m.sel.TaskID}
	c := m.c
	return m.run("moving group", func(ctx context.Context) error {
		return c.DragEnd(ctx, ev)
	})
}

func busyName(src, dest model.MaterializedGroup, busy func(string) bool) string {
	if busy(src.ID) {
		return src.Name
	}
	return dest.Name
}

func (m *Model) nextWorkspace() tea.Cmd {
	wss := m.c.Store().State().Workspaces
	if len(wss) < 2 {
		return nil
	}
	next := wss[0].ID
	for i, ws := range wss {
		if ws.Selected {
			next = wss[(i+1)%len(wss)].ID
			break
		}
	}
	m.sel = selection{}
	c := m.c
	return m.run("switching workspace", func(ctx context.Context) error {
		return c.SelectWorkspace(ctx, next)
	})
}

func (m Model) View() string {
	header := styleTitle().Render("taskboard")
	if !m.board.empty {
		header += "  " + lipgloss.NewStyle().Bold(true).Render(m.board.workspace.Name)
	}
	header += "  " + styleMuted().Render("["+m.c.Mode()+"]")

	bodyH := max(m.height-3, 1)
	var body string
	if m.mode == modeDetail {
		if t, ok := m.board.selectedTask(m.sel); ok {
			body = normalizePane(renderDetail(t, m.board.cols[m.sel.Col].Name, m.width), m.width, bodyH)
		}
	} else {
		body = renderBoard(m.board, m.sel, m.c.Busy, m.width, bodyH)
	}
	return strings.Join([]string{header, body, m.footer()}, "\n")
}

func (m Model) footer() string {
	switch m.mode {
	case modeInput:
		return m.input.View()
	case modeConfirm:
		return m.confirm + " (y/N)"
	}
	if m.err != nil {
		return styleError().Render(errorText(m.err))
	}
	if m.status != "" && m.inflight > 0 {
		return styleMuted().Render(m.status + "…")
	}
	parts := make([]string, 0, 8)
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleMuted().Render(truncateText(strings.Join(parts, " · "), m.width))
}

func errorText(err error) string {
	var (
		rb *coordinator.RollbackError
		re *coordinator.RemoteError
		nf *mutate.NotFoundError
		si *mutate.StaleIndexError
	)
	switch {
	case errors.As(err, &rb):
		if rb.Reloaded {
			return rb.Error()
		}
		return rb.Error() + " (ctrl+r)"
	case errors.As(err, &nf), errors.As(err, &si):
		return err.Error() + " (ctrl+r)"
	case errors.As(err, &re):
		return re.Error()
	}
	return err.Error()
}
