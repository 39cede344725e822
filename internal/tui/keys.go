package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left, Right, Up, Down key.Binding

	TaskLeft, TaskRight, TaskUp, TaskDown key.Binding
	GroupLeft, GroupRight                 key.Binding

	NewTask, NewGroup, NewWorkspace key.Binding
	NextWorkspace                   key.Binding
	Rename, RenameGroup, Describe   key.Binding
	Delete, DeleteGroup             key.Binding
	Open, Refresh, Back, Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/←", "prev group")),
		Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/→", "next group")),
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),

		TaskLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move task left")),
		TaskRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move task right")),
		TaskUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move task up")),
		TaskDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move task down")),

		GroupLeft:  key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "move group left")),
		GroupRight: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move group right")),

		NewTask:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		NewGroup:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "add group")),
		NewWorkspace:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new workspace")),
		NextWorkspace: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "next workspace")),
		Rename:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename task")),
		RenameGroup:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename group")),
		Describe:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit description")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		DeleteGroup:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete group")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Refresh:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Left, k.Down, k.TaskRight, k.TaskDown, k.NewTask, k.Open, k.Quit}
}
