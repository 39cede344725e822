// Package tui is the interactive terminal board.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/coordinator"
	"taskboard/internal/state"
	"taskboard/internal/view"
)

func Run(ctx context.Context, c *coordinator.Coordinator) error {
	applyThemePreference()
	applyColorProfilePreference()

	p := tea.NewProgram(NewModel(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	c.Store().Subscribe(func(state.State, view.Current, uint64) {
		go p.Send(changedMsg{})
	})
	_, err := p.Run()
	return err
}
