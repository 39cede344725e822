// Package view derives the read-only "current workspace" projection the renderers consume.
//
// Nothing in here is stored: every state change re-runs DeriveCurrent over the normalized
// hierarchy, so the ordered sequences can never drift from the sets and order lists they are
// built from.
package view

import (
	"fmt"

	"taskboard/internal/model"
	"taskboard/internal/order"
)

// Current is the derived view of the selected workspace.
// Empty is true when the owner has no workspaces at all; Workspace is then the zero value with
// non-nil empty slices, so renderers never need nil checks.
type Current struct {
	Empty     bool                        `json:"empty"`
	Workspace model.MaterializedWorkspace `json:"workspace"`
}

// NoWorkspace is the explicit empty state.
func NoWorkspace() Current {
	return Current{
		Empty: true,
		Workspace: model.MaterializedWorkspace{
			Workspace: model.Workspace{
				GroupOrder: []string{},
				Groups:     []model.Group{},
			},
			OrderedGroups: []model.MaterializedGroup{},
		},
	}
}

// DeriveCurrent finds the selected workspace and materializes it.
func DeriveCurrent(workspaces []model.Workspace) (Current, error) {
	if len(workspaces) == 0 {
		return NoWorkspace(), nil
	}
	selected := -1
	for i := range workspaces {
		if !workspaces[i].Selected {
			continue
		}
		if selected >= 0 {
			return Current{}, fmt.Errorf("more than one selected workspace: %s and %s", workspaces[selected].ID, workspaces[i].ID)
		}
		selected = i
	}
	if selected < 0 {
		return Current{}, fmt.Errorf("no selected workspace among %d", len(workspaces))
	}
	mw, err := DeriveWorkspace(workspaces[selected])
	if err != nil {
		return Current{}, err
	}
	return Current{Workspace: mw}, nil
}

// DeriveWorkspace materializes groups by groupOrder and, within each group, tasks by taskOrder.
// The result is a deep copy.
func DeriveWorkspace(ws model.Workspace) (model.MaterializedWorkspace, error) {
	ws = ws.Clone()
	if ws.GroupOrder == nil {
		ws.GroupOrder = []string{}
	}
	if ws.Groups == nil {
		ws.Groups = []model.Group{}
	}

	groups, err := order.Materialize(ws.GroupOrder, ws.Groups)
	if err != nil {
		return model.MaterializedWorkspace{}, fmt.Errorf("workspace %s: %w", ws.ID, err)
	}

	out := model.MaterializedWorkspace{
		Workspace:     ws,
		OrderedGroups: make([]model.MaterializedGroup, 0, len(groups)),
	}
	for _, g := range groups {
		if g.TaskOrder == nil {
			g.TaskOrder = []string{}
		}
		if g.Tasks == nil {
			g.Tasks = []model.Task{}
		}
		tasks, err := order.Materialize(g.TaskOrder, g.Tasks)
		if err != nil {
			return model.MaterializedWorkspace{}, fmt.Errorf("group %s: %w", g.ID, err)
		}
		for i := range tasks {
			tasks[i] = tasks[i].Clone()
		}
		out.OrderedGroups = append(out.OrderedGroups, model.MaterializedGroup{
			Group:        g.Clone(),
			OrderedTasks: tasks,
		})
	}
	return out, nil
}

// GroupIndex returns the display position of a group in the view.
func (c Current) GroupIndex(groupID string) int {
	for i := range c.Workspace.OrderedGroups {
		if c.Workspace.OrderedGroups[i].ID == groupID {
			return i
		}
	}
	return -1
}

// LocateTask returns the group id and display index of a task.
func (c Current) LocateTask(taskID string) (groupID string, index int, ok bool) {
	for _, g := range c.Workspace.OrderedGroups {
		for i, t := range g.OrderedTasks {
			if t.ID == taskID {
				return g.ID, i, true
			}
		}
	}
	return "", -1, false
}

// Task returns a task by id from the view.
func (c Current) Task(taskID string) (model.Task, bool) {
	for _, g := range c.Workspace.OrderedGroups {
		for _, t := range g.OrderedTasks {
			if t.ID == taskID {
				return t, true
			}
		}
	}
	return model.Task{}, false
}
