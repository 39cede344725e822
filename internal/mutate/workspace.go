package mutate

import (
	"taskboard/internal/model"
	"taskboard/internal/state"
)

// ReplaceWorkspaces adopts a freshly fetched hierarchy. If the fetched set has no selected
// workspace the first one is selected; if it has several, only the first keeps the flag.
func ReplaceWorkspaces(st state.State, wss []model.Workspace) (state.State, Result, error) {
	next := state.State{Workspaces: make([]model.Workspace, 0, len(wss))}
	seen := false
	for _, ws := range wss {
		ws = ws.Clone()
		if ws.Selected && seen {
			ws.Selected = false
		}
		seen = seen || ws.Selected
		next.Workspaces = append(next.Workspaces, normalizeWorkspace(ws))
	}
	if !seen && len(next.Workspaces) > 0 {
		next.Workspaces[0].Selected = true
	}
	return next, Result{Changed: true}, nil
}

// CreateWorkspace adds ws and makes it the selected workspace.
func CreateWorkspace(st state.State, ws model.Workspace) (state.State, Result, error) {
	name, err := ValidateName("workspace", ws.Name)
	if err != nil {
		return st, Result{}, err
	}
	if ws.ID == "" {
		return st, Result{}, &ValidationError{Kind: "workspace", Field: "id", Err: ErrEmptyID}
	}
	if _, _, ok := st.FindWorkspace(ws.ID); ok {
		return st, Result{}, &ValidationError{Kind: "workspace", Field: "id", Err: ErrDuplicateID}
	}

	ws = normalizeWorkspace(ws.Clone())
	ws.Name = name
	ws.Selected = true

	next := state.State{Workspaces: make([]model.Workspace, 0, len(st.Workspaces)+1)}
	for _, w := range st.Workspaces {
		w.Selected = false
		next.Workspaces = append(next.Workspaces, w)
	}
	next.Workspaces = append(next.Workspaces, ws)
	return next, Result{Changed: true}, nil
}

func RenameWorkspace(st state.State, id, name string) (state.State, Result, error) {
	name, err := ValidateName("workspace", name)
	if err != nil {
		return st, Result{}, err
	}
	ws, i, ok := st.FindWorkspace(id)
	if !ok {
		return st, Result{}, notFound("workspace", id)
	}
	if ws.Name == name {
		return st, Result{}, nil
	}
	ws = ws.Clone()
	ws.Name = name
	return st.WithWorkspace(i, ws), Result{Changed: true}, nil
}

// SelectWorkspace marks id selected and clears the flag everywhere else.
func SelectWorkspace(st state.State, id string) (state.State, Result, error) {
	ws, _, ok := st.FindWorkspace(id)
	if !ok {
		return st, Result{}, notFound("workspace", id)
	}
	if ws.Selected {
		return st, Result{}, nil
	}
	next := state.State{Workspaces: make([]model.Workspace, len(st.Workspaces))}
	for i, w := range st.Workspaces {
		w.Selected = w.ID == id
		next.Workspaces[i] = w
	}
	return next, Result{Changed: true}, nil
}

// DeleteWorkspace removes a workspace with its groups and tasks. When the selected workspace is
// removed the first remaining one becomes selected.
func DeleteWorkspace(st state.State, id string) (state.State, Result, error) {
	ws, _, ok := st.FindWorkspace(id)
	if !ok {
		return st, Result{}, notFound("workspace", id)
	}
	next := state.State{Workspaces: make([]model.Workspace, 0, len(st.Workspaces))}
	for _, w := range st.Workspaces {
		if w.ID != id {
			next.Workspaces = append(next.Workspaces, w)
		}
	}
	if ws.Selected && len(next.Workspaces) > 0 {
		next.Workspaces[0].Selected = true
	}
	return next, Result{Changed: true}, nil
}

func normalizeWorkspace(ws model.Workspace) model.Workspace {
	if ws.GroupOrder == nil {
		ws.GroupOrder = []string{}
	}
	if ws.Groups == nil {
		ws.Groups = []model.Group{}
	}
	for i := range ws.Groups {
		ws.Groups[i] = normalizeGroup(ws.Groups[i])
	}
	return ws
}

func normalizeGroup(g model.Group) model.Group {
	if g.TaskOrder == nil {
		g.TaskOrder = []string{}
	}
	if g.Tasks == nil {
		g.Tasks = []model.Task{}
	}
	for i := range g.Tasks {
		if g.Tasks[i].Activities == nil {
			g.Tasks[i].Activities = []model.Activity{}
		}
	}
	return g
}
