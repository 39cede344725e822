package state

import (
	"taskboard/internal/model"
)

// State is the normalized client-side hierarchy. Values are treated as immutable: reducers build
// a new State and never write through slices reachable from an older one.
type State struct {
	Workspaces []model.Workspace `json:"workspaces"`
}

// Clone returns a deep copy of st.
func (st State) Clone() State {
	out := State{}
	if st.Workspaces != nil {
		out.Workspaces = make([]model.Workspace, len(st.Workspaces))
		for i := range st.Workspaces {
			out.Workspaces[i] = st.Workspaces[i].Clone()
		}
	}
	return out
}

func (st State) FindWorkspace(id string) (model.Workspace, int, bool) {
	for i := range st.Workspaces {
		if st.Workspaces[i].ID == id {
			return st.Workspaces[i], i, true
		}
	}
	return model.Workspace{}, -1, false
}

func (st State) Selected() (model.Workspace, int, bool) {
	for i := range st.Workspaces {
		if st.Workspaces[i].Selected {
			return st.Workspaces[i], i, true
		}
	}
	return model.Workspace{}, -1, false
}

// GroupRef locates a group inside the hierarchy.
type GroupRef struct {
	WorkspaceIndex int
	GroupIndex     int
	Group          model.Group
}

func (st State) FindGroup(id string) (GroupRef, bool) {
	for wi := range st.Workspaces {
		for gi := range st.Workspaces[wi].Groups {
			if st.Workspaces[wi].Groups[gi].ID == id {
				return GroupRef{WorkspaceIndex: wi, GroupIndex: gi, Group: st.Workspaces[wi].Groups[gi]}, true
			}
		}
	}
	return GroupRef{}, false
}

// TaskRef locates a task inside the hierarchy.
type TaskRef struct {
	WorkspaceIndex int
	GroupIndex     int
	TaskIndex      int
	Task           model.Task
}

func (st State) FindTask(id string) (TaskRef, bool) {
	for wi := range st.Workspaces {
		for gi := range st.Workspaces[wi].Groups {
			g := st.Workspaces[wi].Groups[gi]
			for ti := range g.Tasks {
				if g.Tasks[ti].ID == id {
					return TaskRef{WorkspaceIndex: wi, GroupIndex: gi, TaskIndex: ti, Task: g.Tasks[ti]}, true
				}
			}
		}
	}
	return TaskRef{}, false
}

// WithWorkspace returns a copy of st whose workspace at index i is replaced by ws.
// Only the top-level slice is copied; ws is expected to be a fresh value.
func (st State) WithWorkspace(i int, ws model.Workspace) State {
	out := State{Workspaces: make([]model.Workspace, len(st.Workspaces))}
	copy(out.Workspaces, st.Workspaces)
	out.Workspaces[i] = ws
	return out
}
