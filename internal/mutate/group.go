package mutate

import (
	"taskboard/internal/model"
	"taskboard/internal/order"
	"taskboard/internal/state"
)

// CreateGroup appends g to the end of its workspace.
func CreateGroup(st state.State, g model.Group) (state.State, Result, error) {
	name, err := ValidateName("group", g.Name)
	if err != nil {
		return st, Result{}, err
	}
	if g.ID == "" {
		return st, Result{}, &ValidationError{Kind: "group", Field: "id", Err: ErrEmptyID}
	}
	if _, ok := st.FindGroup(g.ID); ok {
		return st, Result{}, &ValidationError{Kind: "group", Field: "id", Err: ErrDuplicateID}
	}
	ws, wi, ok := st.FindWorkspace(g.WorkspaceID)
	if !ok {
		return st, Result{}, notFound("workspace", g.WorkspaceID)
	}

	g = normalizeGroup(g.Clone())
	g.Name = name
	ws = ws.Clone()
	ws.Groups = append(ws.Groups, g)
	ws.GroupOrder = order.Splice(ws.GroupOrder, "", g.ID, len(ws.GroupOrder))
	return st.WithWorkspace(wi, ws), Result{Changed: true, DestIndex: len(ws.GroupOrder) - 1}, nil
}

func RenameGroup(st state.State, id, name string) (state.State, Result, error) {
	name, err := ValidateName("group", name)
	if err != nil {
		return st, Result{}, err
	}
	ref, ok := st.FindGroup(id)
	if !ok {
		return st, Result{}, notFound("group", id)
	}
	if ref.Group.Name == name {
		return st, Result{}, nil
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	ws.Groups[ref.GroupIndex].Name = name
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true}, nil
}

// GroupMove repositions a group inside its workspace's groupOrder.
type GroupMove struct {
	GroupID   string `json:"groupId"`
	DestIndex int    `json:"index"`
}

// MoveGroup is a no-op when the (clamped) destination equals the current position.
// Result.SourceIndex and Result.DestIndex hold the positions actually used.
func MoveGroup(st state.State, m GroupMove) (state.State, Result, error) {
	ref, ok := st.FindGroup(m.GroupID)
	if !ok {
		return st, Result{}, notFound("group", m.GroupID)
	}
	ws := st.Workspaces[ref.WorkspaceIndex]
	from := order.IndexOf(ws.GroupOrder, m.GroupID)
	if from < 0 {
		return st, Result{}, &order.OrderConsistencyError{Problem: order.ProblemMissingID, ID: m.GroupID}
	}
	to := order.Clamp(m.DestIndex, len(ws.GroupOrder)-1)
	res := Result{SourceIndex: from, DestIndex: to}
	if from == to {
		return st, res, nil
	}

	ws = ws.Clone()
	ws.GroupOrder = order.Splice(ws.GroupOrder, m.GroupID, m.GroupID, to)
	res.Changed = true
	return st.WithWorkspace(ref.WorkspaceIndex, ws), res, nil
}

// DeleteGroup removes the group and every task in it.
func DeleteGroup(st state.State, id string) (state.State, Result, error) {
	ref, ok := st.FindGroup(id)
	if !ok {
		return st, Result{}, notFound("group", id)
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	groups := make([]model.Group, 0, len(ws.Groups)-1)
	for _, g := range ws.Groups {
		if g.ID != id {
			groups = append(groups, g)
		}
	}
	ws.Groups = groups
	ws.GroupOrder = order.Splice(ws.GroupOrder, id, "", 0)
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true, SourceIndex: order.IndexOf(st.Workspaces[ref.WorkspaceIndex].GroupOrder, id)}, nil
}
