package mutate

import (
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/state"
	"taskboard/internal/view"
)

func task(id, groupID, name string) model.Task {
	return model.Task{ID: id, GroupID: groupID, Name: name, Activities: []model.Activity{}}
}

// board builds one selected workspace w1 with G1=[T1,T2,T3] and G2=[T4].
func board() state.State {
	return state.State{Workspaces: []model.Workspace{{
		ID:         "w1",
		Name:       "Home",
		Selected:   true,
		GroupOrder: []string{"G1", "G2"},
		Groups: []model.Group{
			{
				ID: "G2", WorkspaceID: "w1", Name: "Doing",
				TaskOrder: []string{"T4"},
				Tasks:     []model.Task{task("T4", "G2", "Four")},
			},
			{
				ID: "G1", WorkspaceID: "w1", Name: "Todo",
				TaskOrder: []string{"T1", "T2", "T3"},
				Tasks: []model.Task{
					task("T3", "G1", "Three"),
					task("T1", "G1", "One"),
					task("T2", "G1", "Two"),
				},
			},
		},
	}}}
}

func taskOrder(t *testing.T, st state.State, groupID string) []string {
	t.Helper()
	ref, ok := st.FindGroup(groupID)
	if !ok {
		t.Fatalf("group %s missing", groupID)
	}
	return ref.Group.TaskOrder
}

// assertConsistent checks every order list is a permutation of its set.
func assertConsistent(t *testing.T, st state.State) {
	t.Helper()
	for _, ws := range st.Workspaces {
		if _, err := view.DeriveWorkspace(ws); err != nil {
			t.Fatalf("workspace %s inconsistent: %v", ws.ID, err)
		}
		for _, g := range ws.Groups {
			for _, tk := range g.Tasks {
				if tk.GroupID != g.ID {
					t.Fatalf("task %s in group %s has groupId %s", tk.ID, g.ID, tk.GroupID)
				}
			}
		}
	}
	if _, err := view.DeriveCurrent(st.Workspaces); err != nil {
		t.Fatalf("expected exactly one selected workspace: %v", err)
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
