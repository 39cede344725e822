package state

import (
	"errors"
	"sync"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/view"
)

func TestStore_StartsInEmptyState(t *testing.T) {
	s := NewStore()
	if !s.Current().Empty {
		t.Fatalf("expected NoWorkspace view")
	}
}

func TestStore_ApplyDerivesView(t *testing.T) {
	s := NewStore()
	err := s.Apply(func(State) (State, error) {
		return State{Workspaces: []model.Workspace{{
			ID: "w1", Name: "Home", Selected: true,
			GroupOrder: []string{"g1"},
			Groups:     []model.Group{{ID: "g1", WorkspaceID: "w1", Name: "Todo"}},
		}}}, nil
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	cur := s.Current()
	if cur.Empty || cur.Workspace.ID != "w1" || len(cur.Workspace.OrderedGroups) != 1 {
		t.Fatalf("unexpected view: %+v", cur)
	}
}

func TestStore_RejectsInconsistentTransition(t *testing.T) {
	s := NewStore()
	good := State{Workspaces: []model.Workspace{{ID: "w1", Selected: true, GroupOrder: []string{}}}}
	if err := s.Apply(func(State) (State, error) { return good, nil }); err != nil {
		t.Fatalf("Apply good: %v", err)
	}
	_, _, v1 := s.Snapshot()

	bad := State{Workspaces: []model.Workspace{{ID: "w1", Selected: true, GroupOrder: []string{"ghost"}}}}
	if err := s.Apply(func(State) (State, error) { return bad, nil }); err == nil {
		t.Fatalf("expected derive error")
	}
	st, _, v2 := s.Snapshot()
	if v1 != v2 {
		t.Fatalf("version advanced on rejected transition")
	}
	if len(st.Workspaces[0].GroupOrder) != 0 {
		t.Fatalf("rejected state was committed")
	}

	boom := errors.New("boom")
	if err := s.Apply(func(State) (State, error) { return State{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected reducer error, got %v", err)
	}
}

func TestStore_NotifiesObservers(t *testing.T) {
	s := NewStore()
	var mu sync.Mutex
	var seen []view.Current
	var versions []uint64
	s.Subscribe(func(_ State, cur view.Current, v uint64) {
		mu.Lock()
		seen = append(seen, cur)
		versions = append(versions, v)
		mu.Unlock()
	})
	_ = s.Apply(func(State) (State, error) {
		return State{Workspaces: []model.Workspace{{ID: "w1", Selected: true}}}, nil
	})
	_ = s.Apply(func(st State) (State, error) { return st, nil })
	if len(seen) != 2 || seen[0].Workspace.ID != "w1" {
		t.Fatalf("observer not called with the committed view: %+v", seen)
	}
	_, _, cur := s.Snapshot()
	if versions[0] != 1 || versions[1] != 2 || cur != 2 {
		t.Fatalf("observer versions %v, store version %d", versions, cur)
	}
}

func TestState_Finders(t *testing.T) {
	st := State{Workspaces: []model.Workspace{{
		ID: "w1", Selected: true,
		Groups: []model.Group{{ID: "g1", Tasks: []model.Task{{ID: "t1"}}}},
	}}}
	if _, ok := st.FindGroup("g1"); !ok {
		t.Fatalf("FindGroup failed")
	}
	ref, ok := st.FindTask("t1")
	if !ok || ref.WorkspaceIndex != 0 || ref.GroupIndex != 0 || ref.TaskIndex != 0 {
		t.Fatalf("FindTask: %+v %v", ref, ok)
	}
	if _, _, ok := st.Selected(); !ok {
		t.Fatalf("Selected failed")
	}
	cl := st.Clone()
	cl.Workspaces[0].Groups[0].Tasks[0].Name = "x"
	if st.Workspaces[0].Groups[0].Tasks[0].Name != "" {
		t.Fatalf("Clone aliased tasks")
	}
}
