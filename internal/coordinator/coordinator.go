// Package coordinator runs user gestures against the shared board state: it applies the local
// change right away, persists it through the session's Backend and undoes it if the backend
// refuses.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/state"
	"taskboard/internal/view"
	"taskboard/internal/wire"
)

type Coordinator struct {
	store   *state.Store
	backend Backend
	log     *slog.Logger

	mu   sync.Mutex
	busy map[string]bool
}

// New binds a store to a backend. If the backend is a Mirror it is handed every committed state.
func New(store *state.Store, backend Backend, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = discard()
	}
	c := &Coordinator{
		store:   store,
		backend: backend,
		log:     logger.With("mode", backend.Mode()),
		busy:    map[string]bool{},
	}
	if m, ok := backend.(Mirror); ok {
		store.Subscribe(func(st state.State, _ view.Current, version uint64) {
			if err := m.Persist(st, version); err != nil {
				c.log.Error("persist guest state", "err", err)
			}
		})
	}
	return c
}

func (c *Coordinator) Store() *state.Store  { return c.store }
func (c *Coordinator) Mode() string         { return c.backend.Mode() }
func (c *Coordinator) Current() view.Current { return c.store.Current() }

// Load replaces local state with everything the backend has.
func (c *Coordinator) Load(ctx context.Context) error {
	wss, err := c.backend.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("load workspaces: %w", err)
	}
	return c.store.Apply(func(st state.State) (state.State, error) {
		next, _, err := mutate.ReplaceWorkspaces(st, wss)
		return next, err
	})
}

func (c *Coordinator) CreateWorkspace(ctx context.Context, name string) (model.Workspace, error) {
	op, err := wire.Normalize(wire.WorkspaceCreate{Name: name})
	if err != nil {
		return model.Workspace{}, err
	}
	res, err := c.run(ctx, Optimistic{
		Op: op,
		Merge: func(r wire.Result) state.Transition {
			return adopt(r.Workspace, mutate.CreateWorkspace)
		},
	})
	if err != nil || res.Workspace == nil {
		return model.Workspace{}, err
	}
	return *res.Workspace, nil
}

func (c *Coordinator) RenameWorkspace(ctx context.Context, id, name string) error {
	op, err := wire.Normalize(wire.WorkspaceRename{ID: id, Name: name})
	if err != nil {
		return err
	}
	var old string
	_, err = c.run(ctx, Optimistic{
		Op:   op,
		Busy: []string{id},
		Forward: func(st state.State) (state.State, error) {
			ws, _, ok := st.FindWorkspace(id)
			if ok {
				old = ws.Name
			}
			return changed(mutate.RenameWorkspace(st, id, op.(wire.WorkspaceRename).Name))
		},
		Inverse: func(st state.State) (state.State, error) {
			return result(mutate.RenameWorkspace(st, id, old))
		},
	})
	return err
}

func (c *Coordinator) SelectWorkspace(ctx context.Context, id string) error {
	busy := []string{id}
	if ws, _, ok := c.store.State().Selected(); ok {
		busy = append(busy, ws.ID)
	}
	var prev string
	_, err := c.run(ctx, Optimistic{
		Op:   wire.WorkspaceSelect{ID: id},
		Busy: busy,
		Forward: func(st state.State) (state.State, error) {
			if ws, _, ok := st.Selected(); ok {
				prev = ws.ID
			}
			return changed(mutate.SelectWorkspace(st, id))
		},
		Inverse: func(st state.State) (state.State, error) {
			if prev == "" {
				return st, nil
			}
			return result(mutate.SelectWorkspace(st, prev))
		},
	})
	return err
}

func (c *Coordinator) DeleteWorkspace(ctx context.Context, id string) error {
	ws, _, ok := c.store.State().FindWorkspace(id)
	if !ok {
		return &mutate.NotFoundError{Kind: "workspace", ID: id}
	}
	busy := []string{id}
	for _, g := range ws.Groups {
		busy = append(busy, groupSubtree(g)...)
	}
	_, err := c.run(ctx, Optimistic{
		Op:   wire.WorkspaceDelete{ID: id},
		Busy: busy,
		Merge: func(wire.Result) state.Transition {
			return func(st state.State) (state.State, error) {
				return result(mutate.DeleteWorkspace(st, id))
			}
		},
	})
	return err
}

func (c *Coordinator) CreateGroup(ctx context.Context, workspaceID, name string) (model.Group, error) {
	op, err := wire.Normalize(wire.GroupCreate{WorkspaceID: workspaceID, Name: name})
	if err != nil {
		return model.Group{}, err
	}
	if _, _, ok := c.store.State().FindWorkspace(workspaceID); !ok {
		return model.Group{}, &mutate.NotFoundError{Kind: "workspace", ID: workspaceID}
	}
	res, err := c.run(ctx, Optimistic{
		Op:   op,
		Busy: []string{workspaceID},
		Merge: func(r wire.Result) state.Transition {
			return adopt(r.Group, mutate.CreateGroup)
		},
	})
	if err != nil || res.Group == nil {
		return model.Group{}, err
	}
	return *res.Group, nil
}

func (c *Coordinator) RenameGroup(ctx context.Context, id, name string) error {
	op, err := wire.Normalize(wire.GroupRename{ID: id, Name: name})
	if err != nil {
		return err
	}
	var old string
	_, err = c.run(ctx, Optimistic{
		Op:   op,
		Busy: []string{id},
		Forward: func(st state.State) (state.State, error) {
			if ref, ok := st.FindGroup(id); ok {
				old = ref.Group.Name
			}
			return changed(mutate.RenameGroup(st, id, op.(wire.GroupRename).Name))
		},
		Inverse: func(st state.State) (state.State, error) {
			return result(mutate.RenameGroup(st, id, old))
		},
	})
	return err
}

// MoveGroup repositions a group within its workspace. Moving a group onto its own index does
// nothing and never reaches the backend.
func (c *Coordinator) MoveGroup(ctx context.Context, groupID string, destIndex int) error {
	st := c.store.State()
	ref, ok := st.FindGroup(groupID)
	if !ok {
		return &mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	wsID := st.Workspaces[ref.WorkspaceIndex].ID
	m := mutate.GroupMove{GroupID: groupID, DestIndex: destIndex}
	var fwd mutate.Result
	_, err := c.run(ctx, Optimistic{
		Op:   wire.GroupMove{ID: groupID, Index: destIndex},
		Busy: []string{wsID},
		Forward: func(st state.State) (state.State, error) {
			next, res, err := mutate.MoveGroup(st, m)
			fwd = res
			return changed(next, res, err)
		},
		Inverse: func(st state.State) (state.State, error) {
			return result(mutate.MoveGroup(st, mutate.GroupMove{GroupID: groupID, DestIndex: fwd.SourceIndex}))
		},
	})
	return err
}

func (c *Coordinator) DeleteGroup(ctx context.Context, id string) error {
	st := c.store.State()
	ref, ok := st.FindGroup(id)
	if !ok {
		return &mutate.NotFoundError{Kind: "group", ID: id}
	}
	wsID := st.Workspaces[ref.WorkspaceIndex].ID
	_, err := c.run(ctx, Optimistic{
		Op:   wire.GroupDelete{ID: id},
		Busy: append([]string{wsID}, groupSubtree(ref.Group)...),
		Merge: func(wire.Result) state.Transition {
			return func(st state.State) (state.State, error) {
				return result(mutate.DeleteGroup(st, id))
			}
		},
	})
	return err
}

func (c *Coordinator) CreateTask(ctx context.Context, groupID, name, description string) (model.Task, error) {
	op, err := wire.Normalize(wire.TaskCreate{GroupID: groupID, Name: name, Description: description})
	if err != nil {
		return model.Task{}, err
	}
	if _, ok := c.store.State().FindGroup(groupID); !ok {
		return model.Task{}, &mutate.NotFoundError{Kind: "group", ID: groupID}
	}
	res, err := c.run(ctx, Optimistic{
		Op:   op,
		Busy: []string{groupID},
		Merge: func(r wire.Result) state.Transition {
			return adopt(r.Task, mutate.CreateTask)
		},
	})
	if err != nil || res.Task == nil {
		return model.Task{}, err
	}
	return *res.Task, nil
}

// UpdateTask sets a task's name and description. Submitting the current values is a no-op.
func (c *Coordinator) UpdateTask(ctx context.Context, id, name, description string) error {
	op, err := wire.Normalize(wire.TaskUpdate{ID: id, Name: name, Description: description})
	if err != nil {
		return err
	}
	var old model.Task
	_, err = c.run(ctx, Optimistic{
		Op:   op,
		Busy: []string{id},
		Forward: func(st state.State) (state.State, error) {
			if ref, ok := st.FindTask(id); ok {
				old = ref.Task
			}
			upd := op.(wire.TaskUpdate)
			return changed(mutate.UpdateTaskContent(st, mutate.TaskContent{TaskID: id, Name: upd.Name, Description: upd.Description}))
		},
		Inverse: func(st state.State) (state.State, error) {
			return result(mutate.AdoptTask(st, old))
		},
		Merge: mergeTask(id),
	})
	return err
}

// MoveTask applies a drag of one task. A move onto its own position is a no-op with no backend
// call. On backend failure the task is moved back to where it was.
func (c *Coordinator) MoveTask(ctx context.Context, m mutate.TaskMove) error {
	if m.IsNoop() {
		return nil
	}
	var fwd mutate.Result
	_, err := c.run(ctx, Optimistic{
		Op:   wire.TaskMove{ID: m.TaskID, GroupID: m.DestGroupID, Index: m.DestIndex},
		Busy: moveBusy(m),
		Forward: func(st state.State) (state.State, error) {
			next, res, err := mutate.MoveTask(st, m)
			fwd = res
			return changed(next, res, err)
		},
		Inverse: func(st state.State) (state.State, error) {
			return result(mutate.MoveTask(st, m.Inverse(fwd)))
		},
		Merge: mergeTask(m.TaskID),
	})
	return err
}

func (c *Coordinator) DeleteTask(ctx context.Context, id string) error {
	st := c.store.State()
	ref, ok := st.FindTask(id)
	if !ok {
		return &mutate.NotFoundError{Kind: "task", ID: id}
	}
	groupID := st.Workspaces[ref.WorkspaceIndex].Groups[ref.GroupIndex].ID
	_, err := c.run(ctx, Optimistic{
		Op:   wire.TaskDelete{ID: id},
		Busy: []string{groupID, id},
		Merge: func(wire.Result) state.Transition {
			return func(st state.State) (state.State, error) {
				return result(mutate.DeleteTask(st, id))
			}
		},
	})
	return err
}

// moveBusy marks the groups a task move rewrites; a same-group reorder marks one group.
func moveBusy(m mutate.TaskMove) []string {
	if !m.CrossGroup() {
		return []string{m.SourceGroupID}
	}
	return []string{m.SourceGroupID, m.DestGroupID}
}

// groupSubtree lists a group and its tasks, everything deleting the group removes.
func groupSubtree(g model.Group) []string {
	ids := make([]string, 0, len(g.Tasks)+1)
	ids = append(ids, g.ID)
	for _, t := range g.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// mergeTask folds canonical task fields and any new activity records into local state. Order is
// already correct locally and is left alone.
func mergeTask(id string) func(wire.Result) state.Transition {
	return func(r wire.Result) state.Transition {
		return func(st state.State) (state.State, error) {
			if r.Task != nil {
				t := *r.Task
				t.ID = id
				next, _, err := mutate.AdoptTask(st, t)
				if err != nil {
					return st, err
				}
				st = next
			}
			acts := r.Activities
			if r.Activity != nil {
				acts = append([]model.Activity{*r.Activity}, acts...)
			}
			if len(acts) == 0 {
				return st, nil
			}
			return result(mutate.AppendActivities(st, id, acts...))
		}
	}
}

func adopt[T any](v *T, fn func(state.State, T) (state.State, mutate.Result, error)) state.Transition {
	return func(st state.State) (state.State, error) {
		if v == nil {
			return st, fmt.Errorf("backend returned no entity")
		}
		return result(fn(st, *v))
	}
}

func result(st state.State, _ mutate.Result, err error) (state.State, error) {
	return st, err
}

func changed(st state.State, res mutate.Result, err error) (state.State, error) {
	if err != nil {
		return st, err
	}
	if !res.Changed {
		return st, errUnchanged
	}
	return st, nil
}
