package mutate

import (
	"taskboard/internal/model"
	"taskboard/internal/order"
	"taskboard/internal/state"
)

// CreateTask appends t to the end of its group. Any activities already on t (the creation
// record) are kept.
func CreateTask(st state.State, t model.Task) (state.State, Result, error) {
	name, err := ValidateName("task", t.Name)
	if err != nil {
		return st, Result{}, err
	}
	if t.ID == "" {
		return st, Result{}, &ValidationError{Kind: "task", Field: "id", Err: ErrEmptyID}
	}
	if _, ok := st.FindTask(t.ID); ok {
		return st, Result{}, &ValidationError{Kind: "task", Field: "id", Err: ErrDuplicateID}
	}
	ref, ok := st.FindGroup(t.GroupID)
	if !ok {
		return st, Result{}, notFound("group", t.GroupID)
	}

	t = t.Clone()
	t.Name = name
	if t.Activities == nil {
		t.Activities = []model.Activity{}
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	g := &ws.Groups[ref.GroupIndex]
	g.Tasks = append(g.Tasks, t)
	g.TaskOrder = order.Splice(g.TaskOrder, "", t.ID, len(g.TaskOrder))
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{
		Changed:   true,
		Note:      ActivityTaskCreated,
		TaskID:    t.ID,
		DestIndex: len(g.TaskOrder) - 1,
	}, nil
}

// TaskContent is a combined name/description edit.
type TaskContent struct {
	TaskID      string `json:"taskId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTaskContent sets name and description. Submitting the current values changes nothing and
// yields no note.
func UpdateTaskContent(st state.State, c TaskContent) (state.State, Result, error) {
	name, err := ValidateName("task", c.Name)
	if err != nil {
		return st, Result{}, err
	}
	ref, ok := st.FindTask(c.TaskID)
	if !ok {
		return st, Result{}, notFound("task", c.TaskID)
	}
	note := ContentActivity(ref.Task.Name, ref.Task.Description, name, c.Description)
	if note == "" {
		return st, Result{TaskID: c.TaskID}, nil
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	t := &ws.Groups[ref.GroupIndex].Tasks[ref.TaskIndex]
	t.Name = name
	t.Description = c.Description
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true, Note: note, TaskID: c.TaskID}, nil
}

// AdoptTask merges canonical name and description returned by the server. Position and
// activities are left alone.
func AdoptTask(st state.State, t model.Task) (state.State, Result, error) {
	ref, ok := st.FindTask(t.ID)
	if !ok {
		return st, Result{}, notFound("task", t.ID)
	}
	if ref.Task.Name == t.Name && ref.Task.Description == t.Description {
		return st, Result{TaskID: t.ID}, nil
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	cur := &ws.Groups[ref.GroupIndex].Tasks[ref.TaskIndex]
	cur.Name = t.Name
	cur.Description = t.Description
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true, TaskID: t.ID}, nil
}

// TaskMove relocates a task within or across groups of one workspace.
type TaskMove struct {
	SourceGroupID string `json:"sourceGroupId"`
	DestGroupID   string `json:"groupId"`
	TaskID        string `json:"taskId"`
	SourceIndex   int    `json:"sourceIndex"`
	DestIndex     int    `json:"index"`
}

func (m TaskMove) IsNoop() bool {
	return m.SourceGroupID == m.DestGroupID && m.SourceIndex == m.DestIndex
}

func (m TaskMove) CrossGroup() bool { return m.SourceGroupID != m.DestGroupID }

// Inverse returns the move that undoes m, given the Result m produced.
func (m TaskMove) Inverse(res Result) TaskMove {
	return TaskMove{
		SourceGroupID: m.DestGroupID,
		DestGroupID:   m.SourceGroupID,
		TaskID:        m.TaskID,
		SourceIndex:   res.DestIndex,
		DestIndex:     res.SourceIndex,
	}
}

// MoveTask removes the task from the source group and inserts it into the destination group at
// DestIndex (clamped). The task must currently sit at SourceIndex. Across groups the same task
// value, with its activity history, is carried over and the result carries the move note.
func MoveTask(st state.State, m TaskMove) (state.State, Result, error) {
	if m.IsNoop() {
		return st, Result{TaskID: m.TaskID, SourceIndex: m.SourceIndex, DestIndex: m.DestIndex}, nil
	}
	src, ok := st.FindGroup(m.SourceGroupID)
	if !ok {
		return st, Result{}, notFound("group", m.SourceGroupID)
	}
	dst, ok := st.FindGroup(m.DestGroupID)
	if !ok || dst.WorkspaceIndex != src.WorkspaceIndex {
		return st, Result{}, notFound("group", m.DestGroupID)
	}
	from := order.IndexOf(src.Group.TaskOrder, m.TaskID)
	if from < 0 {
		return st, Result{}, notFound("task", m.TaskID)
	}
	if from != m.SourceIndex {
		return st, Result{}, &StaleIndexError{ContainerID: m.SourceGroupID, ID: m.TaskID, Want: m.SourceIndex, Got: from}
	}
	task, ti, ok := findTaskIn(src.Group, m.TaskID)
	if !ok {
		return st, Result{}, &order.OrderConsistencyError{Problem: order.ProblemUnknownID, ID: m.TaskID}
	}

	ws := st.Workspaces[src.WorkspaceIndex].Clone()
	sg := &ws.Groups[src.GroupIndex]

	if !m.CrossGroup() {
		to := order.Clamp(m.DestIndex, len(sg.TaskOrder)-1)
		res := Result{TaskID: m.TaskID, SourceIndex: from, DestIndex: to}
		if to == from {
			return st, res, nil
		}
		sg.TaskOrder = order.Splice(sg.TaskOrder, m.TaskID, m.TaskID, to)
		res.Changed = true
		return st.WithWorkspace(src.WorkspaceIndex, ws), res, nil
	}

	sg.Tasks = append(sg.Tasks[:ti:ti], sg.Tasks[ti+1:]...)
	sg.TaskOrder = order.Splice(sg.TaskOrder, m.TaskID, "", 0)

	dg := &ws.Groups[dst.GroupIndex]
	to := order.Clamp(m.DestIndex, len(dg.TaskOrder))
	task = task.Clone()
	task.GroupID = dg.ID
	dg.Tasks = append(dg.Tasks, task)
	dg.TaskOrder = order.Splice(dg.TaskOrder, "", m.TaskID, to)

	return st.WithWorkspace(src.WorkspaceIndex, ws), Result{
		Changed:     true,
		Note:        MoveActivity(dg.Name),
		TaskID:      m.TaskID,
		SourceIndex: from,
		DestIndex:   to,
	}, nil
}

func DeleteTask(st state.State, id string) (state.State, Result, error) {
	ref, ok := st.FindTask(id)
	if !ok {
		return st, Result{}, notFound("task", id)
	}
	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	g := &ws.Groups[ref.GroupIndex]
	from := order.IndexOf(g.TaskOrder, id)
	g.Tasks = append(g.Tasks[:ref.TaskIndex:ref.TaskIndex], g.Tasks[ref.TaskIndex+1:]...)
	g.TaskOrder = order.Splice(g.TaskOrder, id, "", 0)
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true, TaskID: id, SourceIndex: from}, nil
}

func findTaskIn(g model.Group, id string) (model.Task, int, bool) {
	for i := range g.Tasks {
		if g.Tasks[i].ID == id {
			return g.Tasks[i], i, true
		}
	}
	return model.Task{}, -1, false
}
