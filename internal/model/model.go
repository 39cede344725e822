package model

import "time"

type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UserID     string    `json:"userId,omitempty"`
	Selected   bool      `json:"selected"`
	GroupOrder []string  `json:"groupOrder"`
	Groups     []Group   `json:"groups"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Group struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	TaskOrder   []string  `json:"taskOrder"`
	Tasks       []Task    `json:"tasks"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Task struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"groupId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Activities  []Activity `json:"activities"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Activity is an immutable log entry attached to a task.
type Activity struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MaterializedGroup is a group plus its tasks in display order.
type MaterializedGroup struct {
	Group
	OrderedTasks []Task `json:"orderedTasks"`
}

// MaterializedWorkspace is the read-only "current workspace" projection.
// It is derived from a Workspace on every state change and never stored.
type MaterializedWorkspace struct {
	Workspace
	OrderedGroups []MaterializedGroup `json:"orderedGroups"`
}

func (w Workspace) EntityID() string { return w.ID }
func (g Group) EntityID() string     { return g.ID }
func (t Task) EntityID() string      { return t.ID }

// Clone returns a deep copy; the copy shares no slices with w.
func (w Workspace) Clone() Workspace {
	out := w
	out.GroupOrder = cloneIDs(w.GroupOrder)
	if w.Groups != nil {
		out.Groups = make([]Group, len(w.Groups))
		for i := range w.Groups {
			out.Groups[i] = w.Groups[i].Clone()
		}
	}
	return out
}

func (g Group) Clone() Group {
	out := g
	out.TaskOrder = cloneIDs(g.TaskOrder)
	if g.Tasks != nil {
		out.Tasks = make([]Task, len(g.Tasks))
		for i := range g.Tasks {
			out.Tasks[i] = g.Tasks[i].Clone()
		}
	}
	return out
}

func (t Task) Clone() Task {
	out := t
	if t.Activities != nil {
		out.Activities = append([]Activity(nil), t.Activities...)
	}
	return out
}

func (w *Workspace) FindGroup(id string) (*Group, int, bool) {
	for i := range w.Groups {
		if w.Groups[i].ID == id {
			return &w.Groups[i], i, true
		}
	}
	return nil, -1, false
}

func (g *Group) FindTask(id string) (*Task, int, bool) {
	for i := range g.Tasks {
		if g.Tasks[i].ID == id {
			return &g.Tasks[i], i, true
		}
	}
	return nil, -1, false
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string(nil), ids...)
}
