package mutate

import (
	"sort"

	"taskboard/internal/model"
	"taskboard/internal/state"
)

const ActivityTaskCreated = "Task created"

// MoveActivity is the note recorded when a task lands in a different group.
func MoveActivity(groupName string) string {
	return "Task moved to group " + groupName
}

// ContentActivity returns the single note describing a name/description edit, or "" when
// nothing changed. Changing both fields yields one combined note.
func ContentActivity(oldName, oldDesc, newName, newDesc string) string {
	nameChanged := oldName != newName
	descChanged := oldDesc != newDesc
	switch {
	case nameChanged && descChanged:
		return "Task name and description updated: " + newName
	case nameChanged:
		return "Task name updated: " + newName
	case descChanged:
		return "Task description updated: " + newDesc
	default:
		return ""
	}
}

// AppendActivities adds activity records to a task, skipping ids already present and keeping the
// log ordered by creation time.
func AppendActivities(st state.State, taskID string, acts ...model.Activity) (state.State, Result, error) {
	ref, ok := st.FindTask(taskID)
	if !ok {
		return st, Result{}, notFound("task", taskID)
	}

	have := make(map[string]bool, len(ref.Task.Activities))
	for _, a := range ref.Task.Activities {
		have[a.ID] = true
	}
	add := make([]model.Activity, 0, len(acts))
	for _, a := range acts {
		if a.ID == "" || have[a.ID] {
			continue
		}
		have[a.ID] = true
		a.TaskID = taskID
		add = append(add, a)
	}
	if len(add) == 0 {
		return st, Result{TaskID: taskID}, nil
	}

	ws := st.Workspaces[ref.WorkspaceIndex].Clone()
	t := &ws.Groups[ref.GroupIndex].Tasks[ref.TaskIndex]
	t.Activities = append(t.Activities, add...)
	sort.SliceStable(t.Activities, func(i, j int) bool {
		return t.Activities[i].CreatedAt.Before(t.Activities[j].CreatedAt)
	})
	return st.WithWorkspace(ref.WorkspaceIndex, ws), Result{Changed: true, TaskID: taskID}, nil
}
