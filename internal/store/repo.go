package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/order"
)

var repoSchema = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		selected    INTEGER NOT NULL DEFAULT 0,
		group_order TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS workspaces_user ON workspaces(user_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS task_groups (
		id           TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		task_order   TEXT NOT NULL DEFAULT '[]',
		created_at   TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS task_groups_workspace ON task_groups(workspace_id);`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		group_id    TEXT NOT NULL REFERENCES task_groups(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS tasks_group ON tasks(group_id);`,
	`CREATE TABLE IF NOT EXISTS activities (
		id         TEXT PRIMARY KEY,
		task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS activities_task ON activities(task_id, created_at);`,
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Repo is the server-side system of record. Every method is scoped to one user; rows owned by
// someone else are reported as not found.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func OpenRepo(ctx context.Context, dir string) (*Repo, error) {
	db, err := Store{Dir: dir}.openSQLite(ctx, repoSchema)
	if err != nil {
		return nil, err
	}
	return &Repo{db: db, now: time.Now}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Workspaces returns every workspace of the user with groups, tasks and activities.
func (r *Repo) Workspaces(ctx context.Context, userID string) ([]model.Workspace, error) {
	var out []model.Workspace
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, name, selected, group_order, created_at FROM workspaces
			 WHERE user_id = ? ORDER BY created_at, id`, userID)
		if err != nil {
			return err
		}
		wsIdx := map[string]int{}
		for rows.Next() {
			ws, err := scanWorkspace(rows)
			if err != nil {
				rows.Close()
				return err
			}
			ws.UserID = userID
			wsIdx[ws.ID] = len(out)
			out = append(out, ws)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		groups, err := queryGroups(ctx, tx,
			`SELECT g.id, g.workspace_id, g.name, g.task_order, g.created_at FROM task_groups g
			 JOIN workspaces w ON w.id = g.workspace_id WHERE w.user_id = ? ORDER BY g.created_at, g.id`, userID)
		if err != nil {
			return err
		}
		tasks, err := queryTasks(ctx, tx,
			`SELECT t.id, t.group_id, t.name, t.description, t.created_at FROM tasks t
			 JOIN task_groups g ON g.id = t.group_id JOIN workspaces w ON w.id = g.workspace_id
			 WHERE w.user_id = ? ORDER BY t.created_at, t.id`, userID)
		if err != nil {
			return err
		}
		acts, err := queryActivities(ctx, tx,
			`SELECT a.id, a.task_id, a.content, a.created_at FROM activities a
			 JOIN tasks t ON t.id = a.task_id JOIN task_groups g ON g.id = t.group_id
			 JOIN workspaces w ON w.id = g.workspace_id
			 WHERE w.user_id = ? ORDER BY a.created_at, a.id`, userID)
		if err != nil {
			return err
		}

		actsByTask := map[string][]model.Activity{}
		for _, a := range acts {
			actsByTask[a.TaskID] = append(actsByTask[a.TaskID], a)
		}
		tasksByGroup := map[string][]model.Task{}
		for _, t := range tasks {
			t.Activities = actsByTask[t.ID]
			if t.Activities == nil {
				t.Activities = []model.Activity{}
			}
			tasksByGroup[t.GroupID] = append(tasksByGroup[t.GroupID], t)
		}
		for _, g := range groups {
			g.Tasks = tasksByGroup[g.ID]
			if g.Tasks == nil {
				g.Tasks = []model.Task{}
			}
			i, ok := wsIdx[g.WorkspaceID]
			if !ok {
				continue
			}
			out[i].Groups = append(out[i].Groups, g)
		}
		for i := range out {
			if out[i].Groups == nil {
				out[i].Groups = []model.Group{}
			}
		}
		return nil
	})
	if out == nil {
		out = []model.Workspace{}
	}
	return out, err
}

// CreateWorkspace inserts a workspace and makes it the user's selected one.
func (r *Repo) CreateWorkspace(ctx context.Context, userID, name string) (model.Workspace, error) {
	ws := model.Workspace{
		ID:         newID(),
		Name:       name,
		UserID:     userID,
		Selected:   true,
		GroupOrder: []string{},
		Groups:     []model.Group{},
		CreatedAt:  r.now().UTC(),
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE workspaces SET selected = 0 WHERE user_id = ?`, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workspaces(id, user_id, name, selected, group_order, created_at) VALUES(?, ?, ?, 1, '[]', ?)`,
			ws.ID, userID, name, formatTime(ws.CreatedAt))
		return err
	})
	return ws, err
}

func (r *Repo) RenameWorkspace(ctx context.Context, userID, id, name string) (model.Workspace, error) {
	var ws model.Workspace
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if ws, err = ownedWorkspace(ctx, tx, userID, id); err != nil {
			return err
		}
		ws.Name = name
		_, err = tx.ExecContext(ctx, `UPDATE workspaces SET name = ? WHERE id = ?`, name, id)
		return err
	})
	return ws, err
}

func (r *Repo) SelectWorkspace(ctx context.Context, userID, id string) (model.Workspace, error) {
	var ws model.Workspace
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if ws, err = ownedWorkspace(ctx, tx, userID, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE workspaces SET selected = (id = ?) WHERE user_id = ?`, id, userID); err != nil {
			return err
		}
		ws.Selected = true
		return nil
	})
	return ws, err
}

// DeleteWorkspace removes the workspace with everything in it. If it was selected, the oldest
// remaining workspace becomes selected.
func (r *Repo) DeleteWorkspace(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		ws, err := ownedWorkspace(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id); err != nil {
			return err
		}
		if !ws.Selected {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE workspaces SET selected = 1 WHERE id = (
				SELECT id FROM workspaces WHERE user_id = ? ORDER BY created_at, id LIMIT 1)`, userID)
		return err
	})
}

func (r *Repo) CreateGroup(ctx context.Context, userID, workspaceID, name string) (model.Group, error) {
	g := model.Group{
		ID:          newID(),
		WorkspaceID: workspaceID,
		Name:        name,
		TaskOrder:   []string{},
		Tasks:       []model.Task{},
		CreatedAt:   r.now().UTC(),
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		ws, err := ownedWorkspace(ctx, tx, userID, workspaceID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_groups(id, workspace_id, name, task_order, created_at) VALUES(?, ?, ?, '[]', ?)`,
			g.ID, workspaceID, name, formatTime(g.CreatedAt)); err != nil {
			return err
		}
		return setGroupOrder(ctx, tx, workspaceID, order.Splice(ws.GroupOrder, g.ID, g.ID, len(ws.GroupOrder)))
	})
	return g, err
}

func (r *Repo) RenameGroup(ctx context.Context, userID, id, name string) (model.Group, error) {
	var g model.Group
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if g, err = ownedGroup(ctx, tx, userID, id); err != nil {
			return err
		}
		g.Name = name
		_, err = tx.ExecContext(ctx, `UPDATE task_groups SET name = ? WHERE id = ?`, name, id)
		return err
	})
	return g, err
}

// MoveGroup places the group at index (clamped) in its workspace's group order.
func (r *Repo) MoveGroup(ctx context.Context, userID, id string, index int) (model.Group, error) {
	var g model.Group
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if g, err = ownedGroup(ctx, tx, userID, id); err != nil {
			return err
		}
		ws, err := ownedWorkspace(ctx, tx, userID, g.WorkspaceID)
		if err != nil {
			return err
		}
		return setGroupOrder(ctx, tx, ws.ID, order.Splice(ws.GroupOrder, id, id, index))
	})
	return g, err
}

func (r *Repo) DeleteGroup(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		g, err := ownedGroup(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		ws, err := ownedWorkspace(ctx, tx, userID, g.WorkspaceID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_groups WHERE id = ?`, id); err != nil {
			return err
		}
		return setGroupOrder(ctx, tx, ws.ID, order.Splice(ws.GroupOrder, id, "", 0))
	})
}

// CreateTask appends a task to its group and records the creation activity.
func (r *Repo) CreateTask(ctx context.Context, userID, groupID, name, description string) (model.Task, error) {
	now := r.now().UTC()
	t := model.Task{
		ID:          newID(),
		GroupID:     groupID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		g, err := ownedGroup(ctx, tx, userID, groupID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks(id, group_id, name, description, created_at) VALUES(?, ?, ?, ?, ?)`,
			t.ID, groupID, name, description, formatTime(now)); err != nil {
			return err
		}
		if err := setTaskOrder(ctx, tx, groupID, order.Splice(g.TaskOrder, t.ID, t.ID, len(g.TaskOrder))); err != nil {
			return err
		}
		a, err := insertActivity(ctx, tx, t.ID, mutate.ActivityTaskCreated, now)
		if err != nil {
			return err
		}
		t.Activities = []model.Activity{a}
		return nil
	})
	return t, err
}

// UpdateTask stores name and description. The returned activity is nil when nothing changed.
func (r *Repo) UpdateTask(ctx context.Context, userID, id, name, description string) (model.Task, *model.Activity, error) {
	var (
		t   model.Task
		act *model.Activity
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if t, err = ownedTask(ctx, tx, userID, id); err != nil {
			return err
		}
		note := mutate.ContentActivity(t.Name, t.Description, name, description)
		if note == "" {
			return nil
		}
		t.Name, t.Description = name, description
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET name = ?, description = ? WHERE id = ?`, name, description, id); err != nil {
			return err
		}
		a, err := insertActivity(ctx, tx, id, note, r.now().UTC())
		if err != nil {
			return err
		}
		act = &a
		return nil
	})
	return t, act, err
}

// MoveTask puts the task into groupID at index (clamped). The id is first removed from both the
// source and destination order lists, so repeating a move never duplicates it. A move to another
// group records an activity.
func (r *Repo) MoveTask(ctx context.Context, userID, id, groupID string, index int) (model.Task, *model.Activity, error) {
	var (
		t   model.Task
		act *model.Activity
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if t, err = ownedTask(ctx, tx, userID, id); err != nil {
			return err
		}
		src, err := ownedGroup(ctx, tx, userID, t.GroupID)
		if err != nil {
			return err
		}
		dst, err := ownedGroup(ctx, tx, userID, groupID)
		if err != nil {
			return err
		}
		if src.WorkspaceID != dst.WorkspaceID {
			return &NotFoundError{Kind: "group", ID: groupID}
		}
		if src.ID != dst.ID {
			if err := setTaskOrder(ctx, tx, src.ID, order.Splice(src.TaskOrder, id, "", 0)); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE tasks SET group_id = ? WHERE id = ?`, dst.ID, id); err != nil {
				return err
			}
			a, err := insertActivity(ctx, tx, id, mutate.MoveActivity(dst.Name), r.now().UTC())
			if err != nil {
				return err
			}
			act = &a
			t.GroupID = dst.ID
		}
		return setTaskOrder(ctx, tx, dst.ID, order.Splice(dst.TaskOrder, id, id, index))
	})
	return t, act, err
}

func (r *Repo) DeleteTask(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		t, err := ownedTask(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		g, err := ownedGroup(ctx, tx, userID, t.GroupID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return err
		}
		return setTaskOrder(ctx, tx, g.ID, order.Splice(g.TaskOrder, id, "", 0))
	})
}

// Activities returns the task's log in creation order.
func (r *Repo) Activities(ctx context.Context, userID, taskID string) ([]model.Activity, error) {
	var out []model.Activity
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := ownedTask(ctx, tx, userID, taskID); err != nil {
			return err
		}
		var err error
		out, err = queryActivities(ctx, tx,
			`SELECT id, task_id, content, created_at FROM activities WHERE task_id = ? ORDER BY created_at, id`, taskID)
		return err
	})
	if out == nil {
		out = []model.Activity{}
	}
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(s scanner) (model.Workspace, error) {
	var (
		ws        model.Workspace
		selected  int
		orderJSON string
		created   string
	)
	if err := s.Scan(&ws.ID, &ws.Name, &selected, &orderJSON, &created); err != nil {
		return ws, err
	}
	ws.Selected = selected != 0
	ws.CreatedAt = parseTime(created)
	if err := json.Unmarshal([]byte(orderJSON), &ws.GroupOrder); err != nil {
		return ws, fmt.Errorf("workspace %s group order: %w", ws.ID, err)
	}
	if ws.GroupOrder == nil {
		ws.GroupOrder = []string{}
	}
	return ws, nil
}

func scanGroup(s scanner) (model.Group, error) {
	var (
		g         model.Group
		orderJSON string
		created   string
	)
	if err := s.Scan(&g.ID, &g.WorkspaceID, &g.Name, &orderJSON, &created); err != nil {
		return g, err
	}
	g.CreatedAt = parseTime(created)
	if err := json.Unmarshal([]byte(orderJSON), &g.TaskOrder); err != nil {
		return g, fmt.Errorf("group %s task order: %w", g.ID, err)
	}
	if g.TaskOrder == nil {
		g.TaskOrder = []string{}
	}
	return g, nil
}

func scanTask(s scanner) (model.Task, error) {
	var (
		t       model.Task
		created string
	)
	if err := s.Scan(&t.ID, &t.GroupID, &t.Name, &t.Description, &created); err != nil {
		return t, err
	}
	t.CreatedAt = parseTime(created)
	return t, nil
}

func queryGroups(ctx context.Context, tx *sql.Tx, q string, args ...any) ([]model.Group, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func queryTasks(ctx context.Context, tx *sql.Tx, q string, args ...any) ([]model.Task, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func queryActivities(ctx context.Context, tx *sql.Tx, q string, args ...any) ([]model.Activity, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Activity
	for rows.Next() {
		var (
			a       model.Activity
			created string
		)
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Content, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func ownedWorkspace(ctx context.Context, tx *sql.Tx, userID, id string) (model.Workspace, error) {
	ws, err := scanWorkspace(tx.QueryRowContext(ctx,
		`SELECT id, name, selected, group_order, created_at FROM workspaces WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return ws, &NotFoundError{Kind: "workspace", ID: id}
	}
	ws.UserID = userID
	return ws, err
}

func ownedGroup(ctx context.Context, tx *sql.Tx, userID, id string) (model.Group, error) {
	g, err := scanGroup(tx.QueryRowContext(ctx,
		`SELECT g.id, g.workspace_id, g.name, g.task_order, g.created_at FROM task_groups g
		 JOIN workspaces w ON w.id = g.workspace_id WHERE g.id = ? AND w.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return g, &NotFoundError{Kind: "group", ID: id}
	}
	return g, err
}

func ownedTask(ctx context.Context, tx *sql.Tx, userID, id string) (model.Task, error) {
	t, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT t.id, t.group_id, t.name, t.description, t.created_at FROM tasks t
		 JOIN task_groups g ON g.id = t.group_id JOIN workspaces w ON w.id = g.workspace_id
		 WHERE t.id = ? AND w.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return t, &NotFoundError{Kind: "task", ID: id}
	}
	return t, err
}

func setGroupOrder(ctx context.Context, tx *sql.Tx, workspaceID string, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE workspaces SET group_order = ? WHERE id = ?`, string(b), workspaceID)
	return err
}

func setTaskOrder(ctx context.Context, tx *sql.Tx, groupID string, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE task_groups SET task_order = ? WHERE id = ?`, string(b), groupID)
	return err
}

func insertActivity(ctx context.Context, tx *sql.Tx, taskID, content string, at time.Time) (model.Activity, error) {
	a := model.Activity{ID: newID(), TaskID: taskID, Content: content, CreatedAt: at}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activities(id, task_id, content, created_at) VALUES(?, ?, ?, ?)`,
		a.ID, taskID, content, formatTime(at))
	return a, err
}
