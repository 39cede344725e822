// Package wire defines the operations exchanged between the board client and its persistence
// backends. Every operation is an explicit type; on the wire it is a JSON object whose "op"
// field names the type.
package wire

import (
	"taskboard/internal/model"
)

type Kind string

const (
	KindWorkspaceCreate Kind = "workspace.create"
	KindWorkspaceRename Kind = "workspace.rename"
	KindWorkspaceSelect Kind = "workspace.select"
	KindWorkspaceDelete Kind = "workspace.delete"
	KindGroupCreate     Kind = "group.create"
	KindGroupRename     Kind = "group.rename"
	KindGroupMove       Kind = "group.move"
	KindGroupDelete     Kind = "group.delete"
	KindTaskCreate      Kind = "task.create"
	KindTaskUpdate      Kind = "task.update"
	KindTaskMove        Kind = "task.move"
	KindTaskDelete      Kind = "task.delete"
)

// Op is one entity-scoped operation.
type Op interface {
	Kind() Kind
	// Target is the id of the entity the operation addresses. For creates it is the parent id.
	Target() string
}

type WorkspaceCreate struct {
	Name string `json:"name"`
}

type WorkspaceRename struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WorkspaceSelect struct {
	ID string `json:"id"`
}

type WorkspaceDelete struct {
	ID string `json:"id"`
}

type GroupCreate struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
}

type GroupRename struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GroupMove struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type GroupDelete struct {
	ID string `json:"id"`
}

type TaskCreate struct {
	GroupID     string `json:"groupId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type TaskUpdate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskMove places a task in GroupID at Index. GroupID may equal the current group.
type TaskMove struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	Index   int    `json:"index"`
}

type TaskDelete struct {
	ID string `json:"id"`
}

func (WorkspaceCreate) Kind() Kind { return KindWorkspaceCreate }
func (WorkspaceRename) Kind() Kind { return KindWorkspaceRename }
func (WorkspaceSelect) Kind() Kind { return KindWorkspaceSelect }
func (WorkspaceDelete) Kind() Kind { return KindWorkspaceDelete }
func (GroupCreate) Kind() Kind     { return KindGroupCreate }
func (GroupRename) Kind() Kind     { return KindGroupRename }
func (GroupMove) Kind() Kind       { return KindGroupMove }
func (GroupDelete) Kind() Kind     { return KindGroupDelete }
func (TaskCreate) Kind() Kind      { return KindTaskCreate }
func (TaskUpdate) Kind() Kind      { return KindTaskUpdate }
func (TaskMove) Kind() Kind        { return KindTaskMove }
func (TaskDelete) Kind() Kind      { return KindTaskDelete }

func (WorkspaceCreate) Target() string   { return "" }
func (o WorkspaceRename) Target() string { return o.ID }
func (o WorkspaceSelect) Target() string { return o.ID }
func (o WorkspaceDelete) Target() string { return o.ID }
func (o GroupCreate) Target() string     { return o.WorkspaceID }
func (o GroupRename) Target() string     { return o.ID }
func (o GroupMove) Target() string       { return o.ID }
func (o GroupDelete) Target() string     { return o.ID }
func (o TaskCreate) Target() string      { return o.GroupID }
func (o TaskUpdate) Target() string      { return o.ID }
func (o TaskMove) Target() string        { return o.ID }
func (o TaskDelete) Target() string      { return o.ID }

// Result is what a backend returns for an operation. Only the fields relevant to the operation
// are set.
type Result struct {
	Workspaces []model.Workspace `json:"workspaces,omitempty"`
	Workspace  *model.Workspace  `json:"workspace,omitempty"`
	Group      *model.Group      `json:"group,omitempty"`
	Task       *model.Task       `json:"task,omitempty"`
	Activity   *model.Activity   `json:"activity,omitempty"`
	Activities []model.Activity  `json:"activities,omitempty"`
}

// ErrorBody is the JSON error envelope returned by the server.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
