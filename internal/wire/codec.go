package wire

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"taskboard/internal/mutate"
)

type UnknownOpError struct {
	Kind string
}

func (e *UnknownOpError) Error() string {
	if e.Kind == "" {
		return "missing op"
	}
	return fmt.Sprintf("unknown op: %s", e.Kind)
}

// Encode renders op as a JSON object tagged with its kind.
func Encode(op Op) ([]byte, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(string(op.Kind()))
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString(`{"op":`)
	b.Write(tag)
	if len(body) > 2 {
		b.WriteByte(',')
		b.Write(body[1:])
	} else {
		b.WriteByte('}')
	}
	return b.Bytes(), nil
}

// Decode reads the "op" tag and unmarshals the remaining fields into the matching type.
func Decode(b []byte) (Op, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("invalid json")
	}
	kind := Kind(gjson.GetBytes(b, "op").String())
	var (
		op  Op
		err error
	)
	switch kind {
	case KindWorkspaceCreate:
		op, err = decodeAs[WorkspaceCreate](b)
	case KindWorkspaceRename:
		op, err = decodeAs[WorkspaceRename](b)
	case KindWorkspaceSelect:
		op, err = decodeAs[WorkspaceSelect](b)
	case KindWorkspaceDelete:
		op, err = decodeAs[WorkspaceDelete](b)
	case KindGroupCreate:
		op, err = decodeAs[GroupCreate](b)
	case KindGroupRename:
		op, err = decodeAs[GroupRename](b)
	case KindGroupMove:
		op, err = decodeAs[GroupMove](b)
	case KindGroupDelete:
		op, err = decodeAs[GroupDelete](b)
	case KindTaskCreate:
		op, err = decodeAs[TaskCreate](b)
	case KindTaskUpdate:
		op, err = decodeAs[TaskUpdate](b)
	case KindTaskMove:
		op, err = decodeAs[TaskMove](b)
	case KindTaskDelete:
		op, err = decodeAs[TaskDelete](b)
	default:
		return nil, &UnknownOpError{Kind: string(kind)}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return op, nil
}

func decodeAs[T Op](b []byte) (Op, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Normalize trims names and rejects empty ones. It is applied by both the client coordinator and
// the server so an empty name never reaches persistence.
func Normalize(op Op) (Op, error) {
	var err error
	switch o := op.(type) {
	case WorkspaceCreate:
		o.Name, err = mutate.ValidateName("workspace", o.Name)
		return o, err
	case WorkspaceRename:
		o.Name, err = mutate.ValidateName("workspace", o.Name)
		return o, err
	case GroupCreate:
		o.Name, err = mutate.ValidateName("group", o.Name)
		return o, err
	case GroupRename:
		o.Name, err = mutate.ValidateName("group", o.Name)
		return o, err
	case TaskCreate:
		o.Name, err = mutate.ValidateName("task", o.Name)
		return o, err
	case TaskUpdate:
		o.Name, err = mutate.ValidateName("task", o.Name)
		return o, err
	}
	return op, nil
}

// Resource is the URL segment for the entity an op addresses.
func Resource(k Kind) string {
	entity, _, _ := strings.Cut(string(k), ".")
	return entity + "s"
}

// Route returns the HTTP method and path used to send op to the server.
func Route(op Op) (method, path string) {
	kind := op.Kind()
	res := Resource(kind)
	switch kind {
	case KindWorkspaceCreate, KindGroupCreate, KindTaskCreate:
		return http.MethodPost, "/api/" + res
	case KindWorkspaceDelete, KindGroupDelete, KindTaskDelete:
		return http.MethodDelete, "/api/" + res + "/" + op.Target()
	default:
		return http.MethodPatch, "/api/" + res + "/" + op.Target()
	}
}

// ActivitiesPath is where a task's activity log is fetched from.
func ActivitiesPath(taskID string) string {
	return "/api/tasks/" + taskID + "/activities"
}
