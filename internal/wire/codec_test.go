package wire

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"taskboard/internal/mutate"
)

func TestEncode_TagsOperation(t *testing.T) {
	b, err := Encode(TaskMove{ID: "t1", GroupID: "g2", Index: 0})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := gjson.GetBytes(b, "op").String(); got != "task.move" {
		t.Fatalf("op tag = %q in %s", got, b)
	}
	if gjson.GetBytes(b, "index").Type != gjson.Number {
		t.Fatalf("zero index must still be sent: %s", b)
	}

	op, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mv, ok := op.(TaskMove); !ok || mv.ID != "t1" || mv.GroupID != "g2" {
		t.Fatalf("decoded %#v", op)
	}
}

func TestDecode_Errors(t *testing.T) {
	var unknown *UnknownOpError
	if _, err := Decode([]byte(`{"name":"x"}`)); !errors.As(err, &unknown) || unknown.Kind != "" {
		t.Fatalf("expected missing op error, got %v", err)
	}
	if _, err := Decode([]byte(`{"op":"task.rename","name":"x"}`)); !errors.As(err, &unknown) {
		t.Fatalf("expected unknown op error, got %v", err)
	}
	if _, err := Decode([]byte(`{"op":`)); err == nil {
		t.Fatalf("expected invalid json error")
	}
	if _, err := Decode([]byte(`{"op":"group.move","index":"first"}`)); err == nil || !strings.Contains(err.Error(), "group.move") {
		t.Fatalf("expected typed decode error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	op, err := Normalize(GroupRename{ID: "g1", Name: "  Doing "})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if op.(GroupRename).Name != "Doing" {
		t.Fatalf("name not trimmed: %#v", op)
	}
	if _, err := Normalize(TaskUpdate{ID: "t1", Name: " ", Description: "d"}); !errors.Is(err, mutate.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := Normalize(TaskDelete{ID: "t1"}); err != nil {
		t.Fatalf("delete needs no name: %v", err)
	}
}

func TestRoute(t *testing.T) {
	cases := []struct {
		op     Op
		method string
		path   string
	}{
		{WorkspaceCreate{Name: "w"}, http.MethodPost, "/api/workspaces"},
		{WorkspaceSelect{ID: "w1"}, http.MethodPatch, "/api/workspaces/w1"},
		{GroupCreate{WorkspaceID: "w1", Name: "g"}, http.MethodPost, "/api/groups"},
		{GroupMove{ID: "g1", Index: 2}, http.MethodPatch, "/api/groups/g1"},
		{TaskDelete{ID: "t1"}, http.MethodDelete, "/api/tasks/t1"},
		{TaskUpdate{ID: "t1", Name: "n"}, http.MethodPatch, "/api/tasks/t1"},
	}
	for _, tc := range cases {
		m, p := Route(tc.op)
		if m != tc.method || p != tc.path {
			t.Fatalf("%s: got %s %s, want %s %s", tc.op.Kind(), m, p, tc.method, tc.path)
		}
	}
}
