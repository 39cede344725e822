package store

import (
	"context"
	"testing"
)

func TestKV_GetSetPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := OpenKV(ctx, dir)
	if err != nil {
		t.Fatalf("OpenKV: %v", err)
	}
	if _, ok, err := kv.Get("guest.state"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := kv.Set("guest.state", `{"workspaces":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("guest.state", `{"workspaces":null}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	_ = kv.Close()

	kv, err = OpenKV(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	v, ok, err := kv.Get("guest.state")
	if err != nil || !ok || v != `{"workspaces":null}` {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}
}
