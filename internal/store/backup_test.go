package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBackupEntriesJSONLRoundTripAndRestore(t *testing.T) {
	ctx := context.Background()

	src, err := OpenKV(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open src: %v", err)
	}
	defer src.Close()
	if err := src.Set("guest.state", `{"workspaces":[]}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := src.Set("other", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}

	entries, err := src.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "guest.state" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	path := filepath.Join(t.TempDir(), "board.jsonl")
	if err := WriteEntriesJSONL(path, entries); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected backup file to exist: %v", err)
	}
	read, err := ReadEntriesJSONL(path)
	if err != nil {
		t.Fatalf("read jsonl: %v", err)
	}
	if len(read) != 2 || read[1].Value != "x" {
		t.Fatalf("jsonl roundtrip mismatch: %+v", read)
	}

	dst, err := OpenKV(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open dst: %v", err)
	}
	defer dst.Close()
	if err := dst.Set("stale", "y"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := dst.Replace(ctx, read); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, ok, _ := dst.Get("stale"); ok {
		t.Fatalf("replace kept a key missing from the backup")
	}
	v, ok, err := dst.Get("guest.state")
	if err != nil || !ok || v != `{"workspaces":[]}` {
		t.Fatalf("restored value mismatch: %q %v %v", v, ok, err)
	}
}

func TestReadEntriesJSONLRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadEntriesJSONL(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReplaceRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenKV(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()
	if err := kv.Set("keep", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Replace(ctx, []Entry{{Key: " "}}); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok, _ := kv.Get("keep"); !ok {
		t.Fatalf("failed restore should roll back")
	}
}
