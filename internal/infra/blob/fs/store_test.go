package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recordcore/internal/blob/core"
)

func TestFilesystemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
	info, err := store.Put(ctx, "schema/sqlite/bundle.json", strings.NewReader("payload"), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ETag == "" {
		t.Fatalf("unexpected info %#v", info)
	}
	got, rc, err := store.Get(ctx, "schema/sqlite/bundle.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "payload" || got.ContentType != "application/json" {
		t.Fatalf("unexpected read back body=%q info=%#v", body, got)
	}
	if _, err := store.Put(ctx, "schema/sqlite/bundle.json", strings.NewReader("again"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}
}

func TestFilesystemStoreRejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "../outside", "a/../../b", "x.meta"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFilesystemStoreListSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"a/one", "a/two", "b/three"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	reopened, err := New(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	infos, err := reopened.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "a/one" || infos[1].Key != "a/two" {
		t.Fatalf("unexpected listing %#v", infos)
	}
}

func TestFilesystemStoreDeleteRemovesSidecar(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := store.Put(ctx, "doomed", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "doomed")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := os.Stat(filepath.Join(root, "doomed.meta")); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar removed, stat err=%v", err)
	}
	if _, err := store.Head(ctx, "doomed"); err == nil {
		t.Fatalf("expected head after delete to fail")
	}
}
