package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"recordcore/internal/blob/core"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
	info, err := store.Put(ctx, "bundles/a.json", strings.NewReader(`{"ok":true}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"source": "test"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 11 || info.ContentType != "application/json" || info.ETag == "" {
		t.Fatalf("unexpected info %#v", info)
	}
	got, rc, err := store.Get(ctx, "bundles/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", data)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag mismatch %q vs %q", got.ETag, info.ETag)
	}
	if _, err := store.Head(ctx, "bundles/a.json"); err != nil {
		t.Fatalf("head: %v", err)
	}
}

func TestMemoryStorePutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put to fail")
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"schema/b", "schema/a", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "schema/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "schema/a" || infos[1].Key != "schema/b" {
		t.Fatalf("unexpected listing %#v", infos)
	}
	existed, err := store.Delete(ctx, "schema/a")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "schema/a")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}
}

func TestMemoryStorePresignUnsupported(t *testing.T) {
	if _, err := New().PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
