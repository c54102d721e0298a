package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"recordcore/internal/blob"
	"recordcore/internal/core"
	"recordcore/internal/infra/persistence/sqlite"
	"recordcore/pkg/record"
	"recordcore/pkg/schema"
	"recordcore/plugins/blog"
)

// openBlogService builds a sqlite-backed service with the blog plugin
// installed, returning the store so tests can close and reopen it.
func openBlogService(t *testing.T, path string) (*core.Service, *sqlite.Store) {
	t.Helper()
	registry := schema.NewRegistry()
	engine := core.NewDefaultEngine(registry)
	store, err := sqlite.NewStore(path, engine, registry)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	svc := core.NewService(store, registry, core.WithRulesEngine(engine))
	if _, err := svc.InstallPlugin(blog.New()); err != nil {
		t.Fatalf("install blog plugin: %v", err)
	}
	return svc, store
}

func TestBlogLifecycleOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blog.db")
	svc, store := openBlogService(t, path)

	ada := &blog.User{DisplayName: "Ada", Email: "ada@example.com", Password: "pw", PasswordConfirmation: "pw"}
	if _, err := svc.Create(ctx, ada); err != nil {
		t.Fatalf("create user: %v", err)
	}
	post := &blog.Post{Title: "Engines", Slug: "engines", Body: "On the analytical engine", Published: true, UserID: ada.ID}
	if _, err := svc.Create(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	tag := &blog.Tag{Label: "history"}
	if _, err := svc.Create(ctx, tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if _, err := svc.Associate(ctx, post, "Tags", tag); err != nil {
		t.Fatalf("tag post: %v", err)
	}

	post.Body = "On the analytical engine, revised"
	if _, err := svc.Update(ctx, post); err != nil {
		t.Fatalf("update post: %v", err)
	}
	if post.Version != 2 {
		t.Fatalf("expected version 2, got %d", post.Version)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// A fresh store reads the same state back from disk.
	svc, store = openBlogService(t, path)
	defer store.Close()

	got, err := core.Find[blog.Post](ctx, svc, post.ID)
	if err != nil {
		t.Fatalf("find post after reopen: %v", err)
	}
	if got.Version != 2 || got.Body != "On the analytical engine, revised" {
		t.Fatalf("unexpected post after reopen %#v", got)
	}
	if err := svc.LoadAssociations(ctx, &got); err != nil {
		t.Fatalf("load associations: %v", err)
	}
	if got.Author == nil || got.Author.Email != "ada@example.com" {
		t.Fatalf("unexpected author %#v", got.Author)
	}
	if len(got.Tags) != 1 || got.Tags[0].Label != "history" {
		t.Fatalf("unexpected tags %#v", got.Tags)
	}

	stale := got
	stale.Version = 1
	if _, err := svc.Update(ctx, &stale); !errors.Is(err, record.ErrStaleVersion) {
		t.Fatalf("expected stale version conflict, got %v", err)
	}
}

func TestRulesHoldAcrossBackends(t *testing.T) {
	ctx := context.Background()
	svc, store := openBlogService(t, filepath.Join(t.TempDir(), "rules.db"))
	defer store.Close()

	if _, err := svc.Create(ctx, &blog.User{DisplayName: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	var rve record.RuleViolationError
	_, err := svc.Create(ctx, &blog.User{DisplayName: "Dup", Email: "ada@example.com"})
	if !errors.As(err, &rve) {
		t.Fatalf("expected uniqueness violation on sqlite, got %v", err)
	}
	_, err = svc.Create(ctx, &blog.Post{Title: "", Slug: "empty", Published: true})
	if !errors.As(err, &rve) {
		t.Fatalf("expected publish rule violation on sqlite, got %v", err)
	}
}

func TestSchemaArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store := openBlogService(t, filepath.Join(t.TempDir(), "archive.db"))
	defer store.Close()

	blobStore, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	info, err := svc.ArchiveSchema(ctx, blobStore, schema.DialectSQLite)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	infos, err := blobStore.List(ctx, "schema/sqlite/")
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != info.Key {
		t.Fatalf("unexpected archive listing %#v", infos)
	}
}
