package core

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"recordcore/internal/blob"
	"recordcore/pkg/schema"
)

func TestArchiveSchemaWritesBundle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	store := blob.NewMemory()

	info, err := svc.ArchiveSchema(ctx, store, schema.DialectPostgres)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.HasPrefix(info.Key, "schema/postgres/") || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %#v", info)
	}

	_, rc, err := store.Get(ctx, info.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()

	var bundle SchemaBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if bundle.Dialect != schema.DialectPostgres {
		t.Fatalf("unexpected dialect %q", bundle.Dialect)
	}
	tables := map[string]bool{}
	for _, tb := range bundle.Tables {
		tables[tb.Name] = true
	}
	for _, want := range []string{"authors", "articles", "topics"} {
		if !tables[want] {
			t.Fatalf("bundle missing table %s, got %v", want, tables)
		}
	}
	var joined bool
	for _, stmt := range bundle.Statements {
		if strings.Contains(stmt, "articles_topics") {
			joined = true
		}
	}
	if !joined {
		t.Fatalf("expected join table DDL in %v", bundle.Statements)
	}
}

func TestBuildSchemaBundleUnknownDialect(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.BuildSchemaBundle(schema.Dialect("oracle")); err == nil {
		t.Fatalf("expected unknown dialect error")
	}
}
