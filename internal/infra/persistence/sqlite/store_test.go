package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

type note struct {
	record.Base
	Body string
}

func (note) TableName() string { return "notes" }

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	store, err := NewStore(path, record.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	ctx := context.Background()

	var created record.Envelope
	if _, err := store.RunInTransaction(ctx, func(tx record.Transaction) error {
		var err error
		created, err = tx.Insert(record.Envelope{Table: "notes", Payload: json.RawMessage(`{"body":"persist"}`)})
		return err
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reloaded.Close() }()

	envs := reloaded.List("notes")
	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope after reload, got %d", len(envs))
	}
	if envs[0].ID != created.ID || envs[0].Version != 1 {
		t.Fatalf("unexpected envelope %+v", envs[0])
	}
	if string(envs[0].Payload) != `{"body":"persist"}` {
		t.Fatalf("unexpected payload %s", envs[0].Payload)
	}
}

func TestAppliesSchemaDDL(t *testing.T) {
	reg := schema.NewRegistry()
	if _, err := reg.Register(note{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "ddl.db"), nil, reg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	var count int
	if err := store.DB().QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes'`).Scan(&count); err != nil {
		t.Fatalf("query master: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected notes table from DDL, got %d", count)
	}
}

func TestDeleteShrinksSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	var env record.Envelope
	if _, err := store.RunInTransaction(ctx, func(tx record.Transaction) error {
		var err error
		env, err = tx.Insert(record.Envelope{Table: "notes", Payload: json.RawMessage(`{}`)})
		return err
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx record.Transaction) error {
		return tx.Delete("notes", env.ID, env.Version)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	if got := reloaded.List("notes"); len(got) != 0 {
		t.Fatalf("expected empty table after delete, got %d", len(got))
	}
}
