// Package sqlite provides an embedded SQLite-backed persistent store. It
// reuses the in-memory transaction semantics and snapshots the full state to
// a single table after every successful commit.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"recordcore/internal/infra/persistence/memory"
	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// Compile-time contract assertion ensuring the store satisfies the record
// persistence interface.
var _ record.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs,
// one row per record table.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store. When a
// schema registry is supplied its sqlite DDL is applied at open so the
// declared record tables exist alongside the snapshot table.
func NewStore(path string, engine *record.RulesEngine, registry *schema.Registry) (*Store, error) {
	if path == "" {
		path = "recordcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	if registry != nil {
		stmts, err := registry.CreateStatements(schema.DialectSQLite)
		if err != nil {
			return nil, fmt.Errorf("render ddl: %w", err)
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				return nil, fmt.Errorf("execute ddl: %w", err)
			}
		}
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{Tables: map[string][]record.Envelope{}}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var envs []record.Envelope
		if err := json.Unmarshal(payload, &envs); err != nil {
			return fmt.Errorf("decode bucket %s: %w", bucket, err)
		}
		snapshot.Tables[bucket] = envs
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(snapshot.Tables) == 0 {
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.Exec(`DELETE FROM state`); err != nil {
		retErr = fmt.Errorf("clear state: %w", err)
		return retErr
	}
	for bucket, envs := range snapshot.Tables {
		data, err := json.Marshal(envs)
		if err != nil {
			retErr = fmt.Errorf("encode bucket %s: %w", bucket, err)
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)`, bucket, data); err != nil {
			retErr = fmt.Errorf("insert %s: %w", bucket, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx record.Transaction) error) (record.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close flushes nothing further and closes the database handle.
func (s *Store) Close() error { return s.db.Close() }
