// Package memory provides an in-memory implementation of the record
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"recordcore/pkg/record"
)

// Compile-time contract assertion ensuring memory.Store adheres to the
// record persistence interface.
var _ record.PersistentStore = (*Store)(nil)

type state map[string]map[string]record.Envelope

func (s state) clone() state {
	out := make(state, len(s))
	for table, rows := range s {
		bucket := make(map[string]record.Envelope, len(rows))
		for id, env := range rows {
			bucket[id] = env.Clone()
		}
		out[table] = bucket
	}
	return out
}

// Store provides an in-memory transactional store over record envelopes.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *record.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *record.RulesEngine) *Store {
	if engine == nil {
		engine = record.NewRulesEngine()
	}
	return &Store{
		state:  state{},
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// RulesEngine exposes the configured engine for integration points.
func (s *Store) RulesEngine() *record.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Snapshot is the serializable export of the full store state, keyed by
// table with envelopes sorted by id.
type Snapshot struct {
	Tables map[string][]record.Envelope `json:"tables"`
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

func snapshotFromState(st state) Snapshot {
	out := Snapshot{Tables: make(map[string][]record.Envelope, len(st))}
	for table, rows := range st {
		envs := make([]record.Envelope, 0, len(rows))
		for _, env := range rows {
			envs = append(envs, env.Clone())
		}
		sort.Slice(envs, func(i, j int) bool { return envs[i].ID < envs[j].ID })
		out.Tables[table] = envs
	}
	return out
}

func stateFromSnapshot(snapshot Snapshot) state {
	st := state{}
	for table, envs := range snapshot.Tables {
		bucket := make(map[string]record.Envelope, len(envs))
		for _, env := range envs {
			bucket[env.ID] = env.Clone()
		}
		st[table] = bucket
	}
	return st
}

func newID() string {
	return uuid.NewString()
}

// transaction represents a mutation set applied to a transactional clone of
// the store state.
type transaction struct {
	state   state
	changes []record.Change
}

// view exposes a read-only snapshot of transactional state to rules.
type view struct {
	state state
}

// List returns the envelopes of a table sorted by id.
func (v view) List(table string) []record.Envelope {
	rows := v.state[table]
	out := make([]record.Envelope, 0, len(rows))
	for _, env := range rows {
		out = append(out, env.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Find retrieves an envelope by table and id.
func (v view) Find(table, id string) (record.Envelope, bool) {
	env, ok := v.state[table][id]
	if !ok {
		return record.Envelope{}, false
	}
	return env.Clone(), true
}

// Tables returns the table names present in the snapshot, sorted.
func (v view) Tables() []string {
	out := make([]string, 0, len(v.state))
	for table := range v.state {
		out = append(out, table)
	}
	sort.Strings(out)
	return out
}

func (tx *transaction) Snapshot() record.View {
	return view{state: tx.state}
}

// Insert stores a new envelope, assigning id and initial version when unset.
func (tx *transaction) Insert(env record.Envelope) (record.Envelope, error) {
	if env.Table == "" {
		return record.Envelope{}, fmt.Errorf("memory: insert without table")
	}
	if env.ID == "" {
		env.ID = newID()
	}
	if env.Version == 0 {
		env.Version = 1
	}
	bucket, ok := tx.state[env.Table]
	if !ok {
		bucket = map[string]record.Envelope{}
		tx.state[env.Table] = bucket
	}
	if _, exists := bucket[env.ID]; exists {
		return record.Envelope{}, fmt.Errorf("memory: duplicate id %s in %s", env.ID, env.Table)
	}
	bucket[env.ID] = env.Clone()
	tx.changes = append(tx.changes, record.Change{Table: env.Table, Action: record.ActionCreate, After: ptr(env.Clone())})
	return env, nil
}

// Update replaces the payload of an existing envelope. The expected version
// must match the stored one; on success the version increments.
func (tx *transaction) Update(table, id string, expectedVersion int64, payload []byte) (record.Envelope, error) {
	bucket := tx.state[table]
	stored, ok := bucket[id]
	if !ok {
		return record.Envelope{}, fmt.Errorf("%s/%s: %w", table, id, record.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return record.Envelope{}, fmt.Errorf("%s/%s: stored version %d, expected %d: %w", table, id, stored.Version, expectedVersion, record.ErrStaleVersion)
	}
	before := stored.Clone()
	next := record.Envelope{Table: table, ID: id, Version: stored.Version + 1, Payload: append([]byte(nil), payload...)}
	bucket[id] = next
	tx.changes = append(tx.changes, record.Change{Table: table, Action: record.ActionUpdate, Before: &before, After: ptr(next.Clone())})
	return next, nil
}

// Delete removes an envelope. A positive expected version must match the
// stored one; zero or negative skips the optimistic check.
func (tx *transaction) Delete(table, id string, expectedVersion int64) error {
	bucket := tx.state[table]
	stored, ok := bucket[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", table, id, record.ErrNotFound)
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return fmt.Errorf("%s/%s: stored version %d, expected %d: %w", table, id, stored.Version, expectedVersion, record.ErrStaleVersion)
	}
	before := stored.Clone()
	delete(bucket, id)
	tx.changes = append(tx.changes, record.Change{Table: table, Action: record.ActionDelete, Before: &before})
	return nil
}

// Find retrieves an envelope from the transactional state.
func (tx *transaction) Find(table, id string) (record.Envelope, bool) {
	env, ok := tx.state[table][id]
	if !ok {
		return record.Envelope{}, false
	}
	return env.Clone(), true
}

func ptr(env record.Envelope) *record.Envelope { return &env }

// RunInTransaction executes fn within a transactional copy of the store
// state. Registered rules evaluate against the post-mutation snapshot;
// blocking violations abort the commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx record.Transaction) error) (record.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return record.Result{}, err
	}

	var result record.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: tx.state}, tx.changes)
		if err != nil {
			return record.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, record.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View runs fn against a read-only snapshot of the current state.
func (s *Store) View(_ context.Context, fn func(record.View) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(view{state: snapshot})
}

// Get retrieves an envelope by table and id.
func (s *Store) Get(table, id string) (record.Envelope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.state[table][id]
	if !ok {
		return record.Envelope{}, false
	}
	return env.Clone(), true
}

// List returns the envelopes of a table sorted by id.
func (s *Store) List(table string) []record.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: s.state}.List(table)
}
