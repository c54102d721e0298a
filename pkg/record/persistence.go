package record

import "context"

// Transaction exposes the mutation operations a persistence implementation
// must support within an atomic scope. Version arguments implement
// optimistic locking: an update or delete whose expected version no longer
// matches the stored envelope fails with ErrStaleVersion.
type Transaction interface {
	Snapshot() View
	Insert(env Envelope) (Envelope, error)
	Update(table, id string, expectedVersion int64, payload []byte) (Envelope, error)
	Delete(table, id string, expectedVersion int64) error
	Find(table, id string) (Envelope, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(View) error) error
	Get(table, id string) (Envelope, bool)
	List(table string) []Envelope
}
