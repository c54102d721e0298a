// Package schema derives table metadata from declared model structs and
// keeps the process-wide registry mapping model types to table handles.
// Scalar fields become columns through the fieldtype resolver; fields whose
// declared type the resolver rejects are treated as association backing or
// skipped entirely.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"recordcore/pkg/fieldtype"
	"recordcore/pkg/record"
)

var (
	// ErrAlreadyRegistered indicates a table name bound to a different model.
	ErrAlreadyRegistered = errors.New("schema: table already registered")
	// ErrNotStruct is returned when the model is not a struct type.
	ErrNotStruct = errors.New("schema: model must be a struct")
	// ErrNoTableName is returned when TableName yields an empty string.
	ErrNoTableName = errors.New("schema: empty table name")
)

// Column describes a scalar field mapped to a table column.
type Column struct {
	// Name is the column name: the db tag when present, otherwise the
	// snake_case form of the field name.
	Name string
	// Field is the Go struct field backing the column.
	Field string
	// Type is the canonical field type resolved for the declared Go type.
	Type *fieldtype.Type
	// Nullable marks pointer or driver-boxed declarations.
	Nullable bool
	// Unique marks columns carrying the orm:"unique" tag.
	Unique bool
}

// ConfirmPair records an orm:"confirm=Target" declaration: the confirmation
// field is transient and must equal Target at write time.
type ConfirmPair struct {
	Field  string
	Target string
}

// Table is the handle produced by registering a model.
type Table struct {
	// Name is the table name reported by the model.
	Name string
	// GoType is the registered struct type.
	GoType reflect.Type
	// Descriptor is the model's entry in the fieldtype registry.
	Descriptor *fieldtype.Type
	// Columns lists the mapped scalar fields in declaration order.
	Columns []Column
	// Associations lists declared relationships, if any.
	Associations []record.Association
	// Confirmations lists confirm-paired transient fields.
	Confirmations []ConfirmPair
	// Skipped lists fields that mapped to neither column nor association.
	Skipped []string
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// UniqueColumns returns the columns subject to uniqueness validation.
func (t *Table) UniqueColumns() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.Unique {
			out = append(out, c)
		}
	}
	return out
}

// Association returns the declared association with the given accessor name.
func (t *Table) Association(name string) (record.Association, bool) {
	for _, a := range t.Associations {
		if a.Name == name {
			return a, true
		}
	}
	return record.Association{}, false
}

// state is the immutable registry view swapped atomically on registration.
type state struct {
	byName map[string]*Table
	byType map[reflect.Type]*Table
}

// Registry maps registered models to their table handles. Reads are
// lock-free against the current snapshot; registration publishes a new one.
type Registry struct {
	current atomic.Pointer[state]
	writeMu sync.Mutex
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&state{byName: map[string]*Table{}, byType: map[reflect.Type]*Table{}})
	return r
}

// Register scans the model struct, binds its table handle, and registers the
// model type into the fieldtype registry so its fully-qualified name
// resolves. Registration is idempotent for the same model type.
func (r *Registry) Register(model record.Model) (*Table, error) {
	rt := reflect.TypeOf(model)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%T: %w", model, ErrNotStruct)
	}
	name := model.TableName()
	if name == "" {
		return nil, fmt.Errorf("%T: %w", model, ErrNoTableName)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := r.current.Load()
	if existing, ok := prev.byName[name]; ok {
		if existing.GoType == rt {
			return existing, nil
		}
		return nil, fmt.Errorf("%q bound to %s: %w", name, existing.GoType, ErrAlreadyRegistered)
	}

	table, err := scanModel(rt, name, model)
	if err != nil {
		return nil, err
	}
	desc, err := fieldtype.RegisterModel(fieldtype.QualifiedName(rt), rt)
	if err != nil {
		return nil, fmt.Errorf("register model type: %w", err)
	}
	table.Descriptor = desc

	next := &state{
		byName: make(map[string]*Table, len(prev.byName)+1),
		byType: make(map[reflect.Type]*Table, len(prev.byType)+1),
	}
	for k, v := range prev.byName {
		next.byName[k] = v
	}
	for k, v := range prev.byType {
		next.byType[k] = v
	}
	next.byName[name] = table
	next.byType[rt] = table
	r.current.Store(next)
	return table, nil
}

// Lookup returns the table handle registered under name.
func (r *Registry) Lookup(name string) (*Table, bool) {
	t, ok := r.current.Load().byName[name]
	return t, ok
}

// LookupType returns the table handle for a registered struct type.
func (r *Registry) LookupType(rt reflect.Type) (*Table, bool) {
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	t, ok := r.current.Load().byType[rt]
	return t, ok
}

// Tables returns the registered handles sorted by table name.
func (r *Registry) Tables() []*Table {
	st := r.current.Load()
	out := make([]*Table, 0, len(st.byName))
	for _, t := range st.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
