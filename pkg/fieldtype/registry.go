package fieldtype

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotFound is returned by Resolve for names the registry does not
	// recognize. Callers treat it as a normal control path, not a fault.
	ErrNotFound = errors.New("fieldtype: name not registered")
	// ErrNilType is returned when a nil reflect.Type is registered.
	ErrNilType = errors.New("fieldtype: nil reflect.Type provided")
	// ErrEmptyName is returned when a model is registered under an empty name.
	ErrEmptyName = errors.New("fieldtype: empty name provided")
	// ErrConflictingRegistration indicates an attempt to re-register a name
	// with a different model type.
	ErrConflictingRegistration = errors.New("fieldtype: conflicting model registration")
)

// snapshot is an immutable view of the registered model descriptors. A new
// snapshot is published atomically on every registration so readers never
// lock and never observe partial state.
type snapshot struct {
	models map[string]*Type
}

var (
	current atomic.Pointer[snapshot]
	writeMu sync.Mutex
)

func init() {
	current.Store(&snapshot{models: map[string]*Type{}})
}

// Resolve returns the canonical descriptor for name. It is defined only for
// recognized names; anything else fails with ErrNotFound. Lookup is an exact
// string match with no case folding, and composite spellings such as
// "[]int64" are deliberately unresolvable.
func Resolve(name string) (*Type, error) {
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	if t, ok := current.Load().models[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
}

// Defined reports whether name resolves without performing the resolution.
func Defined(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	_, ok := current.Load().models[name]
	return ok
}

// RegisterModel binds a model descriptor to its fully-qualified name.
// Registration is idempotent for the same (name, type) pair and rejects a
// name already bound to a different type. The updated table is published as
// a fresh snapshot; concurrent Resolve calls keep reading the prior one.
func RegisterModel(name string, rt reflect.Type) (*Type, error) {
	if rt == nil {
		return nil, ErrNilType
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, ok := builtins[name]; ok {
		return nil, fmt.Errorf("%q shadows a built-in: %w", name, ErrConflictingRegistration)
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	prev := current.Load()
	if existing, ok := prev.models[name]; ok {
		if existing.goType == rt {
			return existing, nil
		}
		return nil, fmt.Errorf("%q already bound to %s: %w", name, existing.goType, ErrConflictingRegistration)
	}

	desc := &Type{kind: KindModel, name: name, goType: rt}
	next := &snapshot{models: make(map[string]*Type, len(prev.models)+1)}
	for k, v := range prev.models {
		next.models[k] = v
	}
	next.models[name] = desc
	current.Store(next)
	return desc, nil
}

// QualifiedName returns the fully-qualified registration name for a struct
// type: its package path joined to the type name.
func QualifiedName(rt reflect.Type) string {
	if rt == nil || rt.Name() == "" {
		return ""
	}
	if rt.PkgPath() == "" {
		return rt.Name()
	}
	return rt.PkgPath() + "." + rt.Name()
}

// ResolveGoType resolves a reflect.Type the way the schema scanner sees it:
// first under its fully-qualified name (registered models), then under its
// short spelling (built-in scalars such as "int64" or "sql.NullString").
func ResolveGoType(rt reflect.Type) (*Type, error) {
	if rt == nil {
		return nil, ErrNilType
	}
	if qn := QualifiedName(rt); qn != "" {
		if t, ok := current.Load().models[qn]; ok {
			return t, nil
		}
	}
	return Resolve(rt.String())
}

// resetModels clears registered models. Test hook only.
func resetModels() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&snapshot{models: map[string]*Type{}})
}
