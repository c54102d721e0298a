// Package record defines the model surface of recordcore: the embedded Base
// fields shared by every persistent record, association declarations, and
// the rule evaluation primitives applied at transaction commit.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Base contains the common fields for all persistent records. Version is the
// optimistic-locking counter: it starts at 1 on create and increments on
// every successful update.
type Base struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Version   int64     `json:"version" db:"version"`
}

// Model is implemented by every declared record type.
type Model interface {
	TableName() string
}

// Associated is optionally implemented by models that declare relationships.
// Fields backing an association are not mapped to columns; the schema layer
// detects them by their declared type being unresolvable as a scalar.
type Associated interface {
	Associations() []Association
}

var (
	// ErrNotFound is returned when a record id is absent from the store.
	ErrNotFound = errors.New("record: not found")
	// ErrStaleVersion is returned when an update or delete carries a version
	// that no longer matches the stored record.
	ErrStaleVersion = errors.New("record: stale version")
	// ErrNoBase is returned when a value does not embed record.Base.
	ErrNoBase = errors.New("record: model does not embed record.Base")
)

// BaseOf returns a pointer to the Base embedded in model, which must be a
// non-nil pointer to a struct embedding Base at any depth of anonymous
// struct fields.
func BaseOf(model any) (*Base, error) {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%T is not a non-nil pointer: %w", model, ErrNoBase)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%T does not point to a struct: %w", model, ErrNoBase)
	}
	if base := findBase(rv); base != nil {
		return base, nil
	}
	return nil, fmt.Errorf("%T: %w", model, ErrNoBase)
}

var baseType = reflect.TypeOf(Base{})

func findBase(rv reflect.Value) *Base {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.Anonymous {
			continue
		}
		if field.Type == baseType {
			return rv.Field(i).Addr().Interface().(*Base)
		}
		if field.Type.Kind() == reflect.Struct {
			if base := findBase(rv.Field(i)); base != nil {
				return base
			}
		}
	}
	return nil
}
