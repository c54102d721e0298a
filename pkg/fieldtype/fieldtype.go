// Package fieldtype resolves declared field-type names to canonical runtime
// descriptors. It understands the Go spelling, the SQL keyword, and the
// driver-boxed spelling of every scalar the persistence layer can map to a
// column, plus a small set of well-known value types (decimal, timestamp,
// date, UUID). Model types registered through the schema layer resolve under
// their fully-qualified name.
//
// Resolution is a partial function: names outside the table fail with
// ErrNotFound. Higher layers rely on that to separate "scalar column" from
// "association or unsupported field" without special-casing.
package fieldtype

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Kind discriminates the canonical scalar families plus registered models.
type Kind string

// Canonical kinds returned by Resolve. KindModel marks user-registered types.
const (
	KindString    Kind = "string"
	KindBool      Kind = "bool"
	KindInt32     Kind = "int32"
	KindInt64     Kind = "int64"
	KindFloat32   Kind = "float32"
	KindFloat64   Kind = "float64"
	KindDecimal   Kind = "decimal"
	KindTimestamp Kind = "timestamp"
	KindDate      Kind = "date"
	KindUUID      Kind = "uuid"
	KindModel     Kind = "model"
)

// Type is a canonical type descriptor. Descriptors are process-wide
// singletons: all accepted spellings of a logical type resolve to the same
// pointer, so equality is identity comparison.
type Type struct {
	kind   Kind
	name   string
	goType reflect.Type
}

// Kind returns the descriptor's scalar family.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the canonical display name of the descriptor.
func (t *Type) Name() string { return t.name }

// GoType returns the Go runtime type used to represent values of this kind.
// For model descriptors it is the registered struct type.
func (t *Type) GoType() reflect.Type { return t.goType }

// IsModel reports whether the descriptor denotes a registered model type.
func (t *Type) IsModel() bool { return t.kind == KindModel }

func (t *Type) String() string { return t.name }

// MarshalJSON renders the descriptor as its kind and canonical name.
func (t *Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind   `json:"kind"`
		Name string `json:"name"`
	}{Kind: t.kind, Name: t.name})
}

// Built-in canonical descriptors. The pointer values are stable for the
// process lifetime.
var (
	String    = &Type{kind: KindString, name: "string", goType: reflect.TypeOf("")}
	Bool      = &Type{kind: KindBool, name: "bool", goType: reflect.TypeOf(false)}
	Int32     = &Type{kind: KindInt32, name: "int32", goType: reflect.TypeOf(int32(0))}
	Int64     = &Type{kind: KindInt64, name: "int64", goType: reflect.TypeOf(int64(0))}
	Float32   = &Type{kind: KindFloat32, name: "float32", goType: reflect.TypeOf(float32(0))}
	Float64   = &Type{kind: KindFloat64, name: "float64", goType: reflect.TypeOf(float64(0))}
	Decimal   = &Type{kind: KindDecimal, name: "decimal", goType: reflect.TypeOf(decimal.Decimal{})}
	Timestamp = &Type{kind: KindTimestamp, name: "timestamp", goType: reflect.TypeOf(time.Time{})}
	Date      = &Type{kind: KindDate, name: "date", goType: reflect.TypeOf(pgtype.Date{})}
	UUID      = &Type{kind: KindUUID, name: "uuid", goType: reflect.TypeOf(uuid.UUID{})}
)

// builtins maps every accepted spelling to its canonical descriptor. Each
// numeric/boolean primitive carries exactly three spellings: the bare Go
// name, the SQL keyword, and the driver-boxed name. The table is built once
// and never mutated; lookups require no synchronization.
var builtins = map[string]*Type{
	"string":         String,
	"text":           String,
	"sql.NullString": String,

	"bool":         Bool,
	"boolean":      Bool,
	"sql.NullBool": Bool,

	"int32":         Int32,
	"integer":       Int32,
	"sql.NullInt32": Int32,

	"int64":         Int64,
	"bigint":        Int64,
	"sql.NullInt64": Int64,

	"float32":       Float32,
	"real":          Float32,
	"pgtype.Float4": Float32,

	"float64":          Float64,
	"double precision": Float64,
	"sql.NullFloat64":  Float64,

	"decimal.Decimal": Decimal,
	"pgtype.Numeric":  Decimal,
	"numeric":         Decimal,

	"time.Time":          Timestamp,
	"sql.NullTime":       Timestamp,
	"pgtype.Timestamptz": Timestamp,

	"pgtype.Date": Date,
	"date":        Date,

	"uuid.UUID":   UUID,
	"pgtype.UUID": UUID,
}

// compile-time guarantee that the boxed spellings track their driver types;
// keeps the table honest if a driver dependency changes shape.
var _ = []any{sql.NullString{}, sql.NullBool{}, sql.NullInt32{}, sql.NullInt64{}, sql.NullFloat64{}, sql.NullTime{}, pgtype.Float4{}, pgtype.Numeric{}, pgtype.Timestamptz{}, pgtype.UUID{}}
