package fieldtype

import (
	"errors"
	"testing"
)

func TestPrimitiveSpellingsShareDescriptor(t *testing.T) {
	families := []struct {
		name      string
		spellings [3]string
		want      *Type
	}{
		{"bool", [3]string{"bool", "boolean", "sql.NullBool"}, Bool},
		{"int32", [3]string{"int32", "integer", "sql.NullInt32"}, Int32},
		{"int64", [3]string{"int64", "bigint", "sql.NullInt64"}, Int64},
		{"float32", [3]string{"float32", "real", "pgtype.Float4"}, Float32},
		{"float64", [3]string{"float64", "double precision", "sql.NullFloat64"}, Float64},
		{"string", [3]string{"string", "text", "sql.NullString"}, String},
	}
	for _, family := range families {
		t.Run(family.name, func(t *testing.T) {
			for _, spelling := range family.spellings {
				got, err := Resolve(spelling)
				if err != nil {
					t.Fatalf("resolve %q: %v", spelling, err)
				}
				if got != family.want {
					t.Fatalf("resolve %q: got %v, want identical descriptor %v", spelling, got, family.want)
				}
				if !Defined(spelling) {
					t.Fatalf("expected %q to be defined", spelling)
				}
			}
		})
	}
}

func TestValueTypeSpellings(t *testing.T) {
	cases := []struct {
		spelling string
		want     *Type
	}{
		{"decimal.Decimal", Decimal},
		{"pgtype.Numeric", Decimal},
		{"numeric", Decimal},
		{"time.Time", Timestamp},
		{"sql.NullTime", Timestamp},
		{"pgtype.Timestamptz", Timestamp},
		{"pgtype.Date", Date},
		{"date", Date},
		{"uuid.UUID", UUID},
		{"pgtype.UUID", UUID},
	}
	for _, tc := range cases {
		got, err := Resolve(tc.spelling)
		if err != nil {
			t.Fatalf("resolve %q: %v", tc.spelling, err)
		}
		if got != tc.want {
			t.Fatalf("resolve %q: got %v, want %v", tc.spelling, got, tc.want)
		}
	}
}

func TestCompositeNamesAreUnresolvable(t *testing.T) {
	for _, name := range []string{"[]int64", "[]string", "map[string]int64", "*int64", "Int64", "INTEGER"} {
		if Defined(name) {
			t.Fatalf("expected %q to be undefined", name)
		}
		if _, err := Resolve(name); !errors.Is(err, ErrNotFound) {
			t.Fatalf("resolve %q: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	first, err := Resolve("bigint")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := Resolve("bigint")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("resolve %d returned a different descriptor", i)
		}
	}
}

func TestDescriptorAccessors(t *testing.T) {
	if Int64.Kind() != KindInt64 {
		t.Fatalf("unexpected kind %q", Int64.Kind())
	}
	if Int64.IsModel() {
		t.Fatalf("scalar descriptor reported as model")
	}
	if Decimal.GoType().String() != "decimal.Decimal" {
		t.Fatalf("unexpected go type %s", Decimal.GoType())
	}
	if UUID.String() != "uuid" {
		t.Fatalf("unexpected name %q", UUID.String())
	}
}
