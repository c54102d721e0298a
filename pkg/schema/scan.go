package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"recordcore/pkg/fieldtype"
	"recordcore/pkg/record"
)

// baseColumns are contributed by the embedded record.Base and always present.
var baseColumns = []Column{
	{Name: "id", Field: "ID", Type: fieldtype.String},
	{Name: "created_at", Field: "CreatedAt", Type: fieldtype.Timestamp},
	{Name: "updated_at", Field: "UpdatedAt", Type: fieldtype.Timestamp},
	{Name: "version", Field: "Version", Type: fieldtype.Int64},
}

var recordBaseType = reflect.TypeOf(record.Base{})

func scanModel(rt reflect.Type, name string, model record.Model) (*Table, error) {
	table := &Table{Name: name, GoType: rt}
	if assoc, ok := model.(record.Associated); ok {
		table.Associations = assoc.Associations()
	}

	sawBase := false
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.Anonymous && field.Type == recordBaseType {
			table.Columns = append(table.Columns, baseColumns...)
			sawBase = true
			continue
		}
		if field.PkgPath != "" { // unexported
			continue
		}

		dbTag := field.Tag.Get("db")
		if dbTag == "-" {
			continue
		}
		ormTag := parseORMTag(field.Tag.Get("orm"))
		if ormTag.transient {
			continue
		}
		if ormTag.confirm != "" {
			if _, ok := rt.FieldByName(ormTag.confirm); !ok {
				return nil, fmt.Errorf("schema: %s.%s confirms unknown field %q", rt.Name(), field.Name, ormTag.confirm)
			}
			table.Confirmations = append(table.Confirmations, ConfirmPair{Field: field.Name, Target: ormTag.confirm})
			continue
		}

		ft := field.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
			nullable = true
		}
		resolved, err := fieldtype.ResolveGoType(ft)
		if err != nil {
			if !errors.Is(err, fieldtype.ErrNotFound) {
				return nil, err
			}
			// Not a scalar: either backing storage for a declared
			// association or unsupported, never an implicit column.
			if _, ok := table.Association(field.Name); !ok {
				table.Skipped = append(table.Skipped, field.Name)
			}
			continue
		}
		if resolved.IsModel() {
			// Model-typed fields are relationships, not columns.
			if _, ok := table.Association(field.Name); !ok {
				table.Skipped = append(table.Skipped, field.Name)
			}
			continue
		}
		if !nullable && isBoxedSpelling(ft) {
			nullable = true
		}

		col := Column{
			Name:     dbTag,
			Field:    field.Name,
			Type:     resolved,
			Nullable: nullable,
			Unique:   ormTag.unique,
		}
		if col.Name == "" {
			col.Name = snakeCase(field.Name)
		}
		table.Columns = append(table.Columns, col)
	}

	if !sawBase {
		return nil, fmt.Errorf("%s: %w", rt.Name(), record.ErrNoBase)
	}
	return table, nil
}

type ormTag struct {
	transient bool
	unique    bool
	confirm   string
}

func parseORMTag(raw string) ormTag {
	var out ormTag
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "transient":
			out.transient = true
		case part == "unique":
			out.unique = true
		case strings.HasPrefix(part, "confirm="):
			out.confirm = strings.TrimPrefix(part, "confirm=")
		}
	}
	return out
}

// isBoxedSpelling reports whether the declared type is a driver box that
// already models NULL (database/sql Null* and the nullable pgtype structs).
func isBoxedSpelling(rt reflect.Type) bool {
	switch rt.String() {
	case "sql.NullString", "sql.NullBool", "sql.NullInt32", "sql.NullInt64", "sql.NullFloat64", "sql.NullTime",
		"pgtype.Float4", "pgtype.Numeric", "pgtype.Timestamptz", "pgtype.Date", "pgtype.UUID":
		return true
	}
	return false
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
