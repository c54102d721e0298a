package schema

import (
	"fmt"
	"sort"
	"strings"

	"recordcore/pkg/fieldtype"
	"recordcore/pkg/record"
)

// Dialect identifies a SQL backend for DDL generation.
type Dialect string

// Supported DDL dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnknownDialect is returned for dialects outside the supported set.
var ErrUnknownDialect = fmt.Errorf("schema: unknown dialect")

// CreateStatements renders CREATE TABLE IF NOT EXISTS statements for every
// registered table and for the join tables demanded by has-and-belongs-to-
// many associations. Output order is deterministic: tables sorted by name,
// join tables after, each statement terminated by a semicolon.
func (r *Registry) CreateStatements(dialect Dialect) ([]string, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("%q: %w", dialect, ErrUnknownDialect)
	}

	var stmts []string
	joins := map[string]record.Association{}
	for _, table := range r.Tables() {
		stmt, err := createTable(table, dialect)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		for _, assoc := range table.Associations {
			if assoc.Kind == record.KindHasAndBelongsToMany {
				joins[assoc.Through] = assoc
			}
		}
	}

	joinNames := make([]string, 0, len(joins))
	for name := range joins {
		joinNames = append(joinNames, name)
	}
	sort.Strings(joinNames)
	for _, name := range joinNames {
		stmts = append(stmts, createJoinTable(name, joins[name]))
	}
	return stmts, nil
}

func createTable(table *Table, dialect Dialect) (string, error) {
	var cols []string
	for _, col := range table.Columns {
		sqlType, err := sqlTypeFor(col.Type, dialect)
		if err != nil {
			return "", fmt.Errorf("table %s column %s: %w", table.Name, col.Name, err)
		}
		def := fmt.Sprintf("%s %s", col.Name, sqlType)
		if col.Name == "id" {
			def += " PRIMARY KEY"
		} else if !col.Nullable {
			def += " NOT NULL"
		}
		if col.Unique {
			def += " UNIQUE"
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);", table.Name, strings.Join(cols, ",\n\t")), nil
}

func createJoinTable(name string, assoc record.Association) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s TEXT NOT NULL,\n\t%s TEXT NOT NULL,\n\tPRIMARY KEY (%s, %s)\n);",
		name, assoc.ForeignKey, assoc.TargetKey, assoc.ForeignKey, assoc.TargetKey,
	)
}

func sqlTypeFor(t *fieldtype.Type, dialect Dialect) (string, error) {
	switch t.Kind() {
	case fieldtype.KindString:
		return "TEXT", nil
	case fieldtype.KindBool:
		return "BOOLEAN", nil
	case fieldtype.KindInt32:
		return "INTEGER", nil
	case fieldtype.KindInt64:
		return "BIGINT", nil
	case fieldtype.KindFloat32:
		return "REAL", nil
	case fieldtype.KindFloat64:
		return "DOUBLE PRECISION", nil
	case fieldtype.KindDecimal:
		return "NUMERIC", nil
	case fieldtype.KindTimestamp:
		if dialect == DialectPostgres {
			return "TIMESTAMPTZ", nil
		}
		return "TIMESTAMP", nil
	case fieldtype.KindDate:
		return "DATE", nil
	case fieldtype.KindUUID:
		if dialect == DialectPostgres {
			return "UUID", nil
		}
		return "TEXT", nil
	default:
		return "", fmt.Errorf("no SQL type for kind %q", t.Kind())
	}
}
