// Package store persists validated tables to SQL databases.
//
// CreateTableSQL turns a table and its constraint descriptors into a
// CREATE TABLE statement, so the database enforces the same rules the
// frame was validated against. Postgres and SQLite sinks write the rows.
package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// Dialect selects SQL syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts "postgres"/"postgresql"/"pg" and "sqlite"/"sqlite3".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown SQL dialect %q", s)
	}
}

// columnType maps a column type to the dialect's type name.
func (d Dialect) columnType(t table.ColumnType) string {
	switch t {
	case table.TypeInt:
		if d == SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case table.TypeFloat:
		if d == SQLite {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case table.TypeBool:
		if d == SQLite {
			return "INTEGER"
		}
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// literal renders v as a SQL literal.
func (d Dialect) literal(v table.Value) string {
	switch v.Kind() {
	case table.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case table.KindFloat:
		f, _ := v.AsFloat()
		switch {
		case math.IsInf(f, 1):
			return "'Infinity'"
		case math.IsInf(f, -1):
			return "'-Infinity'"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case table.KindText:
		s, _ := v.AsText()
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case table.KindBool:
		b, _ := v.AsBool()
		switch {
		case d == SQLite && b:
			return "1"
		case d == SQLite:
			return "0"
		case b:
			return "TRUE"
		default:
			return "FALSE"
		}
	default:
		return "NULL"
	}
}

// QuoteIdent quotes a table or column name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func sqlOperator(op constraint.Op) string {
	if op == constraint.OpNotEqual {
		return "<>"
	}
	return string(op)
}

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for tbl.
// Column types come from the data; NOT NULL, DEFAULT and CHECK clauses and
// the PRIMARY KEY and UNIQUE table constraints come from descs.
func CreateTableSQL(d Dialect, name string, tbl *table.Table, descs []constraint.Descriptor) (string, error) {
	if tbl.NumColumns() == 0 {
		return "", fmt.Errorf("table %s has no columns", name)
	}

	type columnDef struct {
		notNull bool
		def     *table.Value
		checks  []string
	}
	defs := make(map[string]*columnDef, tbl.NumColumns())
	for _, col := range tbl.ColumnNames() {
		defs[col] = &columnDef{}
	}

	var tableClauses []string
	for _, desc := range descs {
		for _, col := range desc.Target() {
			if _, ok := defs[col]; !ok {
				return "", fmt.Errorf("%s constraint: %w: %s", desc.Kind, table.ErrColumnNotFound, col)
			}
		}
		switch desc.Kind {
		case constraint.KindNotNull:
			defs[desc.Column].notNull = true
		case constraint.KindDefaultValue:
			v := desc.DefaultValue
			defs[desc.Column].def = &v
		case constraint.KindCheck:
			defs[desc.Column].checks = append(defs[desc.Column].checks,
				fmt.Sprintf("CHECK (%s %s %s)", QuoteIdent(desc.Column), sqlOperator(desc.Operator), d.literal(desc.CompareValue)))
		case constraint.KindPrimaryKey:
			tableClauses = append(tableClauses, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(desc.Columns)))
		case constraint.KindUnique:
			tableClauses = append(tableClauses, fmt.Sprintf("UNIQUE (%s)", quoteList(desc.Columns)))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(name))
	lines := make([]string, 0, tbl.NumColumns()+len(tableClauses))
	types := tbl.ColumnTypes()
	for _, col := range tbl.ColumnNames() {
		def := defs[col]
		parts := []string{QuoteIdent(col), d.columnType(types[col])}
		if def.notNull {
			parts = append(parts, "NOT NULL")
		}
		if def.def != nil {
			parts = append(parts, "DEFAULT "+d.literal(*def.def))
		}
		parts = append(parts, def.checks...)
		lines = append(lines, "\t"+strings.Join(parts, " "))
	}
	for _, c := range tableClauses {
		lines = append(lines, "\t"+c)
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String(), nil
}
