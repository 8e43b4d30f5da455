// Package table provides the in-memory tabular structure that loaders fill
// and constraints validate.
//
// A Table is an ordered list of named columns of equal length. Each column
// holds typed, nullable Values. Tables are plain data: they do no I/O and
// are not safe for concurrent mutation.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrColumnNotFound is returned when a named column does not exist.
var ErrColumnNotFound = errors.New("column not found")

// ColumnType is the narrowest type covering every non-null value in a column.
type ColumnType string

const (
	TypeNull  ColumnType = "null"
	TypeInt   ColumnType = "int"
	TypeFloat ColumnType = "float"
	TypeText  ColumnType = "text"
	TypeBool  ColumnType = "bool"
	TypeMixed ColumnType = "mixed"
)

// Column is a named, ordered sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// NewColumn builds a column from Go scalars. It fails on unsupported types.
func NewColumn(name string, values ...any) (Column, error) {
	col := Column{Name: name, Values: make([]Value, len(values))}
	for i, v := range values {
		val, err := ValueOf(v)
		if err != nil {
			return Column{}, fmt.Errorf("column %s row %d: %w", name, i, err)
		}
		col.Values[i] = val
	}
	return col, nil
}

// MustColumn is like NewColumn but panics on error. Intended for tests and literals.
func MustColumn(name string, values ...any) Column {
	col, err := NewColumn(name, values...)
	if err != nil {
		panic(err)
	}
	return col
}

// Type returns the column's inferred type.
func (c *Column) Type() ColumnType {
	t := TypeNull
	for _, v := range c.Values {
		var vt ColumnType
		switch v.Kind() {
		case KindNull:
			continue
		case KindInt:
			vt = TypeInt
		case KindFloat:
			vt = TypeFloat
		case KindText:
			vt = TypeText
		case KindBool:
			vt = TypeBool
		}
		t = widen(t, vt)
		if t == TypeMixed {
			return t
		}
	}
	return t
}

func widen(have, next ColumnType) ColumnType {
	switch {
	case have == TypeNull || have == next:
		return next
	case (have == TypeInt && next == TypeFloat) || (have == TypeFloat && next == TypeInt):
		return TypeFloat
	default:
		return TypeMixed
	}
}

// NullCount returns the number of null values in the column.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// HasNulls reports whether any value in the column is null.
func (c *Column) HasNulls() bool {
	for _, v := range c.Values {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a table from the given columns.
// Column names must be unique and every column must have the same length.
func New(cols ...Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, exists := t.index[c.Name]; exists {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i > 0 && len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), t.rows)
		}
		t.rows = len(c.Values)
		values := make([]Value, len(c.Values))
		copy(values, c.Values)
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, &Column{Name: c.Name, Values: values})
	}
	return t, nil
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	t, _ := New()
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Column returns the named column. The returned column is live: writes to
// its Values mutate the table.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return t.columns[i], nil
}

// Columns resolves several names at once, failing on the first unknown name.
func (t *Table) Columns(names []string) ([]*Column, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnTypes returns a mapping from column name to inferred type.
func (t *Table) ColumnTypes() map[string]ColumnType {
	types := make(map[string]ColumnType, len(t.columns))
	for _, c := range t.columns {
		types[c.Name] = c.Type()
	}
	return types
}

// Row returns a copy of the values in row i, in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = *c
	}
	clone, _ := New(cols...)
	return clone
}

// SelectRows returns a new table holding only the given rows, in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		values := make([]Value, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		cols[i] = Column{Name: c.Name, Values: values}
	}
	out, _ := New(cols...)
	return out
}

// String renders the table as a simple aligned text grid.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Empty table"
	}

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = len(c.Name)
		for _, v := range c.Values {
			if n := len(v.String()); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	for i, c := range t.columns {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], c.Name)
	}
	for r := 0; r < t.rows; r++ {
		b.WriteByte('\n')
		for i, c := range t.columns {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], c.Values[r].String())
		}
	}
	return b.String()
}
