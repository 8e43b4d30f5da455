package constraint

import (
	"slices"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// Kind identifies the type of a constraint.
type Kind string

const (
	KindNotNull      Kind = "not_null"
	KindPrimaryKey   Kind = "primary_key"
	KindUnique       Kind = "unique"
	KindCheck        Kind = "check"
	KindDefaultValue Kind = "default_value"
)

// String returns the snake_case kind name.
func (k Kind) String() string { return string(k) }

// label returns the SQL keyword form used in violation messages.
func (k Kind) label() string {
	switch k {
	case KindNotNull:
		return "NOT NULL"
	case KindPrimaryKey:
		return "PRIMARY KEY"
	case KindUnique:
		return "UNIQUE"
	case KindCheck:
		return "CHECK"
	case KindDefaultValue:
		return "DEFAULT"
	default:
		return strings.ToUpper(string(k))
	}
}

// multiColumn reports whether the kind targets an ordered column list.
func (k Kind) multiColumn() bool {
	return k == KindPrimaryKey || k == KindUnique
}

// Op is a check comparison operator.
type Op string

const (
	OpEqual        Op = "="
	OpGreater      Op = ">"
	OpLess         Op = "<"
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
	OpNotEqual     Op = "!="
)

// ParseOp normalizes s (trimmed, case-insensitive) into a supported operator.
func ParseOp(s string) (Op, bool) {
	op := Op(strings.ToUpper(strings.TrimSpace(s)))
	switch op {
	case OpEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpNotEqual:
		return op, true
	default:
		return "", false
	}
}

// holds reports whether cmp (the result of table.Compare(cell, value))
// satisfies the operator.
func (o Op) holds(cmp int) bool {
	switch o {
	case OpEqual:
		return cmp == 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	case OpNotEqual:
		return cmp != 0
	default:
		return false
	}
}

// phrase returns the English wording used in check violation messages.
func (o Op) phrase() string {
	switch o {
	case OpEqual:
		return "be equal to"
	case OpGreater:
		return "be greater than"
	case OpLess:
		return "be less than"
	case OpGreaterEqual:
		return "be greater than or equal to"
	case OpLessEqual:
		return "be less than or equal to"
	case OpNotEqual:
		return "not equal"
	default:
		return "satisfy " + string(o)
	}
}

// Descriptor identifies a constraint by kind and parameters.
// Two descriptors are equal iff every populated field matches.
type Descriptor struct {
	Kind         Kind
	Columns      []string    // primary_key, unique
	Column       string      // not_null, check, default_value
	Operator     Op          // check
	CompareValue table.Value // check
	DefaultValue table.Value // default_value
}

// Target returns the columns the descriptor applies to.
func (d Descriptor) Target() []string {
	if d.Kind.multiColumn() {
		return slices.Clone(d.Columns)
	}
	return []string{d.Column}
}

// Covers reports whether column is one of the descriptor's targets.
func (d Descriptor) Covers(column string) bool {
	if d.Kind.multiColumn() {
		return slices.Contains(d.Columns, column)
	}
	return d.Column == column
}

// Equal reports whether d and o describe the same constraint.
// Int and Float parameters are equal when numerically equal, so
// check(Age > 1) and check(Age > 1.0) are the same constraint.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Kind == o.Kind &&
		d.Column == o.Column &&
		slices.Equal(d.Columns, o.Columns) &&
		d.Operator == o.Operator &&
		sameParam(d.CompareValue, o.CompareValue) &&
		sameParam(d.DefaultValue, o.DefaultValue)
}

func sameParam(a, b table.Value) bool {
	if isNumber(a) && isNumber(b) {
		return table.Equal(a, b)
	}
	return table.Same(a, b)
}

func isNumber(v table.Value) bool {
	return v.Kind() == table.KindInt || v.Kind() == table.KindFloat
}

// clone returns a copy that shares no slices with d.
func (d Descriptor) clone() Descriptor {
	d.Columns = slices.Clone(d.Columns)
	return d
}

// String renders the descriptor in a compact, SQL-like form.
func (d Descriptor) String() string {
	switch d.Kind {
	case KindPrimaryKey, KindUnique:
		return d.Kind.label() + " " + formatColumns(d.Columns)
	case KindCheck:
		return "CHECK " + d.Column + " " + string(d.Operator) + " " + d.CompareValue.String()
	case KindDefaultValue:
		return d.Column + " DEFAULT " + d.DefaultValue.String()
	default:
		return d.Column + " " + d.Kind.label()
	}
}

// ValidateFunc checks (and for defaults, heals) a loaded table.
type ValidateFunc func(t *table.Table) error

// Constraint pairs a validation function with the descriptor that
// identifies it. Constraints are compared by pointer identity.
type Constraint struct {
	desc     Descriptor
	validate ValidateFunc
}

// New wraps a custom validation function under the given descriptor.
func New(desc Descriptor, fn ValidateFunc) *Constraint {
	return &Constraint{desc: desc.clone(), validate: fn}
}

// Descriptor returns a copy of the constraint's descriptor.
func (c *Constraint) Descriptor() Descriptor { return c.desc.clone() }

// Kind returns the constraint kind.
func (c *Constraint) Kind() Kind { return c.desc.Kind }

// Apply runs the constraint against t.
func (c *Constraint) Apply(t *table.Table) error { return c.validate(t) }

// String renders the constraint's descriptor.
func (c *Constraint) String() string { return c.desc.String() }
