package constraint

// builders.go is the constraint factory: one builder per constraint kind.
//
// Every builder captures its parameters in an explicit Descriptor alongside
// the validation function, so the registry can compare constraints without
// running them.

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// NotNull fails with NotNullViolation if any value in column is null.
func NotNull(column string) *Constraint {
	desc := Descriptor{Kind: KindNotNull, Column: column}
	return New(desc, func(t *table.Table) error {
		col, err := t.Column(column)
		if err != nil {
			return missingColumn(NotNullViolation, KindNotNull, err, column)
		}
		for r, v := range col.Values {
			if v.IsNull() {
				return violation(NotNullViolation, KindNotNull, r, column)
			}
		}
		return nil
	})
}

// PrimaryKey fails with PrimaryKeyNull if any row has a null in any of
// columns, otherwise with PrimaryKeyDuplicate if a key combination repeats.
func PrimaryKey(columns ...string) *Constraint {
	columns = slices.Clone(columns)
	desc := Descriptor{Kind: KindPrimaryKey, Columns: columns}
	return New(desc, func(t *table.Table) error {
		cols, err := t.Columns(columns)
		if err != nil {
			return missingColumn(PrimaryKeyNull, KindPrimaryKey, err, columns...)
		}
		for r := 0; r < t.NumRows(); r++ {
			for _, c := range cols {
				if c.Values[r].IsNull() {
					return violation(PrimaryKeyNull, KindPrimaryKey, r, columns...)
				}
			}
		}

		r, err := t.FirstDuplicate(columns, false)
		if err != nil {
			return missingColumn(PrimaryKeyDuplicate, KindPrimaryKey, err, columns...)
		}
		if r >= 0 {
			return violation(PrimaryKeyDuplicate, KindPrimaryKey, r, columns...)
		}
		return nil
	})
}

// Unique fails with UniqueDuplicate if a combination of values across
// columns repeats. Rows with a null in any key column never collide.
func Unique(columns ...string) *Constraint {
	columns = slices.Clone(columns)
	desc := Descriptor{Kind: KindUnique, Columns: columns}
	return New(desc, func(t *table.Table) error {
		r, err := t.FirstDuplicate(columns, true)
		if err != nil {
			return missingColumn(UniqueDuplicate, KindUnique, err, columns...)
		}
		if r >= 0 {
			return violation(UniqueDuplicate, KindUnique, r, columns...)
		}
		return nil
	})
}

// Check fails with CheckFailed if any value in column does not satisfy
// "value <op> compare". The operator is trimmed and matched
// case-insensitively; anything other than =, >, <, >=, <=, != fails here
// with UnsupportedOperator rather than at validation time.
//
// A null cell satisfies only !=. Cells of a kind unrelated to compare are
// unequal to it; under an ordering operator they fail the check and the
// violation wraps table.ErrIncomparable.
func Check(column, op string, compare any) (*Constraint, error) {
	parsed, ok := ParseOp(op)
	if !ok {
		return nil, &ConstraintViolation{
			Kind:       UnsupportedOperator,
			Constraint: KindCheck,
			Columns:    []string{column},
			Operator:   op,
			Row:        -1,
		}
	}
	value, err := table.ValueOf(compare)
	if err != nil {
		return nil, err
	}

	desc := Descriptor{Kind: KindCheck, Column: column, Operator: parsed, CompareValue: value}
	return New(desc, func(t *table.Table) error {
		col, err := t.Column(column)
		if err != nil {
			return missingColumn(CheckFailed, KindCheck, err, column)
		}
		for r, cell := range col.Values {
			if ok, err := satisfies(cell, parsed, value); !ok {
				cv := violation(CheckFailed, KindCheck, r, column)
				cv.Operator = string(parsed)
				cv.Value = value
				cv.Err = err
				return cv
			}
		}
		return nil
	}), nil
}

// MustCheck is like Check but panics on an unsupported operator.
func MustCheck(column, op string, compare any) *Constraint {
	c, err := Check(column, op, compare)
	if err != nil {
		panic(err)
	}
	return c
}

func satisfies(cell table.Value, op Op, value table.Value) (bool, error) {
	if cell.IsNull() || value.IsNull() {
		return op == OpNotEqual, nil
	}
	cmp, err := table.Compare(cell, value)
	if err != nil {
		switch op {
		case OpEqual:
			return false, nil
		case OpNotEqual:
			return true, nil
		}
		return false, err
	}
	return op.holds(cmp), nil
}

// DefaultValue replaces null entries in column with value, in place.
// It never reports a violation; only a missing column is an error.
// value must be a scalar accepted by table.ValueOf, anything else panics.
// Fill options are applied but do not take part in duplicate detection.
func DefaultValue(column string, value any, opts ...FillOption) *Constraint {
	fill := table.MustValueOf(value)
	var cfg fillConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	desc := Descriptor{Kind: KindDefaultValue, Column: column, DefaultValue: fill}
	return New(desc, func(t *table.Table) error {
		col, err := t.Column(column)
		if err != nil {
			return fmt.Errorf("DEFAULT constraint: %w", err)
		}
		fillNulls(col.Values, fill, cfg)
		return nil
	})
}

func missingColumn(kind ViolationKind, on Kind, err error, cols ...string) error {
	if !errors.Is(err, table.ErrColumnNotFound) {
		return err
	}
	cv := violation(kind, on, -1, cols...)
	cv.Err = err
	return cv
}
