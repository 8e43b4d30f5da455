package constraint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// ErrNilConstraint is returned when a nil constraint is registered.
var ErrNilConstraint = errors.New("nil constraint")

// ViolationKind tags a ConstraintViolation.
type ViolationKind int

const (
	NotNullViolation ViolationKind = iota + 1
	PrimaryKeyNull
	PrimaryKeyDuplicate
	UniqueDuplicate
	CheckFailed
	UnsupportedOperator
	DuplicatePrimaryKey
	PrimaryKeyNotNullConflict
	DuplicateConstraint
)

// String returns the kind name used in logs and API responses.
func (k ViolationKind) String() string {
	switch k {
	case NotNullViolation:
		return "NotNull"
	case PrimaryKeyNull:
		return "PrimaryKeyNull"
	case PrimaryKeyDuplicate:
		return "PrimaryKeyDuplicate"
	case UniqueDuplicate:
		return "UniqueDuplicate"
	case CheckFailed:
		return "CheckFailed"
	case UnsupportedOperator:
		return "UnsupportedOperator"
	case DuplicatePrimaryKey:
		return "DuplicatePrimaryKey"
	case PrimaryKeyNotNullConflict:
		return "PrimaryKeyNotNullConflict"
	case DuplicateConstraint:
		return "DuplicateConstraint"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

// ConstraintViolation is the single error type raised by builders, the
// registry and the validation engine.
type ConstraintViolation struct {
	Kind     ViolationKind
	Columns  []string    // Offending column(s)
	Operator string      // Check operator, as given
	Value    table.Value // Check comparison value
	Row      int         // First offending row, -1 when not row-specific

	// Constraint is the kind of constraint that raised the violation.
	Constraint Kind

	// Err is an underlying cause such as table.ErrColumnNotFound.
	Err error
}

func (e *ConstraintViolation) Error() string {
	if errors.Is(e.Err, table.ErrColumnNotFound) {
		return fmt.Sprintf("%s constraint: %v", e.Constraint.label(), e.Err)
	}

	switch e.Kind {
	case NotNullViolation:
		return fmt.Sprintf("NOT NULL constraint: %s cannot have null values", e.column())
	case PrimaryKeyNull:
		return fmt.Sprintf("PRIMARY KEY constraint: %s cannot have null values", formatColumns(e.Columns))
	case PrimaryKeyDuplicate:
		return fmt.Sprintf("PRIMARY KEY constraint: %s cannot have duplicate values", formatColumns(e.Columns))
	case UniqueDuplicate:
		return fmt.Sprintf("UNIQUE constraint: %s cannot have duplicate values", formatColumns(e.Columns))
	case CheckFailed:
		return fmt.Sprintf("CHECK constraint: all values in %s must %s %s",
			e.column(), Op(e.Operator).phrase(), e.Value)
	case UnsupportedOperator:
		return fmt.Sprintf("unsupported check operator: %q", e.Operator)
	case DuplicatePrimaryKey:
		return "only one PRIMARY KEY constraint is allowed per table"
	case PrimaryKeyNotNullConflict:
		return fmt.Sprintf("column %s is already NOT NULL through the PRIMARY KEY constraint", e.column())
	case DuplicateConstraint:
		target := e.column()
		if len(e.Columns) > 1 || e.Constraint.multiColumn() {
			target = formatColumns(e.Columns)
		}
		return fmt.Sprintf("%s constraint already exists on column(s) %s", e.Constraint, target)
	default:
		return "constraint violation"
	}
}

// Unwrap returns the underlying cause, if any.
func (e *ConstraintViolation) Unwrap() error { return e.Err }

func (e *ConstraintViolation) column() string {
	if len(e.Columns) == 0 {
		return ""
	}
	return e.Columns[0]
}

// KindOf extracts the violation kind from err, if err is or wraps a
// ConstraintViolation.
func KindOf(err error) (ViolationKind, bool) {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a violation of the given kind.
func IsKind(err error, kind ViolationKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// formatColumns renders a column list as [A, B].
func formatColumns(cols []string) string {
	return "[" + strings.Join(cols, ", ") + "]"
}

func violation(kind ViolationKind, on Kind, row int, cols ...string) *ConstraintViolation {
	return &ConstraintViolation{Kind: kind, Constraint: on, Columns: cols, Row: row}
}
