// Package constraint implements SQL-like integrity constraints over a
// table.Table: the constraint builders, the per-table registry that
// de-duplicates them, and the validation engine that applies them.
//
// Constraints run in registration order. Default-value constraints mutate
// the table, so register them before the constraints they are meant to
// satisfy. Nothing is reordered and nothing is rolled back.
package constraint

import (
	"slices"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// Registry is the ordered set of constraints owned by one table wrapper.
// The zero value is ready to use. A Registry is not safe for concurrent use.
type Registry struct {
	entries []*Constraint
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: []*Constraint{}}
}

// Add registers c after checking it against every registered constraint.
//
// It fails with DuplicatePrimaryKey if c is a second primary key, with
// PrimaryKeyNotNullConflict if c is a NOT NULL on a primary key column, and
// with DuplicateConstraint if an identical constraint is already present.
// A primary key over a column that already has NOT NULL is accepted.
func (r *Registry) Add(c *Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	in := c.desc
	for _, existing := range r.entries {
		have := existing.desc

		if in.Kind == KindPrimaryKey && have.Kind == KindPrimaryKey {
			return &ConstraintViolation{
				Kind:       DuplicatePrimaryKey,
				Constraint: KindPrimaryKey,
				Columns:    in.Target(),
				Row:        -1,
			}
		}

		if in.Kind == KindNotNull && have.Kind == KindPrimaryKey && have.Covers(in.Column) {
			return &ConstraintViolation{
				Kind:       PrimaryKeyNotNullConflict,
				Constraint: KindNotNull,
				Columns:    []string{in.Column},
				Row:        -1,
			}
		}

		if in.Equal(have) {
			return &ConstraintViolation{
				Kind:       DuplicateConstraint,
				Constraint: in.Kind,
				Columns:    in.Target(),
				Row:        -1,
			}
		}
	}

	r.entries = append(r.entries, c)
	return nil
}

// Remove unregisters c. Removing a constraint that is not registered is a no-op.
func (r *Registry) Remove(c *Constraint) {
	r.entries = slices.DeleteFunc(r.entries, func(e *Constraint) bool { return e == c })
}

// Contains reports whether c is registered.
func (r *Registry) Contains(c *Constraint) bool {
	return slices.Contains(r.entries, c)
}

// Len returns the number of registered constraints.
func (r *Registry) Len() int { return len(r.entries) }

// Constraints returns the registered constraints in evaluation order.
// The returned slice is a copy.
func (r *Registry) Constraints() []*Constraint {
	return slices.Clone(r.entries)
}

// Descriptors returns copies of the registered descriptors in evaluation order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.entries))
	for i, c := range r.entries {
		out[i] = c.Descriptor()
	}
	return out
}

// Validate runs every registered constraint against t in registration order
// and returns the first failure. Default fills applied before the failure
// stay applied.
func (r *Registry) Validate(t *table.Table) error {
	for _, c := range r.entries {
		if err := c.Apply(t); err != nil {
			return err
		}
	}
	return nil
}
