// Package fileframe wraps a table together with the constraints it must
// satisfy.
//
// A FileFrame owns exactly one table and one constraint registry. Every load
// replaces the table as a whole and then runs the registry against it, so a
// caller that gets a nil error back knows the current table satisfies every
// registered constraint:
//
//	ff := fileframe.NewEmpty()
//	_ = ff.AddConstraint(constraint.DefaultValue("Name", "unknown"))
//	_ = ff.AddConstraint(constraint.PrimaryKey("Id"))
//	if err := ff.ReadCSV(ctx, "people.csv"); err != nil {
//	    // *constraint.ConstraintViolation, or a load error
//	}
//
// Constraints run in registration order. A FileFrame is not safe for
// concurrent use.
package fileframe

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/loader"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// FileFrame is a table plus its constraint registry.
type FileFrame struct {
	tbl    *table.Table
	reg    constraint.Registry
	loadID uuid.UUID
}

// New creates a FileFrame seeded with cols. No constraints are registered
// yet, so the seed data is not validated.
func New(cols ...table.Column) (*FileFrame, error) {
	tbl, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	return &FileFrame{tbl: tbl, loadID: uuid.New()}, nil
}

// NewEmpty creates a FileFrame with an empty table.
func NewEmpty() *FileFrame {
	return &FileFrame{tbl: table.Empty()}
}

// ============================================================================
// Constraints
// ============================================================================

// AddConstraint registers c. See constraint.Registry.Add for the rules.
func (f *FileFrame) AddConstraint(c *constraint.Constraint) error {
	return f.reg.Add(c)
}

// RemoveConstraint unregisters c. Unknown constraints are ignored.
func (f *FileFrame) RemoveConstraint(c *constraint.Constraint) {
	f.reg.Remove(c)
}

// Constraints returns the registered constraints in evaluation order.
func (f *FileFrame) Constraints() []*constraint.Constraint {
	return f.reg.Constraints()
}

// ConstraintDetails returns the descriptors of the registered constraints.
func (f *FileFrame) ConstraintDetails() []constraint.Descriptor {
	return f.reg.Descriptors()
}

// Validate runs every registered constraint against the current table.
func (f *FileFrame) Validate() error {
	return f.reg.Validate(f.tbl)
}

// ============================================================================
// Loads
// ============================================================================

// Load replaces the table with the one produced by src and validates it.
//
// If src fails the previous table is kept. If validation fails the new
// table is kept, including any defaults filled before the failure.
func (f *FileFrame) Load(ctx context.Context, src loader.Source) error {
	tbl, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load table: %w", err)
	}
	f.tbl = tbl
	f.loadID = uuid.New()
	return f.reg.Validate(tbl)
}

// ReadCSV loads a delimited file.
func (f *FileFrame) ReadCSV(ctx context.Context, path string, opts ...loader.Option) error {
	return f.Load(ctx, loader.CSV(path, opts...))
}

// ReadFixedWidth loads a fixed-width file.
func (f *FileFrame) ReadFixedWidth(ctx context.Context, path string, specs []loader.FieldSpec, opts ...loader.Option) error {
	return f.Load(ctx, loader.FixedWidth(path, specs, opts...))
}

// ReadExcel loads one sheet of a workbook.
func (f *FileFrame) ReadExcel(ctx context.Context, path string, opts ...loader.Option) error {
	return f.Load(ctx, loader.Excel(path, opts...))
}

// ReadMap loads in-memory column data.
func (f *FileFrame) ReadMap(data map[string][]any, opts ...loader.Option) error {
	return f.Load(context.Background(), loader.Map(data, opts...))
}

// ReadColumns loads pre-built columns.
func (f *FileFrame) ReadColumns(cols ...table.Column) error {
	return f.Load(context.Background(), loader.Columns(cols...))
}

// ============================================================================
// Accessors
// ============================================================================

// Table returns the current table. It is the live table, not a copy.
func (f *FileFrame) Table() *table.Table { return f.tbl }

// ColumnNames returns the column names in order.
func (f *FileFrame) ColumnNames() []string { return f.tbl.ColumnNames() }

// ColumnTypes maps each column name to its type.
func (f *FileFrame) ColumnTypes() map[string]table.ColumnType { return f.tbl.ColumnTypes() }

// FindDuplicates returns the rows that repeat an earlier (or later, per keep)
// combination of values across cols.
func (f *FileFrame) FindDuplicates(cols []string, keep table.Keep) (*table.Table, error) {
	return f.tbl.Duplicates(cols, keep)
}

// LoadID identifies the current table. It changes on every load that
// produced a table and is the zero UUID for a frame that has never held data.
func (f *FileFrame) LoadID() uuid.UUID { return f.loadID }

// String summarizes the frame.
func (f *FileFrame) String() string {
	return fmt.Sprintf("FileFrame(rows=%d, columns=%d, constraints=%d)",
		f.tbl.NumRows(), f.tbl.NumColumns(), f.reg.Len())
}
