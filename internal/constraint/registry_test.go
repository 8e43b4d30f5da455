package constraint

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// ============================================================================
// Registry.Add Tests
// ============================================================================

func TestRegistry_Add_Duplicates(t *testing.T) {
	tests := []struct {
		name   string
		first  *Constraint
		second *Constraint
		kind   ViolationKind
		msg    string
	}{
		{
			name:   "not null twice",
			first:  NotNull("Id"),
			second: NotNull("Id"),
			kind:   DuplicateConstraint,
			msg:    "not_null constraint already exists on column(s) Id",
		},
		{
			name:   "primary key twice same columns",
			first:  PrimaryKey("City", "Test"),
			second: PrimaryKey("City", "Test"),
			kind:   DuplicatePrimaryKey,
			msg:    "only one PRIMARY KEY constraint is allowed per table",
		},
		{
			name:   "primary key twice disjoint columns",
			first:  PrimaryKey("City"),
			second: PrimaryKey("Code"),
			kind:   DuplicatePrimaryKey,
		},
		{
			name:   "not null on primary key column",
			first:  PrimaryKey("City", "Test"),
			second: NotNull("City"),
			kind:   PrimaryKeyNotNullConflict,
			msg:    "column City is already NOT NULL through the PRIMARY KEY constraint",
		},
		{
			name:   "unique twice",
			first:  Unique("City", "Code"),
			second: Unique("City", "Code"),
			kind:   DuplicateConstraint,
			msg:    "unique constraint already exists on column(s) [City, Code]",
		},
		{
			name:   "unique single column twice",
			first:  Unique("Id"),
			second: Unique("Id"),
			kind:   DuplicateConstraint,
			msg:    "unique constraint already exists on column(s) [Id]",
		},
		{
			name:   "check twice",
			first:  MustCheck("Age", ">", 0),
			second: MustCheck("Age", " > ", 0),
			kind:   DuplicateConstraint,
			msg:    "check constraint already exists on column(s) Age",
		},
		{
			name:   "check int and float bound",
			first:  MustCheck("Age", ">", 1),
			second: MustCheck("Age", ">", 1.0),
			kind:   DuplicateConstraint,
			msg:    "check constraint already exists on column(s) Age",
		},
		{
			name:   "default value twice",
			first:  DefaultValue("Id", "004"),
			second: DefaultValue("Id", "004"),
			kind:   DuplicateConstraint,
			msg:    "default_value constraint already exists on column(s) Id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.Add(tt.first); err != nil {
				t.Fatalf("Add(first) error = %v", err)
			}
			err := reg.Add(tt.second)
			assertViolation(t, err, tt.kind, tt.msg)
			if reg.Len() != 1 {
				t.Errorf("Len() = %d after rejected Add, want 1", reg.Len())
			}
		})
	}
}

func TestRegistry_Add_DistinctParametersAllowed(t *testing.T) {
	reg := NewRegistry()
	constraints := []*Constraint{
		MustCheck("Age", ">", 0),
		MustCheck("Age", ">", 1),
		MustCheck("Age", "<", 200),
		DefaultValue("Id", "004"),
		DefaultValue("Name", "004"),
		Unique("City"),
		Unique("City", "Code"),
		Unique("Code", "City"),
		NotNull("Name"),
		PrimaryKey("Test"),
	}
	for _, c := range constraints {
		if err := reg.Add(c); err != nil {
			t.Fatalf("Add(%s) error = %v", c, err)
		}
	}
	if reg.Len() != len(constraints) {
		t.Errorf("Len() = %d, want %d", reg.Len(), len(constraints))
	}
}

func TestRegistry_Add_PrimaryKeyOverNotNull(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(NotNull("City")); err != nil {
		t.Fatalf("Add(not null) error = %v", err)
	}
	if err := reg.Add(PrimaryKey("City", "Test")); err != nil {
		t.Errorf("Add(primary key) after not null on City error = %v, want nil", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
}

func TestRegistry_Add_Nil(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(nil); !errors.Is(err, ErrNilConstraint) {
		t.Errorf("Add(nil) error = %v, want ErrNilConstraint", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after Add(nil), want 0", reg.Len())
	}
}

func TestRegistry_Add_CheckValueKindMatters(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(MustCheck("Code", "=", 1)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(MustCheck("Code", "=", "1")); err != nil {
		t.Errorf("Add(Code = \"1\") after Add(Code = 1) error = %v, want nil", err)
	}
}

// ============================================================================
// Registry.Remove / snapshot Tests
// ============================================================================

func TestRegistry_Remove(t *testing.T) {
	pk := PrimaryKey("City", "Test")
	check := MustCheck("Age", ">", 10)
	unique := Unique("Id")
	notNull := NotNull("Id")

	reg := NewRegistry()
	for _, c := range []*Constraint{pk, check, unique, notNull} {
		if err := reg.Add(c); err != nil {
			t.Fatalf("Add(%s) error = %v", c, err)
		}
	}

	reg.Remove(check)
	if got := reg.Constraints(); len(got) != 3 || got[0] != pk || got[1] != unique || got[2] != notNull {
		t.Errorf("Constraints() after Remove = %v, want [pk unique notNull]", got)
	}

	for _, c := range []*Constraint{pk, unique, notNull} {
		reg.Remove(c)
	}
	if reg.Len() != 0 || len(reg.Descriptors()) != 0 {
		t.Errorf("Len() = %d, Descriptors() = %d, want 0, 0", reg.Len(), len(reg.Descriptors()))
	}

	// removing an unregistered constraint is a no-op
	reg.Remove(NotNull("Other"))
}

func TestRegistry_Remove_ByIdentityNotEquality(t *testing.T) {
	a := NotNull("Id")
	b := NotNull("Id")

	reg := NewRegistry()
	if err := reg.Add(a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	reg.Remove(b)
	if !reg.Contains(a) {
		t.Error("Remove(equal but distinct constraint) removed the registered one")
	}
}

func TestRegistry_SnapshotsAreCopies(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(PrimaryKey("A", "B")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	cs := reg.Constraints()
	cs[0] = nil
	if reg.Constraints()[0] == nil {
		t.Error("mutating Constraints() result changed registry")
	}

	ds := reg.Descriptors()
	ds[0].Columns[0] = "Z"
	if got := reg.Descriptors()[0].Columns[0]; got != "A" {
		t.Errorf("mutating Descriptors() result changed registry: Columns[0] = %q", got)
	}
}

func TestPrimaryKey_CallerSliceIsCopied(t *testing.T) {
	cols := []string{"A"}
	pk := PrimaryKey(cols...)
	cols[0] = "B"
	if got := pk.Descriptor().Columns[0]; got != "A" {
		t.Errorf("Descriptor().Columns[0] = %q, want %q", got, "A")
	}
}

func TestZeroRegistry(t *testing.T) {
	var reg Registry
	if err := reg.Add(NotNull("A")); err != nil {
		t.Fatalf("zero Registry Add() error = %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

// ============================================================================
// Validation Engine Tests
// ============================================================================

func TestValidate_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	probe := func(name string, fail bool) *Constraint {
		return New(Descriptor{Kind: KindCheck, Column: name}, func(*table.Table) error {
			ran = append(ran, name)
			if fail {
				return violation(CheckFailed, KindCheck, 0, name)
			}
			return nil
		})
	}

	reg := NewRegistry()
	for _, c := range []*Constraint{probe("a", false), probe("b", true), probe("c", false)} {
		if err := reg.Add(c); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	err := reg.Validate(table.Empty())
	assertViolation(t, err, CheckFailed, "")
	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Errorf("ran = %v, want [a b]", ran)
	}
}

func TestValidate_DefaultBeforeNotNullHeals(t *testing.T) {
	tbl := sampleTable(t)

	reg := NewRegistry()
	if err := reg.Add(DefaultValue("Name", "unknown")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(NotNull("Name")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Validate(tbl); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_NotNullBeforeDefaultFails(t *testing.T) {
	tbl := sampleTable(t)

	reg := NewRegistry()
	_ = reg.Add(NotNull("Name"))
	_ = reg.Add(DefaultValue("Name", "unknown"))

	assertViolation(t, reg.Validate(tbl), NotNullViolation, "NOT NULL constraint: Name cannot have null values")
}

func TestValidate_FillsPersistAfterLaterFailure(t *testing.T) {
	tbl := sampleTable(t)

	reg := NewRegistry()
	_ = reg.Add(DefaultValue("Name", "unknown"))
	_ = reg.Add(MustCheck("Age", ">", 100))

	assertViolation(t, reg.Validate(tbl), CheckFailed, "")

	col, _ := tbl.Column("Name")
	if col.HasNulls() {
		t.Error("default fill was rolled back after later failure")
	}
}
