// Package rules reads declarative constraint files.
//
// A rule file lists constraints in evaluation order. Each entry names
// exactly one constraint kind:
//
//	constraints:
//	  - default_value: {column: Name, value: unknown}
//	  - primary_key: [Id]
//	  - not_null: City
//	  - unique: [City, Code]
//	  - check: {column: Age, operator: ">", value: 10}
//	  - check: {column: Score, operator: ">=", value: 2, type: float}
//
// A whole number is read as an int unless the entry says type: float.
// Files are YAML; since YAML is a superset of JSON, JSON files work too.
// Every entry maps onto one constraint builder call.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"sigs.k8s.io/yaml"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// ErrEmptyRule is returned for an entry that names no constraint kind.
var ErrEmptyRule = errors.New("rule names no constraint")

// RuleSet is a decoded rule file.
type RuleSet struct {
	Constraints []Rule `json:"constraints"`
}

// Rule is one entry of a rule file. Exactly one field is set.
type Rule struct {
	NotNull      string       `json:"not_null,omitempty"`
	PrimaryKey   Columns      `json:"primary_key,omitempty"`
	Unique       Columns      `json:"unique,omitempty"`
	Check        *CheckRule   `json:"check,omitempty"`
	DefaultValue *DefaultRule `json:"default_value,omitempty"`
}

// CheckRule holds the parameters of a check constraint.
type CheckRule struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
	Type     string `json:"type,omitempty"` // "int" or "float"; inferred when empty
}

// DefaultRule holds the parameters of a default value constraint.
// Method is "ffill" or "bfill"; Limit caps how many nulls are filled.
type DefaultRule struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
	Type   string `json:"type,omitempty"`
	Method string `json:"method,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Columns is a column list that also accepts a single bare name.
type Columns []string

// UnmarshalJSON accepts "A" as well as ["A", "B"].
func (c *Columns) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = Columns{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("columns must be a name or a list of names")
	}
	*c = many
	return nil
}

// useNumber keeps integer literals integral instead of decoding them as float64.
func useNumber(d *json.Decoder) *json.Decoder {
	d.UseNumber()
	return d
}

// Parse decodes a rule file. Unknown keys are rejected.
func Parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.UnmarshalStrict(data, &rs, useNumber); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, r := range rs.Constraints {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return &rs, nil
}

// LoadFile reads and parses the rule file at path.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

func (r Rule) validate() error {
	set := 0
	if r.NotNull != "" {
		set++
	}
	if len(r.PrimaryKey) > 0 {
		set++
	}
	if len(r.Unique) > 0 {
		set++
	}
	if r.Check != nil {
		set++
		if r.Check.Column == "" {
			return errors.New("check: column is required")
		}
	}
	if r.DefaultValue != nil {
		set++
		if r.DefaultValue.Column == "" {
			return errors.New("default_value: column is required")
		}
	}
	switch set {
	case 0:
		return ErrEmptyRule
	case 1:
		return nil
	default:
		return fmt.Errorf("rule names %d constraints, want 1", set)
	}
}

// Build creates one constraint per rule, in file order.
func (rs *RuleSet) Build() ([]*constraint.Constraint, error) {
	out := make([]*constraint.Constraint, 0, len(rs.Constraints))
	for i, r := range rs.Constraints {
		c, err := r.build()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r Rule) build() (*constraint.Constraint, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	switch {
	case r.NotNull != "":
		return constraint.NotNull(r.NotNull), nil
	case len(r.PrimaryKey) > 0:
		return constraint.PrimaryKey(r.PrimaryKey...), nil
	case len(r.Unique) > 0:
		return constraint.Unique(r.Unique...), nil
	case r.Check != nil:
		v, err := scalar(r.Check.Value, r.Check.Type)
		if err != nil {
			return nil, fmt.Errorf("check value: %w", err)
		}
		return constraint.Check(r.Check.Column, r.Check.Operator, v)
	default:
		d := r.DefaultValue
		v, err := scalar(d.Value, d.Type)
		if err != nil {
			return nil, fmt.Errorf("default value: %w", err)
		}
		method, ok := constraint.ParseFillMethod(d.Method)
		if !ok {
			return nil, fmt.Errorf("unknown fill method %q", d.Method)
		}
		return constraint.DefaultValue(d.Column, v,
			constraint.WithFillMethod(method),
			constraint.WithFillLimit(d.Limit),
		), nil
	}
}

// scalar converts a decoded YAML scalar into a table.Value, honouring an
// explicit numeric type.
func scalar(v any, typ string) (table.Value, error) {
	n, isNumber := v.(json.Number)
	switch typ {
	case "":
	case "float":
		if !isNumber {
			return table.Null(), fmt.Errorf("type float needs a number, got %v", v)
		}
		f, err := n.Float64()
		if err != nil {
			return table.Null(), err
		}
		return table.Float(f), nil
	case "int":
		if !isNumber {
			return table.Null(), fmt.Errorf("type int needs a number, got %v", v)
		}
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return table.Null(), fmt.Errorf("type int: %w", err)
		}
		return table.Int(i), nil
	default:
		return table.Null(), fmt.Errorf("unknown value type %q", typ)
	}

	if isNumber {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return table.Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return table.Null(), err
		}
		return table.Float(f), nil
	}
	return table.ValueOf(v)
}

// typeOf marks whole-number floats, which YAML would otherwise read back as ints.
func typeOf(v table.Value) string {
	if f, ok := v.AsFloat(); ok && v.Kind() == table.KindFloat && f == math.Trunc(f) {
		return "float"
	}
	return ""
}

// Registrar is anything constraints can be registered with, such as a
// *fileframe.FileFrame.
type Registrar interface {
	AddConstraint(c *constraint.Constraint) error
	RemoveConstraint(c *constraint.Constraint)
}

// Apply builds every rule and registers the constraints in file order.
// If any registration is rejected the ones already added are removed again.
func (rs *RuleSet) Apply(reg Registrar) error {
	cs, err := rs.Build()
	if err != nil {
		return err
	}
	for i, c := range cs {
		if err := reg.AddConstraint(c); err != nil {
			for _, added := range cs[:i] {
				reg.RemoveConstraint(added)
			}
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// FromDescriptors renders registered constraints back into a rule set.
// Fill options are not part of a descriptor and are not carried over.
func FromDescriptors(descs []constraint.Descriptor) *RuleSet {
	rs := &RuleSet{Constraints: make([]Rule, 0, len(descs))}
	for _, d := range descs {
		var r Rule
		switch d.Kind {
		case constraint.KindNotNull:
			r.NotNull = d.Column
		case constraint.KindPrimaryKey:
			r.PrimaryKey = Columns(d.Columns)
		case constraint.KindUnique:
			r.Unique = Columns(d.Columns)
		case constraint.KindCheck:
			r.Check = &CheckRule{
				Column:   d.Column,
				Operator: string(d.Operator),
				Value:    d.CompareValue.Any(),
				Type:     typeOf(d.CompareValue),
			}
		case constraint.KindDefaultValue:
			r.DefaultValue = &DefaultRule{
				Column: d.Column,
				Value:  d.DefaultValue.Any(),
				Type:   typeOf(d.DefaultValue),
			}
		}
		rs.Constraints = append(rs.Constraints, r)
	}
	return rs
}

// Marshal encodes the rule set as YAML.
func (rs *RuleSet) Marshal() ([]byte, error) {
	return yaml.Marshal(rs)
}
