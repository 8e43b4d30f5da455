package table

// value.go defines the typed, nullable cell value held by every column.
//
// A Value is a small tagged variant. Numbers compare across Int and Float,
// text compares lexically, and everything else is incomparable. Null never
// compares equal to anything, including another Null.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrIncomparable is returned when two values of unrelated kinds are compared.
var ErrIncomparable = errors.New("values are not comparable")

// ErrUnsupportedType is returned by ValueOf for Go types that have no Value kind.
var ErrUnsupportedType = errors.New("unsupported value type")

// Kind identifies the variant stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single nullable scalar cell.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value. NaN is stored as Null.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Null()
	}
	return Value{kind: KindFloat, f: v}
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a Go scalar into a Value.
// nil becomes Null. A Value is returned unchanged.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case bool:
		return Bool(x), nil
	case *string:
		if x == nil {
			return Null(), nil
		}
		return Text(*x), nil
	default:
		return Null(), fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// MustValueOf is like ValueOf but panics on unsupported types.
func MustValueOf(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsInt returns the integer payload and whether v is an Int.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns v as a float64 for Int and Float values.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsText returns the text payload and whether v is Text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsBool returns the bool payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Any returns the payload as a plain Go value (nil for Null).
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// String renders the scalar for messages and output.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<null>"
	}
}

// Key returns a canonical string used for hashing in duplicate detection.
// Integral floats share the key of the equal Int.
func (v Value) Key() string {
	switch v.kind {
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		if i, ok := integral(v.f); ok {
			return "n:" + strconv.FormatInt(i, 10)
		}
		return "n:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return "s:" + v.s
	case KindBool:
		if v.b {
			return "b:1"
		}
		return "b:0"
	default:
		return "null"
	}
}

// Same reports whether a and b hold the same kind and payload.
// Unlike Equal, two Nulls are the same. Used for descriptor identity.
func Same(a, b Value) bool {
	return a.kind == b.kind && a.i == b.i && a.f == b.f && a.s == b.s && a.b == b.b
}

// Equal reports whether a and b are equal scalars. Null equals nothing.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	c, err := Compare(a, b)
	return err == nil && c == 0
}

// Compare orders a against b, returning -1, 0 or +1.
// Int and Float compare numerically, Text lexically, Bool false before true.
// Any other pairing, including Null on either side, returns ErrIncomparable.
func Compare(a, b Value) (int, error) {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmp3(a.i < b.i, a.i > b.i), nil
	case a.kind == KindInt && b.kind == KindFloat:
		if bi, ok := integral(b.f); ok {
			return cmp3(a.i < bi, a.i > bi), nil
		}
		return cmp3(float64(a.i) < b.f, float64(a.i) > b.f), nil
	case a.kind == KindFloat && b.kind == KindInt:
		c, err := Compare(b, a)
		return -c, err
	case isNumeric(a) && isNumeric(b):
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return cmp3(af < bf, af > bf), nil
	case a.kind == KindText && b.kind == KindText:
		return cmp3(a.s < b.s, a.s > b.s), nil
	case a.kind == KindBool && b.kind == KindBool:
		return cmp3(!a.b && b.b, a.b && !b.b), nil
	default:
		return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, a.kind, b.kind)
	}
}

// integral returns f as an int64 when f is a whole number in int64 range.
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func isNumeric(v Value) bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}
