package pv

import (
	"errors"
	"fmt"
	"math"
)

// Value errors.
var (
	ErrTypeMismatch = errors.New("value not convertible to endpoint type")
)

// ValueType declares the coercion contract of an endpoint.
type ValueType uint8

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeFloat
	ValueTypeInt
	ValueTypeBool
	ValueTypeString
)

// String returns the value type name.
func (t ValueType) String() string {
	switch t {
	case ValueTypeFloat:
		return "float"
	case ValueTypeInt:
		return "int"
	case ValueTypeBool:
		return "bool"
	case ValueTypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a typed PV value. The zero Value has type ValueTypeUnknown.
type Value struct {
	typ ValueType
	f   float64
	i   int64
	b   bool
	s   string
}

// Float returns a float-typed value.
func Float(f float64) Value { return Value{typ: ValueTypeFloat, f: f} }

// Int returns an int-typed value.
func Int(i int64) Value { return Value{typ: ValueTypeInt, i: i} }

// Bool returns a bool-typed value.
func Bool(b bool) Value { return Value{typ: ValueTypeBool, b: b} }

// String returns a string-typed value.
func String(s string) Value { return Value{typ: ValueTypeString, s: s} }

// Type returns the value's type.
func (v Value) Type() ValueType { return v.typ }

// IsZero reports whether the value is the zero Value.
func (v Value) IsZero() bool { return v.typ == ValueTypeUnknown }

// AsFloat returns the float representation. Valid for float and int values.
func (v Value) AsFloat() float64 {
	if v.typ == ValueTypeInt {
		return float64(v.i)
	}
	return v.f
}

// AsInt returns the int representation. Valid for int values.
func (v Value) AsInt() int64 { return v.i }

// AsBool returns the bool representation. Valid for bool values.
func (v Value) AsBool() bool { return v.b }

// AsString returns the string representation. Valid for string values.
func (v Value) AsString() string { return v.s }

// Raw returns the untyped value handed to the transport.
func (v Value) Raw() any {
	switch v.typ {
	case ValueTypeFloat:
		return v.f
	case ValueTypeInt:
		return v.i
	case ValueTypeBool:
		return v.b
	case ValueTypeString:
		return v.s
	default:
		return nil
	}
}

// Equal compares two values. Numeric values compare within tolerance,
// all others require exact equality. Values of different types are never
// equal, except that int and float compare numerically.
func (v Value) Equal(other Value, tolerance float64) bool {
	if v.isNumeric() && other.isNumeric() {
		return math.Abs(v.AsFloat()-other.AsFloat()) <= tolerance
	}
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case ValueTypeBool:
		return v.b == other.b
	case ValueTypeString:
		return v.s == other.s
	default:
		return false
	}
}

func (v Value) isNumeric() bool {
	return v.typ == ValueTypeFloat || v.typ == ValueTypeInt
}

// GoString formats the value for logs and shell output.
func (v Value) GoString() string {
	switch v.typ {
	case ValueTypeFloat:
		return fmt.Sprintf("%g", v.f)
	case ValueTypeInt:
		return fmt.Sprintf("%d", v.i)
	case ValueTypeBool:
		return fmt.Sprintf("%t", v.b)
	case ValueTypeString:
		return v.s
	default:
		return "<unset>"
	}
}

// Coerce converts a caller- or transport-supplied value to the given type.
// Numeric kinds convert freely as long as the result is representable;
// binary PVs additionally accept 0/1 numerics, matching common practice for
// hardware gateways that expose switches as integer records.
func Coerce(t ValueType, raw any) (Value, error) {
	if v, ok := raw.(Value); ok {
		raw = v.Raw()
	}
	switch t {
	case ValueTypeFloat:
		f, ok := toFloat64(raw)
		if !ok {
			return Value{}, fmt.Errorf("%w: %T is not numeric", ErrTypeMismatch, raw)
		}
		return Float(f), nil

	case ValueTypeInt:
		if i, ok := toInt64(raw); ok {
			return Int(i), nil
		}
		if f, ok := toFloat64(raw); ok && f == math.Trunc(f) {
			return Int(int64(f)), nil
		}
		return Value{}, fmt.Errorf("%w: %T is not an integer", ErrTypeMismatch, raw)

	case ValueTypeBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
		if i, ok := toInt64(raw); ok && (i == 0 || i == 1) {
			return Bool(i == 1), nil
		}
		if f, ok := toFloat64(raw); ok && (f == 0 || f == 1) {
			return Bool(f == 1), nil
		}
		return Value{}, fmt.Errorf("%w: %T is not a bool", ErrTypeMismatch, raw)

	case ValueTypeString:
		if s, ok := raw.(string); ok {
			return String(s), nil
		}
		if b, ok := raw.([]byte); ok {
			return String(string(b)), nil
		}
		return Value{}, fmt.Errorf("%w: %T is not a string", ErrTypeMismatch, raw)

	default:
		return Value{}, fmt.Errorf("%w: endpoint has unknown type", ErrTypeMismatch)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
