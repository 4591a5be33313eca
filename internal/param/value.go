package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the storage type of a parameter.
type Type uint8

const (
	// TypeInvalid is the zero Type and never valid in a definition
	TypeInvalid Type = iota
	// TypeFloat is a 32-bit IEEE-754 float
	TypeFloat
	// TypeInt32 is a signed 32-bit integer
	TypeInt32
	// TypeBool is a boolean, stored as int32 0 or 1 at the wire and persistence boundary
	TypeBool
)

// String returns the persistence type-tag for the type
func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt32:
		return "int32"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the declared types
func (t Type) Valid() bool {
	return t == TypeFloat || t == TypeInt32 || t == TypeBool
}

// ParseType parses a persistence type-tag. "int" is accepted as an alias for int32.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "float32":
		return TypeFloat, nil
	case "int32", "int":
		return TypeInt32, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown parameter type %q", s)
	}
}

// Value is an immutable typed parameter value.
//
// The zero Value has TypeInvalid. Build values with Float, Int32 or Bool.
type Value struct {
	typ Type
	f   float32
	i   int32
}

// Float returns a float value
func Float(v float32) Value {
	return Value{typ: TypeFloat, f: v}
}

// Int32 returns an int32 value
func Int32(v int32) Value {
	return Value{typ: TypeInt32, i: v}
}

// Bool returns a bool value
func Bool(v bool) Value {
	if v {
		return Value{typ: TypeBool, i: 1}
	}
	return Value{typ: TypeBool}
}

// Type returns the value's type
func (v Value) Type() Type {
	return v.typ
}

// IsZero reports whether v is the zero Value (no type)
func (v Value) IsZero() bool {
	return v.typ == TypeInvalid
}

// AsFloat returns the float payload. ok is false for non-float values.
func (v Value) AsFloat() (f float32, ok bool) {
	return v.f, v.typ == TypeFloat
}

// AsInt32 returns the int32 payload. ok is false for non-int32 values.
func (v Value) AsInt32() (i int32, ok bool) {
	return v.i, v.typ == TypeInt32
}

// AsBool returns the bool payload. ok is false for non-bool values.
func (v Value) AsBool() (b bool, ok bool) {
	return v.i != 0, v.typ == TypeBool
}

// Bits returns the 32-bit wire encoding of the value
func (v Value) Bits() uint32 {
	if v.typ == TypeFloat {
		return math.Float32bits(v.f)
	}
	return uint32(v.i)
}

// FromBits decodes a 32-bit wire word as a value of type t.
// Bool words other than 0 and 1 are rejected.
func FromBits(t Type, bits uint32) (Value, error) {
	switch t {
	case TypeFloat:
		return Float(math.Float32frombits(bits)), nil
	case TypeInt32:
		return Int32(int32(bits)), nil
	case TypeBool:
		if bits > 1 {
			return Value{}, fmt.Errorf("bool word must be 0 or 1, got %d", bits)
		}
		return Bool(bits == 1), nil
	default:
		return Value{}, fmt.Errorf("cannot decode %s", t)
	}
}

// fromSlot rebuilds a value from a slot word. The slot's type is fixed, so no
// validation happens here.
func fromSlot(t Type, bits uint32) Value {
	if t == TypeFloat {
		return Value{typ: t, f: math.Float32frombits(bits)}
	}
	return Value{typ: t, i: int32(bits)}
}

// Equal reports whether both values have the same type and payload.
// Floats compare by bit pattern.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ && v.Bits() == o.Bits()
}

// finite reports whether a float value is a real number. Non-float values are always finite.
func (v Value) finite() bool {
	if v.typ != TypeFloat {
		return true
	}
	f := float64(v.f)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// compare returns -1, 0 or +1. Both values must have the same type.
func (v Value) compare(o Value) int {
	if v.typ == TypeFloat {
		switch {
		case v.f < o.f:
			return -1
		case v.f > o.f:
			return 1
		}
		return 0
	}
	switch {
	case v.i < o.i:
		return -1
	case v.i > o.i:
		return 1
	}
	return 0
}

// String formats the value in the text codec used by the CLI and persistence files
func (v Value) String() string {
	switch v.typ {
	case TypeFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case TypeInt32:
		return strconv.FormatInt(int64(v.i), 10)
	case TypeBool:
		return strconv.FormatBool(v.i != 0)
	default:
		return "<invalid>"
	}
}

// Format renders a float with the given number of decimals. Other types ignore decimals.
func (v Value) Format(decimals int) string {
	if v.typ == TypeFloat && decimals > 0 {
		return strconv.FormatFloat(float64(v.f), 'f', decimals, 32)
	}
	return v.String()
}

// ParseValue parses text as a value of type t.
// Bools accept true/false, 1/0, on/off.
func ParseValue(t Type, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q: %w", s, err)
		}
		return Float(float32(f)), nil
	case TypeInt32:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int32 %q: %w", s, err)
		}
		return Int32(int32(i)), nil
	case TypeBool:
		switch strings.ToLower(s) {
		case "true", "1", "on", "yes":
			return Bool(true), nil
		case "false", "0", "off", "no":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("invalid bool %q", s)
	default:
		return Value{}, fmt.Errorf("cannot parse value of %s", t)
	}
}

// Coerce converts a loosely typed decoded value (from YAML, JSON or HCL) into a
// Value of type t. Integral floats are accepted for int32 parameters and
// integers for float parameters; anything else must match.
func Coerce(t Type, raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		if x.typ != t {
			return Value{}, fmt.Errorf("expected %s, got %s", t, x.typ)
		}
		return x, nil
	case string:
		return ParseValue(t, x)
	case bool:
		if t != TypeBool {
			return Value{}, fmt.Errorf("expected %s, got bool", t)
		}
		return Bool(x), nil
	case int:
		return coerceInt(t, int64(x))
	case int32:
		return coerceInt(t, int64(x))
	case int64:
		return coerceInt(t, x)
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d out of range", x)
		}
		return coerceInt(t, int64(x))
	case float32:
		return coerceFloat(t, float64(x))
	case float64:
		return coerceFloat(t, x)
	case nil:
		return Value{}, fmt.Errorf("missing %s value", t)
	default:
		return Value{}, fmt.Errorf("unsupported value %T for %s", raw, t)
	}
}

func coerceInt(t Type, i int64) (Value, error) {
	switch t {
	case TypeFloat:
		return Float(float32(i)), nil
	case TypeInt32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return Value{}, fmt.Errorf("integer %d does not fit int32", i)
		}
		return Int32(int32(i)), nil
	case TypeBool:
		if i != 0 && i != 1 {
			return Value{}, fmt.Errorf("bool must be 0 or 1, got %d", i)
		}
		return Bool(i == 1), nil
	}
	return Value{}, fmt.Errorf("cannot coerce to %s", t)
}

func coerceFloat(t Type, f float64) (Value, error) {
	switch t {
	case TypeFloat:
		return Float(float32(f)), nil
	case TypeInt32, TypeBool:
		if f != math.Trunc(f) {
			return Value{}, fmt.Errorf("expected %s, got fractional %g", t, f)
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return Value{}, fmt.Errorf("integer %g does not fit int32", f)
		}
		return coerceInt(t, int64(f))
	}
	return Value{}, fmt.Errorf("cannot coerce to %s", t)
}
