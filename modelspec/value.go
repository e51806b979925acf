package modelspec

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind enumerates the literal kinds a layer parameter may carry.
type ValueKind int

const (
	IntKind ValueKind = iota
	FloatKind
	BoolKind
	StringKind
	IntListKind
)

// String returns the kind name used in validation messages.
func (k ValueKind) String() string {
	switch k {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case BoolKind:
		return "bool"
	case StringKind:
		return "string"
	case IntListKind:
		return "int list"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is one parameter literal: an int, float, bool, string, or list of
// ints. Raw preserves the source spelling when the value came from a
// document so the canonical encoder can reproduce it; Raw never takes part
// in equality.
type Value struct {
	Kind  ValueKind
	Int   int
	Float float64
	Bool  bool
	Str   string
	Ints  []int
	Raw   string
}

// IntVal returns an integer Value.
func IntVal(i int) Value { return Value{Kind: IntKind, Int: i} }

// FloatVal returns a floating-point Value.
func FloatVal(f float64) Value { return Value{Kind: FloatKind, Float: f} }

// BoolVal returns a boolean Value.
func BoolVal(b bool) Value { return Value{Kind: BoolKind, Bool: b} }

// StrVal returns a string Value.
func StrVal(s string) Value { return Value{Kind: StringKind, Str: s} }

// IntsVal returns an integer-list Value. The arguments are copied.
func IntsVal(ints ...int) Value {
	return Value{Kind: IntListKind, Ints: append([]int(nil), ints...)}
}

// IsPlaceholder reports whether the value is the -1 inference sentinel.
func (v Value) IsPlaceholder() bool { return v.Kind == IntKind && v.Int == -1 }

// Equal compares two values structurally, ignoring Raw.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case IntKind:
		return v.Int == o.Int
	case FloatKind:
		return v.Float == o.Float
	case BoolKind:
		return v.Bool == o.Bool
	case StringKind:
		return v.Str == o.Str
	case IntListKind:
		if len(v.Ints) != len(o.Ints) {
			return false
		}
		for i := range v.Ints {
			if v.Ints[i] != o.Ints[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value the way the canonical document encoder spells
// it. Raw takes precedence for scalar kinds; lists are always reformatted.
func (v Value) String() string {
	if v.Raw != "" && v.Kind != IntListKind {
		return v.Raw
	}
	switch v.Kind {
	case IntKind:
		return strconv.Itoa(v.Int)
	case FloatKind:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		// Keep the literal a float so a re-parse does not turn it into an int.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case StringKind:
		return v.Str
	case IntListKind:
		parts := make([]string, len(v.Ints))
		for i, n := range v.Ints {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}
