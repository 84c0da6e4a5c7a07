// Package data contains the runtime value model of the template language.
package data

import (
	"math"
	"strconv"
	"strings"
)

// Value represents a template data value, which may be one of the enumerated types.
type Value interface {
	// Truthy returns true according to the Jinja definition of truthy and falsy values.
	Truthy() bool

	// String formats this value for display in a template.
	String() string

	// Equals returns true if the two values are equal.  Specifically, if:
	// - They are comparable: they have the same Type, or they are Int and Float
	// - (Primitives) They have the same value
	// - (Lists, Maps) They have equal elements, in the same order for lists
	// - (Namespaces, Callables) They are the same instance
	// Uncomparable types and unequal values return false.
	Equals(other Value) bool
}

// Value types
type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	Int       int64
	Float     float64
	String    string
	List      []Value
)

// Index retrieves a value from this list, or Undefined if out of bounds.
// Negative indices count from the end.
func (v List) Index(i int) Value {
	if i < 0 {
		i += len(v)
	}
	if !(0 <= i && i < len(v)) {
		return Undefined{}
	}
	return v[i]
}

// Truthy ----------

func (v Undefined) Truthy() bool { return false }
func (v Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool      { return bool(v) }
func (v Int) Truthy() bool       { return v != 0 }
func (v Float) Truthy() bool     { return v != 0.0 }
func (v String) Truthy() bool    { return v != "" }
func (v List) Truthy() bool      { return len(v) > 0 }

// String ----------

func (v Undefined) String() string { return "" }
func (v Null) String() string      { return "None" }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return formatFloat(float64(v)) }
func (v String) String() string    { return string(v) }

func (v List) String() string {
	var items = make([]string, len(v))
	for i, item := range v {
		items[i] = Repr(item)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// formatFloat renders f the way Python's repr does: the shortest
// representation that round-trips, always with a fractional part or an
// exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	var sci = strconv.FormatFloat(f, 'e', -1, 64)
	var exp, _ = strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	var s = strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Repr returns the representation of v used when it is nested inside a list
// or map: strings are quoted, everything else uses String.
func Repr(v Value) string {
	if s, ok := v.(String); ok {
		return quote(string(s))
	}
	if _, ok := v.(Undefined); ok {
		return "Undefined"
	}
	return v.String()
}

// quote quotes s with single quotes unless it contains single quotes and no
// double quotes.
func quote(s string) string {
	var q = byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			b.WriteString(`\x`)
			b.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// Equals ----------

func (v Undefined) Equals(other Value) bool {
	_, ok := other.(Undefined)
	return ok
}

func (v Null) Equals(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (v Bool) Equals(other Value) bool {
	if o, ok := other.(Bool); ok {
		return bool(v) == bool(o)
	}
	return false
}

func (v String) Equals(other Value) bool {
	if o, ok := other.(String); ok {
		return string(v) == string(o)
	}
	return false
}

func (v List) Equals(other Value) bool {
	o, ok := other.(List)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if !v[i].Equals(o[i]) {
			return false
		}
	}
	return true
}

func (v Int) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return v == o
	case Float:
		return float64(v) == float64(o)
	}
	return false
}

func (v Float) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return float64(v) == float64(o)
	case Float:
		return v == o
	}
	return false
}

// TypeName returns the name of the value's type, for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "none"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case *Map:
		return "dict"
	case *Namespace:
		return "namespace"
	case *Callable:
		return "callable"
	}
	return "unknown"
}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v Value) bool {
	_, ok := v.(Undefined)
	return ok
}

// IsNone reports whether v is Null or Undefined.
func IsNone(v Value) bool {
	switch v.(type) {
	case Null, Undefined, nil:
		return true
	}
	return false
}
