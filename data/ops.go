package data

import (
	"math"
	"math/bits"
	"strings"
	"unicode/utf8"

	"github.com/robfig/jinja/errortypes"
)

// MaxRepeat is the largest string or list that repetition with * may build.
const MaxRepeat = 1 << 20

var errOverflow = errortypes.Newf(errortypes.RuntimeError, "integer overflow")

func typeError(op string, a, b Value) error {
	return errortypes.Newf(errortypes.RuntimeError,
		"unsupported operand types for %s: '%s' and '%s'", op, TypeName(a), TypeName(b))
}

// IsNumber reports whether v is an Int or Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// ToFloat converts a number to float64.
func ToFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// numbers returns the operands as ints (when both are Int) or floats.
func numbers(a, b Value) (ai, bi int64, af, bf float64, isInt, ok bool) {
	if x, okx := a.(Int); okx {
		if y, oky := b.(Int); oky {
			return int64(x), int64(y), float64(x), float64(y), true, true
		}
	}
	if !IsNumber(a) || !IsNumber(b) {
		return 0, 0, 0, 0, false, false
	}
	af, _ = ToFloat(a)
	bf, _ = ToFloat(b)
	return 0, 0, af, bf, false, true
}

// addInt, subInt and mulInt report whether the result fits in an int64.
func addInt(a, b int64) (int64, bool) {
	var c = a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	var c = a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	var neg = (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absInt(a), absInt(b))
	switch {
	case hi != 0:
		return 0, false
	case neg && lo <= 1<<63:
		return -int64(lo), true
	case !neg && lo < 1<<63:
		return int64(lo), true
	}
	return 0, false
}

func absInt(a int64) uint64 {
	if a < 0 {
		return uint64(-a)
	}
	return uint64(a)
}

// Add implements +: numeric addition, string and list concatenation.
func Add(a, b Value) (Value, error) {
	if ai, bi, af, bf, isInt, ok := numbers(a, b); ok {
		if isInt {
			if c, ok := addInt(ai, bi); ok {
				return Int(c), nil
			}
			return nil, errOverflow
		}
		return Float(af + bf), nil
	}
	switch a := a.(type) {
	case String:
		if b, ok := b.(String); ok {
			return a + b, nil
		}
	case List:
		if b, ok := b.(List); ok {
			var out = make(List, 0, len(a)+len(b))
			return append(append(out, a...), b...), nil
		}
	}
	return nil, typeError("+", a, b)
}

// Sub implements binary -.
func Sub(a, b Value) (Value, error) {
	ai, bi, af, bf, isInt, ok := numbers(a, b)
	switch {
	case !ok:
		return nil, typeError("-", a, b)
	case isInt:
		if c, ok := subInt(ai, bi); ok {
			return Int(c), nil
		}
		return nil, errOverflow
	}
	return Float(af - bf), nil
}

// Mul implements *: numeric multiplication and string/list repetition.
func Mul(a, b Value) (Value, error) {
	if ai, bi, af, bf, isInt, ok := numbers(a, b); ok {
		if isInt {
			if c, ok := mulInt(ai, bi); ok {
				return Int(c), nil
			}
			return nil, errOverflow
		}
		return Float(af * bf), nil
	}
	if _, ok := a.(Int); ok {
		a, b = b, a
	}
	n, ok := b.(Int)
	if !ok {
		return nil, typeError("*", a, b)
	}
	if n < 0 {
		n = 0
	}
	var size int
	switch a := a.(type) {
	case String:
		size = len(a)
	case List:
		size = len(a)
	}
	if size == 0 {
		n = 0
	}
	if size > 0 && int64(n) > MaxRepeat/int64(size) {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"repeated %s too big (maximum length is %d)", TypeName(a), MaxRepeat)
	}
	switch a := a.(type) {
	case String:
		return String(strings.Repeat(string(a), int(n))), nil
	case List:
		var out = make(List, 0, len(a)*int(n))
		for i := Int(0); i < n; i++ {
			out = append(out, a...)
		}
		return out, nil
	}
	return nil, typeError("*", a, b)
}

var errDivisionByZero = errortypes.Newf(errortypes.DivisionByZero, "division by zero")

// Div implements /, which always yields a Float.
func Div(a, b Value) (Value, error) {
	_, _, af, bf, _, ok := numbers(a, b)
	if !ok {
		return nil, typeError("/", a, b)
	}
	if bf == 0 {
		return nil, errDivisionByZero
	}
	return Float(af / bf), nil
}

// FloorDiv implements //, rounding toward negative infinity.
func FloorDiv(a, b Value) (Value, error) {
	ai, bi, af, bf, isInt, ok := numbers(a, b)
	switch {
	case !ok:
		return nil, typeError("//", a, b)
	case bf == 0:
		return nil, errDivisionByZero
	case isInt:
		if ai == math.MinInt64 && bi == -1 {
			return nil, errOverflow
		}
		var q = ai / bi
		if ai%bi != 0 && (ai < 0) != (bi < 0) {
			q--
		}
		return Int(q), nil
	}
	return Float(math.Floor(af / bf)), nil
}

// Mod implements %, where the result takes the sign of the divisor.
func Mod(a, b Value) (Value, error) {
	ai, bi, af, bf, isInt, ok := numbers(a, b)
	switch {
	case !ok:
		return nil, typeError("%", a, b)
	case bf == 0:
		return nil, errDivisionByZero
	case isInt:
		var r = ai % bi
		if r != 0 && (r < 0) != (bi < 0) {
			r += bi
		}
		return Int(r), nil
	}
	var r = math.Mod(af, bf)
	if r != 0 && (r < 0) != (bf < 0) {
		r += bf
	}
	return Float(r), nil
}

// Pow implements **. Integer powers stay Int unless the exponent is negative.
func Pow(a, b Value) (Value, error) {
	ai, bi, af, bf, isInt, ok := numbers(a, b)
	switch {
	case !ok:
		return nil, typeError("**", a, b)
	case isInt && bi >= 0:
		var result int64 = 1
		for base := ai; bi > 0; bi >>= 1 {
			if bi&1 == 1 {
				if result, ok = mulInt(result, base); !ok {
					return nil, errOverflow
				}
			}
			if bi > 1 {
				if base, ok = mulInt(base, base); !ok {
					return nil, errOverflow
				}
			}
		}
		return Int(result), nil
	case af == 0 && bf < 0:
		return nil, errortypes.Newf(errortypes.DivisionByZero, "0.0 cannot be raised to a negative power")
	}
	return Float(math.Pow(af, bf)), nil
}

// Negate implements unary minus.
func Negate(a Value) (Value, error) {
	switch a := a.(type) {
	case Int:
		if a == math.MinInt64 {
			return nil, errOverflow
		}
		return -a, nil
	case Float:
		return -a, nil
	}
	return nil, errortypes.Newf(errortypes.RuntimeError, "bad operand type for unary -: '%s'", TypeName(a))
}

// Compare returns -1, 0 or 1 comparing two numbers or two strings. Booleans
// compare as 0 and 1, so chained comparisons like 1 < 2 < 3 evaluate.
func Compare(a, b Value) (int, error) {
	if ai, bi, _, _, isInt, _ := numbers(a, b); isInt {
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		}
		return 0, nil
	}
	af, aok := ToFloat(a)
	bf, bok := ToFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	if as, ok := a.(String); ok {
		if bs, ok := b.(String); ok {
			return strings.Compare(string(as), string(bs)), nil
		}
	}
	if al, ok := a.(List); ok {
		if bl, ok := b.(List); ok {
			for i := 0; i < len(al) && i < len(bl); i++ {
				if al[i].Equals(bl[i]) {
					continue
				}
				return Compare(al[i], bl[i])
			}
			return Compare(Int(len(al)), Int(len(bl)))
		}
	}
	return 0, errortypes.Newf(errortypes.RuntimeError,
		"'%s' and '%s' are not comparable", TypeName(a), TypeName(b))
}

// Contains implements the "in" operator: substring, element and key tests.
// Undefined operands yield false.
func Contains(container, item Value) (bool, error) {
	if IsUndefined(container) || IsUndefined(item) {
		return false, nil
	}
	switch c := container.(type) {
	case String:
		s, ok := item.(String)
		if !ok {
			return false, errortypes.Newf(errortypes.RuntimeError,
				"'in <string>' requires string as left operand, not %s", TypeName(item))
		}
		return strings.Contains(string(c), string(s)), nil
	case List:
		for _, elem := range c {
			if elem.Equals(item) {
				return true, nil
			}
		}
		return false, nil
	case *Map:
		if s, ok := item.(String); ok {
			return c.Has(string(s)), nil
		}
		return false, nil
	case *Namespace:
		if s, ok := item.(String); ok {
			return c.Attrs().Has(string(s)), nil
		}
		return false, nil
	case Null:
		return false, nil
	}
	return false, errortypes.Newf(errortypes.RuntimeError,
		"argument of type '%s' is not iterable", TypeName(container))
}

// Length returns the length of a string (in characters), list or map.
func Length(v Value) (int, bool) {
	switch v := v.(type) {
	case String:
		return utf8.RuneCountInString(string(v)), true
	case List:
		return len(v), true
	case *Map:
		return v.Len(), true
	case *Namespace:
		return v.Attrs().Len(), true
	case Undefined:
		return 0, true
	}
	return 0, false
}

// Iterate returns the items that a for loop over v visits: list elements,
// map keys, or the characters of a string. Undefined iterates as empty.
func Iterate(v Value) (List, bool) {
	switch v := v.(type) {
	case List:
		return v, true
	case *Map:
		var keys = make(List, v.Len())
		for i, k := range v.Keys() {
			keys[i] = String(k)
		}
		return keys, true
	case String:
		var chars = make(List, 0, len(v))
		for _, r := range string(v) {
			chars = append(chars, String(string(r)))
		}
		return chars, true
	case Undefined:
		return nil, true
	}
	return nil, false
}

// GetItem implements subscript access. Missing keys and out of range
// indices produce Undefined.
func GetItem(obj, key Value) Value {
	switch o := obj.(type) {
	case List:
		if i, ok := key.(Int); ok {
			return o.Index(int(i))
		}
	case String:
		if i, ok := key.(Int); ok {
			var runes = []rune(string(o))
			if i < 0 {
				i += Int(len(runes))
			}
			if 0 <= i && int(i) < len(runes) {
				return String(string(runes[i]))
			}
		}
	case *Map:
		switch k := key.(type) {
		case String:
			return o.Key(string(k))
		case Int, Float, Bool, Null:
			return o.Key(k.String())
		}
	case *Namespace:
		if k, ok := key.(String); ok {
			return o.Attr(string(k))
		}
	}
	return Undefined{}
}

// GetAttr implements dotted attribute access.
func GetAttr(obj Value, name string) Value {
	switch o := obj.(type) {
	case *Map:
		return o.Key(name)
	case *Namespace:
		return o.Attr(name)
	}
	return Undefined{}
}

// Slice implements [start:stop:step] on strings and lists. Nil bounds select
// the defaults; out of range bounds are clamped.
func Slice(obj Value, start, stop, step Value) (Value, error) {
	var st = 1
	if !IsNone(step) {
		s, ok := step.(Int)
		if !ok {
			return nil, errortypes.Newf(errortypes.RuntimeError, "slice indices must be integers")
		}
		if s == 0 {
			return nil, errortypes.Newf(errortypes.RuntimeError, "slice step cannot be zero")
		}
		st = int(s)
	}

	var length int
	var runes []rune
	switch o := obj.(type) {
	case List:
		length = len(o)
	case String:
		runes = []rune(string(o))
		length = len(runes)
	case Undefined:
		return Undefined{}, nil
	default:
		return nil, errortypes.Newf(errortypes.RuntimeError, "'%s' object is not sliceable", TypeName(obj))
	}

	lo, hi, err := sliceBounds(start, stop, st, length)
	if err != nil {
		return nil, err
	}

	var indices []int
	if st > 0 {
		for i := lo; i < hi; i += st {
			indices = append(indices, i)
		}
	} else {
		for i := lo; i > hi; i += st {
			indices = append(indices, i)
		}
	}

	if list, ok := obj.(List); ok {
		var out = make(List, len(indices))
		for j, i := range indices {
			out[j] = list[i]
		}
		return out, nil
	}
	var out = make([]rune, len(indices))
	for j, i := range indices {
		out[j] = runes[i]
	}
	return String(string(out)), nil
}

// sliceBounds resolves slice bounds the way Python's slice.indices does.
func sliceBounds(start, stop Value, step, length int) (lo, hi int, err error) {
	var resolve = func(v Value, def int) (int, error) {
		if IsNone(v) {
			return def, nil
		}
		i, ok := v.(Int)
		if !ok {
			return 0, errortypes.Newf(errortypes.RuntimeError, "slice indices must be integers")
		}
		var n = int(i)
		if n < 0 {
			n += length
			if n < 0 {
				if step < 0 {
					return -1, nil
				}
				return 0, nil
			}
		}
		if n >= length {
			if step < 0 {
				return length - 1, nil
			}
			return length, nil
		}
		return n, nil
	}
	if step > 0 {
		if lo, err = resolve(start, 0); err != nil {
			return
		}
		hi, err = resolve(stop, length)
		return
	}
	if lo, err = resolve(start, length-1); err != nil {
		return
	}
	hi, err = resolve(stop, -1)
	return
}
