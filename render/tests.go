package render

import (
	"math"
	"unicode"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// DefaultTests are the builtin tests.
var DefaultTests = map[string]Test{
	"boolean":     typeTest("boolean", func(v data.Value) bool { _, ok := v.(data.Bool); return ok }),
	"callable":    typeTest("callable", func(v data.Value) bool { _, ok := v.(*data.Callable); return ok }),
	"defined":     typeTest("defined", func(v data.Value) bool { return !data.IsUndefined(v) }),
	"divisibleby": testDivisibleby,
	"eq":          compareTest("eq", func(a, b data.Value) (bool, error) { return a.Equals(b), nil }),
	"equalto":     compareTest("equalto", func(a, b data.Value) (bool, error) { return a.Equals(b), nil }),
	"even":        parityTest("even", 0),
	"false":       typeTest("false", func(v data.Value) bool { return v == data.Bool(false) }),
	"float":       typeTest("float", func(v data.Value) bool { _, ok := v.(data.Float); return ok }),
	"ge":          orderTest("ge", func(cmp int) bool { return cmp >= 0 }),
	"gt":          orderTest("gt", func(cmp int) bool { return cmp > 0 }),
	"in":          compareTest("in", func(a, b data.Value) (bool, error) { return data.Contains(b, a) }),
	"integer":     typeTest("integer", func(v data.Value) bool { _, ok := v.(data.Int); return ok }),
	"iterable":    typeTest("iterable", isSequence),
	"le":          orderTest("le", func(cmp int) bool { return cmp <= 0 }),
	"lower":       caseTest("lower", unicode.IsUpper),
	"lt":          orderTest("lt", func(cmp int) bool { return cmp < 0 }),
	"mapping":     typeTest("mapping", isMapping),
	"ne":          compareTest("ne", func(a, b data.Value) (bool, error) { return !a.Equals(b), nil }),
	"none":        typeTest("none", func(v data.Value) bool { _, ok := v.(data.Null); return ok }),
	"number":      typeTest("number", data.IsNumber),
	"odd":         parityTest("odd", 1),
	"sameas":      compareTest("sameas", sameAs),
	"sequence":    typeTest("sequence", isSequence),
	"string":      typeTest("string", func(v data.Value) bool { _, ok := v.(data.String); return ok }),
	"true":        typeTest("true", func(v data.Value) bool { return v == data.Bool(true) }),
	"undefined":   typeTest("undefined", data.IsUndefined),
	"upper":       caseTest("upper", unicode.IsLower),
}

// bindTest binds the arguments following the tested value.
func bindTest(name string, args []data.Value, kwargs *data.Map, params ...string) ([]data.Value, error) {
	return signature{name, params, len(params)}.bind(args[1:], kwargs)
}

// typeTest returns a test of the value alone.
func typeTest(name string, fn func(data.Value) bool) Test {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (bool, error) {
		if _, err := bindTest(name, args, kwargs); err != nil {
			return false, err
		}
		return fn(args[0]), nil
	}
}

// compareTest returns a test of the value against one other.
func compareTest(name string, fn func(a, b data.Value) (bool, error)) Test {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (bool, error) {
		vals, err := bindTest(name, args, kwargs, "other")
		if err != nil {
			return false, err
		}
		return fn(args[0], vals[0])
	}
}

// orderTest returns a test comparing the value to another by order.
func orderTest(name string, fn func(cmp int) bool) Test {
	return compareTest(name, func(a, b data.Value) (bool, error) {
		cmp, err := data.Compare(a, b)
		if err != nil {
			return false, err
		}
		return fn(cmp), nil
	})
}

// parityTest returns the even (rem 0) or odd (rem 1) test.
func parityTest(name string, rem int64) Test {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (bool, error) {
		if _, err := bindTest(name, args, kwargs); err != nil {
			return false, err
		}
		i, ok := args[0].(data.Int)
		if !ok {
			return false, errortypes.Newf(errortypes.RuntimeError,
				"%s: expected an integer, got %s", name, data.TypeName(args[0]))
		}
		return (int64(i)%2+2)%2 == rem, nil
	}
}

// caseTest returns a test that a string has no characters for which
// excluded is true.
func caseTest(name string, excluded func(rune) bool) Test {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (bool, error) {
		if _, err := bindTest(name, args, kwargs); err != nil {
			return false, err
		}
		s, ok := args[0].(data.String)
		if !ok {
			return false, nil
		}
		var cased = false
		for _, r := range string(s) {
			if excluded(r) {
				return false, nil
			}
			cased = cased || unicode.IsLetter(r)
		}
		return cased, nil
	}
}

func testDivisibleby(args []data.Value, kwargs *data.Map, _ *Environment) (bool, error) {
	vals, err := bindTest("divisibleby", args, kwargs, "num")
	if err != nil {
		return false, err
	}
	if a, ok := args[0].(data.Int); ok {
		if b, ok := vals[0].(data.Int); ok {
			if b == 0 {
				return false, errortypes.Newf(errortypes.DivisionByZero, "integer division or modulo by zero")
			}
			return a%b == 0, nil
		}
	}
	a, aok := data.ToFloat(args[0])
	b, bok := data.ToFloat(vals[0])
	if !aok || !bok {
		return false, errortypes.Newf(errortypes.RuntimeError,
			"divisibleby: expected numbers, got %s and %s", data.TypeName(args[0]), data.TypeName(vals[0]))
	}
	if b == 0 {
		return false, errortypes.Newf(errortypes.DivisionByZero, "float modulo")
	}
	return math.Mod(a, b) == 0, nil
}

// sameAs reports identity: the same instance for reference values, and
// equal values of the same type otherwise.
func sameAs(a, b data.Value) (bool, error) {
	switch a.(type) {
	case data.List:
		var al = a.(data.List)
		bl, ok := b.(data.List)
		return ok && len(al) == len(bl) && (len(al) == 0 || &al[0] == &bl[0]), nil
	case *data.Map, *data.Namespace, *data.Callable:
		return a == b, nil
	}
	return data.TypeName(a) == data.TypeName(b) && a.Equals(b), nil
}

func isMapping(v data.Value) bool {
	switch v.(type) {
	case *data.Map, *data.Namespace:
		return true
	}
	return false
}

// isSequence reports whether v has a length and supports iteration.
func isSequence(v data.Value) bool {
	switch v.(type) {
	case data.List, *data.Map, data.String:
		return true
	}
	return false
}
