package data

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/robfig/jinja/errortypes"
)

func TestArithmetic(t *testing.T) {
	type op func(a, b Value) (Value, error)
	tests := []struct {
		name     string
		fn       op
		a, b     Value
		expected Value
	}{
		{"add int", Add, Int(2), Int(3), Int(5)},
		{"add mixed", Add, Int(2), Float(0.5), Float(2.5)},
		{"add strings", Add, String("a"), String("b"), String("ab")},
		{"add lists", Add, List{Int(1)}, List{Int(2)}, List{Int(1), Int(2)}},
		{"sub", Sub, Int(2), Int(5), Int(-3)},
		{"mul", Mul, Int(4), Int(5), Int(20)},
		{"mul string", Mul, String("ab"), Int(3), String("ababab")},
		{"mul string reversed", Mul, Int(2), String("-"), String("--")},
		{"mul list", Mul, List{Int(0)}, Int(2), List{Int(0), Int(0)}},
		{"div is float", Div, Int(6), Int(3), Float(2)},
		{"div fraction", Div, Int(7), Int(2), Float(3.5)},
		{"floordiv", FloorDiv, Int(7), Int(2), Int(3)},
		{"floordiv negative", FloorDiv, Int(-7), Int(2), Int(-4)},
		{"floordiv negative divisor", FloorDiv, Int(7), Int(-2), Int(-4)},
		{"floordiv float", FloorDiv, Float(-7), Int(2), Float(-4)},
		{"mod", Mod, Int(7), Int(3), Int(1)},
		{"mod negative dividend", Mod, Int(-7), Int(3), Int(2)},
		{"mod negative divisor", Mod, Int(7), Int(-3), Int(-2)},
		{"mod float", Mod, Float(-1.5), Int(1), Float(0.5)},
		{"pow", Pow, Int(2), Int(10), Int(1024)},
		{"pow zero", Pow, Int(5), Int(0), Int(1)},
		{"pow negative", Pow, Int(2), Int(-1), Float(0.5)},
		{"pow float", Pow, Float(4), Float(0.5), Float(2)},
		{"pow largest", Pow, Int(-2), Int(63), Int(math.MinInt64)},
		{"add near overflow", Add, Int(math.MaxInt64 - 1), Int(1), Int(math.MaxInt64)},
		{"mul min int", Mul, Int(math.MinInt64 / 2), Int(2), Int(math.MinInt64)},
		{"mul empty list", Mul, List{}, Int(10000000000000), List{}},
		{"mul string at limit", Mul, String("x"), Int(MaxRepeat), String(strings.Repeat("x", MaxRepeat))},
	}

	for _, test := range tests {
		actual, err := test.fn(test.a, test.b)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if _, isFloat := test.expected.(Float); isFloat {
			if _, ok := actual.(Float); !ok {
				t.Errorf("%s: got %T, expected Float", test.name, actual)
			}
		}
		if !actual.Equals(test.expected) {
			t.Errorf("%s: %v, %v => %v, expected %v", test.name, test.a, test.b, actual, test.expected)
		}
	}
}

func TestArithmeticErrors(t *testing.T) {
	type op func(a, b Value) (Value, error)
	tests := []struct {
		fn   op
		a, b Value
		kind error
	}{
		{Div, Int(1), Int(0), errortypes.ErrDivisionByZero},
		{Div, Float(1), Float(0), errortypes.ErrDivisionByZero},
		{FloorDiv, Int(1), Int(0), errortypes.ErrDivisionByZero},
		{Mod, Int(1), Int(0), errortypes.ErrDivisionByZero},
		{Add, Int(1), String("a"), errortypes.ErrRuntime},
		{Sub, String("a"), String("b"), errortypes.ErrRuntime},
		{Mul, String("a"), String("b"), errortypes.ErrRuntime},
		{Mul, List{Int(1)}, Int(10000000000000), errortypes.ErrRuntime},
		{Mul, Int(MaxRepeat + 1), String("x"), errortypes.ErrRuntime},
		{Add, Int(math.MaxInt64), Int(1), errortypes.ErrRuntime},
		{Sub, Int(math.MinInt64), Int(1), errortypes.ErrRuntime},
		{Mul, Int(math.MaxInt64), Int(2), errortypes.ErrRuntime},
		{Mul, Int(math.MinInt64), Int(-1), errortypes.ErrRuntime},
		{Pow, Int(2), Int(63), errortypes.ErrRuntime},
		{FloorDiv, Int(math.MinInt64), Int(-1), errortypes.ErrRuntime},
	}

	for _, test := range tests {
		_, err := test.fn(test.a, test.b)
		if !errors.Is(err, test.kind) {
			t.Errorf("%v, %v: got error %v, expected kind %v", test.a, test.b, err, test.kind)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected int
	}{
		{Int(1), Int(2), -1},
		{Float(2.5), Int(2), 1},
		{Int(3), Float(3), 0},
		{String("abc"), String("abd"), -1},
		{String("b"), String("a"), 1},
		{List{Int(1), Int(2)}, List{Int(1), Int(3)}, -1},
		{List{Int(1)}, List{Int(1), Int(0)}, -1},
		{Bool(true), Int(3), -1},
		{Bool(false), Float(0), 0},
		{Int(math.MaxInt64), Int(math.MaxInt64 - 1), 1},
	}
	for _, test := range tests {
		actual, err := Compare(test.a, test.b)
		if err != nil {
			t.Errorf("%v <> %v: %v", test.a, test.b, err)
			continue
		}
		if actual != test.expected {
			t.Errorf("%v <> %v => %d, expected %d", test.a, test.b, actual, test.expected)
		}
	}

	if _, err := Compare(Int(1), String("1")); !errors.Is(err, errortypes.ErrRuntime) {
		t.Errorf("expected a RuntimeError comparing int and string, got %v", err)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		container, item Value
		expected        bool
	}{
		{String("hello"), String("ell"), true},
		{String("hello"), String("z"), false},
		{List{Int(1), String("a")}, String("a"), true},
		{List{Int(1)}, Float(1), true},
		{List{Int(1)}, Int(2), false},
		{NewMap("k", 1), String("k"), true},
		{NewMap("k", 1), String("v"), false},
		{Undefined{}, String("a"), false},
		{List{Undefined{}}, Undefined{}, false},
		{NewNamespace(NewMap("a", 1)), String("a"), true},
	}
	for _, test := range tests {
		actual, err := Contains(test.container, test.item)
		if err != nil {
			t.Errorf("%v in %v: %v", test.item, test.container, err)
			continue
		}
		if actual != test.expected {
			t.Errorf("%v in %v => %v, expected %v", test.item, test.container, actual, test.expected)
		}
	}
}

func TestIterate(t *testing.T) {
	tests := []struct {
		input    Value
		expected List
		ok       bool
	}{
		{List{Int(1), Int(2)}, List{Int(1), Int(2)}, true},
		{NewMap("b", 1, "a", 2), List{String("b"), String("a")}, true},
		{String("hé"), List{String("h"), String("é")}, true},
		{Undefined{}, List{}, true},
		{Int(1), nil, false},
		{Null{}, nil, false},
	}
	for _, test := range tests {
		actual, ok := Iterate(test.input)
		if ok != test.ok {
			t.Errorf("%v: iterable %v, expected %v", test.input, ok, test.ok)
			continue
		}
		if ok && !actual.Equals(test.expected) {
			t.Errorf("%v => %v, expected %v", test.input, actual, test.expected)
		}
	}
}

func TestGetItem(t *testing.T) {
	var m = NewMap("a", 1, "1", "one")
	tests := []struct {
		obj, key Value
		expected Value
	}{
		{List{Int(1), Int(2)}, Int(-1), Int(2)},
		{List{Int(1)}, Int(5), Undefined{}},
		{String("héllo"), Int(1), String("é")},
		{String("abc"), Int(-1), String("c")},
		{m, String("a"), Int(1)},
		{m, Int(1), String("one")},
		{m, String("missing"), Undefined{}},
		{Null{}, String("a"), Undefined{}},
		{Undefined{}, Int(0), Undefined{}},
	}
	for _, test := range tests {
		if actual := GetItem(test.obj, test.key); !actual.Equals(test.expected) {
			t.Errorf("%v[%v] => %#v, expected %#v", test.obj, test.key, actual, test.expected)
		}
	}

	if actual := GetAttr(m, "a"); !actual.Equals(Int(1)) {
		t.Errorf("attribute lookup on a map: got %v", actual)
	}
	if actual := GetAttr(Undefined{}, "a"); !IsUndefined(actual) {
		t.Errorf("attribute lookup on undefined: got %v", actual)
	}
}

func TestSlice(t *testing.T) {
	var (
		list = List{Int(0), Int(1), Int(2), Int(3), Int(4)}
		none = Null{}
	)
	tests := []struct {
		obj               Value
		start, stop, step Value
		expected          Value
	}{
		{list, Int(1), Int(3), none, List{Int(1), Int(2)}},
		{list, none, none, Int(-1), List{Int(4), Int(3), Int(2), Int(1), Int(0)}},
		{list, Int(-2), none, none, List{Int(3), Int(4)}},
		{list, none, Int(-2), none, List{Int(0), Int(1), Int(2)}},
		{list, none, none, Int(2), List{Int(0), Int(2), Int(4)}},
		{list, Int(3), Int(0), Int(-1), List{Int(3), Int(2), Int(1)}},
		{list, Int(-100), Int(100), none, list},
		{list, Int(4), Int(1), none, List{}},
		{String("hello"), none, none, Int(-1), String("olleh")},
		{String("héllo"), Int(1), Int(3), none, String("él")},
		{String("abc"), Int(5), none, none, String("")},
	}
	for _, test := range tests {
		actual, err := Slice(test.obj, test.start, test.stop, test.step)
		if err != nil {
			t.Errorf("%v[%v:%v:%v]: %v", test.obj, test.start, test.stop, test.step, err)
			continue
		}
		if !actual.Equals(test.expected) {
			t.Errorf("%v[%v:%v:%v] => %v, expected %v", test.obj, test.start, test.stop, test.step, actual, test.expected)
		}
	}

	if _, err := Slice(list, none, none, Int(0)); !errors.Is(err, errortypes.ErrRuntime) {
		t.Errorf("expected RuntimeError for a zero step, got %v", err)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		input    Value
		expected int
	}{
		{String("héllo"), 5},
		{List{Int(1)}, 1},
		{NewMap("a", 1, "b", 2), 2},
		{Undefined{}, 0},
	}
	for _, test := range tests {
		actual, ok := Length(test.input)
		if !ok || actual != test.expected {
			t.Errorf("length(%v) => %d, %v; expected %d", test.input, actual, ok, test.expected)
		}
	}
	if _, ok := Length(Int(1)); ok {
		t.Errorf("int should have no length")
	}
}
