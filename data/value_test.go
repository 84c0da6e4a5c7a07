package data

import (
	"math"
	"testing"
)

// Ensure all of the data types implement Value
var (
	_ Value = Undefined{}
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = Float(0.0)
	_ Value = String("")
	_ Value = List{}
	_ Value = &Map{}
	_ Value = &Namespace{}
	_ Value = &Callable{}
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		input    Value
		expected bool
	}{
		{Undefined{}, false},
		{Null{}, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Int(-1), true},
		{Float(0), false},
		{Float(0.1), true},
		{Float(math.NaN()), true},
		{String(""), false},
		{String("0"), true},
		{List{}, false},
		{List{Null{}}, true},
		{&Map{}, false},
		{NewMap("a", 1), true},
		{NewNamespace(nil), true},
	}

	for _, test := range tests {
		if actual := test.input.Truthy(); actual != test.expected {
			t.Errorf("%#v => %v, expected %v", test.input, actual, test.expected)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input    Value
		expected string
	}{
		{Undefined{}, ""},
		{Null{}, "None"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(-42), "-42"},
		{Float(1), "1.0"},
		{Float(0.5), "0.5"},
		{Float(-2.25), "-2.25"},
		{Float(1e16), "1e+16"},
		{Float(123456789012345.0), "123456789012345.0"},
		{Float(0.0001), "0.0001"},
		{Float(0.00001), "1e-05"},
		{Float(math.Inf(1)), "inf"},
		{String("it's"), "it's"},
		{List{Int(1), String("a"), Null{}}, "[1, 'a', None]"},
		{List{String("it's")}, `["it's"]`},
		{NewMap("k", "v", "n", List{Bool(true)}), "{'k': 'v', 'n': [true]}"},
	}

	for _, test := range tests {
		if actual := test.input.String(); actual != test.expected {
			t.Errorf("%#v => %q, expected %q", test.input, actual, test.expected)
		}
	}
}

func TestEquals(t *testing.T) {
	var ns = NewNamespace(nil)
	var fn = NewCallable("f", nil)
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Undefined{}, Undefined{}, true},
		{Null{}, Null{}, true},
		{Null{}, Undefined{}, false},
		{Int(1), Float(1.0), true},
		{Int(1), String("1"), false},
		{Bool(true), Int(1), false},
		{String("a"), String("a"), true},
		{List{Int(1), List{String("x")}}, List{Int(1), List{String("x")}}, true},
		{List{Int(1)}, List{Int(1), Int(2)}, false},
		{NewMap("a", 1, "b", 2), NewMap("b", 2, "a", 1), true},
		{NewMap("a", 1), NewMap("a", 2), false},
		{ns, ns, true},
		{ns, NewNamespace(nil), false},
		{fn, fn, true},
		{fn, NewCallable("f", nil), false},
	}

	for _, test := range tests {
		if actual := test.a.Equals(test.b); actual != test.expected {
			t.Errorf("%v == %v => %v, expected %v", test.a, test.b, actual, test.expected)
		}
	}
}

func TestMapOrder(t *testing.T) {
	var m = &Map{}
	m.Set("z", Int(1))
	m.Set("a", Int(2))
	m.Set("z", Int(3))
	m.Set("m", Int(4))
	m.Delete("a")

	if actual, expected := m.String(), "{'z': 3, 'm': 4}"; actual != expected {
		t.Errorf("got %q, expected %q", actual, expected)
	}
	if _, ok := m.Key("a").(Undefined); !ok {
		t.Errorf("deleted key should be undefined, got %v", m.Key("a"))
	}

	var cp = m.Copy()
	cp.Set("new", Null{})
	if m.Has("new") {
		t.Errorf("copy shares storage with the original")
	}
}

func TestNamespaceShared(t *testing.T) {
	var ns = NewNamespace(NewMap("found", false))
	var alias Value = ns
	alias.(*Namespace).SetAttr("found", Bool(true))
	if !ns.Attr("found").Truthy() {
		t.Errorf("assignment through an alias was not visible")
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		input    interface{}
		index    int
		expected Value
	}{
		{[]interface{}{}, 0, Undefined{}},
		{[]interface{}{1}, 0, Int(1)},
		{[]interface{}{1, 2}, -1, Int(2)},
		{[]interface{}{1, 2}, -3, Undefined{}},
	}

	for _, test := range tests {
		actual := New(test.input).(List).Index(test.index)
		if !actual.Equals(test.expected) {
			t.Errorf("%v => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}

func pInt(i int) *int {
	return &i
}
