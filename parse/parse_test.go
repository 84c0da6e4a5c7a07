package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/errortypes"
)

type parseTest struct {
	name   string
	input  string
	output string // the String() of the parsed tree
}

var parseTests = []parseTest{
	{"empty", "", ""},
	{"text", "Hello world!", "Hello world!"},
	{"output", "Hello {{ name }}!", "Hello {{ name }}!"},
	{"comment", "a{# c #}b", "ab"},
	{"raw", "{% raw %}{{ x }}{% endraw %}", "{% raw %}{{ x }}{% endraw %}"},
	{"empty raw", "a{% raw %}{% endraw %}b", "ab"},

	// precedence
	{"mul over add", "{{ a + b * c }}", "{{ a + (b * c) }}"},
	{"parens", "{{ (a + b) * c }}", "{{ (a + b) * c }}"},
	{"left assoc", "{{ a - b - c }}", "{{ (a - b) - c }}"},
	{"pow left assoc", "{{ 2 ** 3 ** 2 }}", "{{ (2 ** 3) ** 2 }}"},
	{"negate pow", "{{ -x ** 2 }}", "{{ -(x ** 2) }}"},
	{"negate mul", "{{ -x * 2 }}", "{{ (-x) * 2 }}"},
	{"logic", "{{ not a and b or c }}", "{{ ((not a) and b) or c }}"},
	{"not comparison", "{{ not a == b }}", "{{ not (a == b) }}"},
	{"concat", "{{ a ~ b + c }}", "{{ a ~ (b + c) }}"},
	{"membership", "{{ a in b and c not in d }}", "{{ (a in b) and (c not in d) }}"},
	{"comparisons", "{{ a < b <= c }}", "{{ (a < b) <= c }}"},
	{"floordiv mod", "{{ a // b % c }}", "{{ (a // b) % c }}"},
	{"unary plus", "{{ +a }}", "{{ +a }}"},

	// filters and tests
	{"filters", "{{ x | upper | replace('a', 'b') }}", "{{ x | upper | replace('a', 'b') }}"},
	{"filter binds tightly", "{{ a + b|abs }}", "{{ a + (b | abs) }}"},
	{"filter after call", "{{ f()|length }}", "{{ f() | length }}"},
	{"test", "{{ x is defined }}", "{{ x is defined }}"},
	{"negated test", "{{ x is not none }}", "{{ x is not none }}"},
	{"test with arg", "{{ x is divisibleby 3 }}", "{{ x is divisibleby(3) }}"},
	{"test with args", "{{ x is sameas(y) }}", "{{ x is sameas(y) }}"},
	{"test in logic", "{{ x is defined and y }}", "{{ (x is defined) and y }}"},
	{"not test", "{{ not x is string }}", "{{ not (x is string) }}"},

	// conditional expressions
	{"ternary", "{{ a if b else c }}", "{{ a if b else c }}"},
	{"ternary without else", "{{ a if b }}", "{{ a if b }}"},
	{"nested ternary", "{{ a if b else c if d else e }}", "{{ a if b else (c if d else e) }}"},

	// literals
	{"strings", `{{ 'a' "b" }}`, `{{ 'a' "b" }}`},
	{"list", "{{ [1, 2,] }}", "{{ [1, 2] }}"},
	{"empty list", "{{ [] }}", "{{ [] }}"},
	{"dict", "{{ {'a': 1, 'b': [x]} }}", "{{ {'a': 1, 'b': [x]} }}"},
	{"tuple", "{{ (1,) }} {{ () }} {{ (1, 2) }}", "{{ (1,) }} {{ () }} {{ (1, 2) }}"},
	{"bare tuple", "{{ 1, 2 }}", "{{ (1, 2) }}"},
	{"numbers", "{{ 1.5 }} {{ 1e3 }} {{ 1_000 }}", "{{ 1.5 }} {{ 1000.0 }} {{ 1000 }}"},
	{"constants", "{{ True }} {{ false }} {{ None }}", "{{ true }} {{ false }} {{ none }}"},
	{"negative number", "{{ -1 }}", "{{ -1 }}"},

	// access and calls
	{"access", "{{ a.b[0].c }}", "{{ a.b[0].c }}"},
	{"dotted index", "{{ x.0 }}", "{{ x[0] }}"},
	{"call", "{{ f(1, k=2, *args, **kw) }}", "{{ f(1, k=2, *args, **kw) }}"},
	{"method call", "{{ messages[0].content.strip() }}", "{{ messages[0].content.strip() }}"},
	{"slices", "{{ x[1:] }}{{ x[::-1] }}{{ x[:2] }}{{ x[a:b:c] }}", "{{ x[1:] }}{{ x[::-1] }}{{ x[:2] }}{{ x[a:b:c] }}"},
	{"keywords as names", "{{ loop.if }}{{ in }}{{ f(is=1) }}", "{{ loop.if }}{{ in }}{{ f(is=1) }}"},
	{"attribute of literal", "{{ 'a,b'.split(',') }}", "{{ 'a,b'.split(',') }}"},

	// statements
	{"if", "{% if a %}1{% elif b %}2{% else %}3{% endif %}", "{% if a %}1{% elif b %}2{% else %}3{% endif %}"},
	{"for", "{% for x in xs %}{{ loop.index }}{% endfor %}", "{% for x in xs %}{{ loop.index }}{% endfor %}"},
	{"for tuple", "{% for k, v in d.items() if v %}{{ k }}{% else %}empty{% endfor %}",
		"{% for (k, v) in d.items() if v %}{{ k }}{% else %}empty{% endfor %}"},
	{"for paren tuple", "{% for (a, b) in xs %}{% endfor %}", "{% for (a, b) in xs %}{% endfor %}"},
	{"set", "{% set x = 1 %}", "{% set x = 1 %}"},
	{"set tuple", "{% set a, b = 1, 2 %}", "{% set (a, b) = (1, 2) %}"},
	{"set attribute", "{% set ns.count = ns.count + 1 %}", "{% set ns.count = ns.count + 1 %}"},
	{"set block", "{% set x %}hi{% endset %}", "{% set x %}hi{% endset %}"},
	{"set block filtered", "{% set x | upper | trim %}hi{% endset %}", "{% set x | upper | trim %}hi{% endset %}"},
	{"macro", "{% macro m(a, b=2) %}{{ a }}{% endmacro %}", "{% macro m(a, b=2) %}{{ a }}{% endmacro %}"},
	{"call block", "{% call m(1) %}x{% endcall %}", "{% call m(1) %}x{% endcall %}"},
	{"call block params", "{% call(user) m(users) %}{{ user }}{% endcall %}", "{% call(user) m(users) %}{{ user }}{% endcall %}"},
	{"filter block", "{% filter upper | trim %}x{% endfilter %}", "{% filter upper | trim %}x{% endfilter %}"},
	{"break continue", "{% for x in y %}{% break %}{% continue %}{% endfor %}", "{% for x in y %}{% break %}{% continue %}{% endfor %}"},
	{"generation", "{% generation %}x{% endgeneration %}", "{% generation %}x{% endgeneration %}"},
	{"whitespace control", "a  {%- if x -%}  b  {%- endif -%}  c", "a{% if x %}b{% endif %}c"},
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		tmpl, err := Parse(test.name, test.input, Options{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if actual := tmpl.String(); actual != test.output {
			t.Errorf("%s=(%q): got\n\t%v\nexpected\n\t%v", test.name, test.input, actual, test.output)
		}
	}
}

// Printing a tree and parsing the result yields the same tree.
func TestParseRoundTrip(t *testing.T) {
	for _, test := range parseTests {
		tmpl, err := Parse(test.name, test.input, Options{})
		if err != nil {
			continue
		}
		var printed = tmpl.String()
		reparsed, err := Parse(test.name, printed, Options{KeepTrailingNewline: true})
		if err != nil {
			t.Errorf("%s: reparsing %q: %v", test.name, printed, err)
			continue
		}
		if again := reparsed.String(); again != printed {
			t.Errorf("%s: round trip differs:\n%v", test.name, diff.LineDiff(printed, again))
		}
	}
}

func TestParseTree(t *testing.T) {
	tmpl, err := Parse("tree", "{{ 'a' 'b' }}{% for x in y %}{% endfor %}", Options{})
	if err != nil {
		t.Fatal(err)
	}
	var nodes = tmpl.Body.Nodes
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d: %v", len(nodes), nodes)
	}
	concat, ok := nodes[0].(*ast.OutputNode).Expr.(*ast.ImplicitConcatNode)
	if !ok || concat.Value() != "ab" {
		t.Errorf("expected implicit concatenation, got %#v", nodes[0].(*ast.OutputNode).Expr)
	}
	forNode, ok := nodes[1].(*ast.ForNode)
	if !ok {
		t.Fatalf("expected for node, got %T", nodes[1])
	}
	if forNode.Else != nil || forNode.Filter != nil {
		t.Errorf("unexpected else or filter: %v", forNode)
	}
	if forNode.Position() != 13 {
		t.Errorf("for position: %d", forNode.Position())
	}
}

func TestParseErrors(t *testing.T) {
	var tests = []struct{ name, input, msg string }{
		{"unclosed if", "{% if x %}", "missing {% endif %}"},
		{"unclosed for", "{% for x in y %}{% if x %}{% endif %}", "missing {% endfor %}"},
		{"stray end", "{% endif %}", "unexpected {% endif %} with no open block"},
		{"mismatched end", "{% for x in y %}{% endif %}", "unexpected {% endif %}"},
		{"unknown statement", "{% foo %}", `unknown statement "foo"`},
		{"unclosed tag", "{{ x ", "unexpected end of template"},
		{"missing operand", "{{ 1 + }}", "unexpected"},
		{"missing iterable", "{% for x in %}{% endfor %}", "unexpected"},
		{"two expressions", "{{ a b }}", "unexpected"},
		{"dangling operator", "{{ a and }}", "unexpected"},
		{"default order", "{% macro m(a=1, b) %}{% endmacro %}", "non-default parameter"},
		{"keyword order", "{{ f(a=1, b) }}", "positional argument follows keyword argument"},
		{"block tuple", "{% set a, b %}x{% endset %}", "single target"},
		{"lexical", "{{ 'abc }}", "unexpected end of string"},
		{"call without call", "{% call x %}{% endcall %}", "expected a macro call"},
		{"unclosed raw", "{% raw %}x", "missing end of raw directive"},
		{"empty tag", "{% %}", "block tag"},
		{"unclosed list", "{{ [1, 2 }}", "list literal"},
	}
	for _, test := range tests {
		_, err := Parse(test.name, test.input, Options{})
		switch {
		case err == nil:
			t.Errorf("%s: expected error; got none", test.name)
		case !errors.Is(err, errortypes.ErrSyntax):
			t.Errorf("%s: expected a syntax error, got %T: %v", test.name, err, err)
		case !strings.Contains(err.Error(), test.msg):
			t.Errorf("%s: expected error containing %q, got: %v", test.name, test.msg, err)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("t", "line1\n{{ 1 + }}", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "template t:2:8:") {
		t.Errorf("unexpected error position: %v", err)
	}
	var pos = errortypes.ToErrFilePos(err)
	if pos == nil || pos.Line() != 2 || pos.Col() != 8 {
		t.Errorf("expected position 2:8, got %v", pos)
	}
}

func TestExpr(t *testing.T) {
	var tests = []struct{ input, output string }{
		{"a", "a"},
		{"messages[0]['role'] == 'user'", "messages[0]['role'] == 'user'"},
		{"x | default('y') ~ '!'", "(x | default('y')) ~ '!'"},
		{"a, b", "(a, b)"},
	}
	for _, test := range tests {
		node, err := Expr(test.input)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if node.String() != test.output {
			t.Errorf("%s: got %v, expected %v", test.input, node, test.output)
		}
	}

	for _, input := range []string{"", "a b", "1 +", "{{ a }}"} {
		if node, err := Expr(input); err == nil {
			t.Errorf("%q: expected error, got %v", input, node)
		}
	}
}

func FuzzParse(f *testing.F) {
	for _, test := range parseTests {
		f.Add(test.input)
	}
	f.Fuzz(func(t *testing.T, input string) {
		tmpl, err := Parse("fuzz", input, Options{})
		if err != nil {
			var syntax *errortypes.Error
			if !errors.As(err, &syntax) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			return
		}
		_ = tmpl.String()
	})
}
