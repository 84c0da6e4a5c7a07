package render

import (
	"errors"
	"testing"

	"github.com/robfig/jinja/errortypes"
)

func TestRange(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("stop", "{{ range(3) }}", "[0, 1, 2]"),
		exprtest("start stop", "{{ range(1, 4) }}", "[1, 2, 3]"),
		exprtest("step", "{{ range(0, 10, 4) }}", "[0, 4, 8]"),
		exprtest("negative step", "{{ range(10, 0, -3) }}", "[10, 7, 4, 1]"),
		exprtest("empty", "{{ range(5, 1) }}{{ range(0) }}", "[][]"),
		exprtest("loop", "{% for i in range(3) %}{{ i }}{% endfor %}", "012"),

		exprtest("zero step", "{{ range(1, 2, 0) }}", "").fails(),
		exprtest("string", "{{ range('a') }}", "").fails(),
		exprtest("float", "{{ range(1.5) }}", "").fails(),
		exprtest("too many arguments", "{{ range(1, 2, 3, 4) }}", "").fails(),
		exprtest("no arguments", "{{ range() }}", "").fails(),
		exprtest("keywords", "{{ range(stop=3) }}", "").fails(),
		exprtest("too big", "{{ range(1000000) }}", "").fails(),
	})
}

func TestNamespace(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("accumulate",
			"{% set ns = namespace(total=0) %}{% for x in [1, 2, 3] %}{% set ns.total = ns.total + x %}{% endfor %}{{ ns.total }}",
			"6"),
		exprtest("from mapping", "{% set ns = namespace({'a': 1}, b=2) %}{{ ns.a }}{{ ns.b }}", "12"),
		exprtest("new attribute", "{% set ns = namespace() %}{% set ns.found = true %}{{ ns.found }}", "true"),
		exprtest("missing attribute", "{% set ns = namespace() %}[{{ ns.nope }}]", "[]"),

		exprtest("not a mapping", "{{ namespace(1) }}", "").fails(),
		exprtest("set attribute on map", "{% set m = {} %}{% set m.a = 1 %}", "").fails(),
	})
}

func TestDict(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("keywords", "{{ dict(a=1, b='x') }}", "{'a': 1, 'b': 'x'}"),
		exprtest("pairs", "{{ dict([['a', 1], ['b', 2]]) }}", "{'a': 1, 'b': 2}"),
		exprtest("update", "{{ dict({'a': 1}, a=2) }}", "{'a': 2}"),
		exprtest("empty", "{{ dict() }}", "{}"),

		exprtest("bad pair", "{{ dict([[1]]) }}", "").fails(),
		exprtest("two mappings", "{{ dict({}, {}) }}", "").fails(),
	})
}

func TestRaiseException(t *testing.T) {
	var env = NewEnvironment()
	_, err := env.RenderString("{% if not ok %}{{ raise_exception('ok is required') }}{% endif %}", nil)
	if !errors.Is(err, errortypes.ErrTemplateException) {
		t.Fatalf("expected a template exception, got %v", err)
	}
	var pos = errortypes.ToErrFilePos(err)
	if pos == nil || pos.Line() != 1 {
		t.Errorf("expected a positioned error, got %v", err)
	}
	if out, err := env.RenderString("{% if not ok %}{{ raise_exception('x') }}{% endif %}done", d{"ok": true}); err != nil || out != "done" {
		t.Errorf("expected %q, got %q (%v)", "done", out, err)
	}
}
