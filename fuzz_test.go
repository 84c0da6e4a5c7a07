package jinja

import (
	"testing"

	"github.com/robfig/jinja/data"
)

// FuzzCompile checks that compiling and rendering arbitrary input returns
// errors rather than panicking.
func FuzzCompile(f *testing.F) {
	for _, seed := range []string{
		"hello {{ name }}",
		"{% for x in range(3) %}{{ loop.index }}{% endfor %}",
		"{% macro m(a, b=2) %}{{ a ~ b }}{% endmacro %}{{ m(1) }}",
		"{% set ns = namespace(n=0) %}{% set ns.n = ns.n + 1 %}{{ ns.n }}",
		"{{ [1, 2, 3] | select('odd') | map('string') | join(',') }}",
		"{%- if x is defined -%}{{ x[1:] }}{%- endif %}",
		"{# comment #}{% raw %}{{ }}{% endraw %}",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, source string) {
		env, registry, err := NewBundle().
			AddTemplateString("fuzz", source).
			CompileToEnvironment()
		if err != nil {
			return
		}
		var ctx = data.NewMap("name", "fuzz", "x", []int{1, 2})
		env.Render(registry.Template("fuzz").Node, ctx)
	})
}
