// Package render executes parsed Jinja templates.
package render

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/parse"
)

// Filter transforms the value piped into it, which is args[0].
type Filter func(args []data.Value, kwargs *data.Map, env *Environment) (data.Value, error)

// Test is a predicate applied with "is". The tested value is args[0].
type Test func(args []data.Value, kwargs *data.Map, env *Environment) (bool, error)

// Global is a function available to templates by name, e.g. range(10).
type Global func(args []data.Value, kwargs *data.Map, env *Environment) (data.Value, error)

// Environment holds the root bindings and the filter, test and global tables
// that templates are rendered against. It is not safe to modify an
// Environment while it is rendering.
type Environment struct {
	Options parse.Options

	// Now returns the current time for strftime_now. It defaults to time.Now.
	Now func() time.Time

	filters map[string]Filter
	tests   map[string]Test
	globals map[string]Global
	root    *data.Map
}

// NewEnvironment returns an environment with the default filters, tests and
// globals.
func NewEnvironment() *Environment {
	return &Environment{
		Now:     time.Now,
		filters: DefaultFilters,
		tests:   DefaultTests,
		globals: DefaultGlobals,
		root:    &data.Map{},
	}
}

// AddFilters makes the filters available to templates under the given names,
// replacing any existing filter of the same name.
func (env *Environment) AddFilters(filters map[string]Filter) *Environment {
	var newfilters = make(map[string]Filter, len(env.filters)+len(filters))
	for k, v := range env.filters {
		newfilters[k] = v
	}
	for k, v := range filters {
		newfilters[k] = v
	}
	env.filters = newfilters
	return env
}

// AddTests makes the tests available to templates under the given names.
func (env *Environment) AddTests(tests map[string]Test) *Environment {
	var newtests = make(map[string]Test, len(env.tests)+len(tests))
	for k, v := range env.tests {
		newtests[k] = v
	}
	for k, v := range tests {
		newtests[k] = v
	}
	env.tests = newtests
	return env
}

// AddGlobals makes the functions callable from templates under the given
// names.
func (env *Environment) AddGlobals(globals map[string]Global) *Environment {
	var newglobals = make(map[string]Global, len(env.globals)+len(globals))
	for k, v := range env.globals {
		newglobals[k] = v
	}
	for k, v := range globals {
		newglobals[k] = v
	}
	env.globals = newglobals
	return env
}

// Set binds name to value (converted with data.New) in the root scope, where
// every template rendered by this environment sees it.
func (env *Environment) Set(name string, value interface{}) *Environment {
	env.root.Set(name, data.New(value))
	return env
}

// Filter returns the filter registered under name.
func (env *Environment) Filter(name string) (Filter, bool) {
	f, ok := env.filters[name]
	return f, ok
}

// Test returns the test registered under name.
func (env *Environment) Test(name string) (Test, bool) {
	t, ok := env.tests[name]
	return t, ok
}

// Global returns the global function registered under name.
func (env *Environment) Global(name string) (Global, bool) {
	g, ok := env.globals[name]
	return g, ok
}

// FilterNames returns the names of all registered filters, sorted.
func (env *Environment) FilterNames() []string {
	return sortedKeys(env.filters)
}

// TestNames returns the names of all registered tests, sorted.
func (env *Environment) TestNames() []string {
	return sortedKeys(env.tests)
}

func sortedKeys[T any](m map[string]T) []string {
	var names = make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Parse parses source with the environment's options.
func (env *Environment) Parse(name, source string) (*ast.TemplateNode, error) {
	return parse.Parse(name, source, env.Options)
}

// Render executes the template against ctx and returns the output. On error,
// no output is returned.
func (env *Environment) Render(tmpl *ast.TemplateNode, ctx *data.Map) (string, error) {
	var buf bytes.Buffer
	if err := env.NewRenderer(tmpl).Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderString parses and renders source. The context is converted with
// data.New and must be a map or struct (or nil).
func (env *Environment) RenderString(source string, ctx interface{}) (string, error) {
	m, err := contextMap(ctx)
	if err != nil {
		return "", err
	}
	tmpl, err := env.Parse("<string>", source)
	if err != nil {
		return "", err
	}
	return env.Render(tmpl, m)
}

func contextMap(ctx interface{}) (*data.Map, error) {
	if ctx == nil {
		return &data.Map{}, nil
	}
	m, ok := data.New(ctx).(*data.Map)
	if !ok {
		return nil, fmt.Errorf("invalid data type. expected map/struct, got %T", ctx)
	}
	return m, nil
}
