package jinja

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
	"github.com/robfig/jinja/parse"
	"github.com/robfig/jinja/render"
	"github.com/robfig/jinja/template"
)

func TestAddTemplateDir(t *testing.T) {
	registry, err := NewBundle().
		AddGlobalsFile("testdata/globals.yaml").
		AddTemplateDir("testdata/features").
		Compile()
	if err != nil {
		t.Fatal(err)
	}
	var expected = []string{"chat.jinja", "loops.jinja", "macros.jinja", "page.jinja"}
	if !reflect.DeepEqual(registry.Names(), expected) {
		t.Errorf("expected %v, got %v", expected, registry.Names())
	}
}

func TestCompileErrors(t *testing.T) {
	var tests = []struct {
		name   string
		bundle *Bundle
		kind   error
	}{
		{"syntax", NewBundle().AddTemplateString("a", "{% if %}"), errortypes.ErrSyntax},
		{"unknown filter", NewBundle().AddTemplateString("a", "{{ x | nope }}"), errortypes.ErrUnknownFilter},
		{"unknown test", NewBundle().AddTemplateString("a", "{{ x is nope }}"), errortypes.ErrUnknownTest},
		{"break outside loop", NewBundle().AddTemplateString("a", "{% break %}"), errortypes.ErrSyntax},
		{"duplicate template", NewBundle().AddTemplateString("a", "").AddTemplateString("a", ""), nil},
		{"duplicate global", NewBundle().
			AddGlobalsMap(data.NewMap("a", 1)).
			AddGlobalsMap(data.NewMap("a", 2)), nil},
		{"missing file", NewBundle().AddTemplateFile("testdata/missing.jinja"), nil},
		{"missing globals", NewBundle().AddGlobalsFile("testdata/missing.yaml"), nil},
	}
	for _, test := range tests {
		_, err := test.bundle.Compile()
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if test.kind != nil && !errors.Is(err, test.kind) {
			t.Errorf("%s: expected %v, got %v", test.name, test.kind, err)
		}
	}
}

func TestCustomFunctions(t *testing.T) {
	env, registry, err := NewBundle().
		WithOptions(parse.Options{TrimBlocks: true, KeepTrailingNewline: true}).
		AddFilters(map[string]render.Filter{
			"shout": func(args []data.Value, _ *data.Map, _ *render.Environment) (data.Value, error) {
				return data.String(strings.ToUpper(args[0].String()) + "!"), nil
			},
		}).
		AddTests(map[string]render.Test{
			"short": func(args []data.Value, _ *data.Map, _ *render.Environment) (bool, error) {
				return len(args[0].String()) < 3, nil
			},
		}).
		AddFunctions(map[string]render.Global{
			"answer": func(_ []data.Value, _ *data.Map, _ *render.Environment) (data.Value, error) {
				return data.Int(42), nil
			},
		}).
		AddGlobalsMap(data.NewMap("name", "rob")).
		AddTemplateString("t", "{% if name is short %}no{% endif %}\n{{ name | shout }} {{ answer() }}\n").
		CompileToEnvironment()
	if err != nil {
		t.Fatal(err)
	}
	actual, err := env.Render(registry.Template("t").Node, nil)
	if err != nil {
		t.Fatal(err)
	}
	if actual != "ROB! 42\n" {
		t.Errorf("unexpected output: %q", actual)
	}
}

func TestRender(t *testing.T) {
	actual, err := Render("Hello {{ name | title }}!", map[string]interface{}{"name": "world"})
	if err != nil || actual != "Hello World!" {
		t.Errorf("expected %q, got %q (%v)", "Hello World!", actual, err)
	}
	if _, err := Render("{{ 1 // 0 }}", nil); !errors.Is(err, errortypes.ErrDivisionByZero) {
		t.Errorf("expected division by zero, got %v", err)
	}
}

func TestWatchFiles(t *testing.T) {
	Logger = log.New(io.Discard, "", 0)
	defer func() { Logger = log.New(os.Stderr, "[jinja] ", 0) }()

	var dir = t.TempDir()
	var filename = filepath.Join(dir, "a.jinja")
	if err := os.WriteFile(filename, []byte("one"), 0644); err != nil {
		t.Fatal(err)
	}

	var updates = make(chan *template.Registry, 10)
	var bundle = NewBundle().
		WatchFiles(true).
		SetRecompilationCallback(func(reg *template.Registry) {
			select {
			case updates <- reg:
			default:
			}
		}).
		AddTemplateDir(dir)
	defer bundle.Close()
	env, _, err := bundle.CompileToEnvironment()
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filename, []byte("two"), 0644); err != nil {
		t.Fatal(err)
	}
	// A write may be seen in more than one event, so wait for the final
	// content.
	var timeout = time.After(5 * time.Second)
	for {
		select {
		case reg := <-updates:
			actual, err := env.Render(reg.Template("a.jinja").Node, nil)
			if err == nil && actual == "two" {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for recompilation")
		}
	}
}
