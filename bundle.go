package jinja

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/parse"
	"github.com/robfig/jinja/parsepasses"
	"github.com/robfig/jinja/render"
	"github.com/robfig/jinja/template"
)

// Logger is used to print notifications and compile errors when using the
// "WatchFiles" feature.
var Logger = log.New(os.Stderr, "[jinja] ", 0)

// TemplateExtensions are the file extensions recognized by AddTemplateDir.
var TemplateExtensions = []string{".jinja", ".j2", ".jinja2"}

type templateFile struct {
	name    string // registry name
	path    string // file to reload on change, or "" for strings
	content string
}

// Bundle is a collection of Jinja content (templates, globals, and custom
// functions). It acts as input for the template compiler.
type Bundle struct {
	files                 []templateFile
	globals               *data.Map
	filters               map[string]render.Filter
	tests                 map[string]render.Test
	functions             map[string]render.Global
	options               parse.Options
	err                   error
	watcher               *fsnotify.Watcher
	recompilationCallback func(*template.Registry)
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		globals:   &data.Map{},
		filters:   make(map[string]render.Filter),
		tests:     make(map[string]render.Test),
		functions: make(map[string]render.Global),
	}
}

// WatchFiles tells the bundle to watch any template files added to it,
// re-compile as necessary, and propagate the updates to the registry. It
// should be called once, before adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// WithOptions sets the whitespace options used to parse the templates.
func (b *Bundle) WithOptions(opts parse.Options) *Bundle {
	b.options = opts
	return b
}

// AddTemplateDir adds all template files found within the given directory
// (including sub-directories) to the bundle. Each is named by its slash
// separated path relative to root, e.g. "account/overview.jinja".
func (b *Bundle) AddTemplateDir(root string) *Bundle {
	var err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isTemplateFile(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b.addFile(filepath.ToSlash(rel), path)
		return nil
	})
	if err != nil {
		b.err = err
	}
	return b
}

func isTemplateFile(path string) bool {
	var ext = filepath.Ext(path)
	for _, e := range TemplateExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// AddTemplateFile adds the given template file to this bundle, named by its
// path. If WatchFiles is on, it will be subsequently watched for updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	return b.addFile(filename, filename)
}

func (b *Bundle) addFile(name, path string) *Bundle {
	content, err := os.ReadFile(path)
	if err != nil {
		b.err = err
		return b
	}
	if b.err == nil && b.watcher != nil {
		b.err = b.watcher.Add(path)
	}
	b.files = append(b.files, templateFile{name, path, string(content)})
	return b
}

// AddTemplateString adds the given template to the bundle under the given
// name, which is used to look it up in the registry and in error messages.
func (b *Bundle) AddTemplateString(name, content string) *Bundle {
	b.files = append(b.files, templateFile{name, "", content})
	return b
}

// AddGlobalsFile opens and parses the given YAML or JSON file, which must
// hold a mapping, and adds the resulting values to the bundle's globals.
func (b *Bundle) AddGlobalsFile(filename string) *Bundle {
	var f, err = os.Open(filename)
	if err != nil {
		b.err = err
		return b
	}
	globals, err := ParseGlobals(f)
	f.Close()
	if err != nil {
		b.err = fmt.Errorf("%s: %w", filename, err)
		return b
	}
	return b.AddGlobalsMap(globals)
}

// AddGlobalsMap adds the given values to the bundle's globals, which every
// template sees as variables. A global may be defined only once.
func (b *Bundle) AddGlobalsMap(globals *data.Map) *Bundle {
	for _, k := range globals.Keys() {
		if existing, ok := b.globals.Get(k); ok {
			b.err = fmt.Errorf("global %q already defined as %s", k, data.Repr(existing))
			return b
		}
		b.globals.Set(k, globals.Key(k))
	}
	return b
}

// AddFilters adds custom filters, available to the templates by name.
func (b *Bundle) AddFilters(filters map[string]render.Filter) *Bundle {
	for k, v := range filters {
		b.filters[k] = v
	}
	return b
}

// AddTests adds custom tests, available to the templates by name.
func (b *Bundle) AddTests(tests map[string]render.Test) *Bundle {
	for k, v := range tests {
		b.tests[k] = v
	}
	return b
}

// AddFunctions adds custom global functions, available to the templates by
// name.
func (b *Bundle) AddFunctions(functions map[string]render.Global) *Bundle {
	for k, v := range functions {
		b.functions[k] = v
	}
	return b
}

// SetRecompilationCallback assigns the bundle a function to call after
// recompilation. This is called before updating the in-use registry.
func (b *Bundle) SetRecompilationCallback(c func(*template.Registry)) *Bundle {
	b.recompilationCallback = c
	return b
}

// Environment returns an environment holding the bundle's options, globals
// and custom functions.
func (b *Bundle) Environment() *render.Environment {
	var env = render.NewEnvironment().
		AddFilters(b.filters).
		AddTests(b.tests).
		AddGlobals(b.functions)
	env.Options = b.options
	for _, k := range b.globals.Keys() {
		env.Set(k, b.globals.Key(k))
	}
	return env
}

// Compile parses all of the templates in this bundle, verifies that the
// filters and tests they use exist and that loop controls are within loops,
// and returns the completed template registry.
func (b *Bundle) Compile() (*template.Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	var registry, err = b.compile(b.Environment())
	if err != nil {
		return nil, err
	}
	if b.watcher != nil {
		go b.recompiler(registry)
	}
	return registry, nil
}

// CompileToEnvironment compiles the bundle and returns the registry along
// with an environment to render its templates with.
func (b *Bundle) CompileToEnvironment() (*render.Environment, *template.Registry, error) {
	var registry, err = b.Compile()
	if err != nil {
		return nil, nil, err
	}
	return b.Environment(), registry, nil
}

func (b *Bundle) compile(env *render.Environment) (*template.Registry, error) {
	var registry = template.Registry{}
	for _, file := range b.files {
		var tree, err = parse.Parse(file.name, file.content, b.options)
		if err != nil {
			return nil, err
		}
		if err = registry.Add(file.name, tree); err != nil {
			return nil, err
		}
	}

	if err := parsepasses.CheckFilters(registry, env); err != nil {
		return nil, err
	}
	if err := parsepasses.CheckLoopControls(registry); err != nil {
		return nil, err
	}
	return &registry, nil
}

// reload returns a copy of the bundle with its template files re-read.
func (b *Bundle) reload() *Bundle {
	var bundle = NewBundle().
		WithOptions(b.options).
		AddGlobalsMap(b.globals).
		AddFilters(b.filters).
		AddTests(b.tests).
		AddFunctions(b.functions)
	for _, file := range b.files {
		if file.path == "" {
			bundle.AddTemplateString(file.name, file.content)
		} else {
			bundle.addFile(file.name, file.path)
		}
	}
	return bundle
}

func (b *Bundle) recompiler(reg *template.Registry) {
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			// If it's a rename, then fsnotify has removed the watch.
			// Add it back, after a delay.
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Println(err)
				}
			}

			var bundle = b.reload()
			if bundle.err != nil {
				Logger.Println(bundle.err)
				continue
			}
			var registry, err = bundle.compile(bundle.Environment())
			if err != nil {
				Logger.Println(err)
				continue
			}

			if b.recompilationCallback != nil {
				b.recompilationCallback(registry)
			}

			// update the existing template registry.
			// (this is not goroutine-safe, but that seems ok for a development aid,
			// as long as it works in practice)
			*reg = *registry
			Logger.Printf("update successful (%v)", ev)

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}

// Close stops watching the bundle's files.
func (b *Bundle) Close() error {
	if b.watcher == nil {
		return nil
	}
	return b.watcher.Close()
}
