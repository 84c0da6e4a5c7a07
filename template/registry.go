// Package template holds the set of templates loaded by a bundle.
package template

import (
	"fmt"

	"github.com/robfig/jinja/ast"
)

// Registry is the set of templates available for rendering, in the order
// they were added.
type Registry struct {
	Templates []Template
}

// Add adds the parsed template to the registry under the given name. Names
// must be unique.
func (r *Registry) Add(name string, node *ast.TemplateNode) error {
	if r.Template(name) != nil {
		return fmt.Errorf("template %q already defined", name)
	}
	r.Templates = append(r.Templates, Template{name, node})
	return nil
}

// Template returns the template with the given name, or nil if there is none.
func (r *Registry) Template(name string) *Template {
	for i := range r.Templates {
		if r.Templates[i].Name == name {
			return &r.Templates[i]
		}
	}
	return nil
}

// Names returns the names of the registered templates, in order.
func (r *Registry) Names() []string {
	var names = make([]string, len(r.Templates))
	for i, t := range r.Templates {
		names[i] = t.Name
	}
	return names
}
