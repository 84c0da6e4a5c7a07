package render

import (
	"bytes"
	"errors"
	"io"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/data"
)

// Renderer executes one template. Output is buffered, so a failed render
// writes nothing.
type Renderer struct {
	env  *Environment
	tmpl *ast.TemplateNode
}

// NewRenderer returns a renderer for the given template.
func (env *Environment) NewRenderer(tmpl *ast.TemplateNode) *Renderer {
	return &Renderer{env, tmpl}
}

// Execute applies the template to ctx and writes the result to wr.
func (r Renderer) Execute(wr io.Writer, ctx *data.Map) error {
	if r.tmpl == nil {
		return errors.New("template required")
	}
	var buf bytes.Buffer
	if err := r.execute(&buf, ctx); err != nil {
		return err
	}
	_, err := buf.WriteTo(wr)
	return err
}

func (r Renderer) execute(wr io.Writer, ctx *data.Map) (err error) {
	var root = &scope{vars: r.env.root}
	var s = &state{
		env:   r.env,
		tmpl:  r.tmpl,
		wr:    wr,
		node:  r.tmpl,
		scope: newScope(&scope{vars: ctx, parent: root}),
	}
	defer s.errRecover(&err)
	if sig := s.walk(r.tmpl.Body); sig != signalNormal {
		s.errorf(errRuntime, "'%v' outside of a loop", sig)
	}
	return nil
}
