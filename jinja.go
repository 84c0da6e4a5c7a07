package jinja

import "github.com/robfig/jinja/render"

// Render parses source and renders it with the default filters, tests and
// globals. The context must be a map or struct (or nil); it is converted with
// data.New.
func Render(source string, ctx interface{}) (string, error) {
	return render.NewEnvironment().RenderString(source, ctx)
}
