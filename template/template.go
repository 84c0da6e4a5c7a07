package template

import "github.com/robfig/jinja/ast"

// Template is a parsed Jinja template and the name it was registered under,
// typically its path relative to the template directory.
type Template struct {
	Name string
	Node *ast.TemplateNode // root of the parse tree, including the source text
}

// LineCol returns the line and column of pos within the template source.
func (t Template) LineCol(pos ast.Pos) (line, col int) {
	return t.Node.LineCol(pos)
}
