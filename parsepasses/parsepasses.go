// Package parsepasses contains checks run over parsed templates before they
// are rendered, catching errors that would otherwise surface only when the
// offending branch executes.
package parsepasses

import (
	"errors"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/errortypes"
	"github.com/robfig/jinja/render"
	"github.com/robfig/jinja/template"
)

// CheckFilters validates that every filter and test referenced by the
// templates in the registry is registered in env. Names passed as strings to
// filters like map and select are not checked.
func CheckFilters(reg template.Registry, env *render.Environment) error {
	for _, t := range reg.Templates {
		var check = func(node ast.Node) error {
			switch node := node.(type) {
			case *ast.FilterNode:
				return env.CheckFilter(node.Name)
			case *ast.TestNode:
				return env.CheckTest(node.Name)
			}
			return nil
		}
		if err := walk(t, t.Node, check); err != nil {
			return err
		}
	}
	return nil
}

// CheckLoopControls validates that break and continue appear only within
// the body of a for loop. Macro and call block bodies begin a new context:
// a loop surrounding the definition does not count.
func CheckLoopControls(reg template.Registry) error {
	for _, t := range reg.Templates {
		if err := checkLoopControls(t, t.Node, false); err != nil {
			return err
		}
	}
	return nil
}

func checkLoopControls(t template.Template, node ast.Node, inLoop bool) error {
	switch node := node.(type) {
	case *ast.BreakNode:
		if !inLoop {
			return positioned(t, node, errortypes.Newf(errortypes.SyntaxError, "'break' outside of a loop"))
		}
	case *ast.ContinueNode:
		if !inLoop {
			return positioned(t, node, errortypes.Newf(errortypes.SyntaxError, "'continue' outside of a loop"))
		}
	case *ast.ForNode:
		if err := checkLoopControls(t, node.Body, true); err != nil {
			return err
		}
		if node.Else != nil {
			return checkLoopControls(t, node.Else, inLoop)
		}
		return nil
	case *ast.MacroNode:
		return checkLoopControls(t, node.Body, false)
	case *ast.CallBlockNode:
		return checkLoopControls(t, node.Body, false)
	case ast.ParentNode:
		for _, child := range node.Children() {
			if err := checkLoopControls(t, child, inLoop); err != nil {
				return err
			}
		}
	}
	return nil
}

// walk calls fn on node and its descendants, stopping at the first error.
func walk(t template.Template, node ast.Node, fn func(ast.Node) error) error {
	if err := fn(node); err != nil {
		return positioned(t, node, err)
	}
	if parent, ok := node.(ast.ParentNode); ok {
		for _, child := range parent.Children() {
			if err := walk(t, child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// positioned attaches the template name and the node's position to err.
func positioned(t template.Template, node ast.Node, err error) error {
	var e *errortypes.Error
	if !errors.As(err, &e) {
		return err
	}
	var line, col = t.LineCol(node.Position())
	return e.At(t.Name, line, col)
}
