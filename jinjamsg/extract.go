package jinjamsg

import (
	"fmt"

	"github.com/robfig/gettext/po"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/template"
)

// Extract returns a PO template holding the messages passed as string
// literals to the gettext functions in the registry's templates. Each
// message is listed once, with a reference to every call site.
func Extract(reg template.Registry) *po.File {
	var e = extractor{&po.File{}, make(map[string]int)}
	for _, t := range reg.Templates {
		e.extract(t, t.Node)
	}
	return e.file
}

type extractor struct {
	file  *po.File
	index map[string]int // message key to position in file.Messages
}

func (e extractor) extract(t template.Template, node ast.Node) {
	if call, ok := node.(*ast.CallNode); ok {
		if msg, ok := message(call); ok {
			var line, _ = t.LineCol(call.Position())
			e.add(msg, fmt.Sprintf("%s:%d", t.Name, line))
		}
	}
	if parent, ok := node.(ast.ParentNode); ok {
		for _, child := range parent.Children() {
			e.extract(t, child)
		}
	}
}

func (e extractor) add(msg po.Message, ref string) {
	var k = key(msg.Ctxt, msg.Id)
	if i, ok := e.index[k]; ok {
		var existing = &e.file.Messages[i]
		existing.References = append(existing.References, ref)
		if existing.IdPlural == "" {
			existing.IdPlural = msg.IdPlural
		}
		return
	}
	msg.References = []string{ref}
	e.index[k] = len(e.file.Messages)
	e.file.Messages = append(e.file.Messages, msg)
}

// message returns the message described by a call to one of the gettext
// functions, if its message arguments are literals.
func message(call *ast.CallNode) (po.Message, bool) {
	name, ok := call.Func.(*ast.NameNode)
	if !ok {
		return po.Message{}, false
	}
	var strs []string
	for _, arg := range call.Args {
		if s, ok := literal(arg); ok {
			strs = append(strs, s)
		} else {
			break
		}
	}
	switch {
	case (name.Name == "gettext" || name.Name == "_") && len(strs) >= 1:
		return po.Message{Id: strs[0]}, true
	case name.Name == "ngettext" && len(strs) >= 2:
		return po.Message{Id: strs[0], IdPlural: strs[1]}, true
	case name.Name == "pgettext" && len(strs) >= 2:
		return po.Message{Ctxt: strs[0], Id: strs[1]}, true
	}
	return po.Message{}, false
}

func literal(node ast.Node) (string, bool) {
	switch node := node.(type) {
	case *ast.StringNode:
		return node.Value, true
	case *ast.ImplicitConcatNode:
		return node.Value(), true
	}
	return "", false
}
