// Package ast contains definitions for the in-memory representation of a
// Jinja template.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Node represents any singular piece of a template.  For example, a sequence of
// raw text or an output tag.
type Node interface {
	String() string // String returns the template source representation of this node.
	Position() Pos  // byte position of start of node in full original input string
}

// ParentNode is any Node that has descendent nodes.  For example, the Children
// of a AddNode are the two nodes that should be added.
type ParentNode interface {
	Node
	Children() []Node
}

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// TemplateNode is the root of a parsed template.
type TemplateNode struct {
	Name string // template name, used in error messages
	Text string // full source, used to compute line numbers
	Body *ListNode
}

func (n *TemplateNode) Position() Pos {
	return 0
}

func (n *TemplateNode) Children() []Node {
	return []Node{n.Body}
}

func (n *TemplateNode) String() string {
	return n.Body.String()
}

// LineCol returns the 1-based line and column of pos within the source.
func (n *TemplateNode) LineCol(pos Pos) (line, col int) {
	var text = n.Text
	var p = int(pos)
	if p > len(text) {
		p = len(text)
	}
	line = 1 + strings.Count(text[:p], "\n")
	col = p - strings.LastIndex(text[:p], "\n")
	return line, col
}

// ListNode holds a sequence of nodes.
type ListNode struct {
	Pos
	Nodes []Node // The element nodes in lexical order.
}

func (l *ListNode) String() string {
	b := new(bytes.Buffer)
	for _, n := range l.Nodes {
		fmt.Fprint(b, n)
	}
	return b.String()
}

func (l *ListNode) Children() []Node {
	return l.Nodes
}

// Statements ----------

// TextNode is literal template text, including the contents of raw blocks.
type TextNode struct {
	Pos
	Text string
}

func (t *TextNode) String() string {
	if strings.Contains(t.Text, "{{") || strings.Contains(t.Text, "{%") || strings.Contains(t.Text, "{#") {
		return "{% raw %}" + t.Text + "{% endraw %}"
	}
	return t.Text
}

// OutputNode prints the value of an expression.
type OutputNode struct {
	Pos
	Expr Node
}

func (n *OutputNode) String() string {
	return "{{ " + n.Expr.String() + " }}"
}

func (n *OutputNode) Children() []Node {
	return []Node{n.Expr}
}

type IfNode struct {
	Pos
	Conds []*IfCondNode
}

func (n *IfNode) String() string {
	var expr string
	for i, cond := range n.Conds {
		if i == 0 {
			expr += "{% if "
		} else if cond.Cond == nil {
			expr += "{% else %}"
		} else {
			expr += "{% elif "
		}
		expr += cond.String()
	}
	return expr + "{% endif %}"
}

func (n *IfNode) Children() []Node {
	var nodes []Node
	for _, child := range n.Conds {
		nodes = append(nodes, child)
	}
	return nodes
}

type IfCondNode struct {
	Pos
	Cond Node // nil if "else"
	Body *ListNode
}

func (n *IfCondNode) String() string {
	var expr string
	if n.Cond != nil {
		expr = n.Cond.String() + " %}"
	}
	return expr + n.Body.String()
}

func (n *IfCondNode) Children() []Node {
	if n.Cond == nil {
		return []Node{n.Body}
	}
	return []Node{n.Cond, n.Body}
}

// ForNode iterates over a list, map or string.
type ForNode struct {
	Pos
	Target Node // *NameNode or *TupleNode of *NameNode
	Iter   Node
	Filter Node // optional "if" clause
	Body   *ListNode
	Else   *ListNode // optional
}

func (n *ForNode) String() string {
	var expr = "{% for " + n.Target.String() + " in " + n.Iter.String()
	if n.Filter != nil {
		expr += " if " + n.Filter.String()
	}
	expr += " %}" + n.Body.String()
	if n.Else != nil {
		expr += "{% else %}" + n.Else.String()
	}
	return expr + "{% endfor %}"
}

func (n *ForNode) Children() []Node {
	var children = []Node{n.Target, n.Iter}
	if n.Filter != nil {
		children = append(children, n.Filter)
	}
	children = append(children, n.Body)
	if n.Else != nil {
		children = append(children, n.Else)
	}
	return children
}

// SetNode assigns a variable, a tuple of variables or a namespace attribute.
// Exactly one of Value and Body is set; Filters apply only to Body.
type SetNode struct {
	Pos
	Target  Node // *NameNode, *TupleNode or *GetAttrNode
	Value   Node
	Body    *ListNode
	Filters []*FilterNode
}

func (n *SetNode) String() string {
	if n.Body == nil {
		return "{% set " + n.Target.String() + " = " + n.Value.String() + " %}"
	}
	return "{% set " + n.Target.String() + filterChain(n.Filters) + " %}" +
		n.Body.String() + "{% endset %}"
}

func (n *SetNode) Children() []Node {
	var children = []Node{n.Target}
	if n.Value != nil {
		children = append(children, n.Value)
	}
	if n.Body != nil {
		children = append(children, n.Body)
	}
	for _, f := range n.Filters {
		children = append(children, f)
	}
	return children
}

// MacroNode defines a macro in the enclosing scope.
type MacroNode struct {
	Pos
	Name   string
	Params []*ParamNode
	Body   *ListNode
}

func (n *MacroNode) String() string {
	return "{% macro " + n.Name + params(n.Params) + " %}" + n.Body.String() + "{% endmacro %}"
}

func (n *MacroNode) Children() []Node {
	var children []Node
	for _, p := range n.Params {
		children = append(children, p)
	}
	return append(children, n.Body)
}

// ParamNode is a macro or call block parameter, with an optional default.
type ParamNode struct {
	Pos
	Name    string
	Default Node
}

func (n *ParamNode) String() string {
	if n.Default == nil {
		return n.Name
	}
	return n.Name + "=" + n.Default.String()
}

func (n *ParamNode) Children() []Node {
	if n.Default == nil {
		return nil
	}
	return []Node{n.Default}
}

func params(ps []*ParamNode) string {
	var names = make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// CallBlockNode invokes a macro with a caller that renders the block body.
type CallBlockNode struct {
	Pos
	Params []*ParamNode // parameters of the caller; nil if none declared
	Call   *CallNode
	Body   *ListNode
}

func (n *CallBlockNode) String() string {
	var expr = "{% call"
	if n.Params != nil {
		expr += params(n.Params)
	}
	return expr + " " + n.Call.String() + " %}" + n.Body.String() + "{% endcall %}"
}

func (n *CallBlockNode) Children() []Node {
	var children []Node
	for _, p := range n.Params {
		children = append(children, p)
	}
	return append(children, n.Call, n.Body)
}

// FilterBlockNode pipes its rendered body through a chain of filters.
type FilterBlockNode struct {
	Pos
	Filters []*FilterNode // each with a nil Arg
	Body    *ListNode
}

func (n *FilterBlockNode) String() string {
	return "{% filter " + strings.TrimPrefix(filterChain(n.Filters), " | ") + " %}" +
		n.Body.String() + "{% endfilter %}"
}

func (n *FilterBlockNode) Children() []Node {
	var children []Node
	for _, f := range n.Filters {
		children = append(children, f)
	}
	return append(children, n.Body)
}

func filterChain(filters []*FilterNode) string {
	var expr string
	for _, f := range filters {
		expr += " | " + f.call()
	}
	return expr
}

// GenerationNode marks the assistant generation part of a chat template. It
// renders its body unchanged.
type GenerationNode struct {
	Pos
	Body *ListNode
}

func (n *GenerationNode) String() string {
	return "{% generation %}" + n.Body.String() + "{% endgeneration %}"
}

func (n *GenerationNode) Children() []Node {
	return []Node{n.Body}
}

type BreakNode struct {
	Pos
}

func (n *BreakNode) String() string {
	return "{% break %}"
}

type ContinueNode struct {
	Pos
}

func (n *ContinueNode) String() string {
	return "{% continue %}"
}

// Values ----------

type NoneNode struct {
	Pos
}

func (s *NoneNode) String() string {
	return "none"
}

type BoolNode struct {
	Pos
	True bool
}

func (b *BoolNode) String() string {
	if b.True {
		return "true"
	}
	return "false"
}

type IntNode struct {
	Pos
	Value int64
}

func (n *IntNode) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatNode struct {
	Pos
	Value float64
}

func (n *FloatNode) String() string {
	var s = strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

type StringNode struct {
	Pos
	Quoted string // e.g. 'hello\tworld'
	Value  string // e.g. hello	world
}

func (s *StringNode) String() string {
	return s.Quoted
}

// ImplicitConcatNode holds adjacent string literals, which are joined.
type ImplicitConcatNode struct {
	Pos
	Parts []*StringNode
}

func (n *ImplicitConcatNode) String() string {
	var parts = make([]string, len(n.Parts))
	for i, p := range n.Parts {
		parts[i] = p.Quoted
	}
	return strings.Join(parts, " ")
}

// Value returns the joined string.
func (n *ImplicitConcatNode) Value() string {
	var b strings.Builder
	for _, p := range n.Parts {
		b.WriteString(p.Value)
	}
	return b.String()
}

func (n *ImplicitConcatNode) Children() []Node {
	var nodes = make([]Node, len(n.Parts))
	for i, p := range n.Parts {
		nodes[i] = p
	}
	return nodes
}

type ListLiteralNode struct {
	Pos
	Items []Node
}

func (n *ListLiteralNode) String() string {
	return "[" + join(n.Items) + "]"
}

func (n *ListLiteralNode) Children() []Node {
	return n.Items
}

// TupleNode is a comma separated sequence. It evaluates to a list.
type TupleNode struct {
	Pos
	Items []Node
}

func (n *TupleNode) String() string {
	if len(n.Items) == 1 {
		return "(" + n.Items[0].String() + ",)"
	}
	return "(" + join(n.Items) + ")"
}

func (n *TupleNode) Children() []Node {
	return n.Items
}

// DictLiteralNode holds key/value pairs in source order.
type DictLiteralNode struct {
	Pos
	Keys   []Node
	Values []Node
}

func (n *DictLiteralNode) String() string {
	var items = make([]string, len(n.Keys))
	for i := range n.Keys {
		items[i] = n.Keys[i].String() + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(items, ", ") + "}"
}

func (n *DictLiteralNode) Children() []Node {
	var nodes []Node
	for i := range n.Keys {
		nodes = append(nodes, n.Keys[i], n.Values[i])
	}
	return nodes
}

func join(nodes []Node) string {
	var items = make([]string, len(nodes))
	for i, item := range nodes {
		items[i] = item.String()
	}
	return strings.Join(items, ", ")
}

// References ----------

// NameNode is a variable reference, or an assignment target.
type NameNode struct {
	Pos
	Name string
}

func (n *NameNode) String() string {
	return n.Name
}

// GetAttrNode is dotted attribute access: Arg.Name
type GetAttrNode struct {
	Pos
	Arg  Node
	Name string
}

func (n *GetAttrNode) String() string {
	return operand(n.Arg) + "." + n.Name
}

func (n *GetAttrNode) Children() []Node {
	return []Node{n.Arg}
}

// GetItemNode is subscript access: Arg[Key]
type GetItemNode struct {
	Pos
	Arg Node
	Key Node
}

func (n *GetItemNode) String() string {
	return operand(n.Arg) + "[" + n.Key.String() + "]"
}

func (n *GetItemNode) Children() []Node {
	return []Node{n.Arg, n.Key}
}

// SliceNode is Arg[Start:Stop:Step]. Omitted bounds are nil.
type SliceNode struct {
	Pos
	Arg               Node
	Start, Stop, Step Node
}

func (n *SliceNode) String() string {
	var bound = func(b Node) string {
		if b == nil {
			return ""
		}
		return b.String()
	}
	var expr = operand(n.Arg) + "[" + bound(n.Start) + ":" + bound(n.Stop)
	if n.Step != nil {
		expr += ":" + n.Step.String()
	}
	return expr + "]"
}

func (n *SliceNode) Children() []Node {
	var nodes = []Node{n.Arg}
	for _, b := range []Node{n.Start, n.Stop, n.Step} {
		if b != nil {
			nodes = append(nodes, b)
		}
	}
	return nodes
}

// CallNode calls Func. Args holds positional expressions, *KeywordNode and
// *SplatNode in source order.
type CallNode struct {
	Pos
	Func Node
	Args []Node
}

func (n *CallNode) String() string {
	return operand(n.Func) + "(" + join(n.Args) + ")"
}

func (n *CallNode) Children() []Node {
	return append([]Node{n.Func}, n.Args...)
}

// KeywordNode is a name=value call argument.
type KeywordNode struct {
	Pos
	Name  string
	Value Node
}

func (n *KeywordNode) String() string {
	return n.Name + "=" + n.Value.String()
}

func (n *KeywordNode) Children() []Node {
	return []Node{n.Value}
}

// SplatNode unpacks a list (*args) or a mapping (**kwargs) into call arguments.
type SplatNode struct {
	Pos
	Arg    Node
	Double bool
}

func (n *SplatNode) String() string {
	if n.Double {
		return "**" + operand(n.Arg)
	}
	return "*" + operand(n.Arg)
}

func (n *SplatNode) Children() []Node {
	return []Node{n.Arg}
}

// FilterNode applies the named filter to Arg. Args follow the CallNode rules.
type FilterNode struct {
	Pos
	Arg  Node // nil within filter blocks and set blocks
	Name string
	Args []Node
}

func (n *FilterNode) call() string {
	if n.Args == nil {
		return n.Name
	}
	return n.Name + "(" + join(n.Args) + ")"
}

func (n *FilterNode) String() string {
	switch arg := n.Arg.(type) {
	case nil:
		return n.call()
	case *FilterNode:
		return arg.String() + " | " + n.call()
	}
	return operand(n.Arg) + " | " + n.call()
}

func (n *FilterNode) Children() []Node {
	if n.Arg == nil {
		return n.Args
	}
	return append([]Node{n.Arg}, n.Args...)
}

// TestNode is "Arg is [not] Name(Args)".
type TestNode struct {
	Pos
	Arg     Node
	Name    string
	Args    []Node
	Negated bool
}

func (n *TestNode) String() string {
	var expr = operand(n.Arg) + " is "
	if n.Negated {
		expr += "not "
	}
	expr += n.Name
	if n.Args != nil {
		expr += "(" + join(n.Args) + ")"
	}
	return expr
}

func (n *TestNode) Children() []Node {
	return append([]Node{n.Arg}, n.Args...)
}

// Operators ----------

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) String() string {
	return "not " + operand(n.Arg)
}

func (n *NotNode) Children() []Node {
	return []Node{n.Arg}
}

type NegateNode struct {
	Pos
	Arg Node
}

func (n *NegateNode) String() string {
	return "-" + operand(n.Arg)
}

func (n *NegateNode) Children() []Node {
	return []Node{n.Arg}
}

// PlusNode is unary plus.
type PlusNode struct {
	Pos
	Arg Node
}

func (n *PlusNode) String() string {
	return "+" + operand(n.Arg)
}

func (n *PlusNode) Children() []Node {
	return []Node{n.Arg}
}

type BinaryOpNode struct {
	Name string
	Pos
	Arg1, Arg2 Node
}

func (n *BinaryOpNode) String() string {
	return operand(n.Arg1) + " " + n.Name + " " + operand(n.Arg2)
}

func (n *BinaryOpNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2}
}

type (
	AddNode      struct{ BinaryOpNode }
	SubNode      struct{ BinaryOpNode }
	MulNode      struct{ BinaryOpNode }
	DivNode      struct{ BinaryOpNode }
	FloorDivNode struct{ BinaryOpNode }
	ModNode      struct{ BinaryOpNode }
	PowNode      struct{ BinaryOpNode }
	ConcatNode   struct{ BinaryOpNode } // ~
	EqNode       struct{ BinaryOpNode }
	NotEqNode    struct{ BinaryOpNode }
	GtNode       struct{ BinaryOpNode }
	GteNode      struct{ BinaryOpNode }
	LtNode       struct{ BinaryOpNode }
	LteNode      struct{ BinaryOpNode }
	InNode       struct{ BinaryOpNode }
	NotInNode    struct{ BinaryOpNode }
	OrNode       struct{ BinaryOpNode }
	AndNode      struct{ BinaryOpNode }
)

// CondExprNode is "Then if Cond else Else". Else may be nil.
type CondExprNode struct {
	Pos
	Cond, Then, Else Node
}

func (n *CondExprNode) String() string {
	var expr = operand(n.Then) + " if " + operand(n.Cond)
	if n.Else != nil {
		expr += " else " + operand(n.Else)
	}
	return expr
}

func (n *CondExprNode) Children() []Node {
	if n.Else == nil {
		return []Node{n.Then, n.Cond}
	}
	return []Node{n.Then, n.Cond, n.Else}
}

// operand parenthesizes operator nodes so that String output parses back to
// the same tree.
func operand(n Node) string {
	switch n.(type) {
	case *NotNode, *NegateNode, *PlusNode, *TestNode, *CondExprNode, *FilterNode,
		*AddNode, *SubNode, *MulNode, *DivNode, *FloorDivNode, *ModNode, *PowNode,
		*ConcatNode, *EqNode, *NotEqNode, *GtNode, *GteNode, *LtNode, *LteNode,
		*InNode, *NotInNode, *OrNode, *AndNode:
		return "(" + n.String() + ")"
	}
	return n.String()
}
