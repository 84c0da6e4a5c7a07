package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// maxDepth bounds nested macro and caller invocations.
const maxDepth = 500

const (
	errRuntime     = errortypes.RuntimeError
	errArgument    = errortypes.ArgumentError
	errNotIterable = errortypes.NotIterable
)

// signal reports how a statement finished.
type signal int

const (
	signalNormal signal = iota
	signalBreak
	signalContinue
)

func (s signal) String() string {
	switch s {
	case signalBreak:
		return "break"
	case signalContinue:
		return "continue"
	}
	return "normal"
}

// state represents the state of an execution.
type state struct {
	env   *Environment
	tmpl  *ast.TemplateNode
	wr    io.Writer
	node  ast.Node // current node, for errors
	scope *scope   // innermost variable scope
	depth int      // macro call depth
}

// at marks the state to be on node n, for error reporting.
func (s *state) at(node ast.Node) {
	s.node = node
}

// position returns the line and column of the current node.
func (s *state) position() (line, col int) {
	return s.tmpl.LineCol(s.node.Position())
}

// raise terminates processing with err, positioned at the current node.
// Errors of other types are reported as runtime errors.
func (s *state) raise(err error) {
	var e *errortypes.Error
	if !errors.As(err, &e) {
		e = errortypes.Wrap(errRuntime, err)
	}
	var line, col = s.position()
	panic(e.At(s.tmpl.Name, line, col))
}

// errorf formats the error and terminates processing.
func (s *state) errorf(kind errortypes.Kind, format string, args ...interface{}) {
	s.raise(errortypes.Newf(kind, format, args...))
}

// errRecover is the handler that turns panics into returns.
func (s *state) errRecover(errp *error) {
	if e := recover(); e != nil {
		switch e := e.(type) {
		case runtime.Error:
			var line, col = s.position()
			*errp = errortypes.NewErrFilePosf(s.tmpl.Name, line, col,
				"template %s:%d:%d: %v\n%v", s.tmpl.Name, line, col, e, string(debug.Stack()))
		case error:
			*errp = e
		default:
			var line, col = s.position()
			*errp = fmt.Errorf("template %s:%d:%d: %v", s.tmpl.Name, line, col, e)
		}
	}
}

// write copies str to the output.
func (s *state) write(str string) {
	if _, err := io.WriteString(s.wr, str); err != nil {
		s.raise(err)
	}
}

// walk executes a statement, writing its output, and reports whether it
// ended in break or continue.
func (s *state) walk(node ast.Node) signal {
	s.at(node)
	switch node := node.(type) {
	case *ast.ListNode:
		for _, node := range node.Nodes {
			if sig := s.walk(node); sig != signalNormal {
				return sig
			}
		}
	case *ast.TextNode:
		s.write(node.Text)
	case *ast.OutputNode:
		s.write(s.eval(node.Expr).String())
	case *ast.IfNode:
		for _, cond := range node.Conds {
			if cond.Cond == nil || s.eval(cond.Cond).Truthy() {
				return s.walkScoped(cond.Body)
			}
		}
	case *ast.ForNode:
		return s.walkFor(node)
	case *ast.SetNode:
		return s.walkSet(node)
	case *ast.MacroNode:
		s.scope.set(node.Name, s.newMacro(node))
	case *ast.CallBlockNode:
		s.write(s.evalCallBlock(node).String())
	case *ast.FilterBlockNode:
		var body, sig = s.renderBlock(node.Body)
		var val data.Value = data.String(body)
		for _, filter := range node.Filters {
			val = s.applyFilter(filter, val)
		}
		s.at(node)
		s.write(val.String())
		return sig
	case *ast.GenerationNode:
		return s.walk(node.Body)
	case *ast.BreakNode:
		return signalBreak
	case *ast.ContinueNode:
		return signalContinue
	default:
		s.errorf(errRuntime, "unknown node: %T", node)
	}
	return signalNormal
}

// walkScoped executes body in a new child scope.
func (s *state) walkScoped(body ast.Node) signal {
	var saved = s.scope
	s.scope = newScope(saved)
	defer func() { s.scope = saved }()
	return s.walk(body)
}

// renderBlock executes body in a child scope and returns its output instead
// of writing it.
func (s *state) renderBlock(body ast.Node) (string, signal) {
	var buf bytes.Buffer
	var origWriter = s.wr
	s.wr = &buf
	defer func() { s.wr = origWriter }()
	var sig = s.walkScoped(body)
	return buf.String(), sig
}

func (s *state) walkFor(node *ast.ForNode) signal {
	var iterable = s.eval(node.Iter)
	items, ok := data.Iterate(iterable)
	if !ok {
		s.errorf(errNotIterable, "'%s' object is not iterable", data.TypeName(iterable))
	}

	var saved = s.scope
	defer func() { s.scope = saved }()

	if node.Filter != nil {
		var retained = make(data.List, 0, len(items))
		for _, item := range items {
			s.scope = newScope(saved)
			s.assign(node.Target, item)
			if s.eval(node.Filter).Truthy() {
				retained = append(retained, item)
			}
		}
		s.scope = saved
		items = retained
	}

	if len(items) == 0 {
		if node.Else != nil {
			return s.walkScoped(node.Else)
		}
		return signalNormal
	}

	for i, item := range items {
		s.scope = newScope(saved)
		s.assign(node.Target, item)
		s.scope.set("loop", newLoop(items, i))
		if s.walk(node.Body) == signalBreak {
			break
		}
	}
	return signalNormal
}

func (s *state) walkSet(node *ast.SetNode) signal {
	if node.Body == nil {
		s.assign(node.Target, s.eval(node.Value))
		return signalNormal
	}
	var body, sig = s.renderBlock(node.Body)
	var val data.Value = data.String(body)
	for _, filter := range node.Filters {
		val = s.applyFilter(filter, val)
	}
	s.at(node)
	s.assign(node.Target, val)
	return sig
}

// assign binds value to the target in the current scope: a name, a tuple of
// names (unpacking value), or a namespace attribute.
func (s *state) assign(target ast.Node, value data.Value) {
	switch target := target.(type) {
	case *ast.NameNode:
		s.scope.set(target.Name, value)
	case *ast.TupleNode:
		items, ok := data.Iterate(value)
		if !ok || data.IsUndefined(value) {
			s.errorf(errArgument, "cannot unpack non-iterable %s object", data.TypeName(value))
		}
		switch {
		case len(items) > len(target.Items):
			s.errorf(errArgument, "too many values to unpack (expected %d)", len(target.Items))
		case len(items) < len(target.Items):
			s.errorf(errArgument, "not enough values to unpack (expected %d, got %d)",
				len(target.Items), len(items))
		}
		for i, item := range target.Items {
			s.assign(item, items[i])
		}
	case *ast.GetAttrNode:
		var obj = s.eval(target.Arg)
		ns, ok := obj.(*data.Namespace)
		if !ok {
			s.errorf(errRuntime, "cannot assign attribute on non-namespace object %q (%s)",
				target.Arg.String(), data.TypeName(obj))
		}
		ns.SetAttr(target.Name, value)
	default:
		s.errorf(errRuntime, "cannot assign to %v", target)
	}
}

// Expressions ----------

// eval evaluates an expression.
func (s *state) eval(node ast.Node) data.Value {
	var prev = s.node
	s.at(node)
	var val = s.evalNode(node)
	s.node = prev
	return val
}

// evalOptional evaluates node, or returns nil for a missing node.
func (s *state) evalOptional(node ast.Node) data.Value {
	if node == nil {
		return nil
	}
	return s.eval(node)
}

func (s *state) evalNode(node ast.Node) data.Value {
	switch node := node.(type) {

	// Values ----------
	case *ast.NoneNode:
		return data.Null{}
	case *ast.BoolNode:
		return data.Bool(node.True)
	case *ast.IntNode:
		return data.Int(node.Value)
	case *ast.FloatNode:
		return data.Float(node.Value)
	case *ast.StringNode:
		return data.String(node.Value)
	case *ast.ImplicitConcatNode:
		return data.String(node.Value())
	case *ast.ListLiteralNode:
		return s.evalList(node.Items)
	case *ast.TupleNode:
		return s.evalList(node.Items)
	case *ast.DictLiteralNode:
		var m = &data.Map{}
		for i, k := range node.Keys {
			m.Set(mapKey(s.eval(k)), s.eval(node.Values[i]))
		}
		return m

	// References ----------
	case *ast.NameNode:
		return s.lookup(node.Name)
	case *ast.GetAttrNode:
		return getAttr(s.eval(node.Arg), node.Name)
	case *ast.GetItemNode:
		var obj, key = s.eval(node.Arg), s.eval(node.Key)
		if val := data.GetItem(obj, key); !data.IsUndefined(val) {
			return val
		}
		if name, ok := key.(data.String); ok {
			return getAttr(obj, string(name))
		}
		return data.Undefined{}
	case *ast.SliceNode:
		val, err := data.Slice(s.eval(node.Arg),
			s.evalOptional(node.Start), s.evalOptional(node.Stop), s.evalOptional(node.Step))
		if err != nil {
			s.raise(err)
		}
		return val
	case *ast.CallNode:
		var fn = s.eval(node.Func)
		var args, kwargs = s.evalArgs(node.Args)
		return s.call(node.Func, fn, args, kwargs)
	case *ast.FilterNode:
		return s.applyFilter(node, s.eval(node.Arg))
	case *ast.TestNode:
		return data.Bool(s.applyTest(node))

	// Operators ----------
	case *ast.NotNode:
		return data.Bool(!s.eval(node.Arg).Truthy())
	case *ast.NegateNode:
		return s.check(data.Negate(s.eval(node.Arg)))
	case *ast.PlusNode:
		var arg = s.eval(node.Arg)
		if !data.IsNumber(arg) {
			s.errorf(errRuntime, "bad operand type for unary +: '%s'", data.TypeName(arg))
		}
		return arg
	case *ast.AddNode:
		return s.check(data.Add(s.eval2(node.BinaryOpNode)))
	case *ast.SubNode:
		return s.check(data.Sub(s.eval2(node.BinaryOpNode)))
	case *ast.MulNode:
		return s.check(data.Mul(s.eval2(node.BinaryOpNode)))
	case *ast.DivNode:
		return s.check(data.Div(s.eval2(node.BinaryOpNode)))
	case *ast.FloorDivNode:
		return s.check(data.FloorDiv(s.eval2(node.BinaryOpNode)))
	case *ast.ModNode:
		return s.check(data.Mod(s.eval2(node.BinaryOpNode)))
	case *ast.PowNode:
		return s.check(data.Pow(s.eval2(node.BinaryOpNode)))
	case *ast.ConcatNode:
		var arg1, arg2 = s.eval2(node.BinaryOpNode)
		return data.String(arg1.String() + arg2.String())

	// Comparisons ----------
	case *ast.EqNode:
		var arg1, arg2 = s.eval2(node.BinaryOpNode)
		return data.Bool(arg1.Equals(arg2))
	case *ast.NotEqNode:
		var arg1, arg2 = s.eval2(node.BinaryOpNode)
		return data.Bool(!arg1.Equals(arg2))
	case *ast.LtNode:
		return data.Bool(s.compare(node.BinaryOpNode) < 0)
	case *ast.LteNode:
		return data.Bool(s.compare(node.BinaryOpNode) <= 0)
	case *ast.GtNode:
		return data.Bool(s.compare(node.BinaryOpNode) > 0)
	case *ast.GteNode:
		return data.Bool(s.compare(node.BinaryOpNode) >= 0)
	case *ast.InNode:
		return data.Bool(s.contains(node.BinaryOpNode))
	case *ast.NotInNode:
		return data.Bool(!s.contains(node.BinaryOpNode))

	// Boolean operators ----------
	case *ast.AndNode:
		var arg1 = s.eval(node.Arg1)
		if !arg1.Truthy() {
			return arg1
		}
		return s.eval(node.Arg2)
	case *ast.OrNode:
		var arg1 = s.eval(node.Arg1)
		if arg1.Truthy() {
			return arg1
		}
		return s.eval(node.Arg2)
	case *ast.CondExprNode:
		if s.eval(node.Cond).Truthy() {
			return s.eval(node.Then)
		}
		if node.Else == nil {
			return data.Undefined{}
		}
		return s.eval(node.Else)
	}
	s.errorf(errRuntime, "unknown node: %T", node)
	return nil
}

// eval2 evaluates the operands of a binary operator, left first.
func (s *state) eval2(node ast.BinaryOpNode) (data.Value, data.Value) {
	return s.eval(node.Arg1), s.eval(node.Arg2)
}

// check returns val, or raises err.
func (s *state) check(val data.Value, err error) data.Value {
	if err != nil {
		s.raise(err)
	}
	return val
}

func (s *state) compare(node ast.BinaryOpNode) int {
	cmp, err := data.Compare(s.eval2(node))
	if err != nil {
		s.raise(err)
	}
	return cmp
}

func (s *state) contains(node ast.BinaryOpNode) bool {
	var item, container = s.eval2(node)
	found, err := data.Contains(container, item)
	if err != nil {
		s.raise(err)
	}
	return found
}

func (s *state) evalList(nodes []ast.Node) data.List {
	var items = make(data.List, len(nodes))
	for i, item := range nodes {
		items[i] = s.eval(item)
	}
	return items
}

// mapKey returns the string under which a dict literal stores key.
func mapKey(key data.Value) string {
	if s, ok := key.(data.String); ok {
		return string(s)
	}
	return key.String()
}

// lookup resolves a name through the scope chain, then the registered
// globals. Unbound names are Undefined.
func (s *state) lookup(name string) data.Value {
	if val, ok := s.scope.lookup(name); ok {
		return val
	}
	if global, ok := s.env.globals[name]; ok {
		var env = s.env
		return data.NewCallable(name, func(args []data.Value, kwargs *data.Map) (data.Value, error) {
			return global(args, kwargs, env)
		})
	}
	return data.Undefined{}
}

// evalArgs evaluates call arguments, expanding *list and **mapping.
func (s *state) evalArgs(nodes []ast.Node) ([]data.Value, *data.Map) {
	var args []data.Value
	var kwargs *data.Map
	for _, node := range nodes {
		switch node := node.(type) {
		case *ast.KeywordNode:
			if kwargs == nil {
				kwargs = &data.Map{}
			}
			kwargs.Set(node.Name, s.eval(node.Value))
		case *ast.SplatNode:
			var val = s.eval(node.Arg)
			if node.Double {
				m, ok := val.(*data.Map)
				if !ok {
					s.errorf(errRuntime, "argument after ** must be a mapping, not %s", data.TypeName(val))
				}
				if kwargs == nil {
					kwargs = &data.Map{}
				}
				kwargs.Update(m)
				continue
			}
			items, ok := data.Iterate(val)
			if !ok {
				s.errorf(errRuntime, "argument after * must be iterable, not %s", data.TypeName(val))
			}
			args = append(args, items...)
		default:
			args = append(args, s.eval(node))
		}
	}
	return args, kwargs
}

// call invokes fn, the value of the expression fnNode.
func (s *state) call(fnNode ast.Node, fn data.Value, args []data.Value, kwargs *data.Map) data.Value {
	callable, ok := fn.(*data.Callable)
	if !ok {
		if data.IsUndefined(fn) {
			s.errorf(errRuntime, "%q is undefined", fnNode.String())
		}
		s.errorf(errRuntime, "'%s' object is not callable", data.TypeName(fn))
	}
	val, err := callable.Call(args, kwargs)
	if err != nil {
		s.raise(err)
	}
	if val == nil {
		return data.Null{}
	}
	return val
}

// applyFilter applies the filter to the input value.
func (s *state) applyFilter(node *ast.FilterNode, input data.Value) data.Value {
	var filter, ok = s.env.filters[node.Name]
	if !ok {
		s.at(node)
		s.raise(unknownName(errortypes.UnknownFilter, "filter", node.Name, s.env.FilterNames()))
	}
	var args, kwargs = s.evalArgs(node.Args)
	s.at(node)
	val, err := filter(append([]data.Value{input}, args...), kwargs, s.env)
	if err != nil {
		s.raise(err)
	}
	if val == nil {
		return data.Null{}
	}
	return val
}

// applyTest evaluates "x is [not] test".
func (s *state) applyTest(node *ast.TestNode) bool {
	var test, ok = s.env.tests[node.Name]
	if !ok {
		s.raise(unknownName(errortypes.UnknownTest, "test", node.Name, s.env.TestNames()))
	}
	var input = s.eval(node.Arg)
	var args, kwargs = s.evalArgs(node.Args)
	result, err := test(append([]data.Value{input}, args...), kwargs, s.env)
	if err != nil {
		s.raise(err)
	}
	return result != node.Negated
}

// Macros ----------

// newMacro returns the callable defined by a macro statement. It closes over
// the current scope.
func (s *state) newMacro(node *ast.MacroNode) *data.Callable {
	var closure = s.scope
	return data.NewCallable(node.Name, func(args []data.Value, kwargs *data.Map) (data.Value, error) {
		return s.invoke(newScope(closure), func(frame *scope) {
			kwargs = kwargs.Copy()
			if caller, ok := kwargs.Get("caller"); ok {
				frame.set("caller", caller)
				kwargs.Delete("caller")
			}
			s.bindParams(frame, "macro '"+node.Name+"'", node.Params, args, kwargs)
			if sig := s.walk(node.Body); sig != signalNormal {
				s.errorf(errRuntime, "'%v' outside of a loop", sig)
			}
		})
	})
}

// evalCallBlock calls the block's macro with a "caller" that renders the
// block body in the current scope.
func (s *state) evalCallBlock(node *ast.CallBlockNode) data.Value {
	var site = s.scope
	var caller = data.NewCallable("caller", func(args []data.Value, kwargs *data.Map) (data.Value, error) {
		return s.invoke(newScope(site), func(frame *scope) {
			s.bindParams(frame, "caller", node.Params, args, kwargs.Copy())
			if sig := s.walk(node.Body); sig != signalNormal {
				s.errorf(errRuntime, "'%v' outside of a loop", sig)
			}
		})
	})

	var fn = s.eval(node.Call.Func)
	var args, kwargs = s.evalArgs(node.Call.Args)
	if kwargs == nil {
		kwargs = &data.Map{}
	}
	kwargs.Set("caller", caller)
	s.at(node)
	return s.call(node.Call.Func, fn, args, kwargs)
}

// invoke runs body with frame as the innermost scope and returns its output.
// Errors raised within are returned rather than propagated, so the callable
// may be invoked from native code.
func (s *state) invoke(frame *scope, body func(frame *scope)) (result data.Value, err error) {
	if s.depth >= maxDepth {
		return nil, errortypes.Newf(errRuntime, "maximum recursion depth exceeded")
	}
	var buf bytes.Buffer
	var savedScope, savedWr, savedNode = s.scope, s.wr, s.node
	s.scope, s.wr = frame, &buf
	s.depth++
	defer func() {
		s.scope, s.wr, s.node = savedScope, savedWr, savedNode
		s.depth--
	}()
	defer s.errRecover(&err)
	body(frame)
	return data.String(buf.String()), nil
}

// bindParams binds arguments to parameters in frame: positionally, then by
// keyword, then from defaults, which may refer to earlier parameters. Extra
// positional arguments are bound to "varargs" and unknown keywords to
// "kwargs".
func (s *state) bindParams(frame *scope, name string, params []*ast.ParamNode, args []data.Value, kwargs *data.Map) {
	for i, param := range params {
		var val, ok = kwargs.Get(param.Name)
		switch {
		case i < len(args) && ok:
			s.errorf(errArgument, "%s got multiple values for argument '%s'", name, param.Name)
		case i < len(args):
			val = args[i]
		case ok:
			kwargs.Delete(param.Name)
		case param.Default != nil:
			val = s.eval(param.Default)
		default:
			s.errorf(errArgument, "%s missing required argument '%s'", name, param.Name)
		}
		frame.set(param.Name, val)
	}
	var varargs = data.List{}
	if len(args) > len(params) {
		varargs = append(varargs, args[len(params):]...)
	}
	frame.set("varargs", varargs)
	frame.set("kwargs", kwargs)
}
