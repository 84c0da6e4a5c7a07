// Package parse converts a Jinja template into its in-memory representation (AST)
package parse

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/errortypes"
)

// tree is the parsed representation of a single template.
type tree struct {
	name  string  // name provided for the input
	text  string  // the full input text
	lex   *lexer  // lexer provides a sequence of tokens
	items []Token // tokens from the lexer
	cur   int     // index of the next token
	token Token   // the most recently read token, for error positions
}

// Parse parses the input into a TemplateNode (the AST).
func Parse(name, text string, opts Options) (node *ast.TemplateNode, err error) {
	var t = newTree(name, text, lex(name, text, opts))
	defer t.recover(&err)
	var body, _ = t.itemList()
	return &ast.TemplateNode{
		Name: name,
		Text: text,
		Body: body,
	}, nil
}

// Expr parses a lone expression, e.g. "messages[0].content | trim".
func Expr(str string) (node ast.Node, err error) {
	var t = newTree("expr", str, lexExpr("expr", str))
	defer t.recover(&err)
	node = t.parseTupleExpr()
	t.expect(TokenEOF, "expression")
	return node, nil
}

func newTree(name, text string, l *lexer) *tree {
	return &tree{
		name:  name,
		text:  text,
		lex:   l,
		items: l.items,
	}
}

// itemList:
//	(text | output | statement)*
// Terminates at EOF or at a block tag naming one of the given keywords, which
// is consumed along with its opening delimiter and returned.
func (t *tree) itemList(until ...string) (list *ast.ListNode, end string) {
	list = &ast.ListNode{Pos: t.peek().Pos}
	for {
		switch token := t.next(); token.Type {
		case TokenEOF:
			if len(until) > 0 {
				t.errorf("unexpected end of template; missing {%% %s %%}", until[len(until)-1])
			}
			return list, ""
		case TokenText:
			list.Nodes = appendText(list.Nodes, &ast.TextNode{Pos: token.Pos, Text: token.Val})
		case TokenVariableBegin:
			list.Nodes = append(list.Nodes, t.parseOutput(token))
		case TokenBlockBegin:
			var keyword = t.expect(TokenName, "block tag")
			if isOneOf(keyword.Val, until) {
				return list, keyword.Val
			}
			list.Nodes = appendText(list.Nodes, t.parseStatement(token, keyword))
		default:
			t.unexpected(token, "template")
		}
	}
}

// appendText appends node to nodes, merging adjacent text (which arises when a
// comment separates two pieces of text).
func appendText(nodes []ast.Node, node ast.Node) []ast.Node {
	if text, ok := node.(*ast.TextNode); ok && len(nodes) > 0 {
		if prev, ok := nodes[len(nodes)-1].(*ast.TextNode); ok {
			nodes[len(nodes)-1] = &ast.TextNode{Pos: prev.Pos, Text: prev.Text + text.Text}
			return nodes
		}
	}
	return append(nodes, node)
}

// parseStatement parses the block tag begun by begin and keyword.
func (t *tree) parseStatement(begin, keyword Token) ast.Node {
	switch keyword.Val {
	case "if":
		return t.parseIf(begin)
	case "for":
		return t.parseFor(begin)
	case "set":
		return t.parseSet(begin)
	case "macro":
		return t.parseMacro(begin)
	case "call":
		return t.parseCallBlock(begin)
	case "filter":
		return t.parseFilterBlock(begin)
	case "raw":
		return t.parseRaw(begin)
	case "generation":
		t.expect(TokenBlockEnd, "generation")
		var body, _ = t.itemList("endgeneration")
		t.expect(TokenBlockEnd, "endgeneration")
		return &ast.GenerationNode{Pos: begin.Pos, Body: body}
	case "break":
		t.expect(TokenBlockEnd, "break")
		return &ast.BreakNode{Pos: begin.Pos}
	case "continue":
		t.expect(TokenBlockEnd, "continue")
		return &ast.ContinueNode{Pos: begin.Pos}
	case "elif", "else", "endif", "endfor", "endset", "endmacro", "endcall",
		"endfilter", "endraw", "endgeneration":
		t.errorf("unexpected {%% %s %%} with no open block", keyword.Val)
	}
	t.errorf("unknown statement %q", keyword.Val)
	return nil
}

// output:
//	"{{" TupleExpr "}}"
func (t *tree) parseOutput(begin Token) ast.Node {
	var expr = t.parseTupleExpr()
	t.expect(TokenVariableEnd, "output")
	return &ast.OutputNode{Pos: begin.Pos, Expr: expr}
}

// "if" has just been read.
func (t *tree) parseIf(begin Token) ast.Node {
	var node = &ast.IfNode{Pos: begin.Pos}
	var cond = t.parseExpr()
	t.expect(TokenBlockEnd, "if")
	for {
		var body, end = t.itemList("elif", "else", "endif")
		node.Conds = append(node.Conds, &ast.IfCondNode{Pos: body.Pos, Cond: cond, Body: body})
		switch end {
		case "elif":
			cond = t.parseExpr()
			t.expect(TokenBlockEnd, "elif")
		case "else":
			t.expect(TokenBlockEnd, "else")
			body, _ = t.itemList("endif")
			node.Conds = append(node.Conds, &ast.IfCondNode{Pos: body.Pos, Body: body})
			t.expect(TokenBlockEnd, "endif")
			return node
		case "endif":
			t.expect(TokenBlockEnd, "endif")
			return node
		}
	}
}

// "for" has just been read.
//	"for" Target "in" OrExpr ["if" Expr] "%}" body ["else" body] "endfor"
func (t *tree) parseFor(begin Token) ast.Node {
	var node = &ast.ForNode{Pos: begin.Pos}
	node.Target = t.parseAssignTarget(false)
	t.expectKeyword("in", "for")
	node.Iter = t.parseExprPrec(precOr)
	if t.peekKeyword("if") {
		t.next()
		node.Filter = t.parseExpr()
	}
	t.expect(TokenBlockEnd, "for")

	var end string
	node.Body, end = t.itemList("else", "endfor")
	if end == "else" {
		t.expect(TokenBlockEnd, "else")
		node.Else, _ = t.itemList("endfor")
	}
	t.expect(TokenBlockEnd, "endfor")
	return node
}

// "set" has just been read.
//	"set" Target "=" TupleExpr "%}"
//	"set" Target ("|" Filter)* "%}" body "endset"
func (t *tree) parseSet(begin Token) ast.Node {
	var node = &ast.SetNode{Pos: begin.Pos}
	node.Target = t.parseAssignTarget(true)
	if t.peekOp("=") {
		t.next()
		node.Value = t.parseTupleExpr()
		t.expect(TokenBlockEnd, "set")
		return node
	}

	if _, ok := node.Target.(*ast.TupleNode); ok {
		t.errorf("block assignment requires a single target")
	}
	for t.peekOp("|") {
		t.next()
		node.Filters = append(node.Filters, t.parseFilterCall(nil))
	}
	t.expect(TokenBlockEnd, "set")
	node.Body, _ = t.itemList("endset")
	t.expect(TokenBlockEnd, "endset")
	return node
}

// parseAssignTarget parses a name, a namespace attribute (if allowed), or a
// tuple of names, optionally parenthesized.
func (t *tree) parseAssignTarget(allowAttr bool) ast.Node {
	if t.peekOp("(") {
		var open = t.next()
		var tuple = &ast.TupleNode{Pos: open.Pos}
		for !t.peekOp(")") {
			tuple.Items = append(tuple.Items, t.parseTargetName(false))
			if !t.peekOp(")") {
				t.expectOp(",", "assignment target")
			}
		}
		t.next()
		return tuple
	}

	var first = t.parseTargetName(allowAttr)
	if !t.peekOp(",") {
		return first
	}
	var tuple = &ast.TupleNode{Pos: first.Position(), Items: []ast.Node{first}}
	for t.peekOp(",") {
		t.next()
		if t.peekKeyword("in") || t.peekOp("=") {
			break
		}
		tuple.Items = append(tuple.Items, t.parseTargetName(false))
	}
	return tuple
}

func (t *tree) parseTargetName(allowAttr bool) ast.Node {
	var tok = t.expect(TokenName, "assignment target")
	var node ast.Node = &ast.NameNode{Pos: tok.Pos, Name: tok.Val}
	if allowAttr && t.peekOp(".") {
		t.next()
		var attr = t.expect(TokenName, "attribute assignment")
		node = &ast.GetAttrNode{Pos: tok.Pos, Arg: node, Name: attr.Val}
	}
	return node
}

// "macro" has just been read.
func (t *tree) parseMacro(begin Token) ast.Node {
	var name = t.expect(TokenName, "macro")
	var node = &ast.MacroNode{Pos: begin.Pos, Name: name.Val}
	node.Params = t.parseParams("macro")
	t.expect(TokenBlockEnd, "macro")
	node.Body, _ = t.itemList("endmacro")
	t.expect(TokenBlockEnd, "endmacro")
	return node
}

// parseParams parses a parenthesized parameter list:
//	"(" [ Name ["=" Expr] ("," Name ["=" Expr])* [","] ] ")"
func (t *tree) parseParams(context string) []*ast.ParamNode {
	t.expectOp("(", context)
	var params = []*ast.ParamNode{}
	for !t.peekOp(")") {
		var name = t.expect(TokenName, context+" parameters")
		var param = &ast.ParamNode{Pos: name.Pos, Name: name.Val}
		if t.peekOp("=") {
			t.next()
			param.Default = t.parseExpr()
		} else if len(params) > 0 && params[len(params)-1].Default != nil {
			t.errorf("non-default parameter %q follows a default parameter", name.Val)
		}
		params = append(params, param)
		if !t.peekOp(")") {
			t.expectOp(",", context+" parameters")
		}
	}
	t.next()
	return params
}

// "call" has just been read.
//	"call" ["(" Params ")"] CallExpr "%}" body "endcall"
func (t *tree) parseCallBlock(begin Token) ast.Node {
	var node = &ast.CallBlockNode{Pos: begin.Pos}
	if t.peekOp("(") {
		node.Params = t.parseParams("call")
	}
	var expr = t.parseExpr()
	call, ok := expr.(*ast.CallNode)
	if !ok {
		t.errorf("expected a macro call in call block, found %v", expr)
	}
	node.Call = call
	t.expect(TokenBlockEnd, "call")
	node.Body, _ = t.itemList("endcall")
	t.expect(TokenBlockEnd, "endcall")
	return node
}

// "filter" has just been read.
func (t *tree) parseFilterBlock(begin Token) ast.Node {
	var node = &ast.FilterBlockNode{Pos: begin.Pos}
	node.Filters = append(node.Filters, t.parseFilterCall(nil))
	for t.peekOp("|") {
		t.next()
		node.Filters = append(node.Filters, t.parseFilterCall(nil))
	}
	t.expect(TokenBlockEnd, "filter")
	node.Body, _ = t.itemList("endfilter")
	t.expect(TokenBlockEnd, "endfilter")
	return node
}

// "raw" has just been read. The lexer delivers the content as a single text
// token.
func (t *tree) parseRaw(begin Token) ast.Node {
	t.expect(TokenBlockEnd, "raw")
	var node = &ast.TextNode{Pos: t.peek().Pos}
	if t.peek().Type == TokenText {
		node.Text = t.next().Val
	}
	t.expect(TokenBlockBegin, "raw")
	t.expectKeyword("endraw", "raw")
	t.expect(TokenBlockEnd, "endraw")
	return node
}

// Expressions ----------

// Operator precedence, low to high. Unary operators parse their operand at
// the given level.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precConcat
	precAdd
	precMul
	precNeg
	precPow
)

var precedence = map[string]int{
	"or":     precOr,
	"and":    precAnd,
	"==":     precCompare,
	"!=":     precCompare,
	"<":      precCompare,
	"<=":     precCompare,
	">":      precCompare,
	">=":     precCompare,
	"in":     precCompare,
	"not in": precCompare,
	"~":      precConcat,
	"+":      precAdd,
	"-":      precAdd,
	"*":      precMul,
	"/":      precMul,
	"//":     precMul,
	"%":      precMul,
	"**":     precPow,
}

// parseTupleExpr parses an expression, or a tuple if commas follow it.
func (t *tree) parseTupleExpr() ast.Node {
	var n = t.parseExpr()
	if !t.peekOp(",") {
		return n
	}
	var tuple = &ast.TupleNode{Pos: n.Position(), Items: []ast.Node{n}}
	for t.peekOp(",") {
		t.next()
		if t.atExprEnd() {
			break
		}
		tuple.Items = append(tuple.Items, t.parseExpr())
	}
	return tuple
}

// atExprEnd reports whether the next token ends an expression list.
func (t *tree) atExprEnd() bool {
	switch tok := t.peek(); tok.Type {
	case TokenVariableEnd, TokenBlockEnd, TokenEOF:
		return true
	case TokenOperator:
		return tok.Val == ")" || tok.Val == "]" || tok.Val == "}"
	}
	return false
}

// Expr -> OrExpr [ "if" OrExpr [ "else" Expr ] ]
func (t *tree) parseExpr() ast.Node {
	var n = t.parseExprPrec(precOr)
	for t.peekKeyword("if") {
		var tok = t.next()
		var node = &ast.CondExprNode{Pos: tok.Pos, Then: n, Cond: t.parseExprPrec(precOr)}
		if t.peekKeyword("else") {
			t.next()
			node.Else = t.parseExpr()
		}
		n = node
	}
	return n
}

// parseExprPrec parses binary operators of at least the given precedence.
// All binary operators are left-associative, "**" included.
func (t *tree) parseExprPrec(prec int) ast.Node {
	var n = t.parseUnary()
	for {
		var tok = t.next()
		var name = t.binaryOp(tok)
		q, ok := precedence[name]
		if !ok || q < prec {
			t.backup()
			return n
		}
		if name == "not in" {
			t.next()
		}
		n = newBinaryOpNode(tok, name, n, t.parseExprPrec(q+1))
	}
}

// binaryOp returns the operator that tok begins, or "".
func (t *tree) binaryOp(tok Token) string {
	switch tok.Type {
	case TokenOperator:
		return tok.Val
	case TokenName:
		switch tok.Val {
		case "and", "or", "in":
			return tok.Val
		case "not":
			if t.peekKeyword("in") {
				return "not in"
			}
		}
	}
	return ""
}

// Unary -> "not" Expr(not) | "-" Expr(pow) | "+" Expr(pow) | Postfix
func (t *tree) parseUnary() ast.Node {
	switch tok := t.next(); {
	case tok.Type == TokenName && tok.Val == "not":
		return &ast.NotNode{Pos: tok.Pos, Arg: t.parseExprPrec(precNot)}
	case tok.Type == TokenOperator && tok.Val == "-":
		return &ast.NegateNode{Pos: tok.Pos, Arg: t.parseExprPrec(precPow)}
	case tok.Type == TokenOperator && tok.Val == "+":
		return &ast.PlusNode{Pos: tok.Pos, Arg: t.parseExprPrec(precPow)}
	default:
		t.backup()
	}
	return t.parseFilterExpr(t.parsePostfix(t.parsePrimary()))
}

// Primary -> Name | Literal | "(" [TupleExpr] ")" | ListLiteral | DictLiteral
func (t *tree) parsePrimary() ast.Node {
	switch tok := t.next(); tok.Type {
	case TokenName:
		return &ast.NameNode{Pos: tok.Pos, Name: tok.Val}
	case TokenNone:
		return &ast.NoneNode{Pos: tok.Pos}
	case TokenBool:
		return &ast.BoolNode{Pos: tok.Pos, True: strings.ToLower(tok.Val) == "true"}
	case TokenInteger:
		value, err := strconv.ParseInt(strings.ReplaceAll(tok.Val, "_", ""), 10, 64)
		if err != nil {
			t.errorf("invalid integer %s: %v", tok.Val, err)
		}
		return &ast.IntNode{Pos: tok.Pos, Value: value}
	case TokenFloat:
		value, err := strconv.ParseFloat(strings.ReplaceAll(tok.Val, "_", ""), 64)
		if err != nil {
			t.errorf("invalid float %s: %v", tok.Val, err)
		}
		return &ast.FloatNode{Pos: tok.Pos, Value: value}
	case TokenString:
		return t.parseStrings(tok)
	case TokenOperator:
		switch tok.Val {
		case "(":
			return t.parseParenthesized(tok)
		case "[":
			return t.parseListLiteral(tok)
		case "{":
			return t.parseDictLiteral(tok)
		}
	}
	t.unexpected(t.token, "expression")
	return nil
}

// parseStrings folds adjacent string literals. The first has been read.
func (t *tree) parseStrings(first Token) ast.Node {
	var parts = []*ast.StringNode{t.newStringNode(first)}
	for t.peek().Type == TokenString {
		parts = append(parts, t.newStringNode(t.next()))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return &ast.ImplicitConcatNode{Pos: first.Pos, Parts: parts}
}

func (t *tree) newStringNode(tok Token) *ast.StringNode {
	s, err := unquoteString(tok.Val)
	if err != nil {
		t.errorf("error unquoting %s: %s", tok.Val, err)
	}
	return &ast.StringNode{Pos: tok.Pos, Quoted: tok.Val, Value: s}
}

// "(" has just been read.
func (t *tree) parseParenthesized(open Token) ast.Node {
	if t.peekOp(")") {
		t.next()
		return &ast.TupleNode{Pos: open.Pos}
	}
	var n = t.parseExpr()
	if t.peekOp(",") {
		var tuple = &ast.TupleNode{Pos: open.Pos, Items: []ast.Node{n}}
		for t.peekOp(",") {
			t.next()
			if t.peekOp(")") {
				break
			}
			tuple.Items = append(tuple.Items, t.parseExpr())
		}
		n = tuple
	}
	t.expectOp(")", "parenthesized expression")
	return n
}

// "[" has just been read.
//  ListLiteral -> "[" [ Expr ( "," Expr )* [ "," ] ] "]"
func (t *tree) parseListLiteral(open Token) ast.Node {
	var node = &ast.ListLiteralNode{Pos: open.Pos}
	for !t.peekOp("]") {
		node.Items = append(node.Items, t.parseExpr())
		if !t.peekOp("]") {
			t.expectOp(",", "list literal")
		}
	}
	t.next()
	return node
}

// "{" has just been read.
//  DictLiteral -> "{" [ Expr ":" Expr ( "," Expr ":" Expr )* [ "," ] ] "}"
func (t *tree) parseDictLiteral(open Token) ast.Node {
	var node = &ast.DictLiteralNode{Pos: open.Pos}
	for !t.peekOp("}") {
		node.Keys = append(node.Keys, t.parseExpr())
		t.expectOp(":", "dict literal")
		node.Values = append(node.Values, t.parseExpr())
		if !t.peekOp("}") {
			t.expectOp(",", "dict literal")
		}
	}
	t.next()
	return node
}

// Postfix -> Primary ( "." Name | "." Integer | "[" Subscript "]" | "(" Args ")" )*
func (t *tree) parsePostfix(n ast.Node) ast.Node {
	for {
		var tok = t.next()
		if tok.Type != TokenOperator {
			t.backup()
			return n
		}
		switch tok.Val {
		case ".":
			switch attr := t.next(); attr.Type {
			case TokenName, TokenBool, TokenNone:
				n = &ast.GetAttrNode{Pos: tok.Pos, Arg: n, Name: attr.Val}
			case TokenInteger:
				t.backup()
				n = &ast.GetItemNode{Pos: tok.Pos, Arg: n, Key: t.parsePrimary()}
			default:
				t.unexpected(attr, "attribute access")
			}
		case "[":
			n = t.parseSubscript(tok, n)
		case "(":
			n = &ast.CallNode{Pos: tok.Pos, Func: n, Args: t.parseArgs()}
		default:
			t.backup()
			return n
		}
	}
}

// "[" has just been read.
//  Subscript -> Expr | [Expr] ":" [Expr] [ ":" [Expr] ]
func (t *tree) parseSubscript(open Token, arg ast.Node) ast.Node {
	var start ast.Node
	if !t.peekOp(":") {
		start = t.parseExpr()
		if t.peekOp("]") {
			t.next()
			return &ast.GetItemNode{Pos: open.Pos, Arg: arg, Key: start}
		}
	}
	var node = &ast.SliceNode{Pos: open.Pos, Arg: arg, Start: start}
	t.expectOp(":", "subscript")
	if !t.peekOp("]") && !t.peekOp(":") {
		node.Stop = t.parseExpr()
	}
	if t.peekOp(":") {
		t.next()
		if !t.peekOp("]") {
			node.Step = t.parseExpr()
		}
	}
	t.expectOp("]", "subscript")
	return node
}

// "(" has just been read.
//  Args -> [ Arg ( "," Arg )* [ "," ] ] ")"
//  Arg  -> Expr | Name "=" Expr | "*" Expr | "**" Expr
func (t *tree) parseArgs() []ast.Node {
	var args = []ast.Node{}
	for !t.peekOp(")") {
		var tok = t.next()
		switch {
		case tok.Type == TokenOperator && (tok.Val == "*" || tok.Val == "**"):
			args = append(args, &ast.SplatNode{Pos: tok.Pos, Arg: t.parseExpr(), Double: tok.Val == "**"})
		case tok.Type == TokenName && t.peekOp("="):
			t.next()
			args = append(args, &ast.KeywordNode{Pos: tok.Pos, Name: tok.Val, Value: t.parseExpr()})
		default:
			t.backup()
			if len(args) > 0 {
				if _, ok := args[len(args)-1].(*ast.KeywordNode); ok {
					t.errorf("positional argument follows keyword argument")
				}
			}
			args = append(args, t.parseExpr())
		}
		if !t.peekOp(")") {
			t.expectOp(",", "call arguments")
		}
	}
	t.next()
	return args
}

// FilterExpr -> Postfix ( "|" Filter | "is" ["not"] Test )*
func (t *tree) parseFilterExpr(n ast.Node) ast.Node {
	for {
		switch {
		case t.peekOp("|"):
			t.next()
			n = t.parseFilterCall(n)
		case t.peekKeyword("is"):
			n = t.parseTest(n)
		default:
			return n
		}
	}
}

// parseFilterCall parses the name and arguments of a filter applied to arg.
func (t *tree) parseFilterCall(arg ast.Node) *ast.FilterNode {
	var name = t.expect(TokenName, "filter")
	var node = &ast.FilterNode{Pos: name.Pos, Arg: arg, Name: name.Val}
	if t.peekOp("(") {
		t.next()
		node.Args = t.parseArgs()
	}
	return node
}

// parseTest parses "is [not] name", with arguments in parentheses or a
// single argument without them (e.g. "is divisibleby 3").
func (t *tree) parseTest(arg ast.Node) ast.Node {
	var is = t.next()
	var node = &ast.TestNode{Pos: is.Pos, Arg: arg}
	if t.peekKeyword("not") {
		t.next()
		node.Negated = true
	}
	switch name := t.next(); name.Type {
	case TokenName:
		node.Name = name.Val
	case TokenNone, TokenBool:
		// "is none", "is true"
		node.Name = strings.ToLower(name.Val)
	default:
		t.unexpected(name, "test")
	}

	switch next := t.peek(); {
	case next.Type == TokenOperator && next.Val == "(":
		t.next()
		node.Args = t.parseArgs()
	case next.Type == TokenName && !isReserved(next.Val),
		next.Type == TokenString, next.Type == TokenInteger, next.Type == TokenFloat,
		next.Type == TokenBool, next.Type == TokenNone,
		next.Type == TokenOperator && (next.Val == "[" || next.Val == "{"):
		node.Args = []ast.Node{t.parsePostfix(t.parsePrimary())}
	}
	return node
}

func newBinaryOpNode(tok Token, name string, n1, n2 ast.Node) ast.Node {
	var bin = ast.BinaryOpNode{Name: name, Pos: tok.Pos, Arg1: n1, Arg2: n2}
	switch name {
	case "+":
		return &ast.AddNode{BinaryOpNode: bin}
	case "-":
		return &ast.SubNode{BinaryOpNode: bin}
	case "*":
		return &ast.MulNode{BinaryOpNode: bin}
	case "/":
		return &ast.DivNode{BinaryOpNode: bin}
	case "//":
		return &ast.FloorDivNode{BinaryOpNode: bin}
	case "%":
		return &ast.ModNode{BinaryOpNode: bin}
	case "**":
		return &ast.PowNode{BinaryOpNode: bin}
	case "~":
		return &ast.ConcatNode{BinaryOpNode: bin}
	case "==":
		return &ast.EqNode{BinaryOpNode: bin}
	case "!=":
		return &ast.NotEqNode{BinaryOpNode: bin}
	case ">":
		return &ast.GtNode{BinaryOpNode: bin}
	case ">=":
		return &ast.GteNode{BinaryOpNode: bin}
	case "<":
		return &ast.LtNode{BinaryOpNode: bin}
	case "<=":
		return &ast.LteNode{BinaryOpNode: bin}
	case "in":
		return &ast.InNode{BinaryOpNode: bin}
	case "not in":
		return &ast.NotInNode{BinaryOpNode: bin}
	case "or":
		return &ast.OrNode{BinaryOpNode: bin}
	case "and":
		return &ast.AndNode{BinaryOpNode: bin}
	}
	panic("unimplemented")
}

// isReserved reports whether name is a keyword that may continue an
// expression, and so cannot begin a bare test argument.
func isReserved(name string) bool {
	switch name {
	case "and", "or", "not", "in", "is", "if", "else":
		return true
	}
	return false
}

// Helpers ----------

// next returns the next token.
func (t *tree) next() Token {
	if t.cur < len(t.items) {
		t.token = t.items[t.cur]
		t.cur++
	} else {
		t.token = t.items[len(t.items)-1]
	}
	return t.token
}

// backup backs the input stream up one token.
func (t *tree) backup() {
	if t.cur > 0 {
		t.cur--
	}
}

// peek returns but does not consume the next token.
func (t *tree) peek() Token {
	if t.cur < len(t.items) {
		return t.items[t.cur]
	}
	return t.items[len(t.items)-1]
}

func (t *tree) peekOp(op string) bool {
	var tok = t.peek()
	return tok.Type == TokenOperator && tok.Val == op
}

func (t *tree) peekKeyword(name string) bool {
	var tok = t.peek()
	return tok.Type == TokenName && tok.Val == name
}

// recover is the handler that turns panics into returns from the top level of Parse.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	*errp = e.(error)
}

// expect consumes the next token and guarantees it has the required type.
func (t *tree) expect(expected TokenType, context string) Token {
	token := t.next()
	if token.Type != expected {
		t.unexpected(token, fmt.Sprintf("%v (expected %v)", context, expected))
	}
	return token
}

// expectOp consumes the next token and guarantees it is the given operator.
func (t *tree) expectOp(op string, context string) Token {
	token := t.next()
	if token.Type != TokenOperator || token.Val != op {
		t.unexpected(token, fmt.Sprintf("%v (expected %q)", context, op))
	}
	return token
}

// expectKeyword consumes the next token and guarantees it is the given name.
func (t *tree) expectKeyword(name string, context string) Token {
	token := t.next()
	if token.Type != TokenName || token.Val != name {
		t.unexpected(token, fmt.Sprintf("%v (expected %q)", context, name))
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(token Token, context string) {
	switch token.Type {
	case TokenError:
		t.errorf("%s", token.Val)
	case TokenEOF:
		t.errorf("unexpected end of template in %s; unclosed tag?", context)
	}
	t.errorf("unexpected %v in %s", token, context)
}

// errorf formats the error and terminates processing.
func (t *tree) errorf(format string, args ...interface{}) {
	var pos = t.token.Pos
	if int(pos) > len(t.lex.input) {
		pos = ast.Pos(len(t.lex.input))
	}
	panic(errortypes.Newf(errortypes.SyntaxError, format, args...).
		At(t.name, t.lex.lineNumber(pos), t.lex.columnNumber(pos)))
}

func isOneOf(tocheck string, against []string) bool {
	for _, x := range against {
		if tocheck == x {
			return true
		}
	}
	return false
}
