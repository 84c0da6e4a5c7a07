package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robfig/jinja/ast"
)

// Lexer design from text/template, run to completion instead of on a
// goroutine: templates are small and the parser needs lookahead anyway.

// Options control whitespace handling. The zero value matches Jinja's
// defaults.
type Options struct {
	TrimBlocks          bool // remove the first newline after a block or comment tag
	LstripBlocks        bool // strip spaces and tabs from the start of a line up to a block tag
	KeepTrailingNewline bool // keep a single trailing newline at the end of the template
}

// Tokens ---------------------------------------------------------------------

// Token represents a token or text string returned from the scanner.
type Token struct {
	Type TokenType // The type of this token.
	Pos  ast.Pos   // The starting position, in bytes, of this token in the input string.
	Val  string    // The value of this token, exactly as it appears in the input.
}

// End returns the position just past the token. For every token but errors,
// input[t.Pos:t.End()] == t.Val.
func (t Token) End() ast.Pos {
	return t.Pos + ast.Pos(len(t.Val))
}

func (t Token) String() string {
	switch {
	case t.Type == TokenEOF:
		return "EOF"
	case t.Type == TokenError:
		return t.Val
	case len(t.Val) > 10:
		return fmt.Sprintf("%.10q...", t.Val)
	}
	return fmt.Sprintf("%q", t.Val)
}

// TokenType identifies the type of lexical tokens.
type TokenType int

// All tokens.
const (
	TokenError TokenType = iota // error occurred; value is text of error
	TokenEOF                    // EOF

	TokenText          // plain text
	TokenVariableBegin // {{ or {{-
	TokenVariableEnd   // }} or -}}
	TokenBlockBegin    // {%, {%- or {%+
	TokenBlockEnd      // %}, -%} or +%}

	TokenName     // identifier, including keywords like "for" and "in"
	TokenString   // e.g. 'hello\tworld'
	TokenInteger  // e.g. 42
	TokenFloat    // e.g. 1.5
	TokenBool     // true, True, false, False
	TokenNone     // none, None
	TokenOperator // e.g. + // == ( |
)

var tokenNames = map[TokenType]string{
	TokenError:         "<error>",
	TokenEOF:           "<eof>",
	TokenText:          "<text>",
	TokenVariableBegin: "{{",
	TokenVariableEnd:   "}}",
	TokenBlockBegin:    "{%",
	TokenBlockEnd:      "%}",
	TokenName:          "<name>",
	TokenString:        "<string>",
	TokenInteger:       "<integer>",
	TokenFloat:         "<float>",
	TokenBool:          "<bool>",
	TokenNone:          "<none>",
	TokenOperator:      "<operator>",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var operators2 = []string{"//", "**", "==", "!=", "<=", ">="}

const operators1 = "+-*/%~<>=()[]{},.:|"

// Tokenize scans the whole source and returns its tokens. The result ends
// with an EOF token, or with an error token if the scan failed.
func Tokenize(name, source string, opts Options) []Token {
	return lex(name, source, opts).items
}

// Lexer ----------------------------------------------------------------------

const eof = -1

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the lexical scanning.
type lexer struct {
	name     string  // the name of the input; used only during errors.
	input    string  // the string being scanned.
	opts     Options // whitespace handling
	state    stateFn // the next lexing function to enter.
	pos      ast.Pos // current position in the input.
	start    ast.Pos // start position of this item.
	width    int     // width of last rune read from input.
	items    []Token // scanned items, in order.
	itemIdx  int     // index of the next item to hand out.
	closing  string  // delimiter that ends the current tag: "}}" or "%}"
	depth    int     // brackets open in the current tag
	trimNext bool    // strip leading whitespace from the next text
}

// lex creates a scanner for the input string and runs it to completion.
func lex(name, input string, opts Options) *lexer {
	if !opts.KeepTrailingNewline {
		switch {
		case strings.HasSuffix(input, "\r\n"):
			input = input[:len(input)-2]
		case strings.HasSuffix(input, "\n"):
			input = input[:len(input)-1]
		}
	}
	l := &lexer{
		name:  name,
		input: input,
		opts:  opts,
		state: lexText,
	}
	l.run()
	return l
}

// lexExpr scans a lone expression, as if it were inside a tag.
func lexExpr(name, input string) *lexer {
	l := &lexer{
		name:  name,
		input: input,
		state: lexInsideTag,
	}
	l.run()
	return l
}

// run runs the state machine for the lexer.
func (l *lexer) run() {
	for l.state != nil {
		l.state = l.state(l)
	}
}

// nextItem returns the next item from the input. After the last item it
// keeps returning it.
func (l *lexer) nextItem() Token {
	if l.itemIdx >= len(l.items) {
		return l.items[len(l.items)-1]
	}
	var t = l.items[l.itemIdx]
	l.itemIdx++
	return t
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= ast.Pos(len(l.input)) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += ast.Pos(l.width)
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= ast.Pos(l.width)
}

// emit passes an item back to the client.
func (l *lexer) emit(t TokenType) {
	l.items = append(l.items, Token{t, l.start, l.input[l.start:l.pos]})
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
	return l.pos > pos
}

// skipSpace ignores any whitespace at the current position.
func (l *lexer) skipSpace() {
	for isSpaceEOL(l.peek()) {
		l.next()
	}
	l.ignore()
}

// skipNewline ignores a single newline at the current position.
func (l *lexer) skipNewline() {
	switch {
	case strings.HasPrefix(l.input[l.pos:], "\r\n"):
		l.pos += 2
	case strings.HasPrefix(l.input[l.pos:], "\n"):
		l.pos++
	}
	l.ignore()
}

// lineNumber reports which line we're on. Doing it this way
// means we don't have to worry about peek double counting.
func (l *lexer) lineNumber(pos ast.Pos) int {
	return 1 + strings.Count(l.input[:pos], "\n")
}

// columnNumber reports which column in the current line we're on.
func (l *lexer) columnNumber(pos ast.Pos) int {
	n := strings.LastIndex(l.input[:pos], "\n")
	return int(pos) - n
}

// errorf appends an error item and terminates the scan by passing
// back a nil pointer that will be the next state.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, Token{TokenError, l.start, fmt.Sprintf(format, args...)})
	return nil
}

// State functions ------------------------------------------------------------

// lexText scans until an opening delimiter: "{{", "{%" or "{#".
func lexText(l *lexer) stateFn {
	if l.trimNext {
		l.skipSpace()
		l.trimNext = false
	}

	var i = indexDelim(l.input[l.pos:])
	if i < 0 {
		l.pos = ast.Pos(len(l.input))
		if l.pos > l.start {
			l.emit(TokenText)
		}
		l.emit(TokenEOF)
		return nil
	}

	var delimPos = l.pos + ast.Pos(i)
	var delim = l.input[delimPos : delimPos+2]
	var modifier byte
	if int(delimPos)+2 < len(l.input) {
		modifier = l.input[delimPos+2]
	}

	var text = l.input[l.start:delimPos]
	switch {
	case modifier == '-':
		text = strings.TrimRightFunc(text, unicode.IsSpace)
	case modifier != '+' && delim != "{{" && l.opts.LstripBlocks:
		text = lstripBlock(text, l.start == 0 || l.input[l.start-1] == '\n')
	}
	if text != "" {
		l.pos = l.start + ast.Pos(len(text))
		l.emit(TokenText)
	}
	l.pos = delimPos
	l.ignore()

	switch delim {
	case "{#":
		return lexComment
	case "{{":
		return lexVariableBegin
	}
	return lexBlockBegin
}

// indexDelim returns the index of the first opening delimiter in s, or -1.
func indexDelim(s string) int {
	var offset = 0
	for {
		var i = strings.IndexByte(s[offset:], '{')
		if i < 0 || offset+i+1 >= len(s) {
			return -1
		}
		switch s[offset+i+1] {
		case '{', '%', '#':
			return offset + i
		}
		offset += i + 1
	}
}

// lstripBlock removes the spaces and tabs between the last line start of
// text and a block tag that follows it.
func lstripBlock(text string, lineStart bool) string {
	var lineBegin = strings.LastIndexByte(text, '\n') + 1
	if lineBegin == 0 && !lineStart {
		return text
	}
	if strings.Trim(text[lineBegin:], " \t") != "" {
		return text
	}
	return text[:lineBegin]
}

func lexVariableBegin(l *lexer) stateFn {
	l.pos += 2
	l.accept("-")
	l.emit(TokenVariableBegin)
	l.closing, l.depth = "}}", 0
	return lexInsideTag
}

func lexBlockBegin(l *lexer) stateFn {
	l.pos += 2
	l.accept("-+")
	l.emit(TokenBlockBegin)
	l.closing, l.depth = "%}", 0

	var rest = strings.TrimLeftFunc(l.input[l.pos:], unicode.IsSpace)
	if strings.HasPrefix(rest, "raw") && !isAlphaNumeric(firstRune(rest[3:])) {
		return lexRaw
	}
	return lexInsideTag
}

// "{#" has just been found.
func lexComment(l *lexer) stateFn {
	var i = strings.Index(l.input[l.pos+2:], "#}")
	if i < 0 {
		return l.errorf("missing end of comment tag")
	}
	var end = l.pos + 2 + ast.Pos(i)
	var modifier byte
	if i > 0 {
		modifier = l.input[end-1]
	}
	l.pos = end + 2
	l.ignore()
	l.tagEnded(modifier)
	return lexText
}

// tagEnded applies the whitespace rules that follow a closing delimiter.
func (l *lexer) tagEnded(modifier byte) {
	switch {
	case modifier == '-':
		l.trimNext = true
	case modifier != '+' && l.closing != "}}" && l.opts.TrimBlocks:
		l.skipNewline()
	}
}

// lexInsideTag is called repeatedly to scan elements inside a template tag.
func lexInsideTag(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		// Unterminated tag: the parser reports it.
		l.emit(TokenEOF)
		return nil
	case isSpaceEOL(r):
		l.ignore()
	case l.depth == 0 && l.closing != "" && l.atClose(r):
		return lexTagEnd
	case r == '"', r == '\'':
		return stringLexer(r)
	case r >= '0' && r <= '9':
		l.backup()
		return lexNumber
	case isLetterOrUnderscore(r):
		l.backup()
		return lexIdent
	default:
		l.backup()
		return lexOperator
	}
	return lexInsideTag
}

// atClose reports whether r begins the closing delimiter of the current tag,
// possibly with a whitespace modifier. r has been consumed.
func (l *lexer) atClose(r rune) bool {
	var rest = l.input[l.pos:]
	if r == '-' || (r == '+' && l.closing == "%}") {
		return strings.HasPrefix(rest, l.closing)
	}
	return r == rune(l.closing[0]) && strings.HasPrefix(rest, l.closing[1:])
}

// lexTagEnd scans the closing delimiter, whose first rune has been read.
func lexTagEnd(l *lexer) stateFn {
	var modifier byte
	if r := l.input[l.pos-1]; r == '-' || r == '+' {
		modifier = r
		l.pos += 2
	} else {
		l.pos++
	}
	if l.closing == "}}" {
		l.emit(TokenVariableEnd)
	} else {
		l.emit(TokenBlockEnd)
	}
	l.tagEnded(modifier)
	l.closing = ""
	return lexText
}

func lexOperator(l *lexer) stateFn {
	for _, op := range operators2 {
		if strings.HasPrefix(l.input[l.pos:], op) {
			l.pos += ast.Pos(len(op))
			l.emit(TokenOperator)
			return lexInsideTag
		}
	}
	var r = l.next()
	if !strings.ContainsRune(operators1, r) {
		return l.errorf("unexpected char %q", r)
	}
	switch r {
	case '(', '[', '{':
		l.depth++
	case ')', ']', '}':
		if l.depth > 0 {
			l.depth--
		}
	}
	l.emit(TokenOperator)
	return lexInsideTag
}

// stringLexer returns a stateFn that lexes strings surrounded by the given quote character.
func stringLexer(quoteChar rune) stateFn {
	// the quote char has already been read.
	return func(l *lexer) stateFn {
		for {
			switch l.next() {
			case eof:
				return l.errorf("unexpected end of string")
			case '\\':
				l.next() // skip escape sequences
			case quoteChar:
				l.emit(TokenString)
				return lexInsideTag
			}
		}
	}
}

// lexNumber scans an integer or a float. Underscores may separate digits.
func lexNumber(l *lexer) stateFn {
	const digits = "0123456789_"
	var typ = TokenInteger
	l.acceptRun(digits)
	if strings.HasPrefix(l.input[l.pos:], ".") && isDigit(firstRune(l.input[l.pos+1:])) {
		l.next()
		l.acceptRun(digits)
		typ = TokenFloat
	}
	if l.accept("eE") {
		l.accept("+-")
		if !l.acceptRun(digits) {
			return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
		}
		typ = TokenFloat
	}
	l.emit(typ)
	return lexInsideTag
}

// lexIdent scans an identifier, which may spell a literal.
func lexIdent(l *lexer) stateFn {
	for isAlphaNumeric(l.next()) {
	}
	l.backup()
	switch l.input[l.start:l.pos] {
	case "true", "True", "false", "False":
		l.emit(TokenBool)
	case "none", "None":
		l.emit(TokenNone)
	default:
		l.emit(TokenName)
	}
	return lexInsideTag
}

var endRaw = regexp.MustCompile(`\{%([-+]?)\s*endraw\s*([-+]?)%\}`)

// lexRaw scans a raw block. The opening "{%" has been emitted. It emits the
// "raw" name, the closing delimiter, the raw content as text and the three
// tokens of the endraw tag.
func lexRaw(l *lexer) stateFn {
	l.skipSpace()
	l.pos += ast.Pos(len("raw"))
	l.emit(TokenName)
	l.skipSpace()
	var modifier byte
	if r := l.peek(); r == '-' || r == '+' {
		modifier = byte(r)
		l.next()
	}
	if !strings.HasPrefix(l.input[l.pos:], "%}") {
		return l.errorf("expected end of raw block tag")
	}
	l.pos += 2
	l.emit(TokenBlockEnd)
	l.tagEnded(modifier)
	if l.trimNext {
		l.skipSpace()
		l.trimNext = false
	}

	var loc = endRaw.FindStringSubmatchIndex(l.input[l.pos:])
	if loc == nil {
		return l.errorf("missing end of raw directive")
	}
	var tagPos = l.pos + ast.Pos(loc[0])
	var content = l.input[l.start:tagPos]
	if loc[3] > loc[2] && l.input[l.pos+ast.Pos(loc[2])] == '-' {
		content = strings.TrimRightFunc(content, unicode.IsSpace)
	}
	if content != "" {
		l.pos = l.start + ast.Pos(len(content))
		l.emit(TokenText)
	}

	l.pos = tagPos
	l.ignore()
	l.pos += 2
	l.accept("-+")
	l.emit(TokenBlockBegin)
	l.skipSpace()
	l.pos += ast.Pos(len("endraw"))
	l.emit(TokenName)
	l.skipSpace()
	modifier = 0
	if r := l.peek(); r == '-' || r == '+' {
		modifier = byte(r)
		l.next()
	}
	l.pos += 2
	l.emit(TokenBlockEnd)
	l.tagEnded(modifier)
	l.closing = ""
	return lexText
}

// Helpers --------------------------------------------------------------------

func firstRune(s string) rune {
	if s == "" {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLetterOrUnderscore(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isSpaceEOL reports whether r is whitespace, including line breaks.
func isSpaceEOL(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
