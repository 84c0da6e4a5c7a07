package errortypes

import "fmt"

// Kind classifies the errors raised while compiling or rendering a template.
type Kind int

const (
	RuntimeError      Kind = iota // type mismatches and other misuse
	SyntaxError                   // malformed token stream or unmatched block tags
	NotIterable                   // a for loop over a non-iterable value
	DivisionByZero                // division, floor division or modulo by zero
	ArgumentError                 // missing required argument or unpack arity mismatch
	UnknownFilter                 // filter name not registered
	UnknownTest                   // test name not registered
	TemplateException             // raised by the template itself via raise_exception
)

var kindNames = map[Kind]string{
	RuntimeError:      "RuntimeError",
	SyntaxError:       "SyntaxError",
	NotIterable:       "NotIterable",
	DivisionByZero:    "DivisionByZero",
	ArgumentError:     "ArgumentError",
	UnknownFilter:     "UnknownFilter",
	UnknownTest:       "UnknownTest",
	TemplateException: "TemplateException",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for use with errors.Is.
var (
	ErrRuntime           = &Error{Kind: RuntimeError}
	ErrSyntax            = &Error{Kind: SyntaxError}
	ErrNotIterable       = &Error{Kind: NotIterable}
	ErrDivisionByZero    = &Error{Kind: DivisionByZero}
	ErrArgument          = &Error{Kind: ArgumentError}
	ErrUnknownFilter     = &Error{Kind: UnknownFilter}
	ErrUnknownTest       = &Error{Kind: UnknownTest}
	ErrTemplateException = &Error{Kind: TemplateException}
)

// Error is a template error of a particular Kind. When the position is known,
// it is included in the message.
type Error struct {
	Kind  Kind
	Msg   string
	file  string // template name
	line  int
	col   int
	cause error
}

var _ ErrFilePos = &Error{}

// Newf returns an Error of the given kind, without position.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind carrying err's message. errors.Is
// and errors.As see through it to err.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), cause: err}
}

// At returns a copy of the error positioned at the given template location.
// An error that already carries a position is returned unchanged.
func (e *Error) At(name string, line, col int) *Error {
	if e.line > 0 {
		return e
	}
	var cp = *e
	cp.file, cp.line, cp.col = name, line, col
	return &cp
}

func (e *Error) Error() string {
	switch {
	case e.line > 0:
		return fmt.Sprintf("template %s:%d:%d: %s", e.file, e.line, e.col, e.Msg)
	case e.file != "":
		return fmt.Sprintf("template %s: %s", e.file, e.Msg)
	}
	return e.Msg
}

// Is reports whether target is a sentinel (message-less) Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) File() string { return e.file }
func (e *Error) Line() int    { return e.line }
func (e *Error) Col() int     { return e.col }
