package errortypes

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindIs(t *testing.T) {
	var err error = Newf(DivisionByZero, "division by zero")
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected %v to match its sentinel", err)
	}
	if errors.Is(err, ErrRuntime) {
		t.Errorf("%v should not match another kind", err)
	}

	var wrapped = fmt.Errorf("rendering: %w", Newf(UnknownFilter, "no filter named %q", "foo").At("a.jinja", 3, 7))
	if !errors.Is(wrapped, ErrUnknownFilter) {
		t.Errorf("expected wrapped error to match")
	}
	if errors.Is(Newf(ArgumentError, "x"), Newf(ArgumentError, "x")) {
		t.Errorf("only message-less sentinels should match by kind")
	}
}

func TestErrorPosition(t *testing.T) {
	var base = Newf(SyntaxError, "unexpected %q", "}}")
	tests := []struct {
		err      *Error
		expected string
	}{
		{base, `unexpected "}}"`},
		{base.At("chat.jinja", 2, 5), `template chat.jinja:2:5: unexpected "}}"`},
		{base.At("chat.jinja", 2, 5).At("other.jinja", 9, 9), `template chat.jinja:2:5: unexpected "}}"`},
		{&Error{Kind: RuntimeError, Msg: "boom", file: "x"}, "template x: boom"},
	}
	for _, test := range tests {
		if actual := test.err.Error(); actual != test.expected {
			t.Errorf("got %q, expected %q", actual, test.expected)
		}
	}
	if base.Line() != 0 {
		t.Errorf("At must not modify the receiver")
	}

	var pos = ToErrFilePos(fmt.Errorf("wrap: %w", base.At("f", 4, 1)))
	if pos == nil || pos.File() != "f" || pos.Line() != 4 || pos.Col() != 1 {
		t.Errorf("unexpected position from wrapped error: %v", pos)
	}
}

func TestKindString(t *testing.T) {
	if s := TemplateException.String(); s != "TemplateException" {
		t.Errorf("got %q", s)
	}
	if s := Kind(99).String(); s != "Kind(99)" {
		t.Errorf("got %q", s)
	}
}

func TestWrap(t *testing.T) {
	var cause = errors.New("disk on fire")
	var err error = Wrap(RuntimeError, cause).At("t", 1, 2)
	if !errors.Is(err, cause) {
		t.Errorf("expected %v to unwrap to its cause", err)
	}
	if !errors.Is(err, ErrRuntime) {
		t.Errorf("expected %v to match its kind", err)
	}
	if err.Error() != "template t:1:2: disk on fire" {
		t.Errorf("got %q", err.Error())
	}
}
