package errortypes_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/robfig/jinja/errortypes"
)

func TestIsErrFilePos(t *testing.T) {
	var tests = []struct {
		name string
		in   error
		out  bool
	}{
		{
			name: "nil",
			out:  false,
		},
		{
			name: "errors.New",
			in:   errors.New("an error"),
			out:  false,
		},
		{
			name: "new ErrFilePos",
			in:   errortypes.NewErrFilePosf("file.jinja", 1, 2, "message"),
			out:  true,
		},
		{
			name: "wrapped ErrFilePos",
			in:   fmt.Errorf("outer: %w", errortypes.NewErrFilePosf("file.jinja", 1, 2, "message")),
			out:  true,
		},
	}
	for _, test := range tests {
		got := errortypes.IsErrFilePos(test.in)
		if got != test.out {
			t.Errorf("%s: Expected %v, got %v", test.name, test.out, got)
		}
	}
}

func TestToErrFilePos(t *testing.T) {
	var tests = []struct {
		name             string
		in               error
		expectNil        bool
		expectedFilename string
		expectedLine     int
		expectedCol      int
	}{
		{
			name:      "nil",
			expectNil: true,
		},
		{
			name:      "errors.New",
			in:        errors.New("an error"),
			expectNil: true,
		},
		{
			name:             "new ErrFilePos",
			in:               errortypes.NewErrFilePosf("file.jinja", 1, 2, "message"),
			expectNil:        false,
			expectedFilename: "file.jinja",
			expectedLine:     1,
			expectedCol:      2,
		},
		{
			name:             "wrapped ErrFilePos",
			in:               fmt.Errorf("compiling: %w", errortypes.NewErrFilePosf("file.jinja", 3, 4, "message")),
			expectedFilename: "file.jinja",
			expectedLine:     3,
			expectedCol:      4,
		},
		{
			name:             "wrapped kind error",
			in:               fmt.Errorf("rendering: %w", errortypes.Newf(errortypes.RuntimeError, "boom").At("page.jinja", 5, 6)),
			expectedFilename: "page.jinja",
			expectedLine:     5,
			expectedCol:      6,
		},
	}
	for _, test := range tests {
		got := errortypes.ToErrFilePos(test.in)
		if test.expectNil && got != nil {
			t.Errorf("%s: expected ErrFilePos to be nil", test.name)
		}
		if !test.expectNil {
			if got == nil {
				t.Errorf("%s: expected ErrFilePos to be non-nil", test.name)
				return
			}
			if got.File() != test.expectedFilename {
				t.Errorf("%s: expected file '%s', got '%s'", test.name, test.expectedFilename, got.File())
			}
			if got.Line() != test.expectedLine {
				t.Errorf("%s: expected line %d, got %d", test.name, test.expectedLine, got.Line())
			}
			if got.Col() != test.expectedCol {
				t.Errorf("%s: expected col %d, got %d", test.name, test.expectedCol, got.Col())
			}
		}
	}
}

func TestErrFilePosUnwrap(t *testing.T) {
	var err = errortypes.NewErrFilePosf("file.jinja", 1, 2, "bad %s", "token")
	if err.Error() != "bad token" {
		t.Errorf("expected message %q, got %q", "bad token", err.Error())
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected an underlying error")
	}

	var kindErr = errortypes.Newf(errortypes.SyntaxError, "unexpected tag").At("file.jinja", 2, 1)
	var wrapped = fmt.Errorf("compile: %w", kindErr)
	if !errors.Is(wrapped, errortypes.ErrSyntax) {
		t.Errorf("expected %v to match ErrSyntax", wrapped)
	}
	var pos errortypes.ErrFilePos
	if !errors.As(wrapped, &pos) || pos.Line() != 2 {
		t.Errorf("expected errors.As to find the position, got %v", pos)
	}
}
