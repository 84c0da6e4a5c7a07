package data

import (
	"fmt"
	"math"
	"strings"

	"github.com/robfig/jinja/errortypes"
)

// Format implements printf-style "%" formatting as Python strings do it.
// Conversions take their operands from args in order, or by name from kwargs
// when written as "%(name)s". Flags, width and precision are supported.
func Format(format string, args []Value, kwargs *Map) (string, error) {
	var b strings.Builder
	var next = 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		i++
		if i == len(format) {
			return "", errortypes.Newf(errortypes.RuntimeError, "incomplete format")
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}

		var arg Value
		if format[i] == '(' {
			end := strings.IndexByte(format[i:], ')')
			if end < 0 {
				return "", errortypes.Newf(errortypes.RuntimeError, "incomplete format key")
			}
			var key = format[i+1 : i+end]
			v, ok := kwargs.Get(key)
			if !ok {
				return "", errortypes.Newf(errortypes.RuntimeError, "format key %q not found", key)
			}
			arg = v
			i += end + 1
		}

		// flags, width and precision carry over to fmt unchanged.
		var start = i
		for i < len(format) && strings.IndexByte("-+ 0#", format[i]) >= 0 {
			i++
		}
		for i < len(format) && (isDigitByte(format[i]) || format[i] == '.') {
			i++
		}
		if i == len(format) {
			return "", errortypes.Newf(errortypes.RuntimeError, "incomplete format")
		}
		var spec = "%" + format[start:i]

		if arg == nil {
			if next >= len(args) {
				return "", errortypes.Newf(errortypes.RuntimeError, "not enough arguments for format string")
			}
			arg = args[next]
			next++
		}

		s, err := formatOne(spec, format[i], arg)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if next < len(args) {
		return "", errortypes.Newf(errortypes.RuntimeError, "not all arguments converted during string formatting")
	}
	return b.String(), nil
}

func formatOne(spec string, verb byte, arg Value) (string, error) {
	switch verb {
	case 's':
		return fmt.Sprintf(spec+"s", arg.String()), nil
	case 'r':
		return fmt.Sprintf(spec+"s", Repr(arg)), nil
	case 'd', 'i', 'x', 'X', 'o':
		f, ok := ToFloat(arg)
		if !ok {
			return "", errortypes.Newf(errortypes.RuntimeError,
				"%%%c format: a number is required, not %s", verb, TypeName(arg))
		}
		if verb == 'i' {
			verb = 'd'
		}
		var n = int64(math.Trunc(f))
		if i, ok := arg.(Int); ok {
			n = int64(i)
		}
		return fmt.Sprintf(spec+string(verb), n), nil
	case 'f', 'F', 'e', 'E', 'g', 'G':
		f, ok := ToFloat(arg)
		if !ok {
			return "", errortypes.Newf(errortypes.RuntimeError,
				"%%%c format: a real number is required, not %s", verb, TypeName(arg))
		}
		if !strings.Contains(spec, ".") && verb != 'g' && verb != 'G' {
			spec += ".6"
		}
		if verb == 'F' {
			verb = 'f'
		}
		return fmt.Sprintf(spec+string(verb), f), nil
	case 'c':
		switch a := arg.(type) {
		case Int:
			return fmt.Sprintf(spec+"c", rune(a)), nil
		case String:
			if len([]rune(string(a))) == 1 {
				return fmt.Sprintf(spec+"s", string(a)), nil
			}
		}
		return "", errortypes.Newf(errortypes.RuntimeError, "%%c requires int or char")
	}
	return "", errortypes.Newf(errortypes.RuntimeError, "unsupported format character %q", verb)
}

func isDigitByte(c byte) bool {
	return '0' <= c && c <= '9'
}
