package parse

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var unescapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
}

// unquoteString takes a quoted string literal (including the surrounding
// single or double quotes) and returns the unquoted string, along with any
// error encountered. Unrecognized escapes are kept as written.
func unquoteString(s string) (string, error) {
	n := len(s)
	if n < 2 {
		return "", errors.New("too short a string")
	}

	if (s[0] != '\'' && s[0] != '"') || s[0] != s[n-1] {
		return "", errors.New("string not surrounded by quotes")
	}

	s = s[1 : n-1]
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var result = make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r != '\\' || i == len(s) {
			result = append(result, r)
			continue
		}

		r, size = utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case 'u', 'x':
			var width = 4
			if r == 'x' {
				width = 2
			}
			if i+width > len(s) {
				return "", errors.New("error scanning escape, expect \\" + string(r) + strings.Repeat("N", width))
			}
			num, err := strconv.ParseUint(s[i:i+width], 16, 32)
			if err != nil {
				return "", err
			}
			result = append(result, rune(num))
			i += width
		default:
			if replacement, ok := unescapes[r]; ok {
				result = append(result, replacement)
			} else {
				result = append(result, '\\', r)
			}
		}
	}
	return string(result), nil
}
