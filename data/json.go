package data

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/robfig/jinja/errortypes"
)

// JSONOptions controls ToJSON output.
type JSONOptions struct {
	Indent   int  // if > 0, pretty print with this many spaces per level
	SortKeys bool // emit map keys in sorted order
}

// ToJSON encodes v the way Python's json.dumps does with ensure_ascii
// disabled: ", " and ": " separators when compact, non-ASCII characters
// unescaped, and map keys in insertion order unless SortKeys is set.
func ToJSON(v Value, opts JSONOptions) (string, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, opts, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSON(b *strings.Builder, v Value, opts JSONOptions, depth int) error {
	switch v := v.(type) {
	case Undefined, Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		b.WriteString(v.String())
	case Float:
		switch f := float64(v); {
		case math.IsNaN(f):
			b.WriteString("NaN")
		case math.IsInf(f, 1):
			b.WriteString("Infinity")
		case math.IsInf(f, -1):
			b.WriteString("-Infinity")
		default:
			b.WriteString(v.String())
		}
	case String:
		writeJSONString(b, string(v))
	case List:
		if len(v) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
				if opts.Indent == 0 {
					b.WriteByte(' ')
				}
			}
			newline(b, opts, depth+1)
			if err := writeJSON(b, item, opts, depth+1); err != nil {
				return err
			}
		}
		newline(b, opts, depth)
		b.WriteByte(']')
	case *Map:
		return writeJSONObject(b, v, opts, depth)
	case *Namespace:
		return writeJSONObject(b, v.Attrs(), opts, depth)
	default:
		return errortypes.Newf(errortypes.RuntimeError,
			"object of type '%s' is not JSON serializable", TypeName(v))
	}
	return nil
}

func writeJSONObject(b *strings.Builder, m *Map, opts JSONOptions, depth int) error {
	if m.Len() == 0 {
		b.WriteString("{}")
		return nil
	}
	var keys = m.Keys()
	if opts.SortKeys {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
			if opts.Indent == 0 {
				b.WriteByte(' ')
			}
		}
		newline(b, opts, depth+1)
		writeJSONString(b, k)
		b.WriteString(": ")
		if err := writeJSON(b, m.Key(k), opts, depth+1); err != nil {
			return err
		}
	}
	newline(b, opts, depth)
	b.WriteByte('}')
	return nil
}

func newline(b *strings.Builder, opts JSONOptions, depth int) {
	if opts.Indent > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", opts.Indent*depth))
	}
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
