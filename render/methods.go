package render

import (
	"strings"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// method is a function bound to a receiver by attribute access, e.g.
// "s.upper" in "s.upper()".
type method func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error)

var stringMethods = map[string]method{
	"strip":      stripMethod("strip", strings.Trim, strings.TrimSpace),
	"lstrip":     stripMethod("lstrip", strings.TrimLeft, trimLeftSpace),
	"rstrip":     stripMethod("rstrip", strings.TrimRight, trimRightSpace),
	"upper":      stringFunc(upper),
	"lower":      stringFunc(lower),
	"title":      stringFunc(title),
	"capitalize": stringFunc(capitalize),
	"startswith": affixMethod("startswith", strings.HasPrefix),
	"endswith":   affixMethod("endswith", strings.HasSuffix),
	"split":      splitMethod,
	"replace":    replaceMethod,
	"join":       joinMethod,
	"count":      stringCountMethod,
	"find":       findMethod,
}

var mapMethods = map[string]method{
	"items": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		if _, err := (signature{"items", nil, 0}).bind(args, kwargs); err != nil {
			return nil, err
		}
		return mapItems(self.(*data.Map)), nil
	},
	"keys": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		if _, err := (signature{"keys", nil, 0}).bind(args, kwargs); err != nil {
			return nil, err
		}
		var keys = data.List{}
		for _, k := range self.(*data.Map).Keys() {
			keys = append(keys, data.String(k))
		}
		return keys, nil
	},
	"values": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		if _, err := (signature{"values", nil, 0}).bind(args, kwargs); err != nil {
			return nil, err
		}
		var m, values = self.(*data.Map), data.List{}
		for _, k := range m.Keys() {
			values = append(values, m.Key(k))
		}
		return values, nil
	},
	"get": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		vals, err := (signature{"get", []string{"key", "default"}, 1}).bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		if val := data.GetItem(self, vals[0]); !data.IsUndefined(val) {
			return val, nil
		}
		return orDefault(vals[1], data.Null{}), nil
	},
}

var listMethods = map[string]method{
	"count": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		vals, err := (signature{"count", []string{"value"}, 1}).bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		var n = 0
		for _, item := range self.(data.List) {
			if item.Equals(vals[0]) {
				n++
			}
		}
		return data.Int(n), nil
	},
	"index": func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		vals, err := (signature{"index", []string{"value"}, 1}).bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		for i, item := range self.(data.List) {
			if item.Equals(vals[0]) {
				return data.Int(i), nil
			}
		}
		return nil, errortypes.Newf(errortypes.RuntimeError, "%s is not in list", data.Repr(vals[0]))
	},
}

// getAttr implements dotted access. Map keys take precedence over methods of
// the same name.
func getAttr(obj data.Value, name string) data.Value {
	var methods map[string]method
	switch obj.(type) {
	case *data.Map:
		if val, ok := obj.(*data.Map).Get(name); ok {
			return val
		}
		methods = mapMethods
	case *data.Namespace:
		return data.GetAttr(obj, name)
	case data.String:
		methods = stringMethods
	case data.List:
		methods = listMethods
	}
	if m, ok := methods[name]; ok {
		return data.NewCallable(name, func(args []data.Value, kwargs *data.Map) (data.Value, error) {
			return m(obj, args, kwargs)
		})
	}
	return data.Undefined{}
}

// mapItems returns the [key, value] pairs of m.
func mapItems(m *data.Map) data.List {
	var items = data.List{}
	for _, k := range m.Keys() {
		items = append(items, data.List{data.String(k), m.Key(k)})
	}
	return items
}

// String methods ----------

func stringFunc(fn func(string) string) method {
	return func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		if len(args) > 0 || kwargs.Len() > 0 {
			return nil, errortypes.Newf(errortypes.ArgumentError, "method takes no arguments")
		}
		return data.String(fn(string(self.(data.String)))), nil
	}
}

func trimLeftSpace(s string) string  { return strings.TrimLeft(s, " \t\n\r\v\f") }
func trimRightSpace(s string) string { return strings.TrimRight(s, " \t\n\r\v\f") }

func stripMethod(name string, trim func(s, cutset string) string, trimSpace func(string) string) method {
	return func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		vals, err := (signature{name, []string{"chars"}, 0}).bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		var s = string(self.(data.String))
		if data.IsNone(vals[0]) {
			return data.String(trimSpace(s)), nil
		}
		chars, err := toString(name, vals[0], "")
		if err != nil {
			return nil, err
		}
		return data.String(trim(s, chars)), nil
	}
}

// affixMethod implements startswith and endswith, which accept a string or a
// list of candidates.
func affixMethod(name string, has func(s, affix string) bool) method {
	return func(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
		vals, err := (signature{name, []string{"affix"}, 1}).bind(args, kwargs)
		if err != nil {
			return nil, err
		}
		var s = string(self.(data.String))
		var candidates = data.List{vals[0]}
		if list, ok := vals[0].(data.List); ok {
			candidates = list
		}
		for _, c := range candidates {
			affix, err := toString(name, c, "")
			if err != nil {
				return nil, err
			}
			if has(s, affix) {
				return data.Bool(true), nil
			}
		}
		return data.Bool(false), nil
	}
}

func splitMethod(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
	vals, err := (signature{"split", []string{"sep", "maxsplit"}, 0}).bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	maxsplit, err := toInt("split", vals[1], -1)
	if err != nil {
		return nil, err
	}
	var s = string(self.(data.String))
	var parts []string
	if data.IsNone(vals[0]) {
		parts = splitFields(s, maxsplit)
	} else {
		sep, err := toString("split", vals[0], "")
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, errortypes.Newf(errortypes.RuntimeError, "empty separator")
		}
		var n = -1
		if maxsplit >= 0 {
			n = maxsplit + 1
		}
		parts = strings.SplitN(s, sep, n)
	}
	var list = make(data.List, len(parts))
	for i, p := range parts {
		list[i] = data.String(p)
	}
	return list, nil
}

// splitFields splits s around runs of whitespace, at most maxsplit times if
// maxsplit is not negative. The remainder keeps its trailing whitespace.
func splitFields(s string, maxsplit int) []string {
	var parts = []string{}
	s = trimLeftSpace(s)
	for s != "" {
		if maxsplit >= 0 && len(parts) == maxsplit {
			parts = append(parts, s)
			break
		}
		var i = strings.IndexAny(s, " \t\n\r\v\f")
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i])
		s = trimLeftSpace(s[i:])
	}
	return parts
}

func replaceMethod(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
	vals, err := (signature{"replace", []string{"old", "new", "count"}, 2}).bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	return replace("replace", string(self.(data.String)), vals[0], vals[1], vals[2])
}

func replace(name, s string, oldv, newv, countv data.Value) (data.Value, error) {
	old, err := toString(name, oldv, "")
	if err != nil {
		return nil, err
	}
	repl, err := toString(name, newv, "")
	if err != nil {
		return nil, err
	}
	count, err := toInt(name, countv, -1)
	if err != nil {
		return nil, err
	}
	return data.String(strings.Replace(s, old, repl, count)), nil
}

func joinMethod(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
	vals, err := (signature{"join", []string{"iterable"}, 1}).bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	items, err := iterate("join", vals[0])
	if err != nil {
		return nil, err
	}
	var parts = make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return data.String(strings.Join(parts, string(self.(data.String)))), nil
}

func stringCountMethod(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
	vals, err := (signature{"count", []string{"sub"}, 1}).bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	sub, err := toString("count", vals[0], "")
	if err != nil {
		return nil, err
	}
	var s = string(self.(data.String))
	if sub == "" {
		return data.Int(len([]rune(s)) + 1), nil
	}
	return data.Int(strings.Count(s, sub)), nil
}

// findMethod returns the character index of the first occurrence, or -1.
func findMethod(self data.Value, args []data.Value, kwargs *data.Map) (data.Value, error) {
	vals, err := (signature{"find", []string{"sub"}, 1}).bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	sub, err := toString("find", vals[0], "")
	if err != nil {
		return nil, err
	}
	var s = string(self.(data.String))
	var i = strings.Index(s, sub)
	if i < 0 {
		return data.Int(-1), nil
	}
	return data.Int(len([]rune(s[:i]))), nil
}
