package render

import (
	"html"
	"io"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// DefaultFilters are the builtin filters.
var DefaultFilters = map[string]Filter{
	"abs":        filterAbs,
	"attr":       filterAttr,
	"batch":      filterBatch,
	"capitalize": stringFilter("capitalize", capitalize),
	"center":     filterCenter,
	"count":      filterLength,
	"default":    filterDefault,
	"d":          filterDefault,
	"dictsort":   filterDictsort,
	"e":          filterEscape,
	"escape":     filterEscape,
	"first":      filterFirst,
	"float":      filterFloat,
	"format":     filterFormat,
	"indent":     filterIndent,
	"int":        filterInt,
	"items":      filterItems,
	"join":       filterJoin,
	"last":       filterLast,
	"length":     filterLength,
	"list":       filterList,
	"lower":      stringFilter("lower", lower),
	"map":        filterMap,
	"max":        minMaxFilter("max", 1),
	"min":        minMaxFilter("min", -1),
	"reject":     selectFilter("reject", false, false),
	"rejectattr": selectFilter("rejectattr", true, false),
	"replace":    filterReplace,
	"reverse":    filterReverse,
	"round":      filterRound,
	"safe":       filterSafe,
	"select":     selectFilter("select", false, true),
	"selectattr": selectFilter("selectattr", true, true),
	"slice":      filterSlice,
	"sort":       filterSort,
	"string":     filterString,
	"striptags":  filterStriptags,
	"sum":        filterSum,
	"title":      stringFilter("title", title),
	"tojson":     filterTojson,
	"trim":       filterTrim,
	"truncate":   filterTruncate,
	"unique":     filterUnique,
	"upper":      stringFilter("upper", upper),
	"urlencode":  filterUrlencode,
	"wordcount":  filterWordcount,
}

// bindFilter binds the arguments following the piped value.
func bindFilter(name string, args []data.Value, kwargs *data.Map, required int, params ...string) ([]data.Value, error) {
	return signature{name, params, required}.bind(args[1:], kwargs)
}

// Case mapping ----------

func upper(s string) string { return cases.Upper(language.Und).String(s) }
func lower(s string) string { return cases.Lower(language.Und).String(s) }
func title(s string) string { return cases.Title(language.Und).String(s) }

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s string) string {
	var r, n = utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return upper(string(r)) + lower(s[n:])
}

func stringFilter(name string, fn func(string) string) Filter {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
		if _, err := bindFilter(name, args, kwargs, 0); err != nil {
			return nil, err
		}
		return data.String(fn(args[0].String())), nil
	}
}

// Escaping ----------

var (
	htmlQuot = "&#34;" // shorter than "&quot;"
	htmlApos = "&#39;" // shorter than "&apos;" and apos was not in HTML until HTML5
	htmlAmp  = "&amp;"
	htmlLt   = "&lt;"
	htmlGt   = "&gt;"
)

// htmlEscapeString escapes the HTML special characters of str, writing the
// result to w without making copies.
func htmlEscapeString(w io.StringWriter, str string) {
	last := 0
	for i := 0; i < len(str); i++ {
		var esc string
		switch str[i] {
		case '"':
			esc = htmlQuot
		case '\'':
			esc = htmlApos
		case '&':
			esc = htmlAmp
		case '<':
			esc = htmlLt
		case '>':
			esc = htmlGt
		default:
			continue
		}
		w.WriteString(str[last:i])
		w.WriteString(esc)
		last = i + 1
	}
	w.WriteString(str[last:])
}

func filterEscape(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("escape", args, kwargs, 0); err != nil {
		return nil, err
	}
	var b strings.Builder
	htmlEscapeString(&b, args[0].String())
	return data.String(b.String()), nil
}

// filterSafe returns its input. Output is never escaped automatically.
func filterSafe(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("safe", args, kwargs, 0); err != nil {
		return nil, err
	}
	return args[0], nil
}

var tagPattern = regexp.MustCompile(`(?s)<!--.*?-->|<[^>]*>`)

func filterStriptags(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("striptags", args, kwargs, 0); err != nil {
		return nil, err
	}
	var stripped = tagPattern.ReplaceAllString(args[0].String(), "")
	return data.String(html.UnescapeString(strings.Join(strings.Fields(stripped), " "))), nil
}

func filterUrlencode(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("urlencode", args, kwargs, 0); err != nil {
		return nil, err
	}
	var pairs data.List
	switch v := args[0].(type) {
	case data.String:
		return data.String(urlQuote(string(v), "/")), nil
	case *data.Map:
		pairs = mapItems(v)
	case data.List:
		pairs = v
	default:
		return data.String(urlQuote(v.String(), "/")), nil
	}
	var parts = make([]string, 0, len(pairs))
	for _, pair := range pairs {
		kv, ok := pair.(data.List)
		if !ok || len(kv) != 2 {
			return nil, errortypes.Newf(errortypes.RuntimeError, "urlencode: expected key/value pairs")
		}
		parts = append(parts, urlQuote(kv[0].String(), "")+"="+urlQuote(kv[1].String(), ""))
	}
	return data.String(strings.Join(parts, "&")), nil
}

// urlQuote percent-encodes s, leaving unreserved characters and those in
// safe as they are.
func urlQuote(s, safe string) string {
	var quoted = strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	for _, c := range safe {
		quoted = strings.ReplaceAll(quoted, url.QueryEscape(string(c)), string(c))
	}
	return quoted
}

// Strings ----------

func filterCenter(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("center", args, kwargs, 0, "width")
	if err != nil {
		return nil, err
	}
	width, err := toInt("center", vals[0], 80)
	if err != nil {
		return nil, err
	}
	var s = args[0].String()
	var pad = width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return data.String(s), nil
	}
	var left = pad/2 + (pad & width & 1)
	return data.String(strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)), nil
}

func filterFormat(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	format, ok := args[0].(data.String)
	if !ok {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"format: expected a format string, got %s", data.TypeName(args[0]))
	}
	s, err := data.Format(string(format), args[1:], kwargs)
	if err != nil {
		return nil, err
	}
	return data.String(s), nil
}

func filterIndent(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("indent", args, kwargs, 0, "width", "first", "blank")
	if err != nil {
		return nil, err
	}
	var indention string
	if w, ok := vals[0].(data.String); ok {
		indention = string(w)
	} else {
		n, err := toInt("indent", vals[0], 4)
		if err != nil {
			return nil, err
		}
		indention = strings.Repeat(" ", n)
	}
	var first = orDefault(vals[1], data.Bool(false)).Truthy()
	var blank = orDefault(vals[2], data.Bool(false)).Truthy()

	var lines = strings.Split(args[0].String(), "\n")
	for i := 1; i < len(lines); i++ {
		if blank || lines[i] != "" {
			lines[i] = indention + lines[i]
		}
	}
	var result = strings.Join(lines, "\n")
	if first {
		result = indention + result
	}
	return data.String(result), nil
}

func filterReplace(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("replace", args, kwargs, 2, "old", "new", "count")
	if err != nil {
		return nil, err
	}
	return replace("replace", args[0].String(), vals[0], vals[1], vals[2])
}

func filterTrim(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("trim", args, kwargs, 0, "chars")
	if err != nil {
		return nil, err
	}
	var s = args[0].String()
	if data.IsNone(vals[0]) {
		return data.String(strings.TrimSpace(s)), nil
	}
	chars, err := toString("trim", vals[0], "")
	if err != nil {
		return nil, err
	}
	return data.String(strings.Trim(s, chars)), nil
}

func filterTruncate(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("truncate", args, kwargs, 0, "length", "killwords", "end", "leeway")
	if err != nil {
		return nil, err
	}
	length, err := toInt("truncate", vals[0], 255)
	if err != nil {
		return nil, err
	}
	end, err := toString("truncate", vals[2], "...")
	if err != nil {
		return nil, err
	}
	leeway, err := toInt("truncate", vals[3], 5)
	if err != nil {
		return nil, err
	}
	var killwords = orDefault(vals[1], data.Bool(false)).Truthy()

	var runes = []rune(args[0].String())
	if len(runes) <= length+leeway {
		return data.String(string(runes)), nil
	}
	var cut = length - utf8.RuneCountInString(end)
	if cut < 0 {
		cut = 0
	}
	var result = string(runes[:cut])
	if !killwords {
		if i := strings.LastIndex(result, " "); i >= 0 {
			result = result[:i]
		}
	}
	return data.String(result + end), nil
}

func filterWordcount(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("wordcount", args, kwargs, 0); err != nil {
		return nil, err
	}
	return data.Int(len(strings.Fields(args[0].String()))), nil
}

func filterString(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("string", args, kwargs, 0); err != nil {
		return nil, err
	}
	return data.String(args[0].String()), nil
}

// Numbers ----------

func filterAbs(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("abs", args, kwargs, 0); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case data.Int:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case data.Float:
		return data.Float(math.Abs(float64(v))), nil
	}
	return nil, errortypes.Newf(errortypes.RuntimeError,
		"bad operand type for abs(): '%s'", data.TypeName(args[0]))
}

func filterFloat(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("float", args, kwargs, 0, "default")
	if err != nil {
		return nil, err
	}
	var def = orDefault(vals[0], data.Float(0))
	switch v := args[0].(type) {
	case data.Int:
		return data.Float(v), nil
	case data.Float:
		return v, nil
	case data.Bool:
		if v {
			return data.Float(1), nil
		}
		return data.Float(0), nil
	case data.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return def, nil
		}
		return data.Float(f), nil
	}
	return def, nil
}

func filterInt(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("int", args, kwargs, 0, "default", "base")
	if err != nil {
		return nil, err
	}
	var def = orDefault(vals[0], data.Int(0))
	base, err := toInt("int", vals[1], 10)
	if err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case data.Int:
		return v, nil
	case data.Float:
		return data.Int(v), nil
	case data.Bool:
		if v {
			return data.Int(1), nil
		}
		return data.Int(0), nil
	case data.String:
		var s = strings.ReplaceAll(strings.TrimSpace(string(v)), "_", "")
		if i, err := strconv.ParseInt(s, base, 64); err == nil {
			return data.Int(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && base == 10 {
			return data.Int(f), nil
		}
	}
	return def, nil
}

func filterRound(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("round", args, kwargs, 0, "precision", "method")
	if err != nil {
		return nil, err
	}
	precision, err := toInt("round", vals[0], 0)
	if err != nil {
		return nil, err
	}
	method, err := toString("round", vals[1], "common")
	if err != nil {
		return nil, err
	}
	f, ok := data.ToFloat(args[0])
	if !ok {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"round: expected a number, got %s", data.TypeName(args[0]))
	}
	var scale = math.Pow(10, float64(precision))
	switch method {
	case "common":
		if precision >= 0 {
			// FormatFloat rounds the exact binary value half to even.
			f, _ = strconv.ParseFloat(strconv.FormatFloat(f, 'f', precision, 64), 64)
		} else {
			f = math.RoundToEven(f*scale) / scale
		}
	case "ceil":
		f = math.Ceil(f*scale) / scale
	case "floor":
		f = math.Floor(f*scale) / scale
	default:
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"round: method must be 'common', 'ceil' or 'floor'")
	}
	return data.Float(f), nil
}

func filterSum(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("sum", args, kwargs, 0, "attribute", "start")
	if err != nil {
		return nil, err
	}
	items, err := iterate("sum", args[0])
	if err != nil {
		return nil, err
	}
	var total = orDefault(vals[1], data.Int(0))
	var get = attrGetter(vals[0])
	for _, item := range items {
		if total, err = data.Add(total, get(item)); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// Sequences ----------

func filterAttr(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("attr", args, kwargs, 1, "name")
	if err != nil {
		return nil, err
	}
	name, err := toString("attr", vals[0], "")
	if err != nil {
		return nil, err
	}
	return getAttr(args[0], name), nil
}

func filterBatch(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("batch", args, kwargs, 1, "linecount", "fill_with")
	if err != nil {
		return nil, err
	}
	size, err := toInt("batch", vals[0], 0)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errortypes.Newf(errortypes.RuntimeError, "batch: linecount must be positive")
	}
	items, err := iterate("batch", args[0])
	if err != nil {
		return nil, err
	}
	var batches = data.List{}
	for i := 0; i < len(items); i += size {
		var batch = append(data.List{}, items[i:min(i+size, len(items))]...)
		for vals[1] != nil && !data.IsNone(vals[1]) && len(batch) < size {
			batch = append(batch, vals[1])
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func filterSlice(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("slice", args, kwargs, 1, "slices", "fill_with")
	if err != nil {
		return nil, err
	}
	slices, err := toInt("slice", vals[0], 0)
	if err != nil {
		return nil, err
	}
	if slices <= 0 {
		return nil, errortypes.Newf(errortypes.RuntimeError, "slice: slices must be positive")
	}
	items, err := iterate("slice", args[0])
	if err != nil {
		return nil, err
	}
	var (
		perSlice  = len(items) / slices
		withExtra = len(items) % slices
		offset    = 0
		fill      = vals[1] != nil && !data.IsNone(vals[1])
		result    = data.List{}
	)
	for n := 0; n < slices; n++ {
		var start = offset + n*perSlice
		if n < withExtra {
			offset++
		}
		var end = offset + (n+1)*perSlice
		var column = append(data.List{}, items[start:end]...)
		if fill && n >= withExtra {
			column = append(column, vals[1])
		}
		result = append(result, column)
	}
	return result, nil
}

func filterDefault(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("default", args, kwargs, 0, "default_value", "boolean")
	if err != nil {
		return nil, err
	}
	var def = orDefault(vals[0], data.String(""))
	var boolean = orDefault(vals[1], data.Bool(false)).Truthy()
	if data.IsUndefined(args[0]) || (boolean && !args[0].Truthy()) {
		return def, nil
	}
	return args[0], nil
}

func filterDictsort(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("dictsort", args, kwargs, 0, "case_sensitive", "by", "reverse")
	if err != nil {
		return nil, err
	}
	m, ok := args[0].(*data.Map)
	if !ok {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"dictsort: expected a mapping, got %s", data.TypeName(args[0]))
	}
	by, err := toString("dictsort", vals[1], "key")
	if err != nil {
		return nil, err
	}
	var pos int
	switch by {
	case "key":
		pos = 0
	case "value":
		pos = 1
	default:
		return nil, errortypes.Newf(errortypes.RuntimeError, "dictsort: you can only sort by either 'key' or 'value'")
	}
	var items = mapItems(m)
	err = sortValues(items, func(v data.Value) data.Value { return v.(data.List)[pos] },
		orDefault(vals[0], data.Bool(false)).Truthy(),
		orDefault(vals[2], data.Bool(false)).Truthy())
	return items, err
}

func filterFirst(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("first", args, kwargs, 0); err != nil {
		return nil, err
	}
	items, err := iterate("first", args[0])
	if err != nil {
		return nil, err
	}
	return items.Index(0), nil
}

func filterLast(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("last", args, kwargs, 0); err != nil {
		return nil, err
	}
	items, err := iterate("last", args[0])
	if err != nil {
		return nil, err
	}
	return items.Index(-1), nil
}

func filterItems(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("items", args, kwargs, 0); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *data.Map:
		return mapItems(v), nil
	case *data.Namespace:
		return mapItems(v.Attrs()), nil
	case data.Undefined:
		return data.List{}, nil
	}
	return nil, errortypes.Newf(errortypes.RuntimeError,
		"items: expected a mapping, got %s", data.TypeName(args[0]))
}

func filterJoin(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("join", args, kwargs, 0, "d", "attribute")
	if err != nil {
		return nil, err
	}
	sep, err := toString("join", vals[0], "")
	if err != nil {
		return nil, err
	}
	items, err := iterate("join", args[0])
	if err != nil {
		return nil, err
	}
	var get = attrGetter(vals[1])
	var parts = make([]string, len(items))
	for i, item := range items {
		parts[i] = get(item).String()
	}
	return data.String(strings.Join(parts, sep)), nil
}

func filterLength(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("length", args, kwargs, 0); err != nil {
		return nil, err
	}
	n, ok := data.Length(args[0])
	if !ok {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"object of type '%s' has no len()", data.TypeName(args[0]))
	}
	return data.Int(n), nil
}

func filterList(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("list", args, kwargs, 0); err != nil {
		return nil, err
	}
	items, err := iterate("list", args[0])
	if err != nil {
		return nil, err
	}
	return append(data.List{}, items...), nil
}

func filterReverse(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if _, err := bindFilter("reverse", args, kwargs, 0); err != nil {
		return nil, err
	}
	if s, ok := args[0].(data.String); ok {
		var runes = []rune(string(s))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return data.String(string(runes)), nil
	}
	items, err := iterate("reverse", args[0])
	if err != nil {
		return nil, err
	}
	var reversed = make(data.List, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	return reversed, nil
}

func filterSort(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("sort", args, kwargs, 0, "reverse", "case_sensitive", "attribute")
	if err != nil {
		return nil, err
	}
	items, err := iterate("sort", args[0])
	if err != nil {
		return nil, err
	}
	items = append(data.List{}, items...)
	err = sortValues(items, attrGetter(vals[2]),
		orDefault(vals[1], data.Bool(false)).Truthy(),
		orDefault(vals[0], data.Bool(false)).Truthy())
	return items, err
}

func filterUnique(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("unique", args, kwargs, 0, "case_sensitive", "attribute")
	if err != nil {
		return nil, err
	}
	items, err := iterate("unique", args[0])
	if err != nil {
		return nil, err
	}
	var caseSensitive = orDefault(vals[0], data.Bool(false)).Truthy()
	var get = attrGetter(vals[1])
	var seen data.List
	var unique = data.List{}
	for _, item := range items {
		var key = sortKey(get(item), caseSensitive)
		if contains(seen, key) {
			continue
		}
		seen = append(seen, key)
		unique = append(unique, item)
	}
	return unique, nil
}

func contains(list data.List, v data.Value) bool {
	for _, item := range list {
		if item.Equals(v) {
			return true
		}
	}
	return false
}

// minMaxFilter returns the max (sign 1) or min (sign -1) filter.
func minMaxFilter(name string, sign int) Filter {
	return func(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
		vals, err := bindFilter(name, args, kwargs, 0, "case_sensitive", "attribute")
		if err != nil {
			return nil, err
		}
		items, err := iterate(name, args[0])
		if err != nil {
			return nil, err
		}
		var caseSensitive = orDefault(vals[0], data.Bool(false)).Truthy()
		var get = attrGetter(vals[1])
		var best data.Value = data.Undefined{}
		for i, item := range items {
			if i == 0 {
				best = item
				continue
			}
			cmp, err := data.Compare(sortKey(get(item), caseSensitive), sortKey(get(best), caseSensitive))
			if err != nil {
				return nil, err
			}
			if cmp*sign > 0 {
				best = item
			}
		}
		return best, nil
	}
}

// sortKey returns the value used to order v, lower-casing strings unless
// caseSensitive.
func sortKey(v data.Value, caseSensitive bool) data.Value {
	if s, ok := v.(data.String); ok && !caseSensitive {
		return data.String(lower(string(s)))
	}
	return v
}

// sortValues sorts items stably by the key that get extracts.
func sortValues(items data.List, get func(data.Value) data.Value, caseSensitive, reverse bool) error {
	var err error
	sort.SliceStable(items, func(i, j int) bool {
		cmp, cerr := data.Compare(sortKey(get(items[i]), caseSensitive), sortKey(get(items[j]), caseSensitive))
		if cerr != nil && err == nil {
			err = cerr
		}
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
	return err
}

// attrGetter returns a function extracting the attribute named by the
// "attribute" argument: a dotted path whose integer parts index lists. An
// omitted attribute returns the item itself.
func attrGetter(attribute data.Value) func(data.Value) data.Value {
	switch attr := attribute.(type) {
	case data.Int:
		return func(item data.Value) data.Value { return data.GetItem(item, attr) }
	case data.String:
		var parts = strings.Split(string(attr), ".")
		return func(item data.Value) data.Value {
			for _, part := range parts {
				if i, err := strconv.Atoi(part); err == nil {
					item = data.GetItem(item, data.Int(i))
				} else {
					item = getAttr(item, part)
				}
			}
			return item
		}
	}
	return func(item data.Value) data.Value { return item }
}

// Higher order ----------

func filterMap(args []data.Value, kwargs *data.Map, env *Environment) (data.Value, error) {
	items, err := iterate("map", args[0])
	if err != nil {
		return nil, err
	}
	var result = make(data.List, len(items))
	if attribute, ok := kwargs.Get("attribute"); ok {
		vals, err := bindFilter("map", args, kwargs, 1, "attribute", "default")
		if err != nil {
			return nil, err
		}
		var get = attrGetter(attribute)
		for i, item := range items {
			result[i] = get(item)
			if data.IsUndefined(result[i]) && vals[1] != nil {
				result[i] = vals[1]
			}
		}
		return result, nil
	}

	if len(args) < 2 {
		return nil, errortypes.Newf(errortypes.ArgumentError, "map: expected a filter name or attribute=")
	}
	name, err := toString("map", args[1], "")
	if err != nil {
		return nil, err
	}
	filter, ok := env.filters[name]
	if !ok {
		return nil, unknownName(errortypes.UnknownFilter, "filter", name, env.FilterNames())
	}
	for i, item := range items {
		var fargs = append([]data.Value{item}, args[2:]...)
		if result[i], err = filter(fargs, kwargs, env); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// selectFilter returns the select, reject, selectattr and rejectattr
// filters. Items are kept when the test result equals keep. Without a test
// name, truthiness is used.
func selectFilter(name string, byAttr, keep bool) Filter {
	return func(args []data.Value, kwargs *data.Map, env *Environment) (data.Value, error) {
		items, err := iterate(name, args[0])
		if err != nil {
			return nil, err
		}
		var rest = args[1:]
		var get = attrGetter(nil)
		if byAttr {
			if len(rest) == 0 {
				return nil, errortypes.Newf(errortypes.ArgumentError, "%s: missing attribute", name)
			}
			get = attrGetter(rest[0])
			rest = rest[1:]
		}

		var test Test = func(args []data.Value, _ *data.Map, _ *Environment) (bool, error) {
			return args[0].Truthy(), nil
		}
		if len(rest) > 0 {
			testName, err := toString(name, rest[0], "")
			if err != nil {
				return nil, err
			}
			var ok bool
			if test, ok = env.tests[testName]; !ok {
				return nil, unknownName(errortypes.UnknownTest, "test", testName, env.TestNames())
			}
			rest = rest[1:]
		}

		var result = data.List{}
		for _, item := range items {
			ok, err := test(append([]data.Value{get(item)}, rest...), kwargs, env)
			if err != nil {
				return nil, err
			}
			if ok == keep {
				result = append(result, item)
			}
		}
		return result, nil
	}
}

// Serialization ----------

func filterTojson(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := bindFilter("tojson", args, kwargs, 0, "indent", "sort_keys")
	if err != nil {
		return nil, err
	}
	indent, err := toInt("tojson", vals[0], 0)
	if err != nil {
		return nil, err
	}
	s, err := data.ToJSON(args[0], data.JSONOptions{
		Indent:   indent,
		SortKeys: orDefault(vals[1], data.Bool(false)).Truthy(),
	})
	if err != nil {
		return nil, err
	}
	return data.String(s), nil
}
