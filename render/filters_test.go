package render

import "testing"

var users = d{"users": []d{
	{"name": "a", "age": 30, "active": true},
	{"name": "b", "active": false},
}}

func TestStringFilters(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("capitalize", "{{ 'hELLO wORLD' | capitalize }}", "Hello world"),
		exprtest("lower", "{{ 'Hello World' | lower }}", "hello world"),
		exprtest("upper", "{{ 'Hello World' | upper }}", "HELLO WORLD"),
		exprtest("upper non-ascii", "{{ 'straße' | upper }}", "STRASSE"),
		exprtest("title", "{{ 'hello wORLD' | title }}", "Hello World"),
		exprtest("center", "{{ 'ab' | center(6) }}|{{ 'a' | center(4) }}|{{ 'long' | center(2) }}", "  ab  | a  |long"),
		exprtest("indent", `{{ 'a\nb\n\nc' | indent(2) }}`, "a\n  b\n\n  c"),
		exprtest("indent first", `{{ 'a\nb' | indent(2, true) }}`, "  a\n  b"),
		exprtest("indent blank", `{{ 'a\n\nb' | indent('> ', blank=true) }}`, "a\n> \n> b"),
		exprtest("replace", "{{ 'aaa' | replace('a', 'b') }}|{{ 'aaa' | replace('a', 'b', 2) }}", "bbb|bba"),
		exprtest("trim", "[{{ '  x  ' | trim }}][{{ '--x--' | trim('-') }}]", "[x][x]"),
		exprtest("truncate", "{{ 'hello world foo bar' | truncate(9) }}", "hello..."),
		exprtest("truncate killwords", "{{ 'hello world foo bar' | truncate(9, true) }}", "hello ..."),
		exprtest("truncate leeway", "{{ 'hello world' | truncate(9) }}", "hello world"),
		exprtest("truncate end", "{{ 'hello world foo bar' | truncate(10, end='!', leeway=0) }}", "hello!"),
		exprtest("wordcount", "{{ 'one two  three' | wordcount }}", "3"),
		exprtest("string", "{{ 1 | string ~ 2 }}", "12"),
		exprtest("format", "{{ '%s-%05.1f' | format('a', 3.14159) }}", "a-003.1"),
		exprtest("format keywords", "{{ '%(n)d items' | format(n=3) }}", "3 items"),
		exprtest("escape", `{{ '<a href="x">&\'</a>' | e }}`, "&lt;a href=&#34;x&#34;&gt;&amp;&#39;&lt;/a&gt;"),
		exprtest("escape number", "{{ 1 | escape }}", "1"),
		exprtest("safe", "{{ '<b>' | safe }}", "<b>"),
		exprtest("striptags", `{{ '<p>a  <b>b</b></p>\n c &amp; d<!-- x -->' | striptags }}`, "a b c & d"),
		exprtest("urlencode string", "{{ 'a b/c&d' | urlencode }}", "a%20b/c%26d"),
		exprtest("urlencode map", "{{ {'q': 'x y', 'n': 1} | urlencode }}", "q=x%20y&n=1"),

		exprtest("format too few", "{{ '%s %s' | format('a') }}", "").fails(),
		exprtest("format non-string", "{{ 1 | format }}", "").fails(),
		exprtest("too many arguments", "{{ 'x' | upper(1) }}", "").fails(),
		exprtest("unexpected keyword", "{{ 'x' | center(size=3) }}", "").fails(),
	})
}

func TestNumberFilters(t *testing.T) {
	runExecTests(t, []execTest{
		exprtest("abs", "{{ (-3) | abs }}{{ (-2.5) | abs }}", "32.5"),
		exprtest("float", "{{ '3.5' | float }} {{ 'x' | float }} {{ 2 | float }} {{ 'x' | float(1.5) }}", "3.5 0.0 2.0 1.5"),
		exprtest("int", "{{ '42' | int }} {{ '3.9' | int }} {{ 'ff' | int(base=16) }} {{ 'x' | int(7) }} {{ 3.9 | int }}",
			"42 3 255 7 3"),
		exprtest("round", "{{ 2.5 | round }} {{ 3.14159 | round(2) }} {{ 3.1 | round(method='ceil') }} {{ 3.9 | round(0, 'floor') }}",
			"2.0 3.14 4.0 3.0"),
		exprtest("round int", "{{ 3 | round }}", "3.0"),
		exprtest("sum", "{{ [1, 2, 3] | sum }} {{ [1, 2] | sum(start=10) }} {{ [{'n': 1}, {'n': 2}] | sum(attribute='n') }}",
			"6 13 3"),
		exprtest("max min", "{{ [3, 1, 2] | max }}{{ [3, 1, 2] | min }}", "31"),
		exprtest("min case insensitive", "{{ ['b', 'A', 'c'] | min }}", "A"),
		exprtestwdata("max attribute", "{{ (users | max(attribute='name')).name }}", "b", users),
		exprtest("max empty", "[{{ [] | max }}]", "[]"),

		exprtest("abs string", "{{ 'a' | abs }}", "").fails(),
		exprtest("round method", "{{ 1.5 | round(0, 'up') }}", "").fails(),
		exprtest("sum strings", "{{ ['a'] | sum }}", "").fails(),
	})
}

func TestSequenceFilters(t *testing.T) {
	runExecTests(t, []execTest{
		exprtestwdata("attr", "{{ user | attr('name') }}", "Rob", d{"user": d{"name": "Rob"}}),
		exprtest("batch", "{{ [1, 2, 3, 4, 5] | batch(2) | list }}", "[[1, 2], [3, 4], [5]]"),
		exprtest("batch fill", "{{ [1, 2, 3] | batch(2, 0) }}", "[[1, 2], [3, 0]]"),
		exprtest("slice", "{{ [1, 2, 3, 4, 5] | slice(2) }}", "[[1, 2, 3], [4, 5]]"),
		exprtest("slice fill", "{{ [1, 2, 3] | slice(2, 'x') }}", "[[1, 2], [3, 'x']]"),
		exprtest("length", "{{ 'héllo' | length }}{{ {'a': 1} | count }}{{ [1, 2] | length }}", "512"),
		exprtest("default", "{{ missing | default('x') }}|{{ '' | d('x') }}|{{ '' | d('x', true) }}|{{ none | default('x') }}",
			"x||x|None"),
		exprtest("dictsort", "{{ {'b': 1, 'A': 2} | dictsort }}", "[['A', 2], ['b', 1]]"),
		exprtest("dictsort by value", "{{ {'a': 1, 'b': 2} | dictsort(by='value', reverse=true) }}", "[['b', 2], ['a', 1]]"),
		exprtest("first last", "{{ [1, 2, 3] | first }}{{ [1, 2, 3] | last }}{{ 'abc' | last }}", "13c"),
		exprtest("first empty", "[{{ [] | first }}]", "[]"),
		exprtest("items", "{% for k, v in {'a': 1, 'b': 2} | items %}{{ k }}{{ v }}{% endfor %}", "a1b2"),
		exprtest("items undefined", "{{ missing | items }}", "[]"),
		exprtest("join", "{{ [1, 2, 3] | join(', ') }}|{{ 'abc' | join }}", "1, 2, 3|abc"),
		exprtestwdata("join attribute", "{{ users | join(',', attribute='name') }}", "a,b", users),
		exprtest("list", "{{ 'ab' | list }}{{ {'k': 1} | list }}", "['a', 'b']['k']"),
		exprtest("reverse", "{{ 'abc' | reverse }}{{ [1, 2] | reverse }}", "cba[2, 1]"),
		exprtest("sort", "{{ [3, 1, 2] | sort }}{{ ['b', 'A', 'c'] | sort }}", "[1, 2, 3]['A', 'b', 'c']"),
		exprtest("sort reverse", "{{ [3, 1, 2] | sort(reverse=true) }}", "[3, 2, 1]"),
		exprtest("sort case sensitive", "{{ ['b', 'A', 'a'] | sort(case_sensitive=true) }}", "['A', 'a', 'b']"),
		exprtestwdata("sort attribute", "{{ users | sort(attribute='name', reverse=true) | map(attribute='name') | join }}", "ba", users),
		exprtest("sort nested attribute", "{{ [[2, 'b'], [1, 'a']] | sort(attribute='0') | map(attribute='1') | join }}", "ab"),
		exprtest("unique", "{{ ['a', 'A', 'b', 'a'] | unique | list }}", "['a', 'b']"),
		exprtest("unique case sensitive", "{{ ['a', 'A', 'a'] | unique(true) }}", "['a', 'A']"),

		exprtest("batch zero", "{{ [1] | batch(0) }}", "").fails(),
		exprtest("list of int", "{{ 1 | list }}", "").fails(),
		exprtest("sort mixed", "{{ [1, 'a'] | sort }}", "").fails(),
		exprtest("length of int", "{{ 1 | length }}", "").fails(),
		exprtest("dictsort list", "{{ [1] | dictsort }}", "").fails(),
	})
}

func TestHigherOrderFilters(t *testing.T) {
	runExecTests(t, []execTest{
		exprtestwdata("map attribute", "{{ users | map(attribute='name') | join(',') }}", "a,b", users),
		exprtestwdata("map default", "{{ users | map(attribute='age', default=0) | list }}", "[30, 0]", users),
		exprtest("map filter", "{{ ['a', 'b'] | map('upper') | list }}", "['A', 'B']"),
		exprtest("map filter arguments", "{{ ['a-b', 'c'] | map('replace', '-', '+') | join }}", "a+bc"),
		exprtest("select", "{{ range(6) | select('odd') | list }}", "[1, 3, 5]"),
		exprtest("reject", "{{ range(6) | reject('odd') | list }}", "[0, 2, 4]"),
		exprtest("select truthy", "{{ [0, 1, '', 'a'] | select | list }}", "[1, 'a']"),
		exprtest("select with argument", "{{ range(10) | select('divisibleby', 3) | list }}", "[0, 3, 6, 9]"),
		exprtestwdata("selectattr", "{{ users | selectattr('active') | map(attribute='name') | join }}", "a", users),
		exprtestwdata("rejectattr test", "{{ users | rejectattr('name', 'equalto', 'a') | map(attribute='name') | join }}", "b", users),
		exprtestwdata("selectattr defined", "{{ users | selectattr('age', 'defined') | list | length }}", "1", users),
		exprtest("tojson", `{{ {'a': [1, 'x', none, true, 1.5]} | tojson }}`, `{"a": [1, "x", null, true, 1.5]}`),
		exprtest("tojson sort keys", `{{ {'b': 1, 'a': 2} | tojson(sort_keys=true) }}`, `{"a": 2, "b": 1}`),
		exprtest("tojson non-ascii", `{{ 'é"' | tojson }}`, `"é\""`),

		exprtest("map unknown filter", "{{ [1] | map('nope') | list }}", "").fails(),
		exprtest("select unknown test", "{{ [1] | select('nope') | list }}", "").fails(),
		exprtest("map without argument", "{{ [1] | map }}", "").fails(),
		exprtest("selectattr without attribute", "{{ [1] | selectattr }}", "").fails(),
	})
}
