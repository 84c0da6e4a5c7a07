package jinjamsg

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/jinja/parse"
	"github.com/robfig/jinja/template"
)

func TestExtract(t *testing.T) {
	var sources = []struct{ name, body string }{
		{"a.jinja", "{{ _('Hello') }}\n{{ gettext('Hello') | upper }}\n{{ ngettext('%(num)d apple', '%(num)d apples', n) }}"},
		{"b.jinja", "{% if x %}{{ pgettext('month', 'May') }}{% endif %}\n{{ _('Hello' ' world', name=x) }}\n{{ _(x) }}{{ other('y') }}"},
	}
	var reg template.Registry
	for _, src := range sources {
		node, err := parse.Parse(src.name, src.body, parse.Options{})
		if err != nil {
			t.Fatal(err)
		}
		if err := reg.Add(src.name, node); err != nil {
			t.Fatal(err)
		}
	}

	type msg struct {
		Ctxt, Id, IdPlural string
		Refs               []string
	}
	var expected = []msg{
		{"", "Hello", "", []string{"a.jinja:1", "a.jinja:2"}},
		{"", "%(num)d apple", "%(num)d apples", []string{"a.jinja:3"}},
		{"month", "May", "", []string{"b.jinja:1"}},
		{"", "Hello world", "", []string{"b.jinja:2"}},
	}
	var actual []msg
	for _, m := range Extract(reg).Messages {
		actual = append(actual, msg{m.Ctxt, m.Id, m.IdPlural, m.References})
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}
