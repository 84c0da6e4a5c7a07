package jinja

import (
	"testing"

	"github.com/andreyvit/diff"

	"github.com/robfig/jinja/data"
)

type d map[string]interface{}

type featureTest struct {
	name   string
	data   d
	output string
}

var featureTests = []featureTest{
	{"chat.jinja", d{
		"messages": []d{
			{"role": "user", "content": " Hi "},
			{"role": "assistant", "content": "Hello"},
		},
		"add_generation_prompt": true,
	}, "<|system|>You are helpful.\n<|user|>Hi\n<|assistant|>Hello\n<|assistant|>"},

	{"chat.jinja", d{
		"messages": []d{
			{"role": "system", "content": "Be brief."},
			{"role": "user", "content": "Hi"},
		},
	}, "<|system|>Be brief.\n<|user|>Hi\n"},

	{"macros.jinja", nil,
		"\n\n" +
			`<input type="text" name="user" value="">` + "\n" +
			`<input type="password" name="pass" value="">` + "\n" +
			`<input type="text" name="q" value="&lt;x&gt;">` + "\n" +
			`<ul><li>A</li><li>B</li></ul>`},

	{"loops.jinja", d{
		"items": []d{
			{"name": "a", "price": 1.5},
			{"name": "free", "price": 0},
			{"name": "b", "price": 2.25},
		},
	}, "1/2 a: 1.50\n2/2 b: 2.25\ntotal: 3.75"},

	{"loops.jinja", d{"items": []d{}}, "nothing\ntotal: 0.0"},

	{"page.jinja", nil, "<title>Acme</title>"},
	{"page.jinja", d{"title": "Home"}, "<title>Acme - Home</title>"},
}

// TestFeatures renders the templates in testdata/features, which exercise
// most of the language together.
func TestFeatures(t *testing.T) {
	env, registry, err := NewBundle().
		AddGlobalsFile("testdata/globals.yaml").
		AddTemplateDir("testdata/features").
		CompileToEnvironment()
	if err != nil {
		t.Fatal(err)
	}

	for _, test := range featureTests {
		var tmpl = registry.Template(test.name)
		if tmpl == nil {
			t.Errorf("couldn't find template for test: %s", test.name)
			continue
		}
		ctx, ok := data.New(map[string]interface{}(test.data)).(*data.Map)
		if !ok {
			ctx = &data.Map{}
		}
		actual, err := env.Render(tmpl.Node, ctx)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if actual != test.output {
			t.Errorf("%s: output differs\n%v", test.name, diff.LineDiff(test.output, actual))
		}
	}
}

func BenchmarkExecuteFeatures(b *testing.B) {
	env, registry, err := NewBundle().
		AddGlobalsFile("testdata/globals.yaml").
		AddTemplateDir("testdata/features").
		CompileToEnvironment()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, test := range featureTests {
			var ctx, _ = data.New(map[string]interface{}(test.data)).(*data.Map)
			if _, err := env.Render(registry.Template(test.name).Node, ctx); err != nil {
				b.Error(err)
			}
		}
	}
}
