package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/robfig/jinja/ast"
	"github.com/robfig/jinja/errortypes"
	"github.com/robfig/jinja/parse"
)

type tokensCmd struct {
	parseFlags

	Template string `arg:"" help:"Template file, or '-' for standard input."`
}

// Run prints one token per line with its position, type and text.
func (c *tokensCmd) Run(ctx context.Context) error {
	source, err := readFile(c.Template)
	if err != nil {
		return err
	}
	var tmpl = &ast.TemplateNode{Name: c.Template, Text: source}
	var w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, tok := range parse.Tokenize(c.Template, source, c.options()) {
		var line, col = tmpl.LineCol(tok.Pos)
		if tok.Type == parse.TokenError {
			w.Flush()
			return withSource(errortypes.NewErrFilePosf(c.Template, line, col,
				"template %s:%d:%d: %s", c.Template, line, col, tok.Val), c.Template, source)
		}
		fmt.Fprintf(w, "%d:%d\t%s\t%q\n", line, col, tok.Type, tok.Val)
	}
	return w.Flush()
}

type astCmd struct {
	parseFlags

	Template string `arg:"" help:"Template file, or '-' for standard input."`
}

// Run prints the parsed template in source form, which shows how the parser
// grouped expressions and statements.
func (c *astCmd) Run(ctx context.Context) error {
	source, err := readFile(c.Template)
	if err != nil {
		return err
	}
	tmpl, err := parse.Parse(c.Template, source, c.options())
	if err != nil {
		return withSource(err, c.Template, source)
	}
	_, err = fmt.Println(tmpl.String())
	return err
}
