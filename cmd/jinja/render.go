package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/jinjamsg"
	"github.com/robfig/jinja/render"
)

type renderCmd struct {
	parseFlags

	Template string            `arg:"" help:"Template file, or '-' for standard input."`
	Data     string            `short:"d" help:"YAML or JSON file of variables, or '-' for standard input." placeholder:"FILE"`
	Set      map[string]string `short:"s" help:"Set a string variable, overriding the data file." placeholder:"NAME=VALUE"`
	Messages string            `help:"Directory of PO files to translate messages with." type:"existingdir"`
	Locale   string            `default:"en" help:"Locale to translate messages to."`
	Output   string            `short:"o" help:"Write the output to a file instead of standard output." type:"path"`
}

func (c *renderCmd) Run(ctx context.Context) error {
	if c.Template == "-" && c.Data == "-" {
		return errors.New("the template and the data cannot both be read from standard input")
	}
	source, err := readFile(c.Template)
	if err != nil {
		return err
	}
	vars, err := loadData(c.Data)
	if err != nil {
		return err
	}
	for k, v := range c.Set {
		vars.Set(k, data.String(v))
	}

	var env = render.NewEnvironment()
	env.Options = c.options()
	if c.Messages != "" {
		msgs, err := jinjamsg.Dir(c.Messages)
		if err != nil {
			return err
		}
		var catalog = msgs.Catalog(c.Locale)
		if catalog == nil {
			slog.WarnContext(ctx, "no translations for locale", slog.String("locale", c.Locale))
		}
		env.AddGlobals(catalog.Globals())
	}

	tmpl, err := env.Parse(c.Template, source)
	if err != nil {
		return withSource(err, c.Template, source)
	}
	out, err := env.Render(tmpl, vars)
	if err != nil {
		return withSource(err, c.Template, source)
	}
	slog.DebugContext(ctx, "rendered",
		slog.String("template", c.Template),
		slog.Int("bytes", len(out)),
	)

	if c.Output == "" {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	return os.WriteFile(c.Output, []byte(out), 0644)
}
