package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/robfig/jinja"
	"github.com/robfig/jinja/jinjamsg"
)

type checkCmd struct {
	parseFlags

	Dir     string `arg:"" help:"Directory of templates." type:"existingdir"`
	Globals string `help:"YAML or JSON file of globals." type:"existingfile"`
}

// Run compiles every template in the directory, which parses them and checks
// that the filters and tests they use exist.
func (c *checkCmd) Run(ctx context.Context) error {
	var bundle = jinja.NewBundle().
		WithOptions(c.options()).
		AddTemplateDir(c.Dir)
	if c.Globals != "" {
		bundle.AddGlobalsFile(c.Globals)
	}
	registry, err := bundle.Compile()
	if err != nil {
		return withSourceDir(err, c.Dir)
	}
	for _, name := range registry.Names() {
		slog.DebugContext(ctx, "checked", slog.String("template", name))
	}
	_, err = fmt.Printf("%d templates ok\n", len(registry.Templates))
	return err
}

type extractCmd struct {
	parseFlags

	Dir    string `arg:"" help:"Directory of templates." type:"existingdir"`
	Output string `short:"o" help:"Write the PO template to a file instead of standard output." type:"path"`
}

// Run writes the messages passed to the gettext functions in the directory's
// templates as a PO template.
func (c *extractCmd) Run(ctx context.Context) error {
	registry, err := jinja.NewBundle().
		WithOptions(c.options()).
		AddTemplateDir(c.Dir).
		Compile()
	if err != nil {
		return withSourceDir(err, c.Dir)
	}
	var file = jinjamsg.Extract(*registry)
	slog.InfoContext(ctx, "extracted messages",
		slog.Int("templates", len(registry.Templates)),
		slog.Int("messages", len(file.Messages)),
	)
	var buf bytes.Buffer
	file.WriteTo(&buf)
	if c.Output == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(c.Output, buf.Bytes(), 0644)
}
