package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Log     logConfig     `embed:"" group:"log" prefix:"log-"`
	Profile profileConfig `embed:"" group:"profile"`

	Render  renderCmd  `cmd:"" help:"Render a template."`
	Tokens  tokensCmd  `cmd:"" help:"Print the token stream of a template."`
	AST     astCmd     `cmd:"" name:"ast" help:"Print a template as parsed, in source form."`
	Check   checkCmd   `cmd:"" help:"Compile every template in a directory."`
	Extract extractCmd `cmd:"" help:"Extract translatable messages to a PO template."`
	Serve   serveCmd   `cmd:"" help:"Serve a template over HTTP, for development."`
}

// Run executes the command line given by args. The exit function is called
// by kong for --help and usage errors.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name("jinja"),
		kong.Description("Render and inspect Jinja templates."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{cli.Log.group(), cli.Profile.group()}),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx, os.Stderr)
	defer cli.Profile.start(ctx)()

	return ktx.Run(&cli)
}
