// Command jinja renders and inspects Jinja templates.
//
// Usage:
//
//	jinja render page.jinja --data vars.yaml
//	jinja tokens page.jinja
//	jinja ast page.jinja
//	jinja check views/
//	jinja extract views/ > messages.pot
//	jinja serve page.jinja --watch
//
// Run "jinja --help" for the flags of each command.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Run(context.Background(), os.Exit, os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, report(err))
		os.Exit(1)
	}
}
