package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/readahead"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/parse"
)

// parseFlags are the whitespace options shared by the commands that parse
// templates.
type parseFlags struct {
	TrimBlocks          bool `help:"Remove the first newline after a block tag."`
	LstripBlocks        bool `help:"Strip whitespace from the start of a line up to a block tag."`
	KeepTrailingNewline bool `help:"Keep a single trailing newline at the end of the template."`
}

func (f parseFlags) options() parse.Options {
	return parse.Options{
		TrimBlocks:          f.TrimBlocks,
		LstripBlocks:        f.LstripBlocks,
		KeepTrailingNewline: f.KeepTrailingNewline,
	}
}

// readFile reads the named file, or standard input for "-".
func readFile(name string) (string, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	var ra = readahead.NewReader(r)
	defer ra.Close()
	content, err := io.ReadAll(ra)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(content), nil
}

// loadData reads the variables in the named YAML or JSON file. An empty name
// yields no variables.
func loadData(name string) (*data.Map, error) {
	if name == "" {
		return &data.Map{}, nil
	}
	content, err := readFile(name)
	if err != nil {
		return nil, err
	}
	val, err := data.FromYAML([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	switch val := val.(type) {
	case *data.Map:
		return val, nil
	case data.Null:
		return &data.Map{}, nil
	}
	return nil, fmt.Errorf("%s: expected a mapping, got %s", name, data.TypeName(val))
}
