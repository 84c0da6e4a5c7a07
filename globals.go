package jinja

import (
	"fmt"
	"io"

	"github.com/robfig/jinja/data"
)

// ParseGlobals parses the given input as a YAML (or JSON) mapping of global
// names to values, for example:
//
//	site_name: Acme
//	nav:
//	  - {title: Home, href: /}
//	  - {title: About, href: /about}
//
// The order of the keys is kept.
func ParseGlobals(input io.Reader) (*data.Map, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	val, err := data.FromYAML(content)
	if err != nil {
		return nil, err
	}
	switch val := val.(type) {
	case *data.Map:
		return val, nil
	case data.Null:
		return &data.Map{}, nil
	}
	return nil, fmt.Errorf("globals must be a mapping, got %s", data.TypeName(val))
}
