package render

import (
	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// newLoop returns the "loop" variable for iteration i over items.
func newLoop(items data.List, i int) *data.Map {
	var n = len(items)
	var loop = &data.Map{}
	loop.Set("index", data.Int(i+1))
	loop.Set("index0", data.Int(i))
	loop.Set("revindex", data.Int(n-i))
	loop.Set("revindex0", data.Int(n-i-1))
	loop.Set("first", data.Bool(i == 0))
	loop.Set("last", data.Bool(i == n-1))
	loop.Set("length", data.Int(n))
	loop.Set("depth", data.Int(1))
	loop.Set("depth0", data.Int(0))
	loop.Set("previtem", items.Index(i-1))
	if i == 0 {
		loop.Set("previtem", data.Undefined{})
	}
	loop.Set("nextitem", items.Index(i+1))
	loop.Set("cycle", data.NewCallable("cycle", func(args []data.Value, _ *data.Map) (data.Value, error) {
		if len(args) == 0 {
			return nil, errortypes.Newf(errortypes.ArgumentError, "no items for cycling given")
		}
		return args[i%len(args)], nil
	}))
	return loop
}
