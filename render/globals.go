package render

import (
	"github.com/lestrrat-go/strftime"

	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// maxRange is the largest number of items range may produce.
const maxRange = 100000

// DefaultGlobals are the builtin global functions.
var DefaultGlobals = map[string]Global{
	"range":           globalRange,
	"namespace":       globalNamespace,
	"raise_exception": globalRaiseException,
	"strftime_now":    globalStrftimeNow,
	"dict":            globalDict,
}

func globalRange(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	if kwargs.Len() > 0 {
		return nil, errortypes.Newf(errortypes.ArgumentError, "range() takes no keyword arguments")
	}
	var bounds = make([]int, len(args))
	for i, arg := range args {
		n, ok := arg.(data.Int)
		if !ok {
			return nil, errortypes.Newf(errortypes.RuntimeError,
				"range: '%s' object cannot be interpreted as an integer", data.TypeName(arg))
		}
		bounds[i] = int(n)
	}

	var start, stop, step = 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
	default:
		return nil, errortypes.Newf(errortypes.ArgumentError,
			"range expected 1 to 3 arguments, got %d", len(bounds))
	}
	if step == 0 {
		return nil, errortypes.Newf(errortypes.RuntimeError, "range() arg 3 must not be zero")
	}

	var n = 0
	switch {
	case step > 0 && stop > start:
		n = (stop - start + step - 1) / step
	case step < 0 && stop < start:
		n = (start - stop - step - 1) / -step
	}
	if n > maxRange {
		return nil, errortypes.Newf(errortypes.RuntimeError,
			"range too big (maximum length is %d)", maxRange)
	}
	var list = make(data.List, n)
	for i := range list {
		list[i] = data.Int(start + i*step)
	}
	return list, nil
}

// globalNamespace returns a namespace initialized from an optional mapping
// followed by the keyword arguments.
func globalNamespace(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	attrs, err := mappingArgs("namespace", args, kwargs)
	if err != nil {
		return nil, err
	}
	return data.NewNamespace(attrs), nil
}

func globalDict(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	return mappingArgs("dict", args, kwargs)
}

// mappingArgs builds a map from an optional positional mapping or list of
// pairs, updated with the keyword arguments.
func mappingArgs(name string, args []data.Value, kwargs *data.Map) (*data.Map, error) {
	var m = &data.Map{}
	switch len(args) {
	case 0:
	case 1:
		switch arg := args[0].(type) {
		case *data.Map:
			m.Update(arg)
		case *data.Namespace:
			m.Update(arg.Attrs())
		case data.List:
			for _, pair := range arg {
				kv, ok := pair.(data.List)
				if !ok || len(kv) != 2 {
					return nil, errortypes.Newf(errortypes.RuntimeError,
						"%s: sequence elements must be key/value pairs", name)
				}
				m.Set(mapKey(kv[0]), kv[1])
			}
		default:
			return nil, errortypes.Newf(errortypes.RuntimeError,
				"%s: '%s' object is not a mapping", name, data.TypeName(arg))
		}
	default:
		return nil, errortypes.Newf(errortypes.ArgumentError,
			"%s expected at most 1 positional argument, got %d", name, len(args))
	}
	m.Update(kwargs)
	return m, nil
}

func globalRaiseException(args []data.Value, kwargs *data.Map, _ *Environment) (data.Value, error) {
	vals, err := signature{"raise_exception", []string{"message"}, 1}.bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	return nil, errortypes.Newf(errortypes.TemplateException, "%s", vals[0].String())
}

// globalStrftimeNow formats the environment's current time with C strftime
// verbs.
func globalStrftimeNow(args []data.Value, kwargs *data.Map, env *Environment) (data.Value, error) {
	vals, err := signature{"strftime_now", []string{"format"}, 1}.bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	format, err := toString("strftime_now", vals[0], "")
	if err != nil {
		return nil, err
	}
	s, err := strftime.Format(format, env.Now())
	if err != nil {
		return nil, errortypes.Wrap(errortypes.RuntimeError, err)
	}
	return data.String(s), nil
}
