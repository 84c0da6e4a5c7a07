package render

import (
	"github.com/robfig/jinja/data"
	"github.com/robfig/jinja/errortypes"
)

// signature describes the parameters of a native filter, test, global or
// method. The first required parameters must be supplied.
type signature struct {
	name     string
	params   []string
	required int
}

// bind matches the arguments to the parameters, returning one value per
// parameter. Omitted optional parameters are nil.
func (sig signature) bind(args []data.Value, kwargs *data.Map) ([]data.Value, error) {
	if len(args) > len(sig.params) {
		return nil, errortypes.Newf(errortypes.ArgumentError,
			"%s() takes at most %d arguments (%d given)", sig.name, len(sig.params), len(args))
	}
	var vals = make([]data.Value, len(sig.params))
	copy(vals, args)
	for _, k := range kwargs.Keys() {
		var i = indexOf(sig.params, k)
		switch {
		case i < 0:
			return nil, errortypes.Newf(errortypes.ArgumentError,
				"%s() got an unexpected keyword argument '%s'", sig.name, k)
		case i < len(args):
			return nil, errortypes.Newf(errortypes.ArgumentError,
				"%s() got multiple values for argument '%s'", sig.name, k)
		}
		vals[i] = kwargs.Key(k)
	}
	for i := 0; i < sig.required; i++ {
		if vals[i] == nil {
			return nil, errortypes.Newf(errortypes.ArgumentError,
				"%s() missing required argument '%s'", sig.name, sig.params[i])
		}
	}
	return vals, nil
}

func indexOf(list []string, s string) int {
	for i, item := range list {
		if item == s {
			return i
		}
	}
	return -1
}

// orDefault returns v, or def if v was omitted.
func orDefault(v, def data.Value) data.Value {
	if v == nil {
		return def
	}
	return v
}

// toInt returns v as an integer, or def if v was omitted or is none.
func toInt(name string, v data.Value, def int) (int, error) {
	switch v := v.(type) {
	case nil, data.Null, data.Undefined:
		return def, nil
	case data.Int:
		return int(v), nil
	case data.Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errortypes.Newf(errortypes.RuntimeError,
		"%s: expected an integer, got %s", name, data.TypeName(v))
}

// toString returns v as a string, or def if v was omitted or is none.
func toString(name string, v data.Value, def string) (string, error) {
	switch v := v.(type) {
	case nil, data.Null, data.Undefined:
		return def, nil
	case data.String:
		return string(v), nil
	}
	return "", errortypes.Newf(errortypes.RuntimeError,
		"%s: expected a string, got %s", name, data.TypeName(v))
}

// iterate returns the items of an iterable argument.
func iterate(name string, v data.Value) (data.List, error) {
	items, ok := data.Iterate(v)
	if !ok {
		return nil, errortypes.Newf(errortypes.NotIterable,
			"%s: '%s' object is not iterable", name, data.TypeName(v))
	}
	return items, nil
}
