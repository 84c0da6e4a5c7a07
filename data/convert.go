package data

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshaler is implemented by types that convert themselves to a Value.
type Marshaler interface {
	MarshalValue() Value
}

// New converts the given data into a template data value, using
// DefaultStructOptions for structs.
func New(value interface{}) Value {
	return NewWith(DefaultStructOptions, value)
}

// NewWith converts the given data value to a template data value, using the
// provided StructOptions for any structs encountered.
//
// Go maps have no order, so their keys are sorted. Ordered input should be
// passed as a *Map or a yaml.MapSlice.
func NewWith(convert StructOptions, value interface{}) Value {
	// quick return if we're passed an existing data.Value
	if val, ok := value.(Value); ok {
		return val
	}

	switch value := value.(type) {
	case nil:
		return Null{}
	case Marshaler:
		return value.MarshalValue()
	case yaml.MapSlice:
		var m = &Map{}
		for _, item := range value {
			m.Set(fmt.Sprint(item.Key), NewWith(convert, item.Value))
		}
		return m
	case CallFunc:
		return NewCallable("<native>", value)
	case func(args []Value, kwargs *Map) (Value, error):
		return NewCallable("<native>", value)
	}

	// drill through pointers and interfaces to the underlying type
	var v = reflect.ValueOf(value)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null{}
	}

	if v.Type() == timeType {
		return String(v.Interface().(time.Time).Format(convert.TimeFormat))
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return Null{}
		}
		var list = make(List, v.Len())
		for i := 0; i < v.Len(); i++ {
			list[i] = NewWith(convert, v.Index(i).Interface())
		}
		return list
	case reflect.Map:
		var keys = make([]string, 0, v.Len())
		var byKey = make(map[string]reflect.Value, v.Len())
		for _, key := range v.MapKeys() {
			var k = fmt.Sprint(key.Interface())
			keys = append(keys, k)
			byKey[k] = key
		}
		sort.Strings(keys)
		var m = &Map{}
		for _, k := range keys {
			m.Set(k, NewWith(convert, v.MapIndex(byKey[k]).Interface()))
		}
		return m
	case reflect.Struct:
		return convert.Data(v.Interface())
	default:
		panic(fmt.Errorf("unexpected data type: %T (%v)", value, value))
	}
}

var DefaultStructOptions = StructOptions{
	TimeFormat: time.RFC3339,
}

// StructOptions provides flexibility in conversion of structs to the
// template's data.Map format.
type StructOptions struct {
	LowerCamel bool   // if true, convert field names to lowerCamel.
	TimeFormat string // format string for time.Time. (if empty, use ISO-8601)
}

// Data converts a struct to a Map, in field order. A `json` tag renames a
// field; the tag "-" skips it.
func (c StructOptions) Data(obj interface{}) *Map {
	var m = &Map{}
	var v = reflect.ValueOf(obj)
	var valType = v.Type()
	for i := 0; i < valType.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		var field = valType.Field(i)
		var key = field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			var name = strings.Split(tag, ",")[0]
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}
		} else if c.LowerCamel {
			key = strings.ToLower(key[:1]) + key[1:]
		}
		m.Set(key, NewWith(c, v.Field(i).Interface()))
	}
	return m
}

// FromYAML decodes a YAML (or JSON) document into a Value, keeping the key
// order of mappings.
func FromYAML(b []byte) (Value, error) {
	var doc interface{}
	if err := yaml.UnmarshalWithOptions(b, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	return New(doc), nil
}
