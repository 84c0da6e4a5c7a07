package render

import "github.com/robfig/jinja/data"

// scope is one link of the variable scope chain. A scope is created by the
// statement that owns it and discarded when that statement finishes, unless a
// macro defined within it keeps it alive.
type scope struct {
	vars   *data.Map
	parent *scope
}

// newScope creates an empty scope chained to parent.
func newScope(parent *scope) *scope {
	return &scope{vars: &data.Map{}, parent: parent}
}

// set binds k in this scope, shadowing any binding in its ancestors.
func (s *scope) set(k string, v data.Value) {
	s.vars.Set(k, v)
}

// lookup checks the scopes, innermost first, for the given key.
func (s *scope) lookup(k string) (data.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars.Get(k); ok {
			return v, true
		}
	}
	return nil, false
}
