package data

import "strings"

// Map is a mapping from string keys to values that remembers insertion order.
// The zero value is an empty map ready to use. Methods that only read accept a
// nil receiver.
type Map struct {
	keys  []string
	items map[string]Value
}

// NewMap returns a map holding the given key/value pairs, which must
// alternate string keys and Values.
func NewMap(pairs ...interface{}) *Map {
	var m = &Map{}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), New(pairs[i+1]))
	}
	return m
}

// Set binds k to v. A new key is appended to the key order; an existing key
// keeps its position.
func (m *Map) Set(k string, v Value) {
	if m.items == nil {
		m.items = make(map[string]Value)
	}
	if _, ok := m.items[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.items[k] = v
}

// Get returns the value under k and whether it was present.
func (m *Map) Get(k string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.items[k]
	return v, ok
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (m *Map) Key(k string) Value {
	if v, ok := m.Get(k); ok {
		return v
	}
	return Undefined{}
}

// Has reports whether k is present.
func (m *Map) Has(k string) bool {
	_, ok := m.Get(k)
	return ok
}

// Delete removes k, if present.
func (m *Map) Delete(k string) {
	if m == nil {
		return
	}
	if _, ok := m.items[k]; !ok {
		return
	}
	delete(m.items, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Copy returns a shallow copy of the map.
func (m *Map) Copy() *Map {
	var cp = &Map{}
	for _, k := range m.Keys() {
		cp.Set(k, m.items[k])
	}
	return cp
}

// Update copies all entries of other into m.
func (m *Map) Update(other *Map) {
	for _, k := range other.Keys() {
		m.Set(k, other.items[k])
	}
}

func (m *Map) Truthy() bool { return m.Len() > 0 }

func (m *Map) String() string {
	var items = make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		items = append(items, quote(k)+": "+Repr(m.items[k]))
	}
	return "{" + strings.Join(items, ", ") + "}"
}

func (m *Map) Equals(other Value) bool {
	o, ok := other.(*Map)
	if !ok || o.Len() != m.Len() {
		return false
	}
	for _, k := range m.Keys() {
		ov, ok := o.Get(k)
		if !ok || !m.items[k].Equals(ov) {
			return false
		}
	}
	return true
}

// Namespace is a mapping with shared, mutable storage. Every scope that holds
// the same *Namespace sees attribute assignments made through any of them.
type Namespace struct {
	attrs *Map
}

// NewNamespace returns a namespace initialized with the entries of attrs.
func NewNamespace(attrs *Map) *Namespace {
	return &Namespace{attrs.Copy()}
}

// Attr returns the attribute, or Undefined.
func (n *Namespace) Attr(name string) Value {
	return n.attrs.Key(name)
}

// SetAttr assigns the attribute in the shared storage.
func (n *Namespace) SetAttr(name string, v Value) {
	n.attrs.Set(name, v)
}

// Attrs returns the underlying storage.
func (n *Namespace) Attrs() *Map {
	return n.attrs
}

func (n *Namespace) Truthy() bool   { return true }
func (n *Namespace) String() string { return "<Namespace " + n.attrs.String() + ">" }
func (n *Namespace) Equals(other Value) bool {
	o, ok := other.(*Namespace)
	return ok && o == n
}

// CallFunc is the implementation of a Callable.
type CallFunc func(args []Value, kwargs *Map) (Value, error)

// Callable is a function value: a macro, the caller of a call block, a bound
// method, or a native global. Whatever environment the function needs is
// captured when it is constructed.
type Callable struct {
	Name string
	Fn   CallFunc
}

// NewCallable returns a callable with the given name and implementation.
func NewCallable(name string, fn CallFunc) *Callable {
	return &Callable{name, fn}
}

// Call invokes the function.
func (c *Callable) Call(args []Value, kwargs *Map) (Value, error) {
	return c.Fn(args, kwargs)
}

func (c *Callable) Truthy() bool   { return true }
func (c *Callable) String() string { return "<function " + c.Name + ">" }
func (c *Callable) Equals(other Value) bool {
	o, ok := other.(*Callable)
	return ok && o == c
}
