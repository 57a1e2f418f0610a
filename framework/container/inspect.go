package container

import "reflect"

// Dependency records how one parameter of a constructor or setter is
// supplied. Name is the logical name to resolve for mandatory class-typed
// parameters and empty for value parameters, which come from overrides,
// registration parameters or their declared default.
type Dependency struct {
	Param string `json:"param"`
	Name  string `json:"name,omitempty"`
}

// Entry is the dependency descriptor discovered for one class. It is what
// the dependency cache stores and persists.
type Entry struct {
	Constructor []Dependency            `json:"constructor"`
	Setters     map[string][]Dependency `json:"setters,omitempty"`
}

// Inspector discovers the dependency descriptor of a class. The container
// only calls it when the dependency cache has no entry for the class.
type Inspector interface {
	Inspect(class *Class) (Entry, error)
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(class *Class) (Entry, error)

// Inspect calls f(class).
func (f InspectorFunc) Inspect(class *Class) (Entry, error) { return f(class) }

// ReflectInspector reads constructor and setter signatures with reflect.
type ReflectInspector struct{}

// Inspect implements Inspector.
func (ReflectInspector) Inspect(class *Class) (Entry, error) {
	ft := class.fn.Type()

	entry := Entry{Constructor: make([]Dependency, ft.NumIn())}
	for i := range ft.NumIn() {
		t := ft.In(i)
		p := class.param(i)
		d := Dependency{Param: p.Name}
		if d.Param == "" {
			d.Param = defaultParamName(t, i)
		}
		// optional parameters are never dependencies
		if !p.Optional && isClassType(t) {
			d.Name = typeName(t)
		}
		entry.Constructor[i] = d
	}

	if len(class.Setters) == 0 {
		return entry, nil
	}

	entry.Setters = make(map[string][]Dependency, len(class.Setters))
	for _, s := range class.Setters {
		types, ok := class.setterParams(s.Method)
		if !ok {
			return Entry{}, &UnknownTypeError{Type: class.Name, Method: s.Method}
		}
		deps := make([]Dependency, len(types))
		for i, t := range types {
			d := Dependency{Param: defaultParamName(t, i)}
			if i < len(s.Params) && s.Params[i] != "" {
				d.Param = s.Params[i]
			}
			if isClassType(t) {
				d.Name = typeName(t)
			}
			deps[i] = d
		}
		entry.Setters[s.Method] = deps
	}
	return entry, nil
}

// matches reports whether a cached entry still fits the class signature.
func (e Entry) matches(class *Class) bool {
	if len(e.Constructor) != class.fn.Type().NumIn() {
		return false
	}
	for _, s := range class.Setters {
		types, ok := class.setterParams(s.Method)
		if !ok {
			return false
		}
		deps, ok := e.Setters[s.Method]
		if !ok || len(deps) != len(types) {
			return false
		}
	}
	return true
}

// ── Parameter types ───────────────────────────────────────────────────────────

// paramTypes returns the argument types of the constructor.
func (c *Class) paramTypes() []reflect.Type {
	ft := c.fn.Type()
	out := make([]reflect.Type, ft.NumIn())
	for i := range out {
		out[i] = ft.In(i)
	}
	return out
}

// setterParams returns the argument types of method on the built type.
// Methods of a concrete type carry the receiver as In(0); methods of an
// interface type do not.
func (c *Class) setterParams(method string) ([]reflect.Type, bool) {
	m, ok := c.out.MethodByName(method)
	if !ok {
		return nil, false
	}
	skip := 1
	if c.out.Kind() == reflect.Interface {
		skip = 0
	}
	out := make([]reflect.Type, m.Type.NumIn()-skip)
	for i := range out {
		out[i] = m.Type.In(i + skip)
	}
	return out, true
}

// setterTypes returns the argument types of a bound setter method.
func setterTypes(m reflect.Value) []reflect.Type {
	mt := m.Type()
	out := make([]reflect.Type, mt.NumIn())
	for i := range out {
		out[i] = mt.In(i)
	}
	return out
}
