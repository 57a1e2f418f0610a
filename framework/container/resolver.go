package container

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"time"

	"github.com/pkg/errors"
)

// Overrides supplies parameter values, keyed by parameter name, for a single
// resolution. They win over registration parameters and are never stored.
type Overrides map[string]any

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns a fully wired value for name.
//
// name is a registered logical name or, failing that, a class identifier
// from the catalog; unregistered classes are built without being stored.
// The container's own type identifier and SelfName resolve to c. When
// several overrides are passed, later maps win.
//
//	// Laravel: $app->make('mailer', ['from' => 'ops@example.com'])
//	v, err := c.Resolve("mailer", container.Overrides{"from": "ops@example.com"})
func (c *Container) Resolve(name string, overrides ...Overrides) (any, error) {
	merged := make(map[string]any)
	for _, o := range overrides {
		maps.Copy(merged, o)
	}
	return c.resolve(normalize(name), merged, &trail{})
}

// trail is the stack of names currently being resolved by one call.
type trail struct {
	names []string
}

func (t *trail) push(name string) error {
	if slices.Contains(t.names, name) {
		return &CircularDependencyError{Path: append(slices.Clone(t.names), name)}
	}
	t.names = append(t.names, name)
	return nil
}

func (t *trail) pop() {
	t.names = t.names[:len(t.names)-1]
}

func (c *Container) resolve(name string, overrides map[string]any, t *trail) (any, error) {
	if name == c.self || name == SelfName {
		return c, nil
	}
	if err := t.push(name); err != nil {
		return nil, err
	}
	defer t.pop()

	r, ok := c.lookup(name)
	if !ok {
		// a type registered under exactly one other name resolves through it
		if alias, ar, found := c.lookupClass(name); found {
			if err := t.push(alias); err != nil {
				return nil, err
			}
			defer t.pop()
			return c.resolveRegistration(alias, ar, overrides, t)
		}
		inst, err := c.build(name, name, overrides, nil, t)
		if err != nil {
			return nil, err
		}
		c.fireAfterResolving(name, inst)
		return inst, nil
	}
	return c.resolveRegistration(name, r, overrides, t)
}

func (c *Container) resolveRegistration(name string, r *registration, overrides map[string]any, t *trail) (any, error) {
	// a built value cannot be re-parameterized
	if inst, ok := r.current(); ok {
		return inst, nil
	}
	if r.lifecycle == Shared {
		r.build.Lock()
		defer r.build.Unlock()
		if inst, ok := r.current(); ok {
			return inst, nil
		}
	}

	deps, params := r.settings()
	maps.Copy(params, overrides)

	var inst any
	if r.factory != nil {
		v, err := r.factory(params)
		if err != nil {
			return nil, &ResolutionError{Name: name, Cause: errors.Wrap(err, "factory failed")}
		}
		inst = v
	} else {
		v, err := c.build(name, r.class, params, deps, t)
		if err != nil {
			return nil, err
		}
		inst = v
	}

	if r.lifecycle == Shared {
		r.store(inst)
	}
	c.logger.Debug("Resolved", "abstract", name, "lifecycle", r.lifecycle.String())
	c.fireAfterResolving(name, inst)
	return inst, nil
}

// build constructs class and invokes its setters.
func (c *Container) build(name, class string, params map[string]any, deps map[string]string, t *trail) (any, error) {
	cls, ok := c.catalog.Lookup(class)
	if !ok {
		return nil, &UnknownTypeError{Type: class}
	}
	entry, err := c.entry(cls)
	if err != nil {
		return nil, err
	}

	args, err := c.arguments(cls.Name, entry.Constructor, cls.paramTypes(), cls.Params, params, deps, t)
	if err != nil {
		return nil, err
	}
	inst, err := cls.construct(args)
	if err != nil {
		return nil, &ResolutionError{Name: name, Cause: errors.Wrapf(err, "constructing %s", cls.Name)}
	}

	if len(cls.Setters) == 0 {
		return inst, nil
	}
	v := reflect.ValueOf(inst)
	if !v.IsValid() {
		return nil, &ResolutionError{Name: name, Cause: errors.Errorf("%s returned nil, setters cannot be called", cls.Name)}
	}
	for _, s := range cls.Setters {
		m := v.MethodByName(s.Method)
		if !m.IsValid() {
			return nil, &UnknownTypeError{Type: cls.Name, Method: s.Method}
		}
		args, err := c.arguments(cls.Name, entry.Setters[s.Method], setterTypes(m), nil, params, deps, t)
		if err != nil {
			return nil, err
		}
		if err := callSetter(m, args); err != nil {
			return nil, &ResolutionError{Name: name, Cause: errors.Wrapf(err, "calling %s.%s", cls.Name, s.Method)}
		}
	}
	return inst, nil
}

// entry returns the dependency descriptor for cls, inspecting it only when
// the dependency cache has nothing usable.
func (c *Container) entry(cls *Class) (Entry, error) {
	if e, ok := c.deps.get(cls.Name); ok {
		if e.matches(cls) {
			return e, nil
		}
		c.logger.Debug("Discarding stale dependency entry", "class", cls.Name)
	}
	e, err := c.inspector.Inspect(cls)
	if err != nil {
		return Entry{}, err
	}
	c.deps.put(cls.Name, e)
	c.logger.Debug("Inspected class", "class", cls.Name, "params", len(e.Constructor))
	return e, nil
}

// ── Parameters ────────────────────────────────────────────────────────────────

func (c *Container) arguments(
	class string,
	slots []Dependency,
	types []reflect.Type,
	declared []Param,
	params map[string]any,
	deps map[string]string,
	t *trail,
) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(types))
	for i, typ := range types {
		slot := Dependency{Param: defaultParamName(typ, i)}
		if i < len(slots) {
			slot = slots[i]
		}
		var decl Param
		if i < len(declared) {
			decl = declared[i]
		}
		v, err := c.argument(class, slot, typ, decl, params, deps, t)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// argument supplies one parameter. Precedence: an explicit value, an
// explicit dependency name, the recorded dependency, the declared default.
func (c *Container) argument(
	class string,
	slot Dependency,
	typ reflect.Type,
	decl Param,
	params map[string]any,
	deps map[string]string,
	t *trail,
) (reflect.Value, error) {
	if value, ok := params[slot.Param]; ok {
		// a string given for a dependency names what to inject
		if s, isName := value.(string); isName && slot.Name != "" && !reflect.TypeOf(value).AssignableTo(typ) {
			return c.dependency(class, slot.Param, normalize(s), typ, t)
		}
		v, err := coerce(value, typ)
		if err != nil {
			return reflect.Value{}, &UnresolvableParameterError{Param: slot.Param, Class: class, Reason: err.Error()}
		}
		return v, nil
	}
	if name, ok := deps[slot.Param]; ok {
		return c.dependency(class, slot.Param, name, typ, t)
	}
	if slot.Name != "" {
		return c.dependency(class, slot.Param, slot.Name, typ, t)
	}
	if decl.Optional {
		v, err := coerce(decl.Default, typ)
		if err != nil {
			return reflect.Value{}, &UnresolvableParameterError{Param: slot.Param, Class: class, Reason: "bad default: " + err.Error()}
		}
		return v, nil
	}
	return reflect.Value{}, &UnresolvableParameterError{Param: slot.Param, Class: class}
}

func (c *Container) dependency(class, param, name string, typ reflect.Type, t *trail) (reflect.Value, error) {
	inst, err := c.resolve(name, nil, t)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := coerce(inst, typ)
	if err != nil {
		return reflect.Value{}, &ResolutionError{
			Name:  class,
			Cause: errors.Wrapf(err, "parameter %s resolved from [%s]", param, name),
		}
	}
	return v, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// coerce turns value into an argument of type typ. nil becomes the zero
// value; numbers convert between numeric kinds; strings parse as durations.
func coerce(value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(typ), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	if typ == durationType {
		if s, ok := value.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(d), nil
		}
	}
	if numeric(v.Kind()) && numeric(typ.Kind()) {
		return convertNumber(v, typ)
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), typ)
}

// convertNumber converts between numeric kinds without losing the value:
// out of range numbers, negative numbers for unsigned types and fractions
// for integer types are errors.
func convertNumber(v reflect.Value, typ reflect.Type) (reflect.Value, error) {
	out := reflect.New(typ).Elem()
	overflow := fmt.Errorf("%v overflows %s", v.Interface(), typ)

	switch {
	case signed(typ.Kind()):
		var n int64
		switch {
		case signed(v.Kind()):
			n = v.Int()
		case unsigned(v.Kind()):
			if v.Uint() > math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(v.Uint())
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v has a fractional part, %s needs an integer", f, typ)
			}
			if f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, overflow
		}
		out.SetInt(n)

	case unsigned(typ.Kind()):
		var u uint64
		switch {
		case signed(v.Kind()):
			if v.Int() < 0 {
				return reflect.Value{}, fmt.Errorf("%d is negative, %s is unsigned", v.Int(), typ)
			}
			u = uint64(v.Int())
		case unsigned(v.Kind()):
			u = v.Uint()
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v has a fractional part, %s needs an integer", f, typ)
			}
			if f < 0 {
				return reflect.Value{}, fmt.Errorf("%v is negative, %s is unsigned", f, typ)
			}
			if f >= math.MaxUint64 {
				return reflect.Value{}, overflow
			}
			u = uint64(f)
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, overflow
		}
		out.SetUint(u)

	default:
		var f float64
		switch {
		case signed(v.Kind()):
			f = float64(v.Int())
		case unsigned(v.Kind()):
			f = float64(v.Uint())
		default:
			f = v.Float()
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, overflow
		}
		out.SetFloat(f)
	}
	return out, nil
}

func numeric(k reflect.Kind) bool {
	return signed(k) || unsigned(k) || k == reflect.Float32 || k == reflect.Float64
}

func signed(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func unsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func callSetter(m reflect.Value, args []reflect.Value) error {
	out := m.Call(args)
	mt := m.Type()
	if n := mt.NumOut(); n > 0 && mt.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Make resolves name and asserts the result to T.
//
//	mailer, err := container.Make[*Mailer](c, "mailer")
func Make[T any](c *Container, name string, overrides ...Overrides) (T, error) {
	var zero T
	inst, err := c.Resolve(name, overrides...)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, &ResolutionError{
			Name:  normalize(name),
			Cause: fmt.Errorf("resolved to %T, not %s", inst, reflect.TypeFor[T]()),
		}
	}
	return typed, nil
}

// MustMake is like Make but panics on failure.
func MustMake[T any](c *Container, name string, overrides ...Overrides) T {
	v, err := Make[T](c, name, overrides...)
	if err != nil {
		panic(err)
	}
	return v
}

// For resolves the type identifier of T.
//
//	logger, err := container.For[*Logger](c)
func For[T any](c *Container, overrides ...Overrides) (T, error) {
	return Make[T](c, typeName(reflect.TypeFor[T]()), overrides...)
}
