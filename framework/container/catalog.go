package container

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ── Class definitions ─────────────────────────────────────────────────────────

// Param names a constructor parameter and, for optional parameters, the
// value used when nothing else supplies one.
//
// Go keeps no parameter names at runtime, so they are declared here. A
// parameter left unnamed is called after its type ("logger" for *Logger), or
// argN for plain values.
type Param struct {
	Name     string
	Optional bool
	Default  any
}

// Setter declares a method invoked right after construction with resolved
// dependencies.
//
//	container.Setter{Method: "SetCache", Params: []string{"cache"}}
type Setter struct {
	Method string
	Params []string
}

// Class describes a type the container knows how to build.
//
// Constructor must be func(...) T or func(...) (T, error). Name defaults to
// the type identifier of T (see TypeKey).
type Class struct {
	Name        string
	Constructor any
	Params      []Param
	Setters     []Setter

	fn           reflect.Value
	out          reflect.Type
	returnsError bool
}

// param returns the declaration of the i-th constructor parameter, if any.
func (c *Class) param(i int) Param {
	if i < len(c.Params) {
		return c.Params[i]
	}
	return Param{}
}

// construct calls the constructor with fully resolved arguments.
func (c *Class) construct(args []reflect.Value) (any, error) {
	out := c.fn.Call(args)
	if c.returnsError {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// Catalog maps type identifiers to buildable classes. It plays the part of
// an autoloader: a container consults it whenever a name is not a registered
// binding. A Catalog may be shared by several containers.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{classes: make(map[string]*Class)}
}

// Define validates class and adds it to the catalog, returning the
// normalized type identifier it is stored under. Defining a name twice
// replaces the earlier class.
//
//	name, err := catalog.Define(container.Class{
//	    Constructor: NewMailer,
//	    Params:      []container.Param{{Name: "transport"}, {Name: "from", Optional: true, Default: "noreply@localhost"}},
//	    Setters:     []container.Setter{{Method: "SetLogger", Params: []string{"logger"}}},
//	})
func (cat *Catalog) Define(class Class) (string, error) {
	if class.Constructor == nil {
		return "", &InvalidRegistrationError{Name: class.Name, Reason: "constructor cannot be nil"}
	}

	fn := reflect.ValueOf(class.Constructor)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return "", &InvalidRegistrationError{
			Name:   class.Name,
			Reason: fmt.Sprintf("constructor must be a function, got %v", ft.Kind()),
		}
	}
	if ft.IsVariadic() {
		return "", &InvalidRegistrationError{Name: class.Name, Reason: "variadic constructors are not supported"}
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if !ft.Out(1).Implements(errorType) {
			return "", &InvalidRegistrationError{
				Name:   class.Name,
				Reason: fmt.Sprintf("second return value must be error, got %v", ft.Out(1)),
			}
		}
		class.returnsError = true
	default:
		return "", &InvalidRegistrationError{
			Name:   class.Name,
			Reason: fmt.Sprintf("constructor must return (T) or (T, error), got %d values", ft.NumOut()),
		}
	}
	if len(class.Params) > ft.NumIn() {
		return "", &InvalidRegistrationError{
			Name:   class.Name,
			Reason: fmt.Sprintf("%d params declared for a constructor taking %d", len(class.Params), ft.NumIn()),
		}
	}
	for _, s := range class.Setters {
		if strings.TrimSpace(s.Method) == "" {
			return "", &InvalidRegistrationError{Name: class.Name, Reason: "setter without a method name"}
		}
	}

	class.fn = fn
	class.out = ft.Out(0)
	if class.Name == "" {
		class.Name = typeName(class.out)
	}
	class.Name = normalize(class.Name)

	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.classes[class.Name] = &class
	return class.Name, nil
}

// MustDefine is like Define but panics on an invalid class.
func (cat *Catalog) MustDefine(class Class) string {
	name, err := cat.Define(class)
	if err != nil {
		panic(err)
	}
	return name
}

// Lookup returns the class defined under name.
func (cat *Catalog) Lookup(name string) (*Class, bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	c, ok := cat.classes[normalize(name)]
	return c, ok
}

// Classes returns the sorted identifiers of all defined classes.
func (cat *Catalog) Classes() []string {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	out := make([]string, 0, len(cat.classes))
	for k := range cat.classes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ── Type identifiers ──────────────────────────────────────────────────────────

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// TypeKey returns the package-qualified type name of v. Pointers are
// dereferenced, so interfaces are named through a nil pointer.
//
//	container.TypeKey(&Logger{})          // "github.com/acme/app.Logger"
//	container.TypeKey((*Transport)(nil))  // "github.com/acme/app.Transport"
func TypeKey(v any) string {
	if v == nil {
		return ""
	}
	return typeName(reflect.TypeOf(v))
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// isClassType reports whether t is a named struct or interface declared in a
// package, i.e. something the container can look up by type identifier.
func isClassType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return false
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Interface
}

// normalize trims whitespace and namespace separators so that equivalent
// spellings of a name map to the same key.
func normalize(name string) string {
	return strings.Trim(strings.TrimSpace(name), `\/.*`)
}

// defaultParamName names an undeclared parameter after its type.
func defaultParamName(t reflect.Type, i int) string {
	if !isClassType(t) {
		return fmt.Sprintf("arg%d", i)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r, size := utf8.DecodeRuneInString(t.Name())
	return string(unicode.ToLower(r)) + t.Name()[size:]
}
