package container

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
)

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Lifecycle decides whether a registration is built once or on every resolve.
type Lifecycle int

const (
	// Shared builds on first resolution and reuses the value afterwards.
	Shared Lifecycle = iota
	// Transient builds a fresh value on every resolution.
	Transient
)

func (l Lifecycle) String() string {
	switch l {
	case Shared:
		return "shared"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// ParseLifecycle parses "shared" or "transient" ("new" is accepted as an
// alias of transient). The empty string means Shared.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared", "singleton":
		return Shared, nil
	case "transient", "new":
		return Transient, nil
	default:
		return Shared, fmt.Errorf("container: unknown lifecycle %q", s)
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Factory builds a value from the merged registration parameters and call
// overrides.
//
//	c.RegisterFactory(func(p map[string]any) (any, error) {
//	    return sql.Open("mysql", p["dsn"].(string))
//	}, "db", container.WithParam("dsn", "root@/app"))
type Factory func(params map[string]any) (any, error)

// registration is the descriptor stored per logical name.
type registration struct {
	class     string
	factory   Factory
	prebuilt  bool
	lifecycle Lifecycle

	// guards everything below
	mu           sync.RWMutex
	dependencies map[string]string
	parameters   map[string]any
	instance     any
	built        bool

	// serializes the first build of a shared value
	build sync.Mutex
}

func (r *registration) current() (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instance, r.built
}

func (r *registration) store(instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instance = instance
	r.built = true
}

// Option configures a registration.
type Option func(*registration)

// AsShared builds the registration once per container. It is the default.
func AsShared() Option {
	return func(r *registration) { r.lifecycle = Shared }
}

// AsTransient builds the registration on every resolution.
func AsTransient() Option {
	return func(r *registration) { r.lifecycle = Transient }
}

// WithLifecycle sets the lifecycle explicitly.
func WithLifecycle(l Lifecycle) Option {
	return func(r *registration) { r.lifecycle = l }
}

// DependsOn resolves the parameter param from the logical name instead of
// the name derived from its type.
//
//	// Laravel: $app->when(Mailer::class)->needs(Transport::class)->give('smtp')
//	c.RegisterClass(mailer, "mailer", container.DependsOn("transport", "smtp"))
func DependsOn(param, name string) Option {
	return func(r *registration) { r.dependencies[param] = normalize(name) }
}

// WithParam injects value for the parameter param.
func WithParam(param string, value any) Option {
	return func(r *registration) { r.parameters[param] = value }
}

// WithParams injects several parameter values at once.
func WithParams(params map[string]any) Option {
	return func(r *registration) { maps.Copy(r.parameters, params) }
}

func newRegistration(opts []Option) *registration {
	r := &registration{
		dependencies: make(map[string]string),
		parameters:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterClass registers class under name. Whether class is defined in
// the catalog is only checked at resolution. An empty name registers the
// class under its own identifier.
//
//	// Laravel: $app->singleton('logger', Logger::class)
//	c.RegisterClass(container.TypeKey(&Logger{}), "logger")
func (c *Container) RegisterClass(class, name string, opts ...Option) error {
	class = normalize(class)
	if name = normalize(name); name == "" {
		name = class
	}
	if class == "" {
		return &InvalidRegistrationError{Reason: "class and name cannot both be empty"}
	}
	r := newRegistration(opts)
	r.class = class
	return c.put(name, r)
}

// RegisterInstance registers a pre-built value. It is always shared and
// never passes through construction. An empty name uses the type
// identifier of instance.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.RegisterInstance(cfg, "config")
func (c *Container) RegisterInstance(instance any, name string) error {
	if instance == nil {
		return &InvalidRegistrationError{Name: name, Reason: "instance cannot be nil"}
	}
	if name = normalize(name); name == "" {
		name = TypeKey(instance)
	}
	r := newRegistration(nil)
	r.class = TypeKey(instance)
	r.prebuilt = true
	r.instance = instance
	r.built = true
	return c.put(name, r)
}

// RegisterFactory registers a factory invoked with the merged parameters
// instead of reflective construction.
func (c *Container) RegisterFactory(factory Factory, name string, opts ...Option) error {
	if name = normalize(name); name == "" {
		return &InvalidRegistrationError{Reason: "factory registrations need a name"}
	}
	if factory == nil {
		return &InvalidRegistrationError{Name: name, Reason: "factory cannot be nil"}
	}
	r := newRegistration(opts)
	r.factory = factory
	return c.put(name, r)
}

// put stores r, silently replacing any previous registration. The names
// the container answers to itself cannot be registered.
func (c *Container) put(name string, r *registration) error {
	if name == SelfName || name == c.self {
		return &InvalidRegistrationError{Name: name, Reason: "the name is reserved for the container itself"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry[name] = r
	return nil
}

func (c *Container) lookup(name string) (*registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.registry[name]
	return r, ok
}

// lookupClass finds the single class or instance registration built from
// class. It reports false when there is none or more than one.
func (c *Container) lookupClass(class string) (string, *registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var (
		name  string
		found *registration
	)
	for n, r := range c.registry {
		if r.factory != nil || r.class != class {
			continue
		}
		if found != nil {
			return "", nil, false
		}
		name, found = n, r
	}
	return name, found, found != nil
}

// IsRegistered reports whether name has a registration.
func (c *Container) IsRegistered(name string) bool {
	_, ok := c.lookup(normalize(name))
	return ok
}

// Forget removes the registration for name, including any shared instance.
func (c *Container) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.registry, normalize(name))
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Binding is a read-only view of one registration.
type Binding struct {
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	Class        string            `json:"class,omitempty"`
	Lifecycle    string            `json:"lifecycle"`
	Resolved     bool              `json:"resolved"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Parameters   []string          `json:"parameters,omitempty"`
}

// Binding returns the view of the registration under name.
func (c *Container) Binding(name string) (Binding, bool) {
	name = normalize(name)
	r, ok := c.lookup(name)
	if !ok {
		return Binding{}, false
	}
	return r.view(name), true
}

// Bindings returns all registrations sorted by name.
func (c *Container) Bindings() []Binding {
	c.mu.RLock()
	names := make([]string, 0, len(c.registry))
	regs := make(map[string]*registration, len(c.registry))
	for k, r := range c.registry {
		names = append(names, k)
		regs[k] = r
	}
	c.mu.RUnlock()

	sort.Strings(names)
	out := make([]Binding, 0, len(names))
	for _, n := range names {
		out = append(out, regs[n].view(n))
	}
	return out
}

func (r *registration) view(name string) Binding {
	b := Binding{
		Name:      name,
		Kind:      "class",
		Class:     r.class,
		Lifecycle: r.lifecycle.String(),
	}
	switch {
	case r.prebuilt:
		b.Kind = "instance"
	case r.factory != nil:
		b.Kind = "factory"
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	b.Resolved = r.built
	if len(r.dependencies) > 0 {
		b.Dependencies = maps.Clone(r.dependencies)
	}
	for p := range r.parameters {
		b.Parameters = append(b.Parameters, p)
	}
	sort.Strings(b.Parameters)
	return b
}

// settings returns copies of the explicit dependency names and parameters.
func (r *registration) settings() (map[string]string, map[string]any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.dependencies), maps.Clone(r.parameters)
}
