package container

import (
	"io"
	"log/slog"
	"sync"

	"github.com/km-arc/go-autowire/framework/cache"
)

// SelfName is the alias under which every container resolves to itself, in
// addition to its own type identifier.
const SelfName = "container"

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	catalog   *Catalog
	store     cache.Store
	cacheKey  string
	logger    *slog.Logger
	inspector Inspector
}

func defaults() *options {
	return &options{
		cacheKey:  DefaultCacheKey,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		inspector: ReflectInspector{},
	}
}

// ContainerOption configures a Container.
type ContainerOption func(*options)

// WithCatalog sets the catalog of classes the container can build. Without
// it the container starts with an empty catalog of its own.
func WithCatalog(cat *Catalog) ContainerOption {
	return func(o *options) {
		if cat != nil {
			o.catalog = cat
		}
	}
}

// WithCache sets the store the dependency cache is loaded from and
// persisted to.
func WithCache(store cache.Store) ContainerOption {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithCacheKey overrides DefaultCacheKey.
func WithCacheKey(key string) ContainerOption {
	return func(o *options) {
		if key != "" {
			o.cacheKey = key
		}
	}
}

// WithLogger provides the slog.Logger for debug output.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInspector replaces the reflection-based Inspector.
func WithInspector(i Inspector) ContainerOption {
	return func(o *options) {
		if i != nil {
			o.inspector = i
		}
	}
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the dependency resolution container.
//
// It holds registrations by logical name, builds classes from its Catalog,
// wires constructor and setter dependencies, and remembers what it learned
// about each class in a dependency cache that survives restarts through a
// cache.Store. A Container is safe for concurrent use.
type Container struct {
	mu       sync.RWMutex
	registry map[string]*registration

	catalog   *Catalog
	deps      *dependencyCache
	inspector Inspector
	store     cache.Store
	cacheKey  string
	logger    *slog.Logger
	self      string

	cbMu           sync.RWMutex
	afterResolving []func(string, any)

	closeOnce sync.Once
	closeErr  error
}

// New creates a container and loads the persisted dependency cache, if a
// store is configured. An unreadable cache is logged and ignored.
func New(opts ...ContainerOption) *Container {
	o := defaults()
	for _, opt := range opts {
		opt(o)
	}
	if o.catalog == nil {
		o.catalog = NewCatalog()
	}

	c := &Container{
		registry:  make(map[string]*registration),
		catalog:   o.catalog,
		deps:      newDependencyCache(),
		inspector: o.inspector,
		store:     o.store,
		cacheKey:  o.cacheKey,
		logger:    o.logger.With("name", "container.Container"),
	}
	c.self = TypeKey(c)

	if c.store != nil {
		if err := c.deps.load(c.store, c.cacheKey); err != nil {
			c.logger.Warn("Ignoring unreadable dependency cache", "key", c.cacheKey, "error", err)
		}
	}
	return c
}

// Catalog returns the catalog the container builds classes from.
func (c *Container) Catalog() *Catalog { return c.catalog }

// Define adds class to the container's catalog. See Catalog.Define.
func (c *Container) Define(class Class) (string, error) {
	return c.catalog.Define(class)
}

// Dependencies returns a copy of the dependency cache, keyed by class.
func (c *Container) Dependencies() map[string]Entry {
	return c.deps.snapshot()
}

// Explain returns the dependency entry of class, inspecting and recording
// it when the cache has none. Nothing is constructed.
func (c *Container) Explain(class string) (Entry, error) {
	cls, ok := c.catalog.Lookup(normalize(class))
	if !ok {
		return Entry{}, &UnknownTypeError{Type: normalize(class)}
	}
	return c.entry(cls)
}

// AfterResolving registers a callback fired after a value is built. Values
// returned from an existing shared slot do not fire it.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(name string, instance any)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(name string, instance any) {
	c.cbMu.RLock()
	cbs := c.afterResolving
	c.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(name, instance)
	}
}

// Close persists the dependency cache unless the store already holds an
// entry under the cache key. Calls after the first return the first result.
func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		if c.store == nil {
			return
		}
		written, err := c.deps.persist(c.store, c.cacheKey)
		if err != nil {
			c.closeErr = err
			return
		}
		if written {
			c.logger.Debug("Persisted dependency cache", "key", c.cacheKey)
		}
	})
	return c.closeErr
}
