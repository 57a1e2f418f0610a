// Package container provides an autowiring dependency injection container
// and a Laravel-style Service Provider system for Go.
//
// # Overview
//
// The container builds values by name. A name is either a registration
// (class, factory or pre-built instance) or the identifier of a class
// defined in a Catalog. Constructor parameters that are named structs or
// interfaces are dependencies: the container resolves them recursively by
// their type identifier. Every other parameter needs an override, a
// registration parameter or a declared default.
//
// What the container learns about a class (which parameter depends on
// what) is kept in a dependency cache. With a cache.Store configured the
// cache is loaded in New and written back by Close, so later processes skip
// inspection entirely.
//
// # Lifecycle
//
//  1. Define classes: cat.Define(container.Class{Constructor: NewMailer})
//  2. Create: c := container.New(container.WithCatalog(cat), container.WithCache(store))
//  3. Register: c.RegisterClass(...), c.RegisterInstance(...), c.RegisterFactory(...)
//  4. Resolve: c.Resolve("mailer") or container.Make[*Mailer](c, "mailer")
//  5. Close: c.Close() persists the dependency cache
//
// # Classes
//
//	type Mailer struct{ transport Transport; from string; logger *Logger }
//
//	func NewMailer(t Transport, from string) *Mailer { ... }
//	func (m *Mailer) SetLogger(l *Logger)            { m.logger = l }
//
//	cat.Define(container.Class{
//	    Constructor: NewMailer,
//	    Params: []container.Param{
//	        {Name: "transport"},
//	        {Name: "from", Optional: true, Default: "noreply@localhost"},
//	    },
//	    Setters: []container.Setter{{Method: "SetLogger", Params: []string{"logger"}}},
//	})
//
// # Registrations
//
//	// Shared (default): built once, reused
//	// Laravel: $app->singleton('mailer', Mailer::class)
//	c.RegisterClass(container.TypeKey(&Mailer{}), "mailer")
//
//	// Transient: built on every resolve
//	c.RegisterClass(container.TypeKey(&Mailer{}), "mailer", container.AsTransient())
//
//	// Interface → implementation
//	c.RegisterClass(container.TypeKey(&SMTPTransport{}), container.TypeKey((*Transport)(nil)))
//
//	// Explicit dependency names and parameter values
//	c.RegisterClass(mailerKey, "mailer",
//	    container.DependsOn("transport", "sendmail"),
//	    container.WithParam("from", "ops@example.com"))
//
//	// Pre-built value
//	c.RegisterInstance(cfg, "config")
//
//	// Factory
//	c.RegisterFactory(func(p map[string]any) (any, error) { ... }, "db")
//
// # Resolving
//
//	v, err := c.Resolve("mailer", container.Overrides{"from": "test@example.com"})
//	mailer, err := container.Make[*Mailer](c, "mailer")
//	logger, err := container.For[*Logger](c)
//
// Precedence for a parameter: call overrides, then registration parameters,
// then explicit dependency names, then the dependency recorded for its type,
// then its declared default. A type identifier that is not registered
// itself but backs exactly one class or instance registration resolves
// through that registration, so a shared "logger" is also what every
// *Logger parameter receives. Resolution fails with UnresolvableParameterError,
// UnknownTypeError, ResolutionError or CircularDependencyError.
//
// # Contextual Binding
//
//	// Laravel: $app->when(Mailer::class)->needs('$from')->give('ops@example.com')
//	c.When("mailer").Needs("from").GiveValue("ops@example.com")
//	c.When("mailer").Needs("transport").Give("sendmail")
//
// # Service Providers
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    return app.RegisterClass(mailerKey, "mailer")
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailServiceProvider{})
//	registry.Boot()
//
// Deferred providers (IsDeferred true) are only registered when one of
// their Provides() names is first resolved.
package container
