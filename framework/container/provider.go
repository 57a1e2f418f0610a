package container

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register only registers; Boot runs after every provider has registered,
// so it may resolve anything.
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    return app.RegisterClass(container.TypeKey(&Mailer{}), "mailer")
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides lists the names a deferred provider registers.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred reports whether Register waits until one of Provides()
	// is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred ones. It is safe for concurrent use: a deferred
// provider is loaded once even when its names are first resolved from
// several goroutines.
type ProviderRegistry struct {
	app *Container

	// guards everything below
	mu         sync.Mutex
	eager      []ServiceProvider
	late       []ServiceProvider          // deferred providers loaded before Boot
	deferred   map[string]ServiceProvider // name → provider
	loads      map[ServiceProvider]*deferredLoad
	booted     bool
	registered map[ServiceProvider]bool
}

// deferredLoad is the outcome of loading one deferred provider.
type deferredLoad struct {
	once sync.Once
	err  error
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loads:      make(map[ServiceProvider]*deferredLoad),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method unless it is
// deferred. Registering the same provider twice is a no-op.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	r.mu.Unlock()

	if provider.IsDeferred() {
		return r.registerDeferred(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering %T", provider)
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		return errors.Wrapf(provider.Boot(r.app), "booting %T", provider)
	}
	return nil
}

// registerDeferred registers a placeholder factory for each provided name.
// The first resolution registers the provider for real and resolves again.
func (r *ProviderRegistry) registerDeferred(provider ServiceProvider) error {
	for _, name := range provider.Provides() {
		key := normalize(name)
		r.mu.Lock()
		r.deferred[key] = provider
		r.mu.Unlock()

		var placeholder *registration
		err := r.app.RegisterFactory(func(params map[string]any) (any, error) {
			if err := r.load(provider); err != nil {
				return nil, err
			}
			if cur, _ := r.app.lookup(key); cur == placeholder {
				return nil, errors.Errorf("deferred provider %T did not register [%s]", provider, key)
			}
			return r.app.Resolve(key, params)
		}, key, AsTransient())
		if err != nil {
			return err
		}
		placeholder, _ = r.app.lookup(key)
	}
	return nil
}

// load registers a deferred provider once. Concurrent callers wait for the
// first one to finish. The provider must not resolve its own names from
// Register.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.mu.Lock()
	l, ok := r.loads[provider]
	if !ok {
		l = &deferredLoad{}
		r.loads[provider] = l
	}
	r.mu.Unlock()

	l.once.Do(func() { l.err = r.loadOnce(provider) })
	return l.err
}

func (r *ProviderRegistry) loadOnce(provider ServiceProvider) error {
	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering deferred %T", provider)
	}

	r.mu.Lock()
	for _, name := range provider.Provides() {
		delete(r.deferred, normalize(name))
	}
	booted := r.booted
	if !booted {
		r.late = append(r.late, provider)
	}
	r.mu.Unlock()

	if booted {
		return errors.Wrapf(provider.Boot(r.app), "booting deferred %T", provider)
	}
	return nil
}

// Boot calls Boot on all eager providers and on deferred providers already
// loaded. Later calls are no-ops.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append(slices.Clone(r.eager), r.late...)
	r.late = nil
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting %T", provider)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.eager)
}

// Deferred returns the names still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for name := range r.deferred {
		out = append(out, name)
	}
	return out
}
