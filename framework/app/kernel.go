package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/providers"
	"github.com/km-arc/go-autowire/framework/routing"
)

// Version is reported by the binary and the Application.
var Version = "dev"

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	envFiles []string
	config   *config.Config
	catalog  *container.Catalog
	logger   *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithEnvFiles sets the .env files loaded into the configuration.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithConfig uses cfg instead of loading one from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithCatalog sets the classes the container can build.
func WithCatalog(cat *container.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// ── Application ───────────────────────────────────────────────────────────────

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.RegisterClass(), app.Resolve() directly, like $app in Laravel's
// bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config   *config.Config
	logger   *slog.Logger
	manifest *providers.ManifestServiceProvider
}

// New loads the configuration, opens the dependency cache store and
// registers the framework providers.
func New(opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		o.config = config.Load(o.envFiles...)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	store, err := cache.Open(cfg.Container.CacheDriver, cfg.Container.CachePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening container cache")
	}

	c := container.New(
		container.WithCatalog(o.catalog),
		container.WithCache(store),
		container.WithCacheKey(cfg.Container.CacheKey),
		container.WithLogger(o.logger),
	)
	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		config:    cfg,
		logger:    o.logger,
		manifest:  &providers.ManifestServiceProvider{Path: cfg.Container.Manifest},
	}

	// Register framework core providers (same order as Laravel)
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg, Logger: o.logger},
		&providers.CacheServiceProvider{Store: store},
		a.manifest,
		&providers.RoutingServiceProvider{},
	} {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Router resolves the router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Make[*routing.Router](a.Container, providers.RouterName)
}

// Warm resolves every service the manifest registered, so that the
// dependency cache holds their classes before it is persisted. Failures
// are logged; the returned error counts them.
func (a *Application) Warm() error {
	names := a.manifest.Services()
	failed := 0
	for _, name := range names {
		if _, err := a.Resolve(name); err != nil {
			failed++
			a.logger.Warn("Could not warm service", "service", name, "error", err)
		}
	}
	a.logger.Info("Warmed dependency cache", "services", len(names), "failed", failed)
	if failed > 0 {
		return errors.Errorf("warm: %d of %d services failed", failed, len(names))
	}
	return nil
}

// Run boots the application (if needed) and serves the router on the
// configured port until ctx is done. The container is closed afterwards,
// which persists the dependency cache.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.config.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("Server started", "name", a.config.App.Name, "addr", srv.Addr, "env", a.config.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			_ = a.Close()
			return errors.Wrap(err, "server error")
		}
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		a.logger.Warn("Server shutdown incomplete", "error", err)
	}
	return a.Close()
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
func (a *Application) Version() string     { return Version }
