package providers

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/inspect"
	"github.com/km-arc/go-autowire/framework/manifest"
	"github.com/km-arc/go-autowire/framework/routing"
)

// Names the framework providers bind.
const (
	ConfigName   = "config"
	LoggerName   = "logger"
	CacheName    = "cache.store"
	ManifestName = "manifest"
	RouterName   = "router"
)

// InspectPrefix is where the router mounts the inspection endpoints.
const InspectPrefix = "/_container"

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration and the application
// logger.
//
// Bound names:
//   - "config" and the *config.Config type identifier → *config.Config
//   - "logger" and the *slog.Logger type identifier   → *slog.Logger
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config);
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
	Logger *slog.Logger
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config == nil {
		return errors.New("config provider: no configuration loaded")
	}
	for _, name := range []string{ConfigName, ""} {
		if err := app.RegisterInstance(p.Config, name); err != nil {
			return err
		}
	}
	if p.Logger == nil {
		return nil
	}
	for _, name := range []string{LoggerName, ""} {
		if err := app.RegisterInstance(p.Logger, name); err != nil {
			return err
		}
	}
	return nil
}

// ── CacheServiceProvider ──────────────────────────────────────────────────────

// CacheServiceProvider binds the store the dependency cache lives in, so
// application services can share it.
//
// Bound names:
//   - "cache.store" → cache.Store (only when a driver is configured)
type CacheServiceProvider struct {
	container.BaseProvider
	Store cache.Store
}

func (p *CacheServiceProvider) Register(app *container.Container) error {
	if p.Store == nil {
		return nil
	}
	return app.RegisterInstance(p.Store, CacheName)
}

// ── ManifestServiceProvider ───────────────────────────────────────────────────

// ManifestServiceProvider registers every service listed in a YAML manifest.
//
// Bound names:
//   - "manifest" → *manifest.Manifest
//   - one registration per manifest entry
type ManifestServiceProvider struct {
	container.BaseProvider
	Path string

	loaded *manifest.Manifest
}

func (p *ManifestServiceProvider) Register(app *container.Container) error {
	if p.Path == "" {
		return nil
	}
	m, err := manifest.Load(p.Path)
	if err != nil {
		return err
	}
	if err := m.Apply(app); err != nil {
		return err
	}
	p.loaded = m
	return app.RegisterInstance(m, ManifestName)
}

func (p *ManifestServiceProvider) Boot(app *container.Container) error {
	if p.loaded == nil {
		return nil
	}
	logger, err := container.Make[*slog.Logger](app, LoggerName)
	if err != nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, name := range p.loaded.Names() {
		logger.Debug("Registered manifest service", "service", name, "class", p.loaded.Services[name].String())
	}
	logger.Info("Applied service manifest", "path", p.Path, "services", len(p.loaded.Services))
	return nil
}

// Services returns the names the manifest registered, in sorted order.
func (p *ManifestServiceProvider) Services() []string {
	if p.loaded == nil {
		return nil
	}
	return p.loaded.Names()
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router with the inspection
// endpoints mounted at InspectPrefix. It is deferred: nothing is built
// until "router" is first resolved.
//
// Bound names:
//   - "router" → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return app.RegisterFactory(func(map[string]any) (any, error) {
		var opts []routing.Option
		if logger, err := container.Make[*slog.Logger](app, LoggerName); err == nil {
			opts = append(opts, routing.WithAccessLog(logger))
		}
		r := routing.New(opts...)
		r.Mount(InspectPrefix, inspect.Handler(app))
		return r, nil
	}, RouterName)
}

func (p *RoutingServiceProvider) IsDeferred() bool   { return true }
func (p *RoutingServiceProvider) Provides() []string { return []string{RouterName} }
