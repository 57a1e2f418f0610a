package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/deep-rent/nexus/testutil/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/app"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/providers"
)

type Greeter struct{ Greeting string }

func NewGreeter(greeting string) *Greeter { return &Greeter{Greeting: greeting} }

func catalog() *container.Catalog {
	cat := container.NewCatalog()
	cat.MustDefine(container.Class{
		Constructor: NewGreeter,
		Params:      []container.Param{{Name: "greeting", Optional: true, Default: "hello"}},
	})
	return cat
}

func testConfig(t *testing.T, port int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "services.yaml")
	doc := "services:\n  greeter:\n    class: " + container.TypeKey(&Greeter{}) + "\n" +
		"  broken:\n    class: app.Missing\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	return &config.Config{
		App: config.AppConfig{Name: "test", Env: "testing", Port: strconv.Itoa(port)},
		Container: config.ContainerConfig{
			CacheDriver: "file",
			CachePath:   filepath.Join(dir, "cache.json"),
			CacheKey:    "container.dependencies",
			Manifest:    path,
		},
	}
}

func TestNew_RegistersFrameworkProviders(t *testing.T) {
	a, err := app.New(app.WithConfig(testConfig(t, 0)), app.WithCatalog(catalog()))
	require.NoError(t, err)
	require.NoError(t, a.Boot())

	for _, name := range []string{providers.ConfigName, providers.LoggerName, providers.CacheName, providers.ManifestName, providers.RouterName, "greeter"} {
		assert.True(t, a.IsRegistered(name), name)
	}
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.Equal(t, app.Version, a.Version())

	g, err := container.Make[*Greeter](a.Container, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greeting)
}

func TestNew_UnknownCacheDriver(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.Container.CacheDriver = "redis"
	_, err := app.New(app.WithConfig(cfg))
	assert.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.App.Port = "eighty"
	_, err := app.New(app.WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "APP_PORT")
}

func TestWarm(t *testing.T) {
	a, err := app.New(app.WithConfig(testConfig(t, 0)), app.WithCatalog(catalog()))
	require.NoError(t, err)

	err = a.Warm()
	require.Error(t, err, "the broken service cannot be built")
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, a.Dependencies(), container.TypeKey(&Greeter{}))
}

func TestRun_ServesAndPersists(t *testing.T) {
	port := ports.FreeT(t)
	cfg := testConfig(t, port)
	a, err := app.New(app.WithConfig(cfg), app.WithCatalog(catalog()))
	require.NoError(t, err)
	_, err = a.Resolve("greeter")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	ports.WaitT(t, "127.0.0.1", port)

	res, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s/bindings/greeter", port, providers.InspectPrefix))
	require.NoError(t, err)
	defer func() {
		_ = res.Body.Close()
	}()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data container.Binding `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Data.Resolved)

	cancel()
	require.NoError(t, <-done)

	raw, err := os.ReadFile(cfg.Container.CachePath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "container.dependencies")
}
