package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
)

// ── Register ──────────────────────────────────────────────────────────────────

func TestRegisterClass_EmptyNameUsesClass(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterClass(loggerKey, ""))
	assert.True(t, c.IsRegistered(loggerKey))
}

func TestRegisterClass_BothEmpty(t *testing.T) {
	c := newContainer(t)
	err := c.RegisterClass("", "")
	var ierr *container.InvalidRegistrationError
	assert.ErrorAs(t, err, &ierr)
}

func TestRegisterClass_UndefinedClassFailsOnResolve(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterClass("app.Ghost", "ghost"))

	_, err := c.Resolve("ghost")
	var terr *container.UnknownTypeError
	assert.ErrorAs(t, err, &terr)
}

func TestRegisterClass_ReplacesPrevious(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterClass(loggerKey, "thing"))
	require.NoError(t, c.RegisterClass(cacheKey, "thing"))

	_, err := container.Make[*Cache](c, "thing")
	assert.NoError(t, err)
}

func TestRegisterInstance_Nil(t *testing.T) {
	c := newContainer(t)
	err := c.RegisterInstance(nil, "x")
	var ierr *container.InvalidRegistrationError
	assert.ErrorAs(t, err, &ierr)
}

func TestRegisterFactory_Invalid(t *testing.T) {
	c := newContainer(t)
	var ierr *container.InvalidRegistrationError

	err := c.RegisterFactory(func(map[string]any) (any, error) { return 1, nil }, "")
	assert.ErrorAs(t, err, &ierr)

	err = c.RegisterFactory(nil, "f")
	assert.ErrorAs(t, err, &ierr)
}

func TestRegister_ReservedNames(t *testing.T) {
	c := newContainer(t)
	self := container.TypeKey(c)
	value := func(map[string]any) (any, error) { return "x", nil }

	tests := []struct {
		name     string
		register func() error
	}{
		{"class as container", func() error { return c.RegisterClass(loggerKey, container.SelfName) }},
		{"class as spelled container", func() error { return c.RegisterClass(loggerKey, `\container\`) }},
		{"class under own type", func() error { return c.RegisterClass(loggerKey, self) }},
		{"instance as container", func() error { return c.RegisterInstance(&Logger{}, container.SelfName) }},
		{"container instance by type", func() error { return c.RegisterInstance(c, "") }},
		{"factory as container", func() error { return c.RegisterFactory(value, container.SelfName) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ierr *container.InvalidRegistrationError
			require.ErrorAs(t, tt.register(), &ierr)
			assert.Contains(t, ierr.Reason, "reserved")
		})
	}

	assert.False(t, c.IsRegistered(container.SelfName))
	assert.False(t, c.IsRegistered(self))
	assert.Same(t, c, container.MustMake[*container.Container](c, container.SelfName))
}

func TestForget(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterClass(loggerKey, "logger"))
	a := container.MustMake[*Logger](c, "logger")

	c.Forget("logger")
	assert.False(t, c.IsRegistered("logger"))

	require.NoError(t, c.RegisterClass(loggerKey, "logger"))
	b := container.MustMake[*Logger](c, "logger")
	assert.NotSame(t, a, b)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func TestParseLifecycle(t *testing.T) {
	tests := []struct {
		in      string
		want    container.Lifecycle
		wantErr bool
	}{
		{"", container.Shared, false},
		{"shared", container.Shared, false},
		{"Singleton", container.Shared, false},
		{"transient", container.Transient, false},
		{" NEW ", container.Transient, false},
		{"scoped", container.Shared, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := container.ParseLifecycle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLifecycle_String(t *testing.T) {
	assert.Equal(t, "shared", container.Shared.String())
	assert.Equal(t, "transient", container.Transient.String())
	assert.Equal(t, "unknown", container.Lifecycle(9).String())
}

// ── Bindings ──────────────────────────────────────────────────────────────────

func TestBindings(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterClass(serviceKey, "svc",
		container.AsTransient(),
		container.DependsOn("logger", "special"),
		container.WithParams(map[string]any{"name": "x", "timeout": "1s"}),
	))
	require.NoError(t, c.RegisterInstance(&Logger{}, "special"))
	require.NoError(t, c.RegisterFactory(func(map[string]any) (any, error) { return 1, nil }, "answer"))

	all := c.Bindings()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"answer", "special", "svc"}, []string{all[0].Name, all[1].Name, all[2].Name})

	assert.Equal(t, "factory", all[0].Kind)
	assert.Equal(t, "shared", all[0].Lifecycle)
	assert.False(t, all[0].Resolved)

	assert.Equal(t, "instance", all[1].Kind)
	assert.Equal(t, loggerKey, all[1].Class)
	assert.True(t, all[1].Resolved)

	svc := all[2]
	assert.Equal(t, "class", svc.Kind)
	assert.Equal(t, serviceKey, svc.Class)
	assert.Equal(t, "transient", svc.Lifecycle)
	assert.Equal(t, map[string]string{"logger": "special"}, svc.Dependencies)
	assert.Equal(t, []string{"name", "timeout"}, svc.Parameters)

	_, ok := c.Binding("nope")
	assert.False(t, ok)
}

// ── Contextual binding ────────────────────────────────────────────────────────

func TestWhen_GiveAndGiveValue(t *testing.T) {
	c := newContainer(t)
	special := &Logger{Prefix: "special"}
	require.NoError(t, c.RegisterInstance(special, "special"))
	require.NoError(t, c.RegisterClass(serviceKey, "svc", container.WithParam("logger", &Logger{})))

	require.NoError(t, c.When("svc").Needs("logger").Give("special"))
	require.NoError(t, c.When("svc").Needs("name").GiveValue("contextual"))

	svc := container.MustMake[*Service](c, "svc")
	assert.Same(t, special, svc.Logger, "Give replaces an earlier parameter value")
	assert.Equal(t, "contextual", svc.Name)
}

func TestWhen_Errors(t *testing.T) {
	c := newContainer(t)
	var ierr *container.InvalidRegistrationError

	assert.ErrorAs(t, c.When("ghost").Needs("x").GiveValue(1), &ierr)

	require.NoError(t, c.RegisterClass(loggerKey, "logger"))
	assert.ErrorAs(t, c.When("logger").Give("x"), &ierr)
}
