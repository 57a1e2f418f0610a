package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/cache"
)

func stores(t *testing.T) map[string]cache.Store {
	t.Helper()
	f, err := cache.NewFile(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	return map[string]cache.Store{
		"memory": cache.NewMemory(),
		"file":   f,
	}
}

func TestStore_SetGetExists(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.False(t, s.Exists("k"))

			_, err := s.Get("k")
			assert.ErrorIs(t, err, cache.ErrMiss)

			require.NoError(t, s.Set("k", []byte("v")))
			assert.True(t, s.Exists("k"))

			got, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), got)
		})
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("a", []byte("1")))
			require.NoError(t, s.Set("b", []byte("2")))

			require.NoError(t, s.Delete("a"))
			assert.False(t, s.Exists("a"))
			assert.True(t, s.Exists("b"))

			require.NoError(t, s.Clear())
			assert.False(t, s.Exists("b"))
		})
	}
}

func TestFile_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	f, err := cache.NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set("container.dependencies", []byte(`{"x":1}`)))

	reopened, err := cache.NewFile(path)
	require.NoError(t, err)
	got, err := reopened.Get("container.dependencies")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(got))
	assert.Equal(t, path, reopened.Path())
}

func TestFile_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	_, err := cache.NewFile(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := cache.NewFile(path)
	assert.Error(t, err)
}

func TestFile_EmptyPath(t *testing.T) {
	_, err := cache.NewFile("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := cache.Open("none", "")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = cache.Open("", "")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = cache.Open("Memory", "")
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, s)

	s, err = cache.Open("file", filepath.Join(t.TempDir(), "c.json"))
	require.NoError(t, err)
	assert.IsType(t, &cache.File{}, s)

	_, err = cache.Open("redis", "")
	assert.Error(t, err)
}
