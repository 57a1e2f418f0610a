// Package cache provides the key-value stores the container persists its
// dependency cache in.
//
//	store := cache.NewMemory()                       // per process
//	store, err := cache.NewFile("storage/cache.json") // survives restarts
//	store, err := cache.Open(cfg.Container.CacheDriver, cfg.Container.CachePath)
package cache

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// Store is a minimal key-value cache.
type Store interface {
	Exists(key string) bool
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Open returns the store for driver: "memory", "file" (persisted at path)
// or "none"/"" for no store at all.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "none":
		return nil, nil
	case "memory", "array":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	default:
		return nil, errors.Errorf("cache: unknown driver %q", driver)
	}
}

// ── Memory ────────────────────────────────────────────────────────────────────

// Memory keeps values in a map for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[key]
	return ok
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string][]byte)
	return nil
}

// ── File ──────────────────────────────────────────────────────────────────────

// File keeps values in memory and rewrites a single JSON document on every
// change. The document is read once, when the store is opened.
type File struct {
	mu    sync.RWMutex
	path  string
	items map[string][]byte
}

// NewFile opens the store at path, creating the file (and its directory)
// when it does not exist yet.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("cache: file store needs a path")
	}
	f := &File{path: path, items: make(map[string][]byte)}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &f.items); err != nil {
				return nil, errors.Wrapf(err, "cache: decoding %s", path)
			}
		}
	case os.IsNotExist(err):
		if err := f.flush(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(err, "cache: reading %s", path)
	}
	return f, nil
}

// Path returns the location of the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Exists(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.items[key]
	return ok
}

func (f *File) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.items[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (f *File) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	return f.flush()
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return f.flush()
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string][]byte)
	return f.flush()
}

// flush writes the document through a temporary file so readers never see
// a partial write. Callers hold the lock (or own f exclusively).
func (f *File) flush() error {
	raw, err := json.Marshal(maps.Clone(f.items))
	if err != nil {
		return errors.Wrap(err, "cache: encoding")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cache: creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return errors.Wrap(err, "cache: creating temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache: writing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache: closing temp file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), f.path), "cache: replacing %s", f.path)
}
