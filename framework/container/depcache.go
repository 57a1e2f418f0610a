package container

import (
	"encoding/json"
	"maps"
	"sync"

	"github.com/pkg/errors"

	"github.com/km-arc/go-autowire/framework/cache"
)

// DefaultCacheKey is the store key the dependency map is persisted under.
const DefaultCacheKey = "container.dependencies"

// dependencyCache memoizes discovered entries per class identifier.
type dependencyCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func newDependencyCache() *dependencyCache {
	return &dependencyCache{entries: make(map[string]Entry)}
}

func (d *dependencyCache) get(class string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[class]
	return e, ok
}

func (d *dependencyCache) put(class string, e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[class] = e
}

func (d *dependencyCache) snapshot() map[string]Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.entries)
}

// load merges the map persisted under key into the cache. A missing key is
// not an error.
func (d *dependencyCache) load(store cache.Store, key string) error {
	if !store.Exists(key) {
		return nil
	}
	raw, err := store.Get(key)
	if err != nil {
		return errors.Wrapf(err, "reading %q", key)
	}
	var loaded map[string]Entry
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return errors.Wrapf(err, "decoding %q", key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for class, e := range loaded {
		d.entries[normalize(class)] = e
	}
	return nil
}

// persist writes the cache under key unless the store already holds it.
// It reports whether anything was written.
func (d *dependencyCache) persist(store cache.Store, key string) (bool, error) {
	if store.Exists(key) {
		return false, nil
	}
	raw, err := json.Marshal(d.snapshot())
	if err != nil {
		return false, errors.Wrap(err, "encoding dependency cache")
	}
	if err := store.Set(key, raw); err != nil {
		return false, errors.Wrapf(err, "writing %q", key)
	}
	return true, nil
}
