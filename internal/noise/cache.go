package noise

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of characterisations kept in memory.
const DefaultCacheSize = 64

// Cache memoises characterisations by noise-model and gate-set fingerprint.
// Characterisations are immutable, so a cached value may be shared by any
// number of backends.
//
// Thread-safety: Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, *Characterization]
}

// NewCache creates a cache holding at most size characterisations.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Characterization](size)
	if err != nil {
		return nil, fmt.Errorf("create characterisation cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Characterize returns the cached characterisation of model under gateSet,
// computing and storing it on a miss. Failed characterisations are not
// cached.
func (c *Cache) Characterize(model *NoiseModel, gateSet GateSet) (*Characterization, error) {
	key, err := cacheKey(model, gateSet)
	if err != nil {
		return nil, err
	}
	if ch, ok := c.entries.Get(key); ok {
		return ch, nil
	}
	ch, err := model.Characterize(gateSet)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, ch)
	return ch, nil
}

// Len returns the number of cached characterisations.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(model *NoiseModel, gateSet GateSet) (string, error) {
	mf, err := model.Fingerprint()
	if err != nil {
		return "", err
	}
	gf, err := gateSetFingerprint(gateSet)
	if err != nil {
		return "", err
	}
	return mf + ":" + gf, nil
}
