package cache

import (
	"context"
	"sync"

	"github.com/AltairaLabs/beliefbench/types"
)

// MemoryCache is an in-process, map-backed Cache implementation. It is the
// default backend for tests and single-process runs.
type MemoryCache struct {
	mu      sync.RWMutex
	samples map[string]types.Sample
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		samples: make(map[string]types.Sample),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*types.Sample, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidKey
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	sample, ok := c.samples[key]
	if !ok {
		return nil, false, nil
	}
	cp := sample
	return &cp, true, nil
}

// Put implements Cache.
func (c *MemoryCache) Put(_ context.Context, sample *types.Sample) error {
	if sample == nil || sample.CacheKey == "" {
		return ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples[sample.CacheKey] = *sample
	return nil
}

// Len reports the number of samples currently stored. Primarily for tests.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}
