package db

import (
	"context"
	"sync"
)

// Factory builds an unconnected driver from a config. The default is
// New; tests substitute their own.
type Factory func(Config) (Driver, error)

// Cache pools drivers keyed by connection identity. All access is
// serialized by an internal mutex; callers never see a shared driver
// mid-reconnect.
type Cache struct {
	mu      sync.Mutex
	drivers map[string]Driver
	factory Factory
}

// NewCache creates an empty connection cache. A nil factory defaults
// to New.
func NewCache(factory Factory) *Cache {
	if factory == nil {
		factory = New
	}
	return &Cache{
		drivers: make(map[string]Driver),
		factory: factory,
	}
}

// Get returns a connected driver for the config, reusing a cached one
// only while it still reports itself connected. A stale entry is
// recreated and reconnected in place.
func (c *Cache) Get(ctx context.Context, cfg Config) (Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cfg.Key()
	if drv, ok := c.drivers[key]; ok && drv.IsConnected() {
		return drv, nil
	}

	drv, err := c.factory(cfg)
	if err != nil {
		return nil, err
	}
	if err := drv.Connect(ctx); err != nil {
		return nil, err
	}
	c.drivers[key] = drv
	return drv, nil
}

// Len reports the number of cached drivers
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drivers)
}

// CloseAll disconnects every cached driver and empties the cache.
// Individual disconnect failures do not abort the loop; the last one
// is returned. Calling CloseAll on an empty cache is a no-op.
func (c *Cache) CloseAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for key, drv := range c.drivers {
		if err := drv.Disconnect(ctx); err != nil {
			lastErr = err
		}
		delete(c.drivers, key)
	}
	return lastErr
}
