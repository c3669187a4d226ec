package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/observability"

	"github.com/allegro/bigcache/v3"
	"golang.org/x/sync/singleflight"
)

// Local is an in-process byte cache in front of Redis.
type Local struct {
	cache *bigcache.BigCache
}

// NewLocal creates a bigcache instance capped at capacityMB.
func NewLocal(capacityMB int, expiration time.Duration) (*Local, error) {
	cfg := bigcache.DefaultConfig(expiration)
	cfg.HardMaxCacheSize = capacityMB
	cfg.MaxEntrySize = 256 * 1024
	cfg.Verbose = false

	c, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create local cache: %w", err)
	}
	return &Local{cache: c}, nil
}

func (l *Local) Get(key string) ([]byte, bool) {
	data, err := l.cache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (l *Local) Set(key string, value []byte) error {
	return l.cache.Set(key, value)
}

func (l *Local) Reset() error {
	return l.cache.Reset()
}

func (l *Local) Close() error {
	return l.cache.Close()
}

// Layered serves JSON values from the local cache, then Redis, then the
// loader. Concurrent misses for the same key share one load.
type Layered struct {
	name  string
	local *Local
	ttl   time.Duration
	group singleflight.Group
}

// NewLayered builds a layered cache. local may be nil to skip the L1.
func NewLayered(name string, local *Local, ttl time.Duration) *Layered {
	return &Layered{name: name, local: local, ttl: ttl}
}

// Get fills dest for key, calling load on a full miss.
func (c *Layered) Get(ctx context.Context, key string, dest any, load func(ctx context.Context) (any, error)) error {
	if c.local != nil {
		if b, ok := c.local.Get(key); ok {
			observability.RecordCache(c.name, "local", true)
			return json.Unmarshal(b, dest)
		}
		observability.RecordCache(c.name, "local", false)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if client != nil {
			b, err := client.Get(ctx, key).Bytes()
			if err == nil {
				observability.RecordCache(c.name, "redis", true)
				c.setLocal(key, b)
				return b, nil
			}
			observability.RecordCache(c.name, "redis", false)
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if client != nil {
			_ = client.Set(ctx, key, b, c.ttl).Err()
		}
		c.setLocal(key, b)
		return b, nil
	})
	if err != nil {
		return err
	}
	b, ok := v.([]byte)
	if !ok {
		return errors.New("layered cache: unexpected value type")
	}
	return json.Unmarshal(b, dest)
}

func (c *Layered) setLocal(key string, b []byte) {
	if c.local != nil {
		_ = c.local.Set(key, b)
	}
}

// Invalidate drops every Redis key matching pattern and clears the L1.
func (c *Layered) Invalidate(ctx context.Context, pattern string) error {
	if c.local != nil {
		_ = c.local.Reset()
	}
	return InvalidatePattern(ctx, pattern)
}
