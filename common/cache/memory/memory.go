package memory

import (
	"context"
	"encoding"
	"strings"
	"sync"
	"time"

	"talentinsight/common/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	items   map[string]entry
	opts    cache.Options
	closed  bool
	stop    chan struct{}
	stopped sync.WaitGroup
	now     func() time.Time
}

func New(opts cache.Options) *Cache {
	c := &Cache{
		items: make(map[string]entry),
		opts:  opts,
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	if opts.CleanupInterval > 0 {
		c.stopped.Add(1)
		go c.janitor(opts.CleanupInterval)
	}
	return c
}

func (c *Cache) janitor(interval time.Duration) {
	defer c.stopped.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = append([]byte(nil), v...)
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		data = b
	default:
		return cache.ErrInvalidValue
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.items[key] = entry{value: data, expiresAt: c.now().Add(cache.TTL(ttl, c.opts))}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return cache.ErrClosed
	}
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		return cache.ErrNotFound
	}

	switch v := value.(type) {
	case *string:
		*v = string(e.value)
	case *[]byte:
		*v = append([]byte(nil), e.value...)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(e.value)
	default:
		return cache.ErrInvalidValue
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.Prefix == "" {
		c.items = make(map[string]entry)
		return nil
	}
	for k := range c.items {
		if strings.HasPrefix(k, c.opts.Prefix+":") {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.items = nil
	c.mu.Unlock()

	close(c.stop)
	c.stopped.Wait()
	return nil
}
