package export

import (
	"bytes"
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TemplateCache memoizes template bytes read from another source.
type TemplateCache struct {
	Source TemplateSource

	mu      sync.RWMutex
	entries map[string][]byte
	group   singleflight.Group
}

// NewTemplateCache wraps source with an in-memory cache.
func NewTemplateCache(source TemplateSource) *TemplateCache {
	return &TemplateCache{Source: source, entries: make(map[string][]byte)}
}

// Open returns the cached template, loading it on first use. Concurrent loads of the
// same name share a single read.
func (c *TemplateCache) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if c == nil || c.Source == nil {
		return nil, NewError(KindTemplateUnavailable, "template source is nil", nil)
	}
	key, err := CleanTemplateName(name)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		rc, err := c.Source.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, NewError(KindTemplateUnavailable, "read template "+name, err)
		}
		c.mu.Lock()
		if c.entries == nil {
			c.entries = make(map[string][]byte)
		}
		c.entries[key] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(value.([]byte))), nil
}

// Evict drops a single template from the cache.
func (c *TemplateCache) Evict(name string) {
	if c == nil {
		return
	}
	key, err := CleanTemplateName(name)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every cached template.
func (c *TemplateCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()
}

// Len returns the number of cached templates.
func (c *TemplateCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
