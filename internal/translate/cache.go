package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Key addresses a cached batch translation. Texts are the normalised inputs.
type Key struct {
	Source string
	Target string
	Texts  []string
}

// Digest returns a stable content hash for the key.
func (k Key) Digest() string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(k.Source)
	write(k.Target)
	for _, text := range k.Texts {
		write(text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache stores batch translations. Implementations must tolerate concurrent
// use; entries are content-addressed so racing writers store identical values.
type Cache interface {
	Get(ctx context.Context, key Key) ([]string, bool)
	Put(ctx context.Context, key Key, values []string)
}

// MemoryCache is a process-wide in-memory Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]string)}
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values, ok := c.entries[key.Digest()]
	if !ok {
		return nil, false
	}
	return append([]string(nil), values...), true
}

func (c *MemoryCache) Put(_ context.Context, key Key, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.Digest()] = append([]string(nil), values...)
}

// Len reports the number of cached batches.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Layered reads through Front then Back, filling Front on a Back hit, and
// writes to both. Either side may be nil.
type Layered struct {
	Front Cache
	Back  Cache
}

func (l Layered) Get(ctx context.Context, key Key) ([]string, bool) {
	if l.Front != nil {
		if values, ok := l.Front.Get(ctx, key); ok {
			return values, true
		}
	}
	if l.Back == nil {
		return nil, false
	}
	values, ok := l.Back.Get(ctx, key)
	if ok && l.Front != nil {
		l.Front.Put(ctx, key, values)
	}
	return values, ok
}

func (l Layered) Put(ctx context.Context, key Key, values []string) {
	if l.Front != nil {
		l.Front.Put(ctx, key, values)
	}
	if l.Back != nil {
		l.Back.Put(ctx, key, values)
	}
}
