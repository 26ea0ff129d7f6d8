package auth

import (
	"context"
	"sync"
	"time"

	"github.com/reelshelf/backend/internal/models"
)

// IdentityLoader resolves a user id to its identity.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (models.Identity, error)
}

type identityLoaderFunc func(ctx context.Context, userID string) (models.Identity, error)

func (f identityLoaderFunc) LoadIdentity(ctx context.Context, userID string) (models.Identity, error) {
	return f(ctx, userID)
}

type cacheEntry struct {
	identity models.Identity
	expires  time.Time
}

// IdentityCache wraps an IdentityLoader with a TTL-based in-memory cache. A
// non-positive TTL disables caching.
type IdentityCache struct {
	base IdentityLoader
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewIdentityCache returns a cache that keeps lookups for the provided TTL.
func NewIdentityCache(base IdentityLoader, ttl time.Duration) *IdentityCache {
	return &IdentityCache{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Lookup returns the cached identity when still fresh, otherwise it delegates to
// the underlying loader and stores the result.
func (c *IdentityCache) Lookup(ctx context.Context, userID string) (models.Identity, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[userID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.identity, nil
	}

	identity, err := c.base.LoadIdentity(ctx, userID)
	if err != nil {
		if ok {
			c.Invalidate(userID)
		}
		return models.Identity{}, err
	}

	c.Put(identity)
	return identity, nil
}

// Put seeds the cache with a freshly loaded identity.
func (c *IdentityCache) Put(identity models.Identity) {
	if c.ttl <= 0 || identity.IsZero() {
		return
	}
	c.mu.Lock()
	c.items[identity.ID] = cacheEntry{identity: identity, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the cached identity for userID.
func (c *IdentityCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}
